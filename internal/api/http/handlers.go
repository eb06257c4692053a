package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/basel-ax/txt2img/internal/domain"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

var errInvalidLimit = errors.New("limit must be an integer between 1 and 100")

// ImageService is the orchestration the handlers depend on
type ImageService interface {
	Generate(ctx context.Context, prompt string) (*domain.GenerationResult, error)
	ListHistory(ctx context.Context, limit int) ([]domain.ImageRecord, error)
}

type GenerateResponse struct {
	Result domain.GenerationResult `json:"result"`
}

type ImageRecordResponse struct {
	ID        int64     `json:"id"`
	Prompt    string    `json:"prompt"`
	FilePath  string    `json:"filePath"`
	SizeBytes int64     `json:"sizeBytes"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type HistoryResponse struct {
	Images []ImageRecordResponse `json:"images"`
}

type ImageHandler struct {
	service ImageService
}

func NewImageHandler(service ImageService) *ImageHandler {
	return &ImageHandler{service: service}
}

func (h *ImageHandler) Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "hello world"})
}

// Generate handles POST /api/image-generator. The prompt is passed on verbatim.
func (h *ImageHandler) Generate(c *gin.Context) {
	var req domain.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &domain.ValidationError{Field: "request body", Err: err})
		return
	}

	result, err := h.service.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("image generation failed")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{Result: *result})
}

// History handles GET /api/images?limit=N
func (h *ImageHandler) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			writeError(c, &domain.ValidationError{Field: "limit", Err: errInvalidLimit})
			return
		}
		limit = n
	}

	images, err := h.service.ListHistory(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, HistoryResponse{
		Images: lo.Map(images, func(img domain.ImageRecord, _ int) ImageRecordResponse {
			return ImageRecordResponse{
				ID:        img.ID,
				Prompt:    img.Prompt,
				FilePath:  img.FilePath,
				SizeBytes: img.SizeBytes,
				Status:    img.Status,
				CreatedAt: img.CreatedAt,
			}
		}),
	})
}

func (h *ImageHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.Hello)
	r.POST("/api/image-generator", h.Generate)
	r.GET("/api/images", h.History)
}
