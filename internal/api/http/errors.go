package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/basel-ax/txt2img/internal/domain"
)

type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// classify maps an error to its HTTP status and error type
func classify(err error) (int, string) {
	var (
		valErr     *domain.ValidationError
		cfgErr     *domain.ConfigurationError
		upErr      *domain.UpstreamError
		persistErr *domain.PersistenceError
	)

	switch {
	case errors.As(err, &valErr):
		return http.StatusBadRequest, "validation_error"
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError, "configuration_error"
	case errors.As(err, &upErr):
		return http.StatusBadGateway, "upstream_error"
	case errors.As(err, &persistErr):
		return http.StatusInternalServerError, "persistence_error"
	case errors.Is(err, domain.ErrHistoryDisabled):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeError(c *gin.Context, err error) {
	status, kind := classify(err)
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{Type: kind, Message: err.Error()},
	})
}
