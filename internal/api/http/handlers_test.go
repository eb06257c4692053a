package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basel-ax/txt2img/internal/domain"
)

type fakeImageService struct {
	result     *domain.GenerationResult
	err        error
	history    []domain.ImageRecord
	historyErr error

	gotPrompt string
	gotLimit  int
}

func (s *fakeImageService) Generate(ctx context.Context, prompt string) (*domain.GenerationResult, error) {
	s.gotPrompt = prompt
	return s.result, s.err
}

func (s *fakeImageService) ListHistory(ctx context.Context, limit int) ([]domain.ImageRecord, error) {
	s.gotLimit = limit
	return s.history, s.historyErr
}

func newTestRouter(svc ImageService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{AllowedOrigins: []string{"*"}}, NewImageHandler(svc), NewHealthHandler("txt2img", "1.0.0", nil))
}

func doRequest(t *testing.T, router http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req, err := http.NewRequest(method, path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHello(t *testing.T) {
	router := newTestRouter(&fakeImageService{err: errors.New("unused")})

	rr := doRequest(t, router, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"message":"hello world"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}

func TestGenerate_Success(t *testing.T) {
	svc := &fakeImageService{result: &domain.GenerationResult{
		FilePath: "images/image_1_red_fox_abcdef01.png",
		DataURL:  "data:image/png;base64,iVBORw==",
	}}
	router := newTestRouter(svc)

	rr := doRequest(t, router, http.MethodPost, "/api/image-generator", []byte(`{"prompt":"  red fox  "}`))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "  red fox  ", svc.gotPrompt, "prompt must be forwarded verbatim")
	assert.JSONEq(t,
		`{"result":{"filePath":"images/image_1_red_fox_abcdef01.png","dataUrl":"data:image/png;base64,iVBORw=="}}`,
		rr.Body.String())
}

func TestGenerate_MalformedBody(t *testing.T) {
	svc := &fakeImageService{}
	router := newTestRouter(svc)

	rr := doRequest(t, router, http.MethodPost, "/api/image-generator", []byte(`{"prompt":`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error.Type)
	assert.Empty(t, svc.gotPrompt)
}

func TestGenerate_ErrorTranslation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantType string
	}{
		{"validation", &domain.ValidationError{Field: "prompt", Err: domain.ErrEmptyPrompt}, http.StatusBadRequest, "validation_error"},
		{"configuration", &domain.ConfigurationError{Err: domain.ErrMissingCredential}, http.StatusInternalServerError, "configuration_error"},
		{"upstream", &domain.UpstreamError{StatusCode: 503, Status: "Service Unavailable", Body: "model loading"}, http.StatusBadGateway, "upstream_error"},
		{"upstream unreachable", &domain.UpstreamError{Err: errors.New("dial tcp 127.0.0.1:1: connect: connection refused")}, http.StatusBadGateway, "upstream_error"},
		{"persistence", &domain.PersistenceError{Op: "write file", Err: os.ErrPermission}, http.StatusInternalServerError, "persistence_error"},
		{"wrapped upstream", fmt.Errorf("generate: %w", &domain.UpstreamError{StatusCode: 500, Status: "Internal Server Error"}), http.StatusBadGateway, "upstream_error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeImageService{err: tt.err})

			rr := doRequest(t, router, http.MethodPost, "/api/image-generator", []byte(`{"prompt":"red fox"}`))

			assert.Equal(t, tt.wantCode, rr.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantType, resp.Error.Type)
			assert.Equal(t, tt.err.Error(), resp.Error.Message)
		})
	}
}

func TestHistory(t *testing.T) {
	created := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	t.Run("lists records", func(t *testing.T) {
		svc := &fakeImageService{history: []domain.ImageRecord{
			{ID: 2, Prompt: "red fox", FilePath: "images/a.png", SizeBytes: 10, Status: domain.ImageStatusStored, CreatedAt: created},
		}}
		router := newTestRouter(svc)

		rr := doRequest(t, router, http.MethodGet, "/api/images?limit=5", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 5, svc.gotLimit)
		var resp HistoryResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Images, 1)
		assert.Equal(t, int64(2), resp.Images[0].ID)
		assert.Equal(t, "images/a.png", resp.Images[0].FilePath)
		assert.True(t, created.Equal(resp.Images[0].CreatedAt))
	})

	t.Run("default limit", func(t *testing.T) {
		svc := &fakeImageService{}
		router := newTestRouter(svc)

		rr := doRequest(t, router, http.MethodGet, "/api/images", nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, defaultHistoryLimit, svc.gotLimit)
	})

	t.Run("invalid limit", func(t *testing.T) {
		router := newTestRouter(&fakeImageService{})

		for _, q := range []string{"0", "-1", "abc", "101"} {
			rr := doRequest(t, router, http.MethodGet, "/api/images?limit="+q, nil)
			assert.Equal(t, http.StatusBadRequest, rr.Code, q)
		}
	})

	t.Run("history disabled", func(t *testing.T) {
		router := newTestRouter(&fakeImageService{historyErr: domain.ErrHistoryDisabled})

		rr := doRequest(t, router, http.MethodGet, "/api/images", nil)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestRequestIDMiddleware_EchoesHeader(t *testing.T) {
	router := newTestRouter(&fakeImageService{})

	req, err := http.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "req-123")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, "req-123", rr.Header().Get("X-Request-Id"))
}
