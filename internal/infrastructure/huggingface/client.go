package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/basel-ax/txt2img/internal/domain"
)

const (
	DefaultModelURL = "https://api-inference.huggingface.co/models/stabilityai/stable-diffusion-xl-base-1.0"
)

// Config holds the settings the client is built from
type Config struct {
	APIKey   string
	ModelURL string
	// Timeout of zero leaves the transport defaults in place
	Timeout time.Duration
}

// Client represents the Hugging Face Inference API client
type Client struct {
	httpClient *http.Client
	apiKey     string
	modelURL   string
}

type inferenceRequest struct {
	Inputs  string           `json:"inputs"`
	Options inferenceOptions `json:"options"`
}

type inferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// NewClient creates a new Hugging Face API client
func NewClient(cfg Config) *Client {
	modelURL := cfg.ModelURL
	if modelURL == "" {
		modelURL = DefaultModelURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey:   cfg.APIKey,
		modelURL: modelURL,
	}
}

// Generate sends the prompt to the model and returns the raw image bytes.
// The bytes are passed through as received.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	if c.apiKey == "" {
		logger.Error().Msg("hugging face API key is not configured")
		return nil, &domain.ConfigurationError{Err: domain.ErrMissingCredential}
	}

	payload, err := json.Marshal(inferenceRequest{
		Inputs:  prompt,
		Options: inferenceOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "image/png")

	logger.Debug().Str("model_url", c.modelURL).Msg("requesting image from inference API")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Error().Err(err).Msg("inference request failed")
		return nil, &domain.UpstreamError{Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		logger.Error().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("inference API returned an error")
		return nil, &domain.UpstreamError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Body:       string(body),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error().Err(err).Msg("failed to read inference response")
		return nil, &domain.UpstreamError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	logger.Debug().Int("bytes", len(data)).Msg("received image from inference API")
	return data, nil
}

// statusText returns the reason phrase without the numeric code
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}
