package domain

import (
	"context"
)

// GenerationRequest represents the body of an image generation call
type GenerationRequest struct {
	Prompt string `json:"prompt"`
}

// GenerationResult is returned once the generated image has been persisted
type GenerationResult struct {
	FilePath string `json:"filePath"`
	DataURL  string `json:"dataUrl"`
}

// ImageGenerator defines the interface for text-to-image inference providers
type ImageGenerator interface {
	// Generate sends the prompt to the provider and returns the raw image bytes
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// ImageStore defines the interface for persisting generated images
type ImageStore interface {
	// Save writes the image and returns its path relative to the working directory
	Save(ctx context.Context, data []byte, prompt string) (string, error)
}
