package service

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/rs/zerolog"

	"github.com/basel-ax/txt2img/internal/domain"
	"github.com/basel-ax/txt2img/internal/repository"
)

const dataURLPrefix = "data:image/png;base64,"

// ImageGenerationService runs prompt -> inference -> persistence -> data URL
type ImageGenerationService struct {
	generator domain.ImageGenerator
	store     domain.ImageStore
	history   repository.ImageRepository
}

// NewImageGenerationService creates a new image generation service.
// history may be nil, in which case generations are not recorded.
func NewImageGenerationService(generator domain.ImageGenerator, store domain.ImageStore, history repository.ImageRepository) *ImageGenerationService {
	return &ImageGenerationService{
		generator: generator,
		store:     store,
		history:   history,
	}
}

// Generate produces an image for prompt and persists it before returning.
// Errors from the generator and the store are returned unchanged.
func (s *ImageGenerationService) Generate(ctx context.Context, prompt string) (*domain.GenerationResult, error) {
	logger := zerolog.Ctx(ctx)

	if strings.TrimSpace(prompt) == "" {
		return nil, &domain.ValidationError{Field: "prompt", Err: domain.ErrEmptyPrompt}
	}

	data, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		logger.Error().Err(err).Msg("error generating image")
		return nil, err
	}

	filePath, err := s.store.Save(ctx, data, prompt)
	if err != nil {
		logger.Error().Err(err).Msg("error saving image")
		return nil, err
	}

	s.record(ctx, prompt, filePath, len(data))

	return &domain.GenerationResult{
		FilePath: filePath,
		DataURL:  dataURLPrefix + base64.StdEncoding.EncodeToString(data),
	}, nil
}

// HistoryEnabled reports whether generations are being recorded
func (s *ImageGenerationService) HistoryEnabled() bool {
	return s.history != nil
}

// ListHistory returns the most recent generations
func (s *ImageGenerationService) ListHistory(ctx context.Context, limit int) ([]domain.ImageRecord, error) {
	if s.history == nil {
		return nil, domain.ErrHistoryDisabled
	}
	return s.history.ListRecent(ctx, limit)
}

// record stores a history entry. The image is already on disk, so a failure
// here is logged and does not fail the generation.
func (s *ImageGenerationService) record(ctx context.Context, prompt, filePath string, size int) {
	if s.history == nil {
		return
	}

	img := &domain.ImageRecord{
		Prompt:    prompt,
		FilePath:  filePath,
		SizeBytes: int64(size),
		Status:    domain.ImageStatusStored,
	}
	if err := s.history.Create(ctx, img); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", filePath).Msg("failed to record generation history")
	}
}
