package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/basel-ax/txt2img/internal/domain"
	"github.com/basel-ax/txt2img/internal/repository"
)

const auditBatchSize = 100

// FileChecker reports whether a stored image path still exists
type FileChecker interface {
	Exists(path string) (bool, error)
}

// HistoryAuditor marks history records whose image file has disappeared.
// It never deletes files or rows.
type HistoryAuditor struct {
	repo  repository.ImageRepository
	files FileChecker
	batch int
}

// NewHistoryAuditor creates a new auditor
func NewHistoryAuditor(repo repository.ImageRepository, files FileChecker) *HistoryAuditor {
	return &HistoryAuditor{
		repo:  repo,
		files: files,
		batch: auditBatchSize,
	}
}

// Run checks every stored record once and returns how many were marked missing
func (a *HistoryAuditor) Run(ctx context.Context) (int, error) {
	logger := zerolog.Ctx(ctx)

	var afterID int64
	marked := 0
	for {
		images, err := a.repo.ListByStatusAfter(ctx, domain.ImageStatusStored, afterID, a.batch)
		if err != nil {
			return marked, fmt.Errorf("failed to list stored images: %w", err)
		}

		for _, img := range images {
			afterID = img.ID

			ok, err := a.files.Exists(img.FilePath)
			if err != nil {
				logger.Warn().Err(err).Int64("image_id", img.ID).Msg("could not stat image file")
				continue
			}
			if ok {
				continue
			}

			if err := a.repo.UpdateStatus(ctx, img.ID, domain.ImageStatusMissing); err != nil {
				return marked, fmt.Errorf("failed to update status for image ID %d: %w", img.ID, err)
			}
			logger.Info().Int64("image_id", img.ID).Str("path", img.FilePath).Msg("image file missing")
			marked++
		}

		if len(images) < a.batch {
			return marked, nil
		}
	}
}
