package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/basel-ax/txt2img/internal/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS images (
		id         BIGSERIAL PRIMARY KEY,
		prompt     TEXT NOT NULL,
		file_path  TEXT NOT NULL,
		size_bytes BIGINT NOT NULL,
		status     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)
`

// ImageRepository defines the interface for generation history access
type ImageRepository interface {
	Create(ctx context.Context, img *domain.ImageRecord) error
	ListRecent(ctx context.Context, limit int) ([]domain.ImageRecord, error)
	ListByStatusAfter(ctx context.Context, status string, afterID int64, limit int) ([]domain.ImageRecord, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// PostgresImageRepository implements ImageRepository for PostgreSQL
type PostgresImageRepository struct {
	db *sql.DB
}

// NewPostgresImageRepository creates a new PostgreSQL image repository
func NewPostgresImageRepository(db *sql.DB) *PostgresImageRepository {
	return &PostgresImageRepository{db: db}
}

// EnsureSchema creates the images table if it does not exist
func (r *PostgresImageRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Create inserts a history record and fills in its ID and timestamps
func (r *PostgresImageRepository) Create(ctx context.Context, img *domain.ImageRecord) error {
	query := `
		INSERT INTO images (prompt, file_path, size_bytes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id
	`

	now := time.Now().UTC()
	if err := r.db.QueryRowContext(ctx, query,
		img.Prompt,
		img.FilePath,
		img.SizeBytes,
		img.Status,
		now,
	).Scan(&img.ID); err != nil {
		return err
	}

	img.CreatedAt = now
	img.UpdatedAt = now
	return nil
}

// ListRecent returns the newest records first
func (r *PostgresImageRepository) ListRecent(ctx context.Context, limit int) ([]domain.ImageRecord, error) {
	query := `
		SELECT id, prompt, file_path, size_bytes, status, created_at, updated_at
		FROM images
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return scanImages(rows)
}

// ListByStatusAfter pages through records with the given status in ID order
func (r *PostgresImageRepository) ListByStatusAfter(ctx context.Context, status string, afterID int64, limit int) ([]domain.ImageRecord, error) {
	query := `
		SELECT id, prompt, file_path, size_bytes, status, created_at, updated_at
		FROM images
		WHERE status = $1
		AND id > $2
		ORDER BY id ASC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, status, afterID, limit)
	if err != nil {
		return nil, err
	}
	return scanImages(rows)
}

// UpdateStatus updates the status of an image
func (r *PostgresImageRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `
		UPDATE images
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	return err
}

func scanImages(rows *sql.Rows) ([]domain.ImageRecord, error) {
	defer rows.Close()

	var images []domain.ImageRecord
	for rows.Next() {
		var img domain.ImageRecord
		if err := rows.Scan(
			&img.ID,
			&img.Prompt,
			&img.FilePath,
			&img.SizeBytes,
			&img.Status,
			&img.CreatedAt,
			&img.UpdatedAt,
		); err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	return images, rows.Err()
}
