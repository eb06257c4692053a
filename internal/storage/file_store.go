package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/basel-ax/txt2img/internal/domain"
)

const (
	maxSanitizedLength = 50
	suffixLength       = 8
)

// FileStore writes generated images as PNG files under a single directory
type FileStore struct {
	dir    string
	now    func() time.Time
	suffix func() string
}

// NewFileStore creates a file store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:    dir,
		now:    time.Now,
		suffix: randomSuffix,
	}
}

// Dir returns the directory images are written to
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes data to a new file and returns its path relative to the working directory
func (s *FileStore) Save(ctx context.Context, data []byte, prompt string) (string, error) {
	logger := zerolog.Ctx(ctx)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		logger.Error().Err(err).Str("dir", s.dir).Msg("failed to create images directory")
		return "", &domain.PersistenceError{Op: "create directory", Err: err}
	}

	path := filepath.Join(s.dir, FileName(s.now(), prompt, s.suffix()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("failed to write image")
		return "", &domain.PersistenceError{Op: "write file", Err: err}
	}

	rel, err := relativeToWorkingDir(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("could not relativize image path")
		rel = path
	}

	logger.Info().Str("path", rel).Int("bytes", len(data)).Msg("image saved")
	return rel, nil
}

// Exists reports whether a previously saved path is still on disk
func (s *FileStore) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// FileName builds image_<unixMillis>_<sanitized prompt>[_<suffix>].png
func FileName(ts time.Time, prompt, suffix string) string {
	name := fmt.Sprintf("image_%d_%s", ts.UnixMilli(), SanitizePrompt(prompt))
	if suffix != "" {
		name += "_" + suffix
	}
	return name + ".png"
}

// SanitizePrompt replaces every character outside [A-Za-z0-9] with an
// underscore and keeps the first 50 characters. Characters outside the BMP
// count as two, one per UTF-16 code unit, so emoji yield "__".
func SanitizePrompt(prompt string) string {
	var b strings.Builder
	for _, r := range prompt {
		if b.Len() >= maxSanitizedLength {
			break
		}
		if isSafe(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteString(strings.Repeat("_", max(utf16.RuneLen(r), 1)))
	}

	// only ASCII is written, so byte slicing is rune-safe
	sanitized := b.String()
	if len(sanitized) > maxSanitizedLength {
		sanitized = sanitized[:maxSanitizedLength]
	}
	return sanitized
}

func isSafe(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLength]
}

func relativeToWorkingDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Rel(cwd, abs)
}
