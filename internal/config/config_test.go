package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basel-ax/txt2img/internal/infrastructure/huggingface"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"HUGGING_FACE_API_KEY", "HUGGING_FACE_MODEL_URL", "HUGGING_FACE_TIMEOUT",
		"PORT", "CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "APP_VERSION", "IMAGES_DIR", "AUDIT_SCHEDULE",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE",
		"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.HuggingFace.APIKey, "missing key must not fail startup")
	assert.Equal(t, huggingface.DefaultModelURL, cfg.HuggingFace.ModelURL)
	assert.Zero(t, cfg.HuggingFace.Timeout)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "images", cfg.ImagesDir)
	assert.Equal(t, defaultAuditSchedule, cfg.AuditSchedule)
	assert.False(t, cfg.DB.Enabled())
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, 5*time.Minute, cfg.DB.ConnMaxLifetime)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("HUGGING_FACE_API_KEY", "hf_test")
	t.Setenv("HUGGING_FACE_TIMEOUT", "45")
	t.Setenv("PORT", "8081")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://example.com,")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "txt2img")
	t.Setenv("DB_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "hf_test", cfg.HuggingFace.APIKey)
	assert.Equal(t, 45*time.Second, cfg.HuggingFace.Timeout)
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173", "https://example.com"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.DB.Enabled())
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=txt2img sslmode=disable", cfg.GetDSN())
}

func TestLoad_IncompleteDatabase(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "db")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER is required")
}
