package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/basel-ax/txt2img/internal/infrastructure/huggingface"
)

const defaultAuditSchedule = "0 */10 * * * *"

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Enabled reports whether generation history should be kept in Postgres
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

// HuggingFaceConfig holds the inference API settings
type HuggingFaceConfig struct {
	APIKey   string
	ModelURL string
	Timeout  time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// AppConfig holds process-wide settings
type AppConfig struct {
	LogLevel string
	Version  string
}

// Config holds all configuration for the application
type Config struct {
	HuggingFace   HuggingFaceConfig
	Server        ServerConfig
	App           AppConfig
	ImagesDir     string
	AuditSchedule string
	DB            DBConfig
}

// Load loads the configuration from environment variables.
// A missing API key is not an error here; generation fails per request instead.
func Load() (*Config, error) {
	// .env is optional, the process environment wins
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	config := &Config{
		HuggingFace: HuggingFaceConfig{
			APIKey:   os.Getenv("HUGGING_FACE_API_KEY"),
			ModelURL: getEnv("HUGGING_FACE_MODEL_URL", huggingface.DefaultModelURL),
			Timeout:  time.Duration(getEnvAsInt("HUGGING_FACE_TIMEOUT", 0)) * time.Second,
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "3000"),
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		App: AppConfig{
			LogLevel: getEnv("LOG_LEVEL", "info"),
			Version:  getEnv("APP_VERSION", "1.0.0"),
		},
		ImagesDir:     getEnv("IMAGES_DIR", "images"),
		AuditSchedule: getEnv("AUDIT_SCHEDULE", defaultAuditSchedule),
		DB: DBConfig{
			Host:            os.Getenv("DB_HOST"),
			Port:            getEnvAsInt("DB_PORT", 5432), // default PostgreSQL port
			User:            os.Getenv("DB_USER"),
			Password:        os.Getenv("DB_PASSWORD"),
			Database:        os.Getenv("DB_NAME"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: time.Duration(getEnvAsInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural settings. Database fields are only required
// once DB_HOST turns history on.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.ImagesDir == "" {
		return fmt.Errorf("IMAGES_DIR is required")
	}
	if c.HuggingFace.ModelURL == "" {
		return fmt.Errorf("HUGGING_FACE_MODEL_URL is required")
	}

	if !c.DB.Enabled() {
		return nil
	}
	if c.DB.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.DB.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.DB.Database == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Int("default", defaultValue).Msg("invalid integer, using default")
		return defaultValue
	}

	return value
}

func splitList(value string) []string {
	parts := lo.Map(strings.Split(value, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Filter(parts, func(s string, _ int) bool {
		return s != ""
	})
}
