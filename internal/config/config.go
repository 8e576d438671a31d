package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	AppName    = "Resume Review Agent"
	AppVersion = "1.0.0"
)

// Backends soportados para el store de sesiones.
const (
	SessionBackendMemory   = "memory"
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort       string   `env:"HTTP_PORT" envDefault:"8001"`
	Debug          bool     `env:"DEBUG" envDefault:"false"`
	LogFile        string   `env:"LOG_FILE"`
	CORSOrigins    []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	MaxUploadBytes int64    `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	APIJWTSecret   string   `env:"API_JWT_SECRET"`
	RateLimitRPM   int      `env:"RATE_LIMIT_PER_MINUTE" envDefault:"0"`

	AnthropicAPIKey  string        `env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string        `env:"ANTHROPIC_BASE_URL" envDefault:"https://api.anthropic.com"`
	LLMModel         string        `env:"LLM_MODEL" envDefault:"claude-sonnet-4-20250514"`
	MaxTokens        int           `env:"MAX_TOKENS" envDefault:"4096"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"0s"`

	// Integracion con Google Sheets: se carga pero ningun flujo la usa todavia.
	GoogleSheetsCredentials string `env:"GOOGLE_SHEETS_CREDENTIALS"`
	GoogleSheetID           string `env:"GOOGLE_SHEET_ID"`

	SessionBackend string        `env:"SESSION_BACKEND" envDefault:"memory"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"0s"`
	SessionMax     int           `env:"SESSION_MAX" envDefault:"0"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	DatabaseURL string `env:"DATABASE_URL"`

	ArchiveEndpoint  string `env:"ARCHIVE_ENDPOINT"`
	ArchiveAccessKey string `env:"ARCHIVE_ACCESS_KEY"`
	ArchiveSecretKey string `env:"ARCHIVE_SECRET_KEY"`
	ArchiveBucket    string `env:"ARCHIVE_BUCKET" envDefault:"resume-uploads"`
	ArchiveUseSSL    bool   `env:"ARCHIVE_USE_SSL" envDefault:"false"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.SessionBackend = strings.ToLower(strings.TrimSpace(cfg.SessionBackend))
	if cfg.SessionBackend == "" {
		cfg.SessionBackend = SessionBackendMemory
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate revisa combinaciones que env no puede expresar con tags.
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when SESSION_BACKEND=redis")
		}
	case SessionBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SESSION_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("MAX_TOKENS must be > 0")
	}
	if c.RateLimitRPM < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if c.SessionTTL < 0 || c.SessionMax < 0 {
		return fmt.Errorf("SESSION_TTL and SESSION_MAX must not be negative")
	}
	if c.ArchiveEndpoint != "" && (c.ArchiveAccessKey == "" || c.ArchiveSecretKey == "") {
		return fmt.Errorf("ARCHIVE_ACCESS_KEY and ARCHIVE_SECRET_KEY are required with ARCHIVE_ENDPOINT")
	}
	return nil
}
