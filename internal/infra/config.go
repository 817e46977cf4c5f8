package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	LogLevel         string
	Port             string
	DatabaseURL      string
	GeoIPDBPath      string
	StoragePath      string
	AllowedOrigins   []string
	DefaultLocale    string
	GeminiAPIKey     string
	GeminiBaseURL    string
	GenAIBackend     string
	ImageModel       string
	VideoModel       string
	PollInterval     time.Duration
	ProgressInterval time.Duration
	VideoTimeout     time.Duration
	MaxPollAttempts  int
	SyntheticPolls   int
	SessionIdleTTL   time.Duration
	MaxUploadBytes   int64
	ShareAppURL      string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

const (
	BackendREST      = "rest"
	BackendSDK       = "sdk"
	BackendSynthetic = "synthetic"
)

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		StoragePath:      getEnv("STORAGE_PATH", "./storage"),
		AllowedOrigins:   splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:4200")),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en"),
		GeminiAPIKey:     strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GenAIBackend:     strings.ToLower(getEnv("GENAI_BACKEND", BackendREST)),
		ImageModel:       getEnv("IMAGE_MODEL", "imagen-3.0-generate-002"),
		VideoModel:       getEnv("VIDEO_MODEL", "veo-2.0-generate-001"),
		PollInterval:     getEnvDuration("POLL_INTERVAL_SECONDS", 10*time.Second),
		ProgressInterval: getEnvDuration("PROGRESS_INTERVAL_SECONDS", 8*time.Second),
		VideoTimeout:     getEnvDuration("VIDEO_TIMEOUT_SECONDS", 10*time.Minute),
		MaxPollAttempts:  getEnvInt("MAX_POLL_ATTEMPTS", 0),
		SyntheticPolls:   getEnvInt("SYNTHETIC_POLLS", 2),
		SessionIdleTTL:   time.Minute * time.Duration(getEnvInt("SESSION_IDLE_TTL_MINUTES", 60)),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		ShareAppURL:      getEnv("SHARE_APP_URL", "https://your-app-url.com"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	switch cfg.GenAIBackend {
	case BackendREST, BackendSDK, BackendSynthetic:
	default:
		return nil, fmt.Errorf("GENAI_BACKEND %q is not supported", cfg.GenAIBackend)
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}
	if cfg.ProgressInterval <= 0 {
		return nil, fmt.Errorf("PROGRESS_INTERVAL_SECONDS must be positive")
	}
	if cfg.VideoTimeout < 0 {
		cfg.VideoTimeout = 0
	}
	if cfg.MaxPollAttempts < 0 {
		cfg.MaxPollAttempts = 0
	}

	return cfg, nil
}

// HasDatabase reports whether the optional PostgreSQL integration is configured.
func (c *Config) HasDatabase() bool {
	return c != nil && c.DatabaseURL != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvDuration reads a whole number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
