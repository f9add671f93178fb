package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/benvon/lingua-drome/internal/models"
	"github.com/ulule/limiter/v3"
)

// Log formats accepted by LOG_FORMAT
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// Config holds application configuration
type Config struct {
	StoreURL             string
	StoreConnectAttempts int
	StoreConnectDelay    time.Duration
	ServerPort           string
	FrontendURL          string
	Phase                models.Phase
	PersistDebounce      time.Duration
	WatchDir             string
	MaxUploadBytes       int64
	RateLimit            string
	EnableHSTS           bool
	ServerDebugMode      bool
	LogFormat            string
	OTELEnabled          bool
	OTELEndpoint         string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		StoreURL:             getEnv("DROME_STORE_URL", "sqlite://drome.db"),
		StoreConnectAttempts: getEnvInt("STORE_CONNECT_ATTEMPTS", 5),
		StoreConnectDelay:    getEnvDuration("STORE_CONNECT_DELAY", 2*time.Second),
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		FrontendURL:          getEnv("FRONTEND_URL", "http://localhost:3000"),
		Phase:                models.Phase(getEnv("DROME_PHASE", string(models.DefaultPhase))),
		PersistDebounce:      getEnvDuration("PERSIST_DEBOUNCE", 0),
		WatchDir:             getEnv("DROME_WATCH_DIR", ""),
		MaxUploadBytes:       getEnvInt64("MAX_UPLOAD_BYTES", 256<<20),
		RateLimit:            getEnv("RATE_LIMIT", "50-S"),
		EnableHSTS:           getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode:      getEnvBool("SERVER_DEBUG_MODE", false),
		LogFormat:            getEnv("LOG_FORMAT", LogFormatJSON),
		OTELEnabled:          getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:         getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no safe fallback
func (c *Config) Validate() error {
	if !c.Phase.Valid() {
		return fmt.Errorf("DROME_PHASE must be one of rhizome, ellipse, fold; got %q", c.Phase)
	}
	if c.StoreConnectAttempts < 1 {
		return fmt.Errorf("STORE_CONNECT_ATTEMPTS must be at least 1")
	}
	if c.PersistDebounce < 0 {
		return fmt.Errorf("PERSIST_DEBOUNCE must not be negative")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.LogFormat != LogFormatJSON && c.LogFormat != LogFormatConsole {
		return fmt.Errorf("LOG_FORMAT must be json or console; got %q", c.LogFormat)
	}
	if _, err := limiter.NewRateFromFormatted(c.RateLimit); err != nil {
		return fmt.Errorf("invalid RATE_LIMIT %q: %w", c.RateLimit, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
