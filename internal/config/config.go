package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
)

// Session backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds all configuration for the storefront client.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"warn"`

	// Commerce API
	StoreAPIURL       string        `env:"STORE_API_URL" envDefault:"https://api.everrest.educata.dev"`
	HTTPTimeout       time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`
	RequestsPerSecond float64       `env:"HTTP_RATE_LIMIT_RPS" envDefault:"10"`
	RequestBurst      int           `env:"HTTP_RATE_LIMIT_BURST" envDefault:"5"`
	BreakerTimeout    time.Duration `env:"BREAKER_TIMEOUT" envDefault:"30s"`
	BreakerMinReqs    uint32        `env:"BREAKER_MIN_REQUESTS" envDefault:"5"`

	// Session persistence
	SessionBackend   string        `env:"SESSION_BACKEND" envDefault:"file"`
	SessionFile      string        `env:"SESSION_FILE"`
	SessionNamespace string        `env:"SESSION_NAMESPACE" envDefault:"storefront:session:default"`
	AccessTTL        time.Duration `env:"SESSION_ACCESS_TTL" envDefault:"24h"`
	RefreshTTL       time.Duration `env:"SESSION_REFRESH_TTL" envDefault:"168h"`
	RedisAddr        string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`

	// Activity events. Publishing is off when no broker is set.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Tracing
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ActivityEnabled reports whether activity events go to Kafka.
func (c *Config) ActivityEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	u, err := url.Parse(c.StoreAPIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("STORE_API_URL must be an absolute http(s) URL, got %q", c.StoreAPIURL)
	}
	switch c.SessionBackend {
	case BackendFile, BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when SESSION_BACKEND is %s", BackendRedis)
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be one of %s, %s, %s, got %q",
			BackendFile, BackendMemory, BackendRedis, c.SessionBackend)
	}
	if c.SessionNamespace == "" {
		return fmt.Errorf("SESSION_NAMESPACE must not be empty")
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return fmt.Errorf("session TTLs must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("HTTP_RATE_LIMIT_RPS must not be negative")
	}
	if c.OTelSampleRate < 0 || c.OTelSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be within [0, 1], got %v", c.OTelSampleRate)
	}
	return nil
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
