package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/lucifer-699/EduCourseFrontend/pkg/config"
)

// Session store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds all configuration for the LMS web front.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"lms-frontend"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"3000"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// LMS API
	APIBaseURL         string        `env:"LMS_API_URL" envDefault:"http://localhost:8449"`
	APITimeout         time.Duration `env:"LMS_API_TIMEOUT" envDefault:"15s"`
	APIMaxConns        int           `env:"LMS_API_MAX_CONNS" envDefault:"100"`
	BreakerEnabled     bool          `env:"LMS_API_BREAKER_ENABLED" envDefault:"true"`
	BreakerTimeout     time.Duration `env:"LMS_API_BREAKER_TIMEOUT" envDefault:"30s"`
	BreakerMinRequests uint32        `env:"LMS_API_BREAKER_MIN_REQUESTS" envDefault:"5"`
	BreakerRatio       float64       `env:"LMS_API_BREAKER_FAILURE_RATIO" envDefault:"0.5"`

	// Session
	SessionStore     string        `env:"SESSION_STORE" envDefault:"memory"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CookieName       string        `env:"SESSION_COOKIE_NAME" envDefault:"session_id"`
	CookieSecure     bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	UnauthorizedPath string        `env:"UNAUTHORIZED_REDIRECT" envDefault:"/unauthorized"`

	// Login rate limit
	LoginRatePerMinute int `env:"LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	LoginBurst         int `env:"LOGIN_RATE_BURST" envDefault:"5"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`
	// Session store operations slower than this are logged; 0 disables it.
	RedisSlowOpThreshold time.Duration `env:"REDIS_SLOW_OP_THRESHOLD" envDefault:"100ms"`

	// Kafka; session events are dropped when no brokers are set.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// Metrics are served only to these networks.
	MetricsAllowedCIDRs []string `env:"METRICS_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load lms-frontend config: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTPPort))
	}

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		errs = append(errs, fmt.Errorf("LMS_API_URL must be an absolute URL, got %q", c.APIBaseURL))
	}
	if c.APITimeout <= 0 {
		errs = append(errs, errors.New("LMS_API_TIMEOUT must be positive"))
	}
	if c.BreakerRatio <= 0 || c.BreakerRatio > 1 {
		errs = append(errs, errors.New("LMS_API_BREAKER_FAILURE_RATIO must be in (0, 1]"))
	}

	switch c.SessionStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis session store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.IsProduction() && !c.CookieSecure {
		errs = append(errs, errors.New("SESSION_COOKIE_SECURE is required in production"))
	}
	if c.UnauthorizedPath == "" || c.UnauthorizedPath[0] != '/' || strings.HasPrefix(c.UnauthorizedPath, "//") {
		errs = append(errs, fmt.Errorf("UNAUTHORIZED_REDIRECT must be a local path, got %q", c.UnauthorizedPath))
	}

	if c.LoginRatePerMinute <= 0 || c.LoginBurst <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_PER_MINUTE and LOGIN_RATE_BURST must be positive"))
	}

	for _, cidr := range c.MetricsAllowedCIDRs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errs = append(errs, fmt.Errorf("invalid METRICS_ALLOWED_CIDRS entry %q", cidr))
		}
	}

	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		errs = append(errs, errors.New("OTEL_SAMPLE_RATE must be between 0.0 and 1.0"))
	}

	return errors.Join(errs...)
}
