package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	// Remote API
	APIBaseURL string
	APIToken   string
	EventsURL  string // Optional: remote event stream, empty disables the listener

	// Auth0 for the local view API; empty domain disables token checks
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	Gateway   GatewayConfig
	Mutation  MutationConfig
	Probe     ProbeConfig
	RateLimit RateLimitConfig

	SplitTolerance decimal.Decimal

	// S3 Storage
	S3 S3Config
}

// GatewayConfig tunes outbound calls to the remote API
type GatewayConfig struct {
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// MutationConfig is the default retry policy of the mutation engine
type MutationConfig struct {
	MaxAttempts int
	RetryDelay  time.Duration
	Backoff     float64
	MaxDelay    time.Duration
}

// ProbeConfig controls the connectivity prober
type ProbeConfig struct {
	Interval        time.Duration
	OfflineInterval time.Duration
}

// RateLimitConfig bounds requests per caller on the local API
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
	Prefix          string // key prefix inside the bucket
	URLExpiry       time.Duration
}

// Enabled reports whether product images can be stored
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var errs []string
	p := parser{errs: &errs}

	cfg := &Config{
		APIBaseURL:    strings.TrimRight(getEnv("API_BASE_URL", ""), "/"),
		APIToken:      getEnv("API_TOKEN", ""),
		EventsURL:     getEnv("EVENTS_URL", ""),
		Auth0Domain:   getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience: getEnv("AUTH0_AUDIENCE", ""),
		Port:          getEnv("PORT", "8080"),
		CORSOrigins:   strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:           getEnv("ENV", "development"),
		Gateway: GatewayConfig{
			Timeout: p.asDuration("GATEWAY_TIMEOUT", "15s"),
			RPS:     p.asFloat("GATEWAY_RPS", "10"),
			Burst:   p.asInt("GATEWAY_BURST", "20"),
		},
		Mutation: MutationConfig{
			MaxAttempts: p.asInt("MUTATION_MAX_ATTEMPTS", "3"),
			RetryDelay:  p.asDuration("MUTATION_RETRY_DELAY", "1s"),
			Backoff:     p.asFloat("MUTATION_BACKOFF", "2"),
			MaxDelay:    p.asDuration("MUTATION_MAX_DELAY", "30s"),
		},
		Probe: ProbeConfig{
			Interval:        p.asDuration("PROBE_INTERVAL", "30s"),
			OfflineInterval: p.asDuration("PROBE_OFFLINE_INTERVAL", "3s"),
		},
		RateLimit: RateLimitConfig{
			PerMinute: p.asInt("RATE_LIMIT_PER_MINUTE", "300"),
			Burst:     p.asInt("RATE_LIMIT_BURST", "30"),
		},
		SplitTolerance: p.asDecimal("SPLIT_TOLERANCE", "0.05"),
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
			Prefix:          getEnv("S3_PREFIX", "domo"),
			URLExpiry:       p.asDuration("S3_URL_EXPIRY", "24h"),
		},
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AuthEnabled reports whether the local API validates Auth0 tokens
func (c *Config) AuthEnabled() bool {
	return c.Auth0Domain != ""
}

func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.Auth0Domain != "" && c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required when AUTH0_DOMAIN is set")
	}
	if c.Mutation.MaxAttempts < 1 {
		return fmt.Errorf("MUTATION_MAX_ATTEMPTS must be at least 1")
	}
	if c.Mutation.Backoff < 1 {
		return fmt.Errorf("MUTATION_BACKOFF must be at least 1")
	}
	if c.RateLimit.PerMinute < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be at least 1")
	}
	if c.SplitTolerance.IsNegative() {
		return fmt.Errorf("SPLIT_TOLERANCE cannot be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser reads typed values and collects every malformed key
type parser struct {
	errs *[]string
}

func (p parser) fail(key, value string) {
	*p.errs = append(*p.errs, fmt.Sprintf("%s=%q", key, value))
}

func (p parser) asDuration(key, def string) time.Duration {
	v := getEnv(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v)
	}
	return d
}

func (p parser) asInt(key, def string) int {
	v := getEnv(key, def)
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v)
	}
	return n
}

func (p parser) asFloat(key, def string) float64 {
	v := getEnv(key, def)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v)
	}
	return f
}

func (p parser) asDecimal(key, def string) decimal.Decimal {
	v := getEnv(key, def)
	d, err := decimal.NewFromString(v)
	if err != nil {
		p.fail(key, v)
	}
	return d
}
