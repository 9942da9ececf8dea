package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 3, cfg.Mutation.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Mutation.RetryDelay)
	assert.Equal(t, "0.05", cfg.SplitTolerance.String())
	assert.Equal(t, 300, cfg.RateLimit.PerMinute)
	assert.False(t, cfg.AuthEnabled())
	assert.False(t, cfg.S3.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:8000")
	t.Setenv("MUTATION_MAX_ATTEMPTS", "5")
	t.Setenv("MUTATION_RETRY_DELAY", "250ms")
	t.Setenv("GATEWAY_RPS", "2.5")
	t.Setenv("S3_BUCKET", "domo-products")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Mutation.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Mutation.RetryDelay)
	assert.Equal(t, 2.5, cfg.Gateway.RPS)
	assert.True(t, cfg.S3.Enabled())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing base url", map[string]string{}, "API_BASE_URL is required"},
		{"malformed duration", map[string]string{"API_BASE_URL": "http://x", "GATEWAY_TIMEOUT": "soon"}, "GATEWAY_TIMEOUT"},
		{"audience required", map[string]string{"API_BASE_URL": "http://x", "AUTH0_DOMAIN": "tenant.auth0.com"}, "AUTH0_AUDIENCE"},
		{"zero attempts", map[string]string{"API_BASE_URL": "http://x", "MUTATION_MAX_ATTEMPTS": "0"}, "MUTATION_MAX_ATTEMPTS"},
		{"zero rate limit", map[string]string{"API_BASE_URL": "http://x", "RATE_LIMIT_PER_MINUTE": "0"}, "RATE_LIMIT_PER_MINUTE"},
		{"negative tolerance", map[string]string{"API_BASE_URL": "http://x", "SPLIT_TOLERANCE": "-1"}, "SPLIT_TOLERANCE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("API_BASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
