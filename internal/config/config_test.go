package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "QUERIES_API_URL", "NEXT_PUBLIC_API_URL", "HTTP_TIMEOUT",
		"RETRY_MAX_ELAPSED", "RISK_SCORE_THRESHOLD", "ENVIRONMENT", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestFromViper_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DefaultQueriesURL, cfg.QueriesAPIURL)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Zero(t, cfg.RetryMaxElapsed)
	assert.Zero(t, cfg.RiskScoreThreshold)
	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestFromViper_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("QUERIES_API_URL", "https://queries.internal/")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("RETRY_MAX_ELAPSED", "10s")
	t.Setenv("RISK_SCORE_THRESHOLD", "50")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "https://queries.internal", cfg.QueriesAPIURL)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 10*time.Second, cfg.RetryMaxElapsed)
	assert.Equal(t, 50, cfg.RiskScoreThreshold)
}

func TestFromViper_NextPublicFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEXT_PUBLIC_API_URL", "http://api:8000")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "http://api:8000", cfg.QueriesAPIURL)
}

func TestFromViper_RejectsBadThreshold(t *testing.T) {
	clearEnv(t)
	t.Setenv("RISK_SCORE_THRESHOLD", "150")

	_, err := FromViper(viper.New())
	assert.ErrorContains(t, err, "RISK_SCORE_THRESHOLD")
}
