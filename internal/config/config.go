package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultQueriesURL is used when neither QUERIES_API_URL nor NEXT_PUBLIC_API_URL is set.
const DefaultQueriesURL = "http://localhost:8000"

type Config struct {
	Port               string
	QueriesAPIURL      string
	HTTPTimeout        time.Duration
	RetryMaxElapsed    time.Duration
	RiskScoreThreshold int
	Environment        string
	LogLevel           string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load() // loads .env
	return FromViper(viper.New())
}

// FromViper resolves the config from v, binding environment variables onto it.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:               v.GetString("port"),
		QueriesAPIURL:      queriesURL(v),
		HTTPTimeout:        v.GetDuration("http_timeout"),
		RetryMaxElapsed:    v.GetDuration("retry_max_elapsed"),
		RiskScoreThreshold: v.GetInt("risk_score_threshold"),
		Environment:        v.GetString("environment"),
		LogLevel:           v.GetString("log_level"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("http_timeout", 15*time.Second)
	v.SetDefault("retry_max_elapsed", time.Duration(0))
	v.SetDefault("risk_score_threshold", 0)
	v.SetDefault("environment", "local")
	v.SetDefault("log_level", "info")
}

func queriesURL(v *viper.Viper) string {
	for _, key := range []string{"queries_api_url", "next_public_api_url"} {
		if s := strings.TrimSpace(v.GetString(key)); s != "" {
			return strings.TrimRight(s, "/")
		}
	}
	return DefaultQueriesURL
}

func (c *Config) validate() error {
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("HTTP_TIMEOUT must not be negative, got %s", c.HTTPTimeout)
	}
	if c.RetryMaxElapsed < 0 {
		return fmt.Errorf("RETRY_MAX_ELAPSED must not be negative, got %s", c.RetryMaxElapsed)
	}
	if c.RiskScoreThreshold < 0 || c.RiskScoreThreshold > 100 {
		return fmt.Errorf("RISK_SCORE_THRESHOLD must be within 0..100, got %d", c.RiskScoreThreshold)
	}
	return nil
}
