package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Grading policies selectable per deployment. Under the auto policy a grading
// callback finalizes the submission and credits points immediately; under the
// manual policy the callback only records the reported score and parks the
// attempt at grading_pending until an administrator grades it.
const (
	GradingPolicyAuto   = "auto"
	GradingPolicyManual = "manual"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	JWTSecret              string
	WorkspaceBaseURL       string
	WorkspaceJWTSecret     string
	WorkspaceTokenTTL      time.Duration
	GradingServiceURL      string
	GradingWebhookSecret   string
	GradingDispatchTimeout time.Duration
	GradingPolicy          string
	LeaderboardCacheTTL    time.Duration
	DefaultAttemptQuota    int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CHALLENGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Challenge API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("workspace.base_url", "http://localhost:8000")
	v.SetDefault("workspace.token_ttl", "15m")
	v.SetDefault("grading.service_url", "http://localhost:9100")
	v.SetDefault("grading.dispatch_timeout", "10s")
	v.SetDefault("grading.policy", GradingPolicyAuto)
	v.SetDefault("leaderboard.cache_ttl", "1m")
	v.SetDefault("default_attempt_quota", 3)

	tokenTTL, err := time.ParseDuration(v.GetString("workspace.token_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid workspace token ttl: %w", err)
	}

	dispatchTimeout, err := time.ParseDuration(v.GetString("grading.dispatch_timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid grading dispatch timeout: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("leaderboard.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid leaderboard cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		WorkspaceBaseURL:       v.GetString("workspace.base_url"),
		WorkspaceJWTSecret:     v.GetString("workspace.jwt_secret"),
		WorkspaceTokenTTL:      tokenTTL,
		GradingServiceURL:      v.GetString("grading.service_url"),
		GradingWebhookSecret:   v.GetString("grading.webhook_secret"),
		GradingDispatchTimeout: dispatchTimeout,
		GradingPolicy:          strings.ToLower(v.GetString("grading.policy")),
		LeaderboardCacheTTL:    cacheTTL,
		DefaultAttemptQuota:    v.GetInt("default_attempt_quota"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.WorkspaceJWTSecret == "" {
		cfg.WorkspaceJWTSecret = cfg.JWTSecret
	}

	if cfg.GradingPolicy != GradingPolicyAuto && cfg.GradingPolicy != GradingPolicyManual {
		return Config{}, fmt.Errorf("grading policy must be %q or %q", GradingPolicyAuto, GradingPolicyManual)
	}

	if cfg.DefaultAttemptQuota < 1 {
		cfg.DefaultAttemptQuota = 3
	}

	return cfg, nil
}
