package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("CHALLENGE_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Challenge API", cfg.AppName)
	require.Equal(t, "8080", cfg.AppPort)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, GradingPolicyAuto, cfg.GradingPolicy)
	require.Equal(t, 15*time.Minute, cfg.WorkspaceTokenTTL)
	require.Equal(t, 10*time.Second, cfg.GradingDispatchTimeout)
	require.Equal(t, 3, cfg.DefaultAttemptQuota)
	require.Equal(t, "secret", cfg.WorkspaceJWTSecret, "workspace tokens fall back to the api secret")
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("CHALLENGE_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadValidatesGradingPolicy(t *testing.T) {
	t.Setenv("CHALLENGE_JWT_SECRET", "secret")
	t.Setenv("CHALLENGE_GRADING_POLICY", "sometimes")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("CHALLENGE_GRADING_POLICY", "MANUAL")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, GradingPolicyManual, cfg.GradingPolicy, "policy comparison is case-insensitive")
}

func TestHTTPAddressKeepsExplicitColon(t *testing.T) {
	cfg := Config{AppPort: ":9000"}
	require.Equal(t, ":9000", cfg.HTTPAddress())
}
