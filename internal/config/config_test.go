package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("GEMA_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("GEMA_JWT_SECRET", "test-secret")
	t.Setenv("GEMA_ROSTER_CACHE_TTL", "45s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "test-secret", cfg.JWTSecret)
	require.Equal(t, 45*time.Second, cfg.RosterCacheTTL)
	require.Equal(t, time.Minute, cfg.SubmissionRateWindow)
	require.Equal(t, 10, cfg.SubmissionRateLimit)
	require.Equal(t, "gema:classroom", cfg.EventChannel)
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	t.Setenv("GEMA_JWT_SECRET", "test-secret")
	t.Setenv("GEMA_ROSTER_CACHE_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestHTTPAddress(t *testing.T) {
	require.Equal(t, ":8080", Config{AppPort: "8080"}.HTTPAddress())
	require.Equal(t, ":9000", Config{AppPort: ":9000"}.HTTPAddress())
}
