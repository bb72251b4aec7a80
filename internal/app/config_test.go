package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("REFRESH_TOKEN_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsSharedSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "same")
	t.Setenv("REFRESH_TOKEN_SECRET", "same")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "development", cfg.Env)
	require.Equal(t, 7*24*time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
}
