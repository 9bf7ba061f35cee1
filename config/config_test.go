package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inEmptyDir(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfigDefaultsAndEnv(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CHECKOUT_CANCEL_URL", "https://academy.example/catalog?cancelled=1")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 1500*time.Millisecond, cfg.Checkout.Delay)
	assert.Equal(t, "/dashboard?enrolled=true", cfg.Checkout.SuccessURL)
	assert.Equal(t, "https://academy.example/catalog?cancelled=1", cfg.Checkout.CancelURL)
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}
