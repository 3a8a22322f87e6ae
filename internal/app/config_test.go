package app_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-admin/meridian/internal/app"
)

func setRequiredSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "session-secret")
	t.Setenv("CSRF_SECRET", "csrf-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredSecrets(t)

	cfg, err := app.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.APITimeout)
	assert.Equal(t, []string{"user", "role", "project", "report"}, cfg.Modules)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigModulesOverride(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("MODULES", "user,role,billing")

	cfg, err := app.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"user", "role", "billing"}, cfg.Modules)
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CSRF_SECRET", "")

	_, err := app.LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigProduction(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("APP_ENV", "production")

	cfg, err := app.LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}