package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsAndEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:studybud.db")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "StudyBud Administration", cfg.Admin.SiteHeader)
	assert.Equal(t, "/media/", cfg.Media.URLPrefix)
}

func TestLoadConfigFileThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
server:
  port: "9000"
  read_timeout: 5s
database:
  dsn: postgres://u:p@localhost/studybud
jwt:
  secret: from-file
admin:
  site_title: Custom Admin
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "Custom Admin", cfg.Admin.SiteTitle)
	assert.Equal(t, "StudyBud Administration", cfg.Admin.SiteHeader)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:studybud.db")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "JWT secret is required")
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:studybud.db")
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("JWT_TTL", "soon")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "invalid duration format")
}

func TestPrefixedEnvWins(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:studybud.db")
	t.Setenv("JWT_SECRET", "shared")
	t.Setenv("STUDYBUD_JWT_SECRET", "ours")
	t.Setenv("STUDYBUD_METRICS_ADDR", "127.0.0.1:9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,,http://a.test, http://b.test")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "ours", cfg.JWT.Secret)
	assert.Equal(t, "127.0.0.1:9090", cfg.Metrics.Addr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestEnvErrorsNameEveryVariable(t *testing.T) {
	env := map[string]string{
		"JWT_TTL":                      "soon",
		"STUDYBUD_MEDIA_MAX_UPLOAD_MB": "ten",
		"SESSION_COOKIE_SECURE":        "maybe",
	}
	cfg := &Config{}
	err := applyEnv(cfg, func(k string) (string, bool) { v, ok := env[k]; return v, ok })
	require.Error(t, err)
	assert.ErrorContains(t, err, "JWT_TTL: invalid duration format")
	assert.ErrorContains(t, err, "STUDYBUD_MEDIA_MAX_UPLOAD_MB: invalid integer format")
	assert.ErrorContains(t, err, "SESSION_COOKIE_SECURE: invalid boolean format")
}
