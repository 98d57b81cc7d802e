package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Equal(t, defaultAPIBaseURL, cfg.APIBaseURL)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoad_FirstRunNormalizesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	t.Setenv("TEAMUP_DRAFT_TTL_MINUTES", "0")
	t.Setenv("TEAMUP_REQUEST_TIMEOUT_SECONDS", "-5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultDraftTTL, cfg.DraftTTLMinutes)
	assert.Equal(t, time.Hour, cfg.DraftTTL())
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout())

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestLoad_PartialFileIsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: 0.0.0.0:9000\ndraft_ttl_minutes: 0\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.Equal(t, defaultDraftTTL, cfg.DraftTTLMinutes)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout())
	assert.Equal(t, time.Hour, cfg.DraftTTL())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_base_url: http://file.example/api\n"), 0o600))

	t.Setenv("TEAMUP_API_BASE_URL", "http://env.example/api")
	t.Setenv("TEAMUP_COOKIE_SECURE", "true")
	t.Setenv("TEAMUP_BASIC_AUTH_USERNAME", "staff")
	t.Setenv("TEAMUP_BASIC_AUTH_PASSWORD", "hunter22")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env.example/api", cfg.APIBaseURL)
	assert.True(t, cfg.CookieSecure)
	assert.True(t, cfg.BasicAuth.Enabled())
	assert.Equal(t, "staff", cfg.BasicAuth.Username)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unterminated"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EmptyPath(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
}

func TestLocation_FallsBackToLocal(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	assert.Equal(t, time.Local, cfg.Location())

	cfg.Timezone = "UTC"
	assert.Equal(t, "UTC", cfg.Location().String())
}
