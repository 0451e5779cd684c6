package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://localhost:8080", c.ServerBaseURL)
	assert.Equal(t, "session.db", c.DatabasePath)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, time.Minute, c.SessionCheckInterval)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://localhost:8080", cfg.ServerBaseURL)
	assert.Equal(t, time.Minute, cfg.SessionCheckInterval)
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"server_base_url":        "http://json:1",
		"database_path":          "json.db",
		"session_check_interval": "5s",
	})
	t.Setenv("TRACKER_SERVER_URL", "http://env:2")
	t.Setenv("TRACKER_LOG_LEVEL", "warn")
	os.Args = []string{"testbin", "-c", path, "-l", "debug"}

	cfg := LoadConfig()

	assert.Equal(t, "http://env:2", cfg.ServerBaseURL, "env overrides json")
	assert.Equal(t, "json.db", cfg.DatabasePath, "json overrides defaults")
	assert.Equal(t, 5*time.Second, cfg.SessionCheckInterval)
	assert.Equal(t, "debug", cfg.LogLevel, "flags override env")
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestLoadConfig_SubSecondDurationsSurviveWithoutFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	t.Setenv("TRACKER_REQUEST_TIMEOUT", "500ms")
	t.Setenv("TRACKER_SESSION_CHECK_INTERVAL", "1500ms")

	cfg := LoadConfig()

	assert.Equal(t, 500*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.SessionCheckInterval)
}

func TestLoadConfig_FlagOverridesSubSecondEnv(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin", "-t", "3"}

	t.Setenv("TRACKER_REQUEST_TIMEOUT", "500ms")
	t.Setenv("TRACKER_SESSION_CHECK_INTERVAL", "1500ms")

	cfg := LoadConfig()

	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.SessionCheckInterval)
}
