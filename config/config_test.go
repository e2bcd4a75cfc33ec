package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"app_name": "Downtime Portal",
		"listen_ip": "127.0.0.1",
		"listen_port": 5001,
		"db_path": "./test.db",
		"allowed_origin": "http://localhost:8080",
		"session_key": "a-fixed-key",
		"log_level": "debug"
	}`)

	require.NoError(t, LoadConfig(path))
	assert.Equal(t, "Downtime Portal", AppConfig.AppName)
	assert.Equal(t, 5001, AppConfig.ListenPort)
	assert.Equal(t, "http://localhost:8080", AppConfig.AllowedOrigin)
	assert.Equal(t, "a-fixed-key", AppConfig.SessionKey)
	assert.Equal(t, "debug", AppConfig.LogLevel)
}

func TestLoadConfigMissingFile(t *testing.T) {
	assert.Error(t, LoadConfig("/nonexistent/config.json"))
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, `{"listen_port": 5001, "session_key": "k", "allowed_origin": "http://a"}`)

	t.Setenv("DOWNTIME_ALLOWED_ORIGIN", "http://b")
	t.Setenv("DOWNTIME_LISTEN_PORT", "6001")

	require.NoError(t, LoadConfig(path))
	assert.Equal(t, "http://b", AppConfig.AllowedOrigin)
	assert.Equal(t, 6001, AppConfig.ListenPort)
}

func TestLoadConfigGeneratesSessionKey(t *testing.T) {
	path := writeConfig(t, `{"session_key": "CHANGE_ME_IN_PRODUCTION"}`)

	require.NoError(t, LoadConfig(path))
	assert.NotEmpty(t, AppConfig.SessionKey)
	assert.NotEqual(t, "CHANGE_ME_IN_PRODUCTION", AppConfig.SessionKey)
}
