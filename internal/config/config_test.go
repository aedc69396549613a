package config

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := parse(env.Options{Environment: map[string]string{
		"PIXELCHAT_DATA_DIR": dir,
	}})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api/v1", cfg.APIURL)
	assert.Equal(t, 120*time.Second, cfg.ChatTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 10, cfg.TopK)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "conversations.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "pixel-chat.log"), cfg.LogFile)
	assert.Equal(t, filepath.Join(dir, "session.yaml"), cfg.SessionFile())
}

func TestParseOverrides(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{
		"PIXELCHAT_DATA_DIR":      t.TempDir(),
		"PIXELCHAT_API_URL":       "http://gpu-box:9000/api/v1",
		"PIXELCHAT_CHAT_TIMEOUT":  "45s",
		"PIXELCHAT_TOP_K":         "20",
		"PIXELCHAT_DB":            "/tmp/other.db",
		"PIXELCHAT_LOG_LEVEL":     "debug",
		"PIXELCHAT_POLL_INTERVAL": "1s",
	}})
	require.NoError(t, err)

	assert.Equal(t, "http://gpu-box:9000/api/v1", cfg.APIURL)
	assert.Equal(t, 45*time.Second, cfg.ChatTimeout)
	assert.Equal(t, 20, cfg.TopK)
	assert.Equal(t, "/tmp/other.db", cfg.DBPath)
	assert.Equal(t, filepath.Join("/tmp", "session.yaml"), cfg.SessionFile(), "session file follows the database")
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.PollInterval)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad duration", key: "PIXELCHAT_CHAT_TIMEOUT", val: "soon"},
		{name: "top k too large", key: "PIXELCHAT_TOP_K", val: "1000"},
		{name: "zero workers", key: "PIXELCHAT_UPLOAD_WORKERS", val: "0"},
		{name: "negative poll", key: "PIXELCHAT_POLL_INTERVAL", val: "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(env.Options{Environment: map[string]string{
				"PIXELCHAT_DATA_DIR": t.TempDir(),
				tt.key:               tt.val,
			}})
			assert.Error(t, err)
		})
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("adopted session", "session_id", "s1")

	assert.Contains(t, stderr.String(), "session_id=s1")
	assert.True(t, strings.HasPrefix(file.String(), "{"))
	assert.Contains(t, file.String(), `"session_id":"s1"`)
	assert.NotContains(t, file.String(), "hidden")
}

func TestSetupLoggerFileOnly(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, cleanup := SetupLogger(logFile, slog.LevelInfo, false)
	logger.Info("hello")
	require.NoError(t, cleanup())

	assert.FileExists(t, logFile)
}
