package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration values.
type Config struct {
	// Backend
	APIURL      string        `env:"PIXELCHAT_API_URL" envDefault:"http://localhost:8000/api/v1"`
	HTTPTimeout time.Duration `env:"PIXELCHAT_HTTP_TIMEOUT" envDefault:"30s"`

	// Chat
	ChatTimeout  time.Duration `env:"PIXELCHAT_CHAT_TIMEOUT" envDefault:"120s"`
	TopK         int           `env:"PIXELCHAT_TOP_K" envDefault:"10"`
	PollInterval time.Duration `env:"PIXELCHAT_POLL_INTERVAL" envDefault:"5s"`

	// Local state; empty values are derived from DataDir
	DataDir string `env:"PIXELCHAT_DATA_DIR"`
	DBPath  string `env:"PIXELCHAT_DB"`

	// Image inbox
	UploadWorkers int `env:"PIXELCHAT_UPLOAD_WORKERS" envDefault:"2"`

	// Logging
	LogFile  string     `env:"PIXELCHAT_LOG_FILE"`
	LogLevel slog.Level `env:"PIXELCHAT_LOG_LEVEL" envDefault:"INFO"`
}

// Load reads an optional .env file from the working directory and then the
// process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".pixel-chat")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "conversations.db")
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "pixel-chat.log")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("PIXELCHAT_API_URL must not be empty")
	}
	if c.ChatTimeout <= 0 || c.HTTPTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.PollInterval <= 0 {
		return errors.New("PIXELCHAT_POLL_INTERVAL must be positive")
	}
	if c.TopK < 1 || c.TopK > 100 {
		return fmt.Errorf("PIXELCHAT_TOP_K must be between 1 and 100, got %d", c.TopK)
	}
	if c.UploadWorkers < 1 {
		return fmt.Errorf("PIXELCHAT_UPLOAD_WORKERS must be at least 1, got %d", c.UploadWorkers)
	}
	return nil
}

// SessionFile is where the last chat session id is kept, beside the
// database rather than inside it, so each database holds its own session.
func (c *Config) SessionFile() string {
	return filepath.Join(filepath.Dir(c.DBPath), "session.yaml")
}
