package bot

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the bot configuration loaded from environment variables.
type Config struct {
	DiscordToken string     `env:"DISCORD_TOKEN,notEmpty"`
	LogLevel     slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	Log          LogConfig
}

// LogConfig controls the optional rotating log file.
type LogConfig struct {
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`
	Compress   bool   `env:"LOG_COMPRESS" envDefault:"true"`
}

// LoadConfig loads configuration from environment variables.
// Returns an error if required fields are missing.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadEnvFile populates missing environment variables from a .env file.
// Variables that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
