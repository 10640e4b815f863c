package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	SleeperBaseURL string
	DBPath         string
	ServerPort     string
	LogLevel       string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		SleeperBaseURL: getEnv("SLEEPER_BASE_URL", "https://api.sleeper.app/v1"),
		DBPath:         getEnv("DB_PATH", "league.db"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	logger.Info().
		Str("sleeper_base_url", cfg.SleeperBaseURL).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
