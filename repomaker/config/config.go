package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config carries runtime service settings. Repo and storage
// declarations live in the YAML config files, not here.
type Config struct {
	Port      string
	DataDir   string
	ConfigDir string
	LogLevel  string
}

// Load reads settings from the environment, with .env/.env.local as
// fallback sources.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Printf("No .env or .env.local file found. Using environment variables.\n")
		}
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		DataDir:   getEnv("REPOMAKER_DATA_DIR", "data"),
		ConfigDir: getEnv("REPOMAKER_CONFIG_DIR", "."),
		LogLevel:  getEnv("REPOMAKER_LOG_LEVEL", "info"),
	}
}

// NewLogger builds the service logger from the configured level.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05-07:00",
	})

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logger.Warnf("Unknown log level %q, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
