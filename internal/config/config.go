package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration. It is built once at startup
// and passed down explicitly; nothing in the engine reads the
// environment on its own.
type Config struct {
	UserName      string
	MinDifficulty float64
	MaxDifficulty float64
	LogLevel      string
	LogFormat     string
	DBPath        string
}

// Load reads configuration from environment variables with sensible
// defaults. It loads a .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		UserName:      getEnv("PYROPE_USER", "John Doe"),
		MinDifficulty: getEnvFloat("PYROPE_MIN_DIFFICULTY", 0),
		MaxDifficulty: getEnvFloat("PYROPE_MAX_DIFFICULTY", 1),
		LogLevel:      getEnv("PYROPE_LOG_LEVEL", "warn"),
		LogFormat:     getEnv("PYROPE_LOG_FORMAT", "pretty"),
		DBPath:        os.Getenv("PYROPE_DB"),
	}
}

// Validate checks the difficulty bounds and the user name.
func (c *Config) Validate() error {
	if c.UserName == "" {
		return fmt.Errorf("user name must not be empty")
	}
	if c.MinDifficulty < 0 || c.MinDifficulty > 1 {
		return fmt.Errorf("min difficulty %g outside [0, 1]", c.MinDifficulty)
	}
	if c.MaxDifficulty < 0 || c.MaxDifficulty > 1 {
		return fmt.Errorf("max difficulty %g outside [0, 1]", c.MaxDifficulty)
	}
	if c.MinDifficulty > c.MaxDifficulty {
		return fmt.Errorf("min difficulty %g exceeds max %g", c.MinDifficulty, c.MaxDifficulty)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
