package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the environment-based settings the admin CLI needs.
type Config struct {
	DatabaseURL    string
	MigrationsPath string
	AladhanBaseURL string
	RedisAddress   string
	RedisUsername  string
	RedisPassword  string
}

// Load reads configuration from environment variables, after an optional
// .env file. Commands that touch Postgres call RequireDatabase.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	migrations := os.Getenv("MIGRATIONS_PATH")
	if migrations == "" {
		migrations = "./migrations"
	}
	return &Config{
		DatabaseURL:    dbURL,
		MigrationsPath: migrations,
		AladhanBaseURL: os.Getenv("ALADHAN_BASE_URL"),
		RedisAddress:   os.Getenv("REDIS_ADDRESS"),
		RedisUsername:  os.Getenv("REDIS_USERNAME"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
	}, nil
}

func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}
