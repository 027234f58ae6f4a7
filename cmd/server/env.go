package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SpacesConfig points uploads at a DigitalOcean Spaces bucket.
type SpacesConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	CDNURL    string
	AccessKey string
	SecretKey string
}

type Environment struct {
	Environment    string
	ServerAddress  string
	SecretKey      string
	DatabaseURL    string
	MigrationsPath string

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	MQTTBrokerURL  string
	AladhanBaseURL string
	WeatherBaseURL string
	SlideInterval  time.Duration

	UploadDir string
	UseSpaces bool
	Spaces    SpacesConfig
}

// IsDevelopment enables the console logger, gin debug mode and the
// display's dev-logout slide.
func (e Environment) IsDevelopment() bool {
	return e.Environment == "" || e.Environment == "development"
}

// Validate names every required variable that is unset.
func (e Environment) Validate() error {
	var missing []string
	for key, val := range map[string]string{
		"DATABASE_URL":   e.DatabaseURL,
		"JWT_SECRET":     e.SecretKey,
		"SERVER_ADDRESS": e.ServerAddress,
	} {
		if val == "" {
			missing = append(missing, key)
		}
	}
	if e.UseSpaces && (e.Spaces.Bucket == "" || e.Spaces.Endpoint == "") {
		missing = append(missing, "SPACES_BUCKET/SPACES_ENDPOINT")
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// LoadEnvironment reads env vars, applying defaults. A .env file is optional.
func LoadEnvironment() Environment {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file, using process environment")
	}

	return Environment{
		Environment:    os.Getenv("APP_ENV"),
		ServerAddress:  os.Getenv("SERVER_ADDRESS"),
		SecretKey:      os.Getenv("JWT_SECRET"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: envOr("MIGRATIONS_PATH", "./migrations"),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MQTTBrokerURL:  os.Getenv("MQTT_BROKER_URL"),
		AladhanBaseURL: os.Getenv("ALADHAN_BASE_URL"),
		WeatherBaseURL: os.Getenv("WEATHER_BASE_URL"),
		SlideInterval:  durationEnv("SLIDE_INTERVAL", 15*time.Second),

		UploadDir: envOr("UPLOAD_DIR", "./uploads"),
		UseSpaces: os.Getenv("USE_SPACES") == "true",
		Spaces: SpacesConfig{
			Endpoint:  os.Getenv("SPACES_ENDPOINT"),
			Region:    os.Getenv("SPACES_REGION"),
			Bucket:    os.Getenv("SPACES_BUCKET"),
			CDNURL:    os.Getenv("SPACES_CDN_URL"),
			AccessKey: os.Getenv("SPACES_ACCESS_KEY"),
			SecretKey: os.Getenv("SPACES_SECRET_KEY"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// durationEnv accepts Go durations ("20s") or plain seconds ("20").
func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Warn().Str("key", key).Str("value", raw).Dur("fallback", fallback).Msg("invalid duration, using fallback")
	return fallback
}

// SetupLogger writes human-readable logs in development and JSON elsewhere.
func SetupLogger(env Environment) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}
