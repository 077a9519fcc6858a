package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Config holds the service configuration, read from the environment
type Config struct {
	Port string

	StoreDriver    string
	MongoURI       string
	DBName         string
	SQLitePath     string
	ConnectTimeout time.Duration

	JWTSecret     string
	ServiceSecret string

	LogLevel    string
	LogFormat   string
	CORSOrigins []string
}

// Load reads an optional .env file (ENV_FILE overrides the path) and then
// builds the configuration from the environment.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	return FromEnv()
}

// FromEnv builds the configuration from the current environment only
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8081"),
		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:        getEnv("DB_NAME", "userdb"),
		SQLitePath:    getEnv("SQLITE_PATH", "./userservice.db"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		ServiceSecret: os.Getenv("SERVICE_SECRET"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		CORSOrigins:   splitList(getEnv("CORS_ALLOW_ORIGINS", "*")),
	}

	timeout, err := time.ParseDuration(getEnv("STORE_CONNECT_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("STORE_CONNECT_TIMEOUT: %w", err)
	}
	cfg.ConnectTimeout = timeout

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.ServiceSecret == "" {
		return errors.New("SERVICE_SECRET is required")
	}
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo driver")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("STORE_DRIVER: unknown driver %q", c.StoreDriver)
	}
	if c.ConnectTimeout <= 0 {
		return errors.New("STORE_CONNECT_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
