package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	devSecretKey = "secret_dev"
)

type Config struct {
	// Server
	Port            string
	Environment     string
	ApplicationName string
	ClientURL       string
	CORSOrigin      string

	// Database
	DatabaseURL string

	// Session envelope signing
	SecretKey string

	// Passwords
	BcryptWorkFactor int

	// Email
	EmailServiceActive bool
	SendGridAPIKey     string
	EmailFromAddress   string

	// Optional admin seed
	AdminUsername string
	AdminEmail    string
	AdminPassword string

	// Logging
	LogLevel string
	LogJSON  bool
}

// Load reads the process environment, after merging a .env file from the
// working directory if there is one.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	env := getEnv("ENVIRONMENT", EnvDevelopment)
	isTesting := env == EnvTest

	clientURL := strings.TrimRight(getEnv("CLIENT_URL", "http://localhost:3000"), "/")

	cfg := &Config{
		Port:               getEnv("PORT", "3001"),
		Environment:        env,
		ApplicationName:    getEnv("APPLICATION_NAME", "Kavholm Homes"),
		ClientURL:          clientURL,
		CORSOrigin:         getEnv("CORS_ALLOWED_ORIGIN", clientURL),
		DatabaseURL:        databaseURL(isTesting),
		SecretKey:          getEnv("SECRET_KEY", ""),
		BcryptWorkFactor:   clampCost(getEnvInt("BCRYPT_WORK_FACTOR", 13)),
		EmailServiceActive: !isTesting && getEnv("EMAIL_SERVICE_STATUS", "inactive") == "active",
		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		EmailFromAddress:   getEnv("EMAIL_FROM_ADDRESS", ""),
		AdminUsername:      getEnv("ADMIN_USERNAME", ""),
		AdminEmail:         getEnv("ADMIN_EMAIL", ""),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogJSON:            getEnv("LOG_FORMAT", "text") == "json",
	}

	if isTesting {
		cfg.BcryptWorkFactor = bcrypt.MinCost
	}

	if cfg.SecretKey == "" {
		if env != EnvDevelopment && !isTesting {
			return nil, errors.New("SECRET_KEY environment variable is required")
		}
		cfg.SecretKey = devSecretKey
	}

	if cfg.EmailServiceActive {
		if cfg.SendGridAPIKey == "" {
			return nil, errors.New("SENDGRID_API_KEY is required when EMAIL_SERVICE_STATUS=active")
		}
		if cfg.EmailFromAddress == "" {
			return nil, errors.New("EMAIL_FROM_ADDRESS is required when EMAIL_SERVICE_STATUS=active")
		}
	}

	if _, err := url.ParseRequestURI(cfg.ClientURL); err != nil {
		return nil, fmt.Errorf("invalid CLIENT_URL: %w", err)
	}

	return cfg, nil
}

// SeedAdmin reports whether an admin account should be created at startup.
func (c *Config) SeedAdmin() bool {
	return c.AdminUsername != "" && c.AdminEmail != "" && c.AdminPassword != ""
}

func databaseURL(isTesting bool) string {
	if v := getEnv("DATABASE_URL", ""); v != "" {
		return v
	}

	name := getEnv("DATABASE_NAME", "kavholm")
	if isTesting {
		name = getEnv("DATABASE_TEST_NAME", "kavholm_test")
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getEnv("DATABASE_USER", "postgres"), getEnv("DATABASE_PASS", "postgres")),
		Host:     getEnv("DATABASE_HOST", "localhost") + ":" + getEnv("DATABASE_PORT", "5432"),
		Path:     name,
		RawQuery: "sslmode=" + getEnv("DATABASE_SSLMODE", "disable"),
	}
	return u.String()
}

func clampCost(cost int) int {
	if cost < bcrypt.MinCost {
		return bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		return bcrypt.MaxCost
	}
	return cost
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}
