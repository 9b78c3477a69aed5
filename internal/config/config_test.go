package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "ENVIRONMENT", "APPLICATION_NAME", "CLIENT_URL", "CORS_ALLOWED_ORIGIN",
		"DATABASE_URL", "DATABASE_USER", "DATABASE_PASS", "DATABASE_HOST", "DATABASE_PORT",
		"DATABASE_NAME", "DATABASE_TEST_NAME", "DATABASE_SSLMODE",
		"SECRET_KEY", "BCRYPT_WORK_FACTOR",
		"EMAIL_SERVICE_STATUS", "SENDGRID_API_KEY", "EMAIL_FROM_ADDRESS",
		"ADMIN_USERNAME", "ADMIN_EMAIL", "ADMIN_PASSWORD", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", EnvDevelopment)
	t.Setenv("CLIENT_URL", "http://localhost:3000/")
	t.Setenv("PORT", "3001")
	t.Setenv("BCRYPT_WORK_FACTOR", "13")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, devSecretKey, cfg.SecretKey)
	assert.Equal(t, 13, cfg.BcryptWorkFactor)
	assert.Equal(t, "http://localhost:3000", cfg.ClientURL)
	assert.Equal(t, cfg.ClientURL, cfg.CORSOrigin)
	assert.False(t, cfg.EmailServiceActive)
	assert.False(t, cfg.SeedAdmin())
}

func TestFromEnv_TestEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", EnvTest)
	t.Setenv("CLIENT_URL", "http://localhost:3000")
	t.Setenv("EMAIL_SERVICE_STATUS", "active")
	t.Setenv("BCRYPT_WORK_FACTOR", "13")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.False(t, cfg.EmailServiceActive, "email is never active under test")
	assert.Equal(t, bcrypt.MinCost, cfg.BcryptWorkFactor)
}

func TestFromEnv_ProductionRequiresSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", EnvProduction)
	t.Setenv("CLIENT_URL", "https://kavholm.example")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "SECRET_KEY")

	t.Setenv("SECRET_KEY", "prod-secret")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "prod-secret", cfg.SecretKey)
}

func TestFromEnv_ActiveEmailRequiresCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", EnvDevelopment)
	t.Setenv("CLIENT_URL", "http://localhost:3000")
	t.Setenv("EMAIL_SERVICE_STATUS", "active")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "SENDGRID_API_KEY")

	t.Setenv("SENDGRID_API_KEY", "SG.key")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "EMAIL_FROM_ADDRESS")

	t.Setenv("EMAIL_FROM_ADDRESS", "noreply@kavholm.example")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.EmailServiceActive)
}

func TestFromEnv_DatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", EnvDevelopment)
	t.Setenv("CLIENT_URL", "http://localhost:3000")
	t.Setenv("DATABASE_USER", "kav")
	t.Setenv("DATABASE_PASS", "p@ss")
	t.Setenv("DATABASE_HOST", "db")
	t.Setenv("DATABASE_PORT", "5433")
	t.Setenv("DATABASE_NAME", "homes")
	t.Setenv("DATABASE_SSLMODE", "require")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres://kav:p%40ss@db:5433/homes?sslmode=require", cfg.DatabaseURL)

	t.Setenv("DATABASE_URL", "postgres://override")
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres://override", cfg.DatabaseURL)
}

func TestClampCost(t *testing.T) {
	assert.Equal(t, bcrypt.MinCost, clampCost(1))
	assert.Equal(t, 10, clampCost(10))
	assert.Equal(t, bcrypt.MaxCost, clampCost(99))
}

func TestSeedAdmin(t *testing.T) {
	cfg := &Config{AdminUsername: "root", AdminEmail: "root@kavholm.io"}
	assert.False(t, cfg.SeedAdmin())

	cfg.AdminPassword = "secret"
	assert.True(t, cfg.SeedAdmin())
}
