package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnvs is a helper that sets multiple env vars for the duration of a test.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8007, cfg.HTTPPort)
	assert.Equal(t, 4, cfg.OtpLength)
	assert.Equal(t, 5*time.Minute, cfg.OtpTTL)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, 720*time.Hour, cfg.JWTRefreshExpiry)
	assert.Equal(t, []string{"RU"}, cfg.SMSRuCountries)
	assert.False(t, cfg.SilentDeliveryFailure)
}

func TestLoad_Development_AcceptsDefaultSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "development",
		"JWT_SECRET":  "change-this-to-a-secure-secret",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "change-this-to-a-secure-secret", cfg.JWTSecret)
}

func TestLoad_Production_RejectsDefaultSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  "change-this-to-a-secure-secret",
	})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET must be explicitly set")
}

func TestLoad_Production_RejectsShortSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  "short",
	})

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")
}

func TestLoad_Production_AcceptsStrongSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  "a-very-long-and-random-secret-value-12345",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
}

func TestLoad_RejectsInvalidPort(t *testing.T) {
	setEnvs(t, map[string]string{"AUTH_HTTP_PORT": "70000"})

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_RejectsInvalidOtpLength(t *testing.T) {
	setEnvs(t, map[string]string{"OTP_CODE_LENGTH": "2"})

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid OTP code length")
}

func TestLoad_RejectsAccessExpiryNotBelowRefresh(t *testing.T) {
	setEnvs(t, map[string]string{
		"JWT_ACCESS_TOKEN_EXPIRY":  "720h",
		"JWT_REFRESH_TOKEN_EXPIRY": "15m",
	})

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be shorter than refresh")
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost: "db.internal",
		PostgresPort: 5433,
		PostgresUser: "sso",
		PostgresPass: "pw",
		PostgresDB:   "auth_db",
		PostgresSSL:  "require",
	}

	assert.Equal(t, "postgres://sso:pw@db.internal:5433/auth_db?sslmode=require", cfg.PostgresDSN())
}
