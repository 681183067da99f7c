package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks the overrides so the host environment cannot leak into a test.
func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "APP_ENV", "CLIENT_URL", "DATABASE_URL", "JWT_SECRET", "SMTP_HOST", "SMTP_PORT",
		"SMTP_USER", "SMTP_PASSWORD", "MAILTRAP_TOKEN", "MAIL_FROM", "EMAIL_STRICT_DELIVERY", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  port: 8080
auth:
  jwt_secret: s3cret
  reset_ttl: 30m
email:
  company_name: Acme
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "http://localhost:5173", cfg.Server.ClientURL)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.VerificationTTL)
	assert.Equal(t, 30*time.Minute, cfg.Auth.ResetTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "Acme", cfg.Email.FromName)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Database.DSN)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
auth:
  jwt_secret: from-file
`)
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/auth?sslmode=disable")
	t.Setenv("MAILTRAP_TOKEN", "mt-token")
	t.Setenv("MAIL_FROM", "noreply@example.com")
	t.Setenv("EMAIL_STRICT_DELIVERY", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "postgres://u:p@localhost/auth?sslmode=disable", cfg.Database.DSN)
	assert.Equal(t, "mt-token", cfg.Email.SMTPPassword)
	assert.True(t, cfg.Email.StrictDelivery)

	t.Setenv("SMTP_PASSWORD", "explicit")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.Email.SMTPPassword)
}

func TestLoad_Rejects(t *testing.T) {
	clearEnv(t)
	cases := map[string]string{
		"missing secret": `server: {port: 8080}`,
		"bad env":        "auth: {jwt_secret: s}\nserver: {env: staging}",
		"bad log level":  "auth: {jwt_secret: s}\nlog: {level: loud}",
		"bad cost":       "auth: {jwt_secret: s, bcrypt_cost: 99}",
		"smtp w/o from":  "auth: {jwt_secret: s}\nemail: {smtp_host: smtp.example.com}",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "s")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}
