package config

import (
	"os"
	"strconv"
	"strings"
)

func (c *Config) applyEnv() {
	envInt("PORT", &c.Server.Port)
	envString("APP_ENV", &c.Server.Env)
	envString("CLIENT_URL", &c.Server.ClientURL)
	envString("DATABASE_URL", &c.Database.DSN)
	envString("JWT_SECRET", &c.Auth.JWTSecret)
	envString("SMTP_HOST", &c.Email.SMTPHost)
	envInt("SMTP_PORT", &c.Email.SMTPPort)
	envString("SMTP_USER", &c.Email.SMTPUser)
	envString("MAILTRAP_TOKEN", &c.Email.SMTPPassword)
	// SMTP_PASSWORD wins over the Mailtrap token
	envString("SMTP_PASSWORD", &c.Email.SMTPPassword)
	envString("MAIL_FROM", &c.Email.FromEmail)
	envBool("EMAIL_STRICT_DELIVERY", &c.Email.StrictDelivery)
	envString("LOG_LEVEL", &c.Log.Level)
}

func envString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		*dst = n
	}
}

func envBool(key string, dst *bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if b, err := strconv.ParseBool(v); err == nil {
		*dst = b
	}
}
