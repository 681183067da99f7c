package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given. Its absence is not an error.
const DefaultPath = "config/config.yaml"

type ServerConfig struct {
	Port      int    `yaml:"port"`
	Env       string `yaml:"env"`
	ClientURL string `yaml:"client_url"`
	// StaticDir holds the built frontend; served only in production.
	StaticDir       string        `yaml:"static_dir"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// DSN empty -> in-memory store
	DSN            string        `yaml:"url"`
	MaxOpenConns   int           `yaml:"max_open_conns"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type AuthConfig struct {
	JWTSecret            string        `yaml:"jwt_secret"`
	SessionTTL           time.Duration `yaml:"session_ttl"`
	BcryptCost           int           `yaml:"bcrypt_cost"`
	VerificationTTL      time.Duration `yaml:"verification_ttl"`
	ResetTTL             time.Duration `yaml:"reset_ttl"`
	RequireVerifiedLogin bool          `yaml:"require_verified_login"`
}

type EmailConfig struct {
	SMTPHost       string        `yaml:"smtp_host"`
	SMTPPort       int           `yaml:"smtp_port"`
	SMTPUser       string        `yaml:"smtp_user"`
	SMTPPassword   string        `yaml:"smtp_password"`
	FromEmail      string        `yaml:"from_email"`
	FromName       string        `yaml:"from_name"`
	CompanyName    string        `yaml:"company_name"`
	StrictDelivery bool          `yaml:"strict_delivery"`
	SendTimeout    time.Duration `yaml:"send_timeout"`
	DryRun         bool          `yaml:"dry_run"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Email    EmailConfig    `yaml:"email"`
	Log      LogConfig      `yaml:"log"`
}

// Load reads the YAML file at path, applies environment overrides and defaults,
// then validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := cfg.readFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) readFile(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultPath {
			return nil
		}
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Server.ClientURL == "" {
		c.Server.ClientURL = "http://localhost:5173"
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = "frontend/dist"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}

	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.ConnectTimeout == 0 {
		c.Database.ConnectTimeout = 30 * time.Second
	}

	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = 7 * 24 * time.Hour
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = 10
	}
	if c.Auth.VerificationTTL == 0 {
		c.Auth.VerificationTTL = 24 * time.Hour
	}
	if c.Auth.ResetTTL == 0 {
		c.Auth.ResetTTL = time.Hour
	}

	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Email.FromName == "" {
		c.Email.FromName = c.Email.CompanyName
	}
	if c.Email.SendTimeout == 0 {
		c.Email.SendTimeout = 30 * time.Second
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Server.Env, validation.In("development", "production", "test")),
	); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validation.ValidateStruct(&c.Auth,
		validation.Field(&c.Auth.JWTSecret, validation.Required),
		validation.Field(&c.Auth.SessionTTL, validation.Min(time.Second)),
		validation.Field(&c.Auth.VerificationTTL, validation.Min(time.Second)),
		validation.Field(&c.Auth.ResetTTL, validation.Min(time.Second)),
		validation.Field(&c.Auth.BcryptCost, validation.Min(4), validation.Max(31)),
	); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if c.Email.SMTPHost != "" && !c.Email.DryRun {
		if err := validation.ValidateStruct(&c.Email,
			validation.Field(&c.Email.FromEmail, validation.Required),
		); err != nil {
			return fmt.Errorf("email: %w", err)
		}
	}
	return validation.Validate(c.Log.Level, validation.In("debug", "info", "warn", "error"))
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
