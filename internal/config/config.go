// Package config loads the process configuration from the environment,
// optionally seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Session store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StoreMySQL    = "mysql"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreGorm     = "gorm"
)

type Config struct {
	HTTPAddr        string        `env:"VOXARA_HTTP_ADDR" envDefault:"localhost:3000"`
	Env             string        `env:"VOXARA_ENV" envDefault:"development"`
	LogLevel        string        `env:"VOXARA_LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"VOXARA_LOG_FORMAT"`
	ShutdownTimeout time.Duration `env:"VOXARA_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// TemplatesDir serves templates from disk and reloads them on every
	// request. Empty uses the embedded templates.
	TemplatesDir string `env:"VOXARA_TEMPLATES_DIR"`

	Session SessionConfig `envPrefix:"VOXARA_SESSION_"`
	Auth    AuthConfig    `envPrefix:"VOXARA_AUTH_"`
	Media   MediaConfig   `envPrefix:"VOXARA_MEDIA_"`
}

type SessionConfig struct {
	Store           string        `env:"STORE" envDefault:"memory"`
	Lifetime        time.Duration `env:"LIFETIME" envDefault:"24h"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT"`
	CookieName      string        `env:"COOKIE_NAME" envDefault:"session_id"`
	CookieSecure    bool          `env:"COOKIE_SECURE"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"5m"`

	RedisURL    string `env:"REDIS_URL"`
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"session:"`
	MySQLDSN    string `env:"MYSQL_DSN"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	// SQLitePath is used by both the sqlite and gorm stores.
	SQLitePath string `env:"SQLITE_PATH" envDefault:"voxara.db"`
}

type AuthConfig struct {
	// Accounts are "email:name:bcrypt-hash" entries separated by ";".
	// Bcrypt hashes contain "$", so single quote them in .env files.
	Accounts    []string      `env:"ACCOUNTS" envSeparator:";"`
	TokenKey    string        `env:"TOKEN_KEY"`
	TokenIssuer string        `env:"TOKEN_ISSUER" envDefault:"voxara"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
}

type MediaConfig struct {
	SpeechURL   string `env:"SPEECH_URL"`
	ImportURL   string `env:"IMPORT_URL"`
	VideoURL    string `env:"VIDEO_URL"`
	ProxyKey    string `env:"PROXY_KEY"`
	ProxySecret string `env:"PROXY_SECRET"`
	MaxTries    uint   `env:"MAX_TRIES" envDefault:"3"`
}

// LoadDotEnv loads the given .env files (".env" when none) into the
// process environment. Missing files are skipped; variables already set
// win over file values.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// ParseEnv reads the configuration from the process environment.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Parse reads the configuration from environ instead of the process
// environment.
func Parse(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// IsProduction reports whether Env names a production deployment.
func (c Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "production", "prod":
		return true
	}
	return false
}

// Level returns the parsed LogLevel.
func (c Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Format returns the log format, "json" in production and "text" otherwise
// unless LogFormat says differently.
func (c Config) Format() string {
	if c.LogFormat != "" {
		return strings.ToLower(c.LogFormat)
	}
	if c.IsProduction() {
		return "json"
	}
	return "text"
}

func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("VOXARA_HTTP_ADDR is required"))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("VOXARA_LOG_LEVEL: %w", err))
	}

	switch c.Format() {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("VOXARA_LOG_FORMAT: unknown format %q", c.LogFormat))
	}

	if c.Session.Lifetime <= 0 {
		errs = append(errs, errors.New("VOXARA_SESSION_LIFETIME must be positive"))
	}

	switch c.Session.Store {
	case StoreMemory:
	case StoreRedis:
		if c.Session.RedisURL == "" {
			errs = append(errs, errors.New("VOXARA_SESSION_REDIS_URL is required for the redis store"))
		}
	case StoreMySQL:
		if c.Session.MySQLDSN == "" {
			errs = append(errs, errors.New("VOXARA_SESSION_MYSQL_DSN is required for the mysql store"))
		}
	case StorePostgres:
		if c.Session.PostgresDSN == "" {
			errs = append(errs, errors.New("VOXARA_SESSION_POSTGRES_DSN is required for the postgres store"))
		}
	case StoreSQLite, StoreGorm:
		if strings.TrimSpace(c.Session.SQLitePath) == "" {
			errs = append(errs, fmt.Errorf("VOXARA_SESSION_SQLITE_PATH is required for the %s store", c.Session.Store))
		}
	default:
		errs = append(errs, fmt.Errorf("VOXARA_SESSION_STORE: unknown store %q", c.Session.Store))
	}

	if c.Auth.TokenKey != "" && len(c.Auth.TokenKey) < 32 {
		errs = append(errs, errors.New("VOXARA_AUTH_TOKEN_KEY must be at least 32 bytes"))
	}

	if c.Media.MaxTries == 0 {
		errs = append(errs, errors.New("VOXARA_MEDIA_MAX_TRIES must be at least 1"))
	}

	return errors.Join(errs...)
}
