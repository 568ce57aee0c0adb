package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env          string `env:"APP_ENV" envDefault:"dev"`
	Port         int    `env:"PORT" envDefault:"8080"`
	MaxBodyBytes int64  `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	DB    DB    `envPrefix:"DB_"`
	JWT   JWT   `envPrefix:"JWT_"`
	Auth  Auth  `envPrefix:"AUTH_"`
	Admin Admin `envPrefix:"ADMIN_"`
	Redis Redis `envPrefix:"REDIS_"`
	OTel  OTel  `envPrefix:"OTEL_"`

	LoginRateLimit     int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateWindow    time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

type DB struct {
	Host          string `env:"HOST" envDefault:"127.0.0.1"`
	Port          string `env:"PORT" envDefault:"5432"`
	User          string `env:"USER" envDefault:"authcore"`
	Password      string `env:"PASSWORD" envDefault:"authcore"`
	Name          string `env:"NAME" envDefault:"authcore"`
	SSLMode       string `env:"SSLMODE" envDefault:"disable"`
	MaxConns      int32  `env:"MAX_CONNS" envDefault:"5"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
}

type JWT struct {
	Algorithm        string `env:"ALGORITHM" envDefault:"RS256"`
	PrivateKeyPath   string `env:"PRIVATE_KEY_PATH"`
	PublicKeyPath    string `env:"PUBLIC_KEY_PATH"`
	AccessTTLMinutes int    `env:"ACCESS_TTL_MINUTES" envDefault:"15"`
	RefreshTTLDays   int    `env:"REFRESH_TTL_DAYS" envDefault:"7"`
}

type Auth struct {
	AdminRole   string `env:"ADMIN_ROLE" envDefault:"admin"`
	DefaultRole string `env:"DEFAULT_ROLE" envDefault:"user"`
	BcryptCost  int    `env:"BCRYPT_COST" envDefault:"12"`
}

// Admin seeds a bootstrap administrator when both Email and Password are set.
type Admin struct {
	Email    string `env:"EMAIL"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME" envDefault:"admin"`
}

type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type OTel struct {
	Endpoint    string `env:"EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"authcore"`
}

// Load reads .env files when present, then the process environment.
// Variables already set in the environment win over .env values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.JWT.PrivateKeyPath == "" || c.JWT.PublicKeyPath == "" {
		errs = append(errs, errors.New("JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH are required"))
	}
	if c.JWT.AccessTTLMinutes <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TTL_MINUTES must be positive"))
	}
	if c.JWT.RefreshTTLDays <= 0 {
		errs = append(errs, errors.New("JWT_REFRESH_TTL_DAYS must be positive"))
	}
	if c.Auth.AdminRole == "" || c.Auth.DefaultRole == "" {
		errs = append(errs, errors.New("AUTH_ADMIN_ROLE and AUTH_DEFAULT_ROLE must be set"))
	}
	if c.Auth.AdminRole == c.Auth.DefaultRole {
		errs = append(errs, errors.New("AUTH_ADMIN_ROLE must differ from AUTH_DEFAULT_ROLE"))
	}
	if c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive"))
	}

	return errors.Join(errs...)
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWT.AccessTTLMinutes) * time.Minute
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWT.RefreshTTLDays) * 24 * time.Hour
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

// DBURL builds the postgres connection string.
func (c Config) DBURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     c.DB.Host + ":" + c.DB.Port,
		Path:     "/" + c.DB.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.DB.SSLMode),
	}
	return u.String()
}

func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}
