package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Config holds the application configuration.
// Sources by priority: explicit path, CONFIG_PATH, ./local.yaml, then environment only.
// Environment variables always override values read from a file.
type Config struct {
	Env      string         `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Cookie   CookieConfig   `yaml:"cookie"`
	Database DBConfig       `yaml:"database"`
	Sessions SessionsConfig `yaml:"sessions"`
	Query    QueryConfig    `yaml:"query"`
	S3       S3Config       `yaml:"s3"`
	Stripe   StripeConfig   `yaml:"stripe"`
	SMTP     SMTPConfig     `yaml:"smtp"`
}

// HTTPConfig holds listener and public URL settings
type HTTPConfig struct {
	Host          string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port          string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	AllowedOrigin string `yaml:"allowed_origin" env:"HTTP_ALLOWED_ORIGIN" env-default:"http://localhost:3000"`
	BaseURL       string `yaml:"base_url" env:"HTTP_BASE_URL" env-default:"http://localhost:8080"`
}

// Addr returns host:port
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// AuthConfig holds token signing settings. Keys are inline PEM or a path to a PEM file.
type AuthConfig struct {
	AccessPrivateKey  string        `yaml:"access_private_key" env:"ACCESS_TOKEN_PRIVATE_KEY"`
	AccessPublicKey   string        `yaml:"access_public_key" env:"ACCESS_TOKEN_PUBLIC_KEY"`
	RefreshPrivateKey string        `yaml:"refresh_private_key" env:"REFRESH_TOKEN_PRIVATE_KEY"`
	RefreshPublicKey  string        `yaml:"refresh_public_key" env:"REFRESH_TOKEN_PUBLIC_KEY"`
	AccessTokenTTL    time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL   time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"8760h"`
	Issuer            string        `yaml:"issuer" env:"TOKEN_ISSUER" env-default:"tourbook"`
	BcryptCost        int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"12"`
}

// CookieConfig holds auth cookie scoping
type CookieConfig struct {
	Domain string `yaml:"domain" env:"COOKIE_DOMAIN" env-default:"localhost"`
	Path   string `yaml:"path" env:"COOKIE_PATH" env-default:"/"`
}

// DBConfig selects the primary document store
type DBConfig struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER" env-default:"memory"`
	MongoURL string `yaml:"mongo_url" env:"MONGO_URL" env-default:"mongodb://localhost:27017/tourbook"`
}

// SessionsConfig selects where sessions live and whether reads are cached
type SessionsConfig struct {
	Store       string        `yaml:"store" env:"SESSION_STORE" env-default:"primary"`
	PostgresDSN string        `yaml:"postgres_dsn" env:"SESSION_POSTGRES_DSN"`
	CacheURL    string        `yaml:"cache_url" env:"SESSION_CACHE_URL"`
	CacheTTL    time.Duration `yaml:"cache_ttl" env:"SESSION_CACHE_TTL" env-default:"10m"`
}

// QueryConfig bounds list endpoints
type QueryConfig struct {
	DefaultLimit int `yaml:"default_limit" env:"QUERY_DEFAULT_LIMIT" env-default:"4"`
	MaxLimit     int `yaml:"max_limit" env:"QUERY_MAX_LIMIT" env-default:"100"`
}

// S3Config configures image storage. Uploads are disabled when Endpoint is empty.
type S3Config struct {
	Endpoint      string `yaml:"endpoint" env:"S3_ENDPOINT"`
	AccessKey     string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey     string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	Bucket        string `yaml:"bucket" env:"S3_BUCKET" env-default:"tourbook"`
	PublicBaseURL string `yaml:"public_base_url" env:"S3_PUBLIC_BASE_URL"`
	MaxImageBytes int64  `yaml:"max_image_bytes" env:"S3_MAX_IMAGE_BYTES" env-default:"5242880"`
}

// StripeConfig configures checkout. Bookings via checkout are disabled when SecretKey is empty.
type StripeConfig struct {
	SecretKey     string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	Currency      string `yaml:"currency" env:"STRIPE_CURRENCY" env-default:"usd"`
}

// SMTPConfig configures transactional email. Email is a no-op when Host is empty.
type SMTPConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM" env-default:"Tourbook <hello@tourbook.local>"`
}

// IsProduction reports whether cookies must be secure and cross-site
func (c *Config) IsProduction() bool {
	return c.Env == EnvProd
}

// MustLoad wraps Load and panics on error
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load loads configuration by priority: explicit path, CONFIG_PATH, ./local.yaml, environment
func Load(path string) (*Config, error) {
	var cfg Config

	// ReadConfig overlays env on top of the file values
	readFile := func(p string) error {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("config file %q stat failed: %w", p, err)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		return nil
	}

	var err error
	switch {
	case path != "":
		err = readFile(path)
	case os.Getenv("CONFIG_PATH") != "":
		err = readFile(os.Getenv("CONFIG_PATH"))
	default:
		if _, statErr := os.Stat("local.yaml"); statErr == nil {
			err = readFile("local.yaml")
		} else if envErr := cleanenv.ReadEnv(&cfg); envErr != nil {
			err = fmt.Errorf("failed to read env: %w", envErr)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that tags cannot express
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.AccessPrivateKey == "" || c.Auth.AccessPublicKey == "" {
		errs = append(errs, errors.New("config: access token key pair must be set"))
	}
	if c.Auth.RefreshPrivateKey == "" || c.Auth.RefreshPublicKey == "" {
		errs = append(errs, errors.New("config: refresh token key pair must be set"))
	}
	if c.Auth.AccessTokenTTL < 0 || c.Auth.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("config: token TTLs must be positive"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, errors.New("config: BCRYPT_COST must be between 4 and 31"))
	}
	switch c.Database.Driver {
	case "memory", "mongo":
	default:
		errs = append(errs, fmt.Errorf("config: unknown DB_DRIVER %q", c.Database.Driver))
	}
	switch c.Sessions.Store {
	case "primary":
	case "postgres":
		if c.Sessions.PostgresDSN == "" {
			errs = append(errs, errors.New("config: SESSION_POSTGRES_DSN is required for the postgres session store"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown SESSION_STORE %q", c.Sessions.Store))
	}
	if c.Query.DefaultLimit <= 0 || c.Query.MaxLimit < c.Query.DefaultLimit {
		errs = append(errs, errors.New("config: query limits must satisfy 0 < default <= max"))
	}

	return errors.Join(errs...)
}
