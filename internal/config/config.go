// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Contact email uniqueness policies.
const (
	EmailUniqueGlobal = "global"
	EmailUniqueOwner  = "owner"
	EmailUniqueNone   = "none"
)

// Config is the complete process configuration. It is loaded once at start.
type Config struct {
	App       AppConfig
	DB        DBConfig
	JWT       JWTConfig
	Mail      MailConfig
	Redis     RedisConfig
	S3        S3Config
	RateLimit RateLimitConfig
	Contacts  ContactsConfig
	Tasks     TaskConfig
}

type AppConfig struct {
	Port          string   `envconfig:"APP_PORT" default:"8000"`
	LogLevel      string   `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat     string   `envconfig:"LOG_FORMAT" default:"json"`
	CORSOrigins   []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,localhost:3000"`
	RunMigrations bool     `envconfig:"RUN_MIGRATIONS" default:"false"`
	// BaseURL is the public scheme://host/ that emailed links point at.
	BaseURL string `envconfig:"APP_BASE_URL" default:"http://localhost:8000/"`
}

type DBConfig struct {
	URL      string `envconfig:"DB_URL"`
	Name     string `envconfig:"PG_DB"`
	User     string `envconfig:"PG_USER"`
	Password string `envconfig:"PG_PASSWORD"`
	Host     string `envconfig:"PG_DOMAIN" default:"localhost"`
	Port     int    `envconfig:"PG_PORT" default:"5432"`
	SSLMode  string `envconfig:"PG_SSLMODE" default:"disable"`

	ConnectTimeout  time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"60s"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
}

type JWTConfig struct {
	Secret     string        `envconfig:"SECRET_KEY_JWT" required:"true"`
	Algorithm  string        `envconfig:"ALGORITHM" default:"HS256"`
	AccessTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`
	EmailTTL   time.Duration `envconfig:"EMAIL_TOKEN_TTL" default:"168h"`
}

type MailConfig struct {
	Username string `envconfig:"MAIL_USERNAME"`
	Password string `envconfig:"MAIL_PASSWORD"`
	From     string `envconfig:"MAIL_FROM"`
	FromName string `envconfig:"MAIL_FROM_NAME" default:"Contacts Systems"`
	Port     int    `envconfig:"MAIL_PORT" default:"587"`
	Server   string `envconfig:"MAIL_SERVER"`
}

// Enabled reports whether an SMTP server is configured.
func (m MailConfig) Enabled() bool {
	return m.Server != ""
}

type RedisConfig struct {
	Host     string        `envconfig:"REDIS_DOMAIN"`
	Port     int           `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	UserTTL  time.Duration `envconfig:"REDIS_USER_CACHE_TTL" default:"15m"`
}

// Addr returns host:port, or an empty string when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type S3Config struct {
	Bucket     string `envconfig:"S3_BUCKET"`
	Region     string `envconfig:"S3_REGION" default:"us-east-1"`
	Endpoint   string `envconfig:"S3_ENDPOINT"`
	AccessKey  string `envconfig:"S3_ACCESS_KEY"`
	SecretKey  string `envconfig:"S3_SECRET_KEY"`
	PublicBase string `envconfig:"S3_PUBLIC_BASE_URL"`
	PathStyle  bool   `envconfig:"S3_USE_PATH_STYLE" default:"true"`
}

// Enabled reports whether an avatar bucket is configured.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

type RateLimitConfig struct {
	ListLimit    int           `envconfig:"RATE_LIMIT_LIST" default:"10"`
	ListWindow   time.Duration `envconfig:"RATE_LIMIT_LIST_WINDOW" default:"60s"`
	CreateLimit  int           `envconfig:"RATE_LIMIT_CREATE" default:"2"`
	CreateWindow time.Duration `envconfig:"RATE_LIMIT_CREATE_WINDOW" default:"300s"`
}

type ContactsConfig struct {
	EmailUniqueness string `envconfig:"CONTACT_EMAIL_UNIQUENESS" default:"owner"`
}

type TaskConfig struct {
	Workers   int           `envconfig:"TASK_WORKERS" default:"2"`
	QueueSize int           `envconfig:"TASK_QUEUE_SIZE" default:"100"`
	Timeout   time.Duration `envconfig:"TASK_TIMEOUT" default:"30s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("SECRET_KEY_JWT must not be empty")
	}
	if c.DB.URL == "" && (c.DB.Name == "" || c.DB.User == "") {
		return errors.New("database is not configured: set DB_URL or PG_DB and PG_USER")
	}
	switch strings.ToUpper(c.JWT.Algorithm) {
	case "HS256", "HS384", "HS512":
		c.JWT.Algorithm = strings.ToUpper(c.JWT.Algorithm)
	default:
		return fmt.Errorf("unsupported ALGORITHM %q: only HS256, HS384 and HS512 are allowed", c.JWT.Algorithm)
	}
	switch c.Contacts.EmailUniqueness {
	case EmailUniqueGlobal, EmailUniqueOwner, EmailUniqueNone:
	default:
		return fmt.Errorf("invalid CONTACT_EMAIL_UNIQUENESS %q", c.Contacts.EmailUniqueness)
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 || c.JWT.EmailTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	base, err := normalizeBaseURL(c.App.BaseURL)
	if err != nil {
		return err
	}
	c.App.BaseURL = base
	return nil
}

// normalizeBaseURL accepts an absolute http(s) URL without query or fragment
// and returns it with exactly one trailing slash.
func normalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid APP_BASE_URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("invalid APP_BASE_URL %q: want http(s)://host[/path]", raw)
	}
	return u.Scheme + "://" + u.Host + strings.TrimRight(u.Path, "/") + "/", nil
}
