package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirinyoku/livechain-go/internal/viewport"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Acquire  AcquireConfig
	Static   StaticConfig
	Viewport viewport.Config
	Log      LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type PostgresConfig struct {
	User           string
	Password       string
	Name           string
	Host           string
	Port           int
	SSLMode        string
	MaxConns       int32
	MigrateOnStart bool
}

// DSN renders the connection URL understood by both pgx and lib/pq.
func (c PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type CacheConfig struct {
	PlacesTTL     time.Duration
	CollectionTTL time.Duration
}

type AcquireConfig struct {
	RateLimit      int
	RateWindow     time.Duration
	IdempotencyTTL time.Duration
}

type StaticConfig struct {
	Dir    string
	Prefix string
}

type LogConfig struct {
	Level  string
	Format string
}

// New reads the configuration from the environment, after loading an
// optional .env file from the working directory.
func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cfg, nil
}

// FromEnv builds the configuration from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	e := env{get: getenv}

	cfg := &Config{
		Server: ServerConfig{
			Host: e.str("SERVER_HOST", "localhost"),
			Port: e.int("SERVER_PORT", 8080),
		},
		Postgres: PostgresConfig{
			Host:           e.str("POSTGRES_HOST", "localhost"),
			Port:           e.int("POSTGRES_PORT", 5432),
			User:           e.required("POSTGRES_USER"),
			Password:       e.required("POSTGRES_PASSWORD"),
			Name:           e.required("POSTGRES_DB"),
			SSLMode:        e.str("POSTGRES_SSLMODE", "disable"),
			MaxConns:       int32(e.int("POSTGRES_MAX_CONNS", 0)),
			MigrateOnStart: e.bool("MIGRATE_ON_START", true),
		},
		Redis: RedisConfig{
			Enabled:  e.bool("REDIS_ENABLED", true),
			Addr:     e.str("REDIS_ADDR", "localhost:6379"),
			Password: e.str("REDIS_PASSWORD", ""),
			DB:       e.int("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			PlacesTTL:     e.duration("CACHE_PLACES_TTL", 60*time.Second),
			CollectionTTL: e.duration("CACHE_COLLECTION_TTL", 15*time.Second),
		},
		Acquire: AcquireConfig{
			RateLimit:      e.int("ACQUIRE_RATE_LIMIT", 30),
			RateWindow:     e.duration("ACQUIRE_RATE_WINDOW", time.Minute),
			IdempotencyTTL: e.duration("IDEMPOTENCY_TTL", 2*time.Hour),
		},
		Static: StaticConfig{
			Dir:    e.str("STATIC_DIR", ""),
			Prefix: e.str("STATIC_PREFIX", "/static"),
		},
		Viewport: viewport.Config{
			MinDelta:       e.float("VIEWPORT_MIN_DELTA", viewport.DefaultConfig().MinDelta),
			MaxDelta:       e.float("VIEWPORT_MAX_DELTA", viewport.DefaultConfig().MaxDelta),
			MinSize:        e.float("VIEWPORT_MIN_SIZE", viewport.DefaultConfig().MinSize),
			MaxSize:        e.float("VIEWPORT_MAX_SIZE", viewport.DefaultConfig().MaxSize),
			LabelThreshold: e.float("VIEWPORT_LABEL_THRESHOLD", viewport.DefaultConfig().LabelThreshold),
		},
		Log: LogConfig{
			Level:  e.str("LOG_LEVEL", "info"),
			Format: e.str("LOG_FORMAT", "json"),
		},
	}

	if len(e.errs) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(e.errs, "; "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks ranges that parsing alone cannot.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "SERVER_PORT must be between 1 and 65535")
	}
	if c.Postgres.MaxConns < 0 {
		errs = append(errs, "POSTGRES_MAX_CONNS must not be negative")
	}
	if c.Cache.PlacesTTL <= 0 || c.Cache.CollectionTTL <= 0 {
		errs = append(errs, "cache TTLs must be positive")
	}
	if c.Acquire.RateLimit <= 0 || c.Acquire.RateWindow <= 0 {
		errs = append(errs, "ACQUIRE_RATE_LIMIT and ACQUIRE_RATE_WINDOW must be positive")
	}
	if c.Acquire.IdempotencyTTL <= 0 {
		errs = append(errs, "IDEMPOTENCY_TTL must be positive")
	}
	if !strings.HasPrefix(c.Static.Prefix, "/") || c.Static.Prefix == "/" {
		errs = append(errs, "STATIC_PREFIX must start with / and name a path")
	}
	if err := c.Viewport.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}

	return nil
}

// env collects parse failures so every bad variable is reported at once.
type env struct {
	get  func(string) string
	errs []string
}

func (e *env) str(key, def string) string {
	if v := strings.TrimSpace(e.get(key)); v != "" {
		return v
	}
	return def
}

func (e *env) required(key string) string {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		e.errs = append(e.errs, "missing "+key)
	}
	return v
}

func (e *env) int(key string, def int) int {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("invalid %s: %q", key, v))
		return def
	}
	return n
}

func (e *env) float(key string, def float64) float64 {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("invalid %s: %q", key, v))
		return def
	}
	return f
}

func (e *env) bool(key string, def bool) bool {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("invalid %s: %q", key, v))
		return def
	}
	return b
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("invalid %s: %q", key, v))
		return def
	}
	return d
}
