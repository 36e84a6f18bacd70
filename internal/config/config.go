package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevTokenSecret is only used outside production when AUTH_ALLOW_DEV_SECRET is set.
const DevTokenSecret = "quizgate-local-development-secret"

const envProduction = "production"

// ErrMissingTokenSecret is returned when no signing secret is configured.
var ErrMissingTokenSecret = errors.New("AUTH_TOKEN_SECRET is required")

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	TokenSecret          string
	TokenLifetimeSeconds int
	BcryptCost           int
	CookieName           string
	AllowDevSecret       bool
	// UsingDevSecret is set by Load when DevTokenSecret was substituted.
	UsingDevSecret     bool
	LoginMaxAttempts   int
	LoginWindowSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "quizgate"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			TokenSecret:          os.Getenv("AUTH_TOKEN_SECRET"),
			TokenLifetimeSeconds: getEnvAsInt("AUTH_TOKEN_LIFETIME_SECONDS", 86400),
			BcryptCost:           getEnvAsInt("AUTH_BCRYPT_COST", 12),
			CookieName:           getEnv("AUTH_COOKIE_NAME", "auth_token"),
			AllowDevSecret:       getEnvAsBool("AUTH_ALLOW_DEV_SECRET", false),
			LoginMaxAttempts:     getEnvAsInt("AUTH_LOGIN_MAX_ATTEMPTS", 10),
			LoginWindowSeconds:   getEnvAsInt("AUTH_LOGIN_WINDOW_SECONDS", 900),
		},
	}

	if err := cfg.resolveTokenSecret(); err != nil {
		return nil, err
	}
	if cfg.Auth.TokenLifetimeSeconds <= 0 {
		return nil, fmt.Errorf("invalid AUTH_TOKEN_LIFETIME_SECONDS: %d", cfg.Auth.TokenLifetimeSeconds)
	}

	return cfg, nil
}

func (c *Config) resolveTokenSecret() error {
	if c.Auth.AllowDevSecret && c.App.IsProduction() {
		return errors.New("AUTH_ALLOW_DEV_SECRET must not be set in production")
	}
	if strings.TrimSpace(c.Auth.TokenSecret) != "" {
		return nil
	}
	if !c.Auth.AllowDevSecret {
		return ErrMissingTokenSecret
	}
	c.Auth.TokenSecret = DevTokenSecret
	c.Auth.UsingDevSecret = true
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the service runs in production mode.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, envProduction)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenLifetime returns the configured token lifetime.
func (a AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(a.TokenLifetimeSeconds) * time.Second
}

// LoginWindow returns the login throttle window.
func (a AuthConfig) LoginWindow() time.Duration {
	return time.Duration(a.LoginWindowSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
