package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ProductionBcryptCost is the only work factor accepted in production.
const ProductionBcryptCost = 12

// User deletion policies.
const (
	DeletePolicyOrphan   = "orphan"
	DeletePolicyRestrict = "restrict"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Events    EventsConfig
	Users     UsersConfig
	Seed      SeedConfig
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
	JWTSecret    string
	BcryptCost   int
	CookieName   string
	CookieSecure bool
}

// RateLimitConfig drives the login token bucket.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
}

// EventsConfig selects the optional broker sink for ticket events.
type EventsConfig struct {
	AMQPURL string
	Queue   string
}

// UsersConfig controls account management behavior.
type UsersConfig struct {
	DeletePolicy string
}

// SeedConfig describes the bootstrap administrator.
type SeedConfig struct {
	AdminName     string
	AdminUsername string
	AdminPassword string
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
			Name:                  getEnv("APP_NAME", "incident-tracker"),
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
			JWTSecret:    os.Getenv("AUTH_JWT_SECRET"),
			BcryptCost:   getEnvAsInt("AUTH_BCRYPT_COST", ProductionBcryptCost),
			CookieName:   getEnv("AUTH_COOKIE_NAME", "session_token"),
			CookieSecure: getEnvAsBool("AUTH_COOKIE_SECURE", false),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvAsBool("LOGIN_RATE_LIMIT_ENABLED", true),
			Capacity:       getEnvAsInt("LOGIN_RATE_LIMIT_CAPACITY", 10),
			RefillTokens:   getEnvAsInt("LOGIN_RATE_LIMIT_REFILL_TOKENS", 1),
			RefillInterval: getEnvAsDuration("LOGIN_RATE_LIMIT_REFILL_INTERVAL", 30*time.Second),
			TTL:            getEnvAsDuration("LOGIN_RATE_LIMIT_TTL", 15*time.Minute),
		},
		Events: EventsConfig{
			AMQPURL: os.Getenv("AMQP_URL"),
			Queue:   getEnv("AMQP_TICKET_QUEUE", "tickets.events"),
		},
		Users: UsersConfig{
			DeletePolicy: getEnv("USER_DELETE_POLICY", DeletePolicyOrphan),
		},
		Seed: SeedConfig{
			AdminName:     getEnv("SEED_ADMIN_NAME", "Administrador"),
			AdminUsername: getEnv("SEED_ADMIN_USERNAME", "admin"),
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", "admin123"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		if c.App.Env == "production" {
			return errors.New("AUTH_JWT_SECRET is required in production")
		}
		c.Auth.JWTSecret = "dev-secret"
	}
	if c.App.Env == "production" && c.Auth.BcryptCost != ProductionBcryptCost {
		return fmt.Errorf("AUTH_BCRYPT_COST must be %d in production, got %d", ProductionBcryptCost, c.Auth.BcryptCost)
	}
	switch c.Users.DeletePolicy {
	case DeletePolicyOrphan, DeletePolicyRestrict:
	default:
		return fmt.Errorf("invalid USER_DELETE_POLICY %q", c.Users.DeletePolicy)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
