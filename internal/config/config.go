package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"furamora/internal/db"
	"furamora/internal/mirror"
	"furamora/models"
)

// Config holds all application configuration.
type Config struct {
	Store  StoreConfig
	GRPC   GRPCConfig
	HTTP   HTTPConfig
	Auth   AuthConfig
	Admin  models.AdminSeed
	Mirror MirrorConfig
	Log    LogConfig
}

// StoreConfig selects the SQL backend of the record store.
type StoreConfig struct {
	Driver      db.Driver
	Path        string // SQLite database file path
	DatabaseURL string // PostgreSQL DSN
}

// DSN returns the data source name for the selected driver.
func (s StoreConfig) DSN() string {
	if s.Driver == db.DriverPostgres {
		return s.DatabaseURL
	}
	return s.Path
}

// GRPCConfig contains gRPC server settings.
type GRPCConfig struct {
	Address string // gRPC server listen address (e.g., ":50051")
}

// HTTPConfig contains the ops (health + metrics) listener settings.
type HTTPConfig struct {
	Address string
}

// AuthConfig contains session token settings.
type AuthConfig struct {
	SessionSecret string // HS256 signing secret of session tokens
}

// MirrorConfig selects the replication sink.
type MirrorConfig struct {
	Driver  string // "none" or "s3"
	S3      mirror.S3Config
	Timeout time.Duration
}

// LogConfig controls the apex/log handler.
type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// Load loads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg, err := load("")
	if err != nil {
		return nil, err
	}
	// Validate critical settings
	if cfg.Auth.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for SESSION_SECRET in development.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	return load("dev-secret-change-me")
}

func load(defaultSecret string) (*Config, error) {
	driver, err := db.ParseDriver(getEnv("STORE_DRIVER", "sqlite"))
	if err != nil {
		return nil, err
	}
	timeoutSec, err := getEnvInt("MIRROR_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	pathStyle, err := getEnvBool("MIRROR_S3_PATH_STYLE", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Store: StoreConfig{
			Driver:      driver,
			Path:        getEnv("DB_PATH", "furamora.db"),
			DatabaseURL: getEnv("DATABASE_URL", ""),
		},
		GRPC: GRPCConfig{
			Address: getEnv("GRPC_ADDRESS", ":50051"),
		},
		HTTP: HTTPConfig{
			Address: getEnv("HTTP_ADDRESS", ":8080"),
		},
		Auth: AuthConfig{
			SessionSecret: getEnv("SESSION_SECRET", defaultSecret),
		},
		Admin: models.AdminSeed{
			ID:       models.DefaultAdminSeed.ID,
			Name:     models.DefaultAdminSeed.Name,
			Email:    models.NormalizeEmail(getEnv("ADMIN_EMAIL", models.DefaultAdminSeed.Email)),
			Password: getEnv("ADMIN_PASSWORD", models.DefaultAdminSeed.Password),
		},
		Mirror: MirrorConfig{
			Driver: strings.ToLower(getEnv("MIRROR_DRIVER", "none")),
			S3: mirror.S3Config{
				Bucket:    getEnv("MIRROR_S3_BUCKET", ""),
				Region:    getEnv("MIRROR_S3_REGION", "us-east-1"),
				Endpoint:  getEnv("MIRROR_S3_ENDPOINT", ""),
				PathStyle: pathStyle,
				Prefix:    "users",
			},
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
	}

	if cfg.Store.Driver == db.DriverPostgres && cfg.Store.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
	}
	switch cfg.Mirror.Driver {
	case "none":
	case "s3":
		if cfg.Mirror.S3.Bucket == "" {
			return nil, fmt.Errorf("MIRROR_S3_BUCKET is required when MIRROR_DRIVER=s3")
		}
	default:
		return nil, fmt.Errorf("unknown MIRROR_DRIVER %q", cfg.Mirror.Driver)
	}
	return cfg, nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid boolean for %s: %w", key, err)
		}
		return b, nil
	}
	return defaultVal, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	store := c.Store.Path
	if c.Store.Driver == db.DriverPostgres {
		store = "postgres://*** (masked) ***"
	}
	return fmt.Sprintf("Config{Store: %s %s, gRPC: %s, HTTP: %s, Mirror: %s, Auth: *** (masked) ***}",
		c.Store.Driver, store, c.GRPC.Address, c.HTTP.Address, c.Mirror.Driver)
}
