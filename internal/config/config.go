// Package config loads the service configuration from the environment, with an
// optional .env file underneath.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"inventario/internal/images"
	"inventario/internal/repositories"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	StoreFirestore = "firestore"
	StoreSQL       = "sql"
	StoreMemory    = "memory"
)

// Config is the complete service configuration.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseDriver string
	DatabaseDSN    string

	StoreDriver              string
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	Collections              repositories.Collections

	Images images.Config

	RabbitMQURL      string
	RabbitMQExchange string

	RedisAddr string
	RedisTTL  time.Duration

	JWTSecret       string
	RefreshInterval time.Duration
	SearchDebounce  time.Duration
}

// Load reads the configuration. Values in envFiles (default ".env") are only
// used for variables the environment does not set, and missing files are
// ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "inventario.db")
	v.SetDefault("STORE_DRIVER", StoreSQL)
	v.SetDefault("FIRESTORE_PROJECT_ID", "")
	v.SetDefault("FIRESTORE_CREDENTIALS_FILE", "")
	v.SetDefault("COLLECTION_PRODUCTS", repositories.DefaultCollections.Products)
	v.SetDefault("COLLECTION_CATEGORIES", repositories.DefaultCollections.Categories)
	v.SetDefault("COLLECTION_SUPPLIERS", repositories.DefaultCollections.Suppliers)
	v.SetDefault("IMAGE_STORE", images.KindLocal)
	v.SetDefault("IMAGE_DIR", "imagenes_productos")
	v.SetDefault("IMAGE_BUCKET", "")
	v.SetDefault("IMAGE_PUBLIC_BASE_URL", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "inventario.catalog")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_TTL", "5m")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("REFRESH_INTERVAL", "1m")
	v.SetDefault("SEARCH_DEBOUNCE", "300ms")
	v.AutomaticEnv()

	cfg := &Config{
		Port:                     v.GetString("APP_PORT"),
		Env:                      v.GetString("APP_ENV"),
		LogLevel:                 v.GetString("LOG_LEVEL"),
		DatabaseDriver:           v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:              v.GetString("DATABASE_DSN"),
		StoreDriver:              v.GetString("STORE_DRIVER"),
		FirestoreProjectID:       v.GetString("FIRESTORE_PROJECT_ID"),
		FirestoreCredentialsFile: v.GetString("FIRESTORE_CREDENTIALS_FILE"),
		Collections: repositories.Collections{
			Products:   v.GetString("COLLECTION_PRODUCTS"),
			Categories: v.GetString("COLLECTION_CATEGORIES"),
			Suppliers:  v.GetString("COLLECTION_SUPPLIERS"),
		},
		Images: images.Config{
			Kind:            v.GetString("IMAGE_STORE"),
			Dir:             v.GetString("IMAGE_DIR"),
			Bucket:          v.GetString("IMAGE_BUCKET"),
			PublicBaseURL:   v.GetString("IMAGE_PUBLIC_BASE_URL"),
			CredentialsFile: v.GetString("FIRESTORE_CREDENTIALS_FILE"),
		},
		RabbitMQURL:      v.GetString("RABBITMQ_URL"),
		RabbitMQExchange: v.GetString("RABBITMQ_EXCHANGE"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisTTL:         v.GetDuration("REDIS_TTL"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		RefreshInterval:  v.GetDuration("REFRESH_INTERVAL"),
		SearchDebounce:   v.GetDuration("SEARCH_DEBOUNCE"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that have a fixed set of choices.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreFirestore:
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is required with STORE_DRIVER=%s", StoreFirestore)
		}
	case StoreSQL, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	switch c.Images.Kind {
	case images.KindLocal:
	case images.KindBucket:
		if c.Images.Bucket == "" {
			return fmt.Errorf("IMAGE_BUCKET is required with IMAGE_STORE=%s", images.KindBucket)
		}
	default:
		return fmt.Errorf("unknown IMAGE_STORE %q", c.Images.Kind)
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
