package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"inventario/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, config.StoreSQL, cfg.StoreDriver)
	assert.Equal(t, "productos", cfg.Collections.Products)
	assert.Equal(t, "categorias", cfg.Collections.Categories)
	assert.Equal(t, "proveedores", cfg.Collections.Suppliers)
	assert.Equal(t, "local", cfg.Images.Kind)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 5*time.Minute, cfg.RedisTTL)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("COLLECTION_PRODUCTS", "products")
	t.Setenv("REFRESH_INTERVAL", "0")
	t.Setenv("APP_ENV", "production")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, config.StoreMemory, cfg.StoreDriver)
	assert.Equal(t, "products", cfg.Collections.Products)
	assert.Zero(t, cfg.RefreshInterval)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nAPP_PORT=:9090\n"), 0o600))
	t.Setenv("APP_PORT", ":7070")
	// godotenv sets variables the test did not; clear them afterwards.
	t.Cleanup(func() { os.Unsetenv("JWT_SECRET") })

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, ":7070", cfg.Port, "the environment wins over the file")
}

func TestLoad_Rejects(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	t.Setenv("JWT_SECRET", "")
	_, err := config.Load(missing)
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "mongo")
	_, err = config.Load(missing)
	assert.ErrorContains(t, err, "STORE_DRIVER")

	t.Setenv("STORE_DRIVER", "firestore")
	_, err = config.Load(missing)
	assert.ErrorContains(t, err, "FIRESTORE_PROJECT_ID")

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("IMAGE_STORE", "bucket")
	_, err = config.Load(missing)
	assert.ErrorContains(t, err, "IMAGE_BUCKET")
}
