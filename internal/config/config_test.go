package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, entity.DefaultCategories(), cfg.Categories)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("STORE_TIMEOUT", "250ms")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.StoreTimeout)
}

func TestLoad_CategoriesFromFile(t *testing.T) {
	dir := writeConfig(t, `
categories:
  - id: errands
    name: Errands
    color: "#111111"
  - id: other
    name: Other
    color: "#95a5a6"
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []entity.Category{
		{ID: "errands", Name: "Errands", Color: "#111111"},
		{ID: "other", Name: "Other", Color: "#95a5a6"},
	}, cfg.Categories)
}

func TestLoad_FailsFast(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "category list without fallback",
			content: "categories:\n  - id: work\n    name: Work\n",
			want:    "invalid categories",
		},
		{
			name:    "duplicate category ids",
			content: "categories:\n  - id: other\n    name: Other\n  - id: other\n    name: Again\n",
			want:    "duplicate",
		},
		{
			name:    "corrupt yaml",
			content: "categories: [\n",
			want:    "error reading config file",
		},
		{
			name:    "unknown driver",
			content: "storage_driver: mongo\n",
			want:    "STORAGE_DRIVER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
