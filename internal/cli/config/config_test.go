package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "cli.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cli.yaml")
	cfg := Default()
	require.NoError(t, Set(cfg, "server", "https://shop.example.com"))
	require.NoError(t, Set(cfg, "timeout", "5s"))
	require.NoError(t, Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout: 5s")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com", loaded.Server)
	assert.Equal(t, 5*time.Second, loaded.Timeout)
	assert.Equal(t, "table", loaded.Output)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: http://a:5000\napi_prefix: /shop\n"), 0o600))
	t.Setenv("STOREFRONT_CLI_SERVER", "http://b:5000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://b:5000", cfg.Server)
	assert.Equal(t, "/shop", cfg.APIPrefix)
}

func TestSet_Errors(t *testing.T) {
	cfg := Default()
	assert.Error(t, Set(cfg, "color", "on"))
	assert.Error(t, Set(cfg, "timeout", "soon"))
}
