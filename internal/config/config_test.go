package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing_optional_file_gives_defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"), true)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("missing_required_file_fails", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "none.yaml"), false)
		assert.Error(t, err)
	})

	t.Run("file_overrides_defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bigfiles.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
db: /var/lib/bigfiles/catalog.db
driver: sqlite
limit: 20
prune: sweep
exclude:
  - .git
  - node_modules
server:
  port: 8080
`), 0o644))

		cfg, err := Load(path, false)
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/bigfiles/catalog.db", cfg.DB)
		assert.Equal(t, "sqlite", cfg.Driver)
		assert.Equal(t, 20, cfg.Limit)
		assert.Equal(t, "sweep", cfg.Prune)
		assert.Equal(t, []string{".git", "node_modules"}, cfg.Exclude)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "0.0.0.0", cfg.Server.Addr)
	})

	t.Run("invalid_values_left_for_validate", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("prune: shred\n"), 0o644))
		cfg, err := Load(path, false)
		require.NoError(t, err)
		assert.Equal(t, "shred", cfg.Prune)
		assert.Error(t, cfg.Validate())
	})

	t.Run("malformed_yaml_fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("limit: [1, 2\n"), 0o644))
		_, err := Load(path, false)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Driver = "mysql"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Limit = -1
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Server.Port = 70000
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.DB = ""
	assert.Error(t, bad.Validate())
}
