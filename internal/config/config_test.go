package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		DBPath:         "najdeno.sqlite3",
		Addr:           ":8080",
		AdminEmail:     "admin@uni.edu",
		Env:            "development",
		MaxUploadBytes: 1 << 20,
		MaxImages:      3,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Defaults are valid", func(c *Config) {}, false},
		{"Empty DB path", func(c *Config) { c.DBPath = "" }, true},
		{"Empty address", func(c *Config) { c.Addr = "" }, true},
		{"Zero upload limit", func(c *Config) { c.MaxUploadBytes = 0 }, true},
		{"Negative image limit", func(c *Config) { c.MaxImages = -1 }, true},
		{"Malformed admin email", func(c *Config) { c.AdminEmail = "admin" }, true},
		{"Production without log path", func(c *Config) { c.Env = "production" }, true},
		{"Prod without log path", func(c *Config) { c.Env = "prod" }, true},
		{"Production with log path", func(c *Config) { c.Env = "production"; c.LogPath = "najdeno.log" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	c, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "najdeno.sqlite3", c.DBPath)
	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, int64(10<<20), c.MaxUploadBytes)
	assert.Equal(t, 3, c.MaxImages)
	assert.False(t, c.IsProduction())
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "najdeno.yaml")
	require.NoError(t, os.WriteFile(file, []byte("addr: \":9000\"\nmax_images: 5\ndb: from-file.sqlite3\n"), 0o644))

	t.Setenv("NAJDENO_DB", "from-env.sqlite3")

	c, err := Load(New(), file)
	require.NoError(t, err)
	assert.Equal(t, ":9000", c.Addr)
	assert.Equal(t, 5, c.MaxImages)
	assert.Equal(t, "from-env.sqlite3", c.DBPath)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NAJDENO_ENV", "Production")

	_, err := Load(New(), "")
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("NAJDENO_ADMIN_NAME=Front Desk\n"), 0o644))

	// Register cleanup, then clear so godotenv is free to set it.
	t.Setenv("NAJDENO_ADMIN_NAME", "")
	require.NoError(t, os.Unsetenv("NAJDENO_ADMIN_NAME"))

	require.NoError(t, LoadDotEnv(path))
	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))

	t.Chdir(dir)
	c, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "Front Desk", c.AdminName)
}
