// Package config loads server settings from flags, environment, an optional
// najdeno.yaml file and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. NAJDENO_ADDR.
const EnvPrefix = "NAJDENO"

// Config keys. They double as flag names.
const (
	KeyDB             = "db"
	KeyAddr           = "addr"
	KeyLog            = "log"
	KeyAdminEmail     = "admin_email"
	KeyAdminName      = "admin_name"
	KeyEnv            = "env"
	KeyMaxUploadBytes = "max_upload_bytes"
	KeyMaxImages      = "max_images"
)

// Config holds the resolved server settings.
type Config struct {
	DBPath         string `mapstructure:"db"`
	Addr           string `mapstructure:"addr"`
	LogPath        string `mapstructure:"log"`
	AdminEmail     string `mapstructure:"admin_email"`
	AdminName      string `mapstructure:"admin_name"`
	Env            string `mapstructure:"env"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
	MaxImages      int    `mapstructure:"max_images"`
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDB, "najdeno.sqlite3")
	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyLog, "")
	v.SetDefault(KeyAdminEmail, "admin@najdeno.local")
	v.SetDefault(KeyAdminName, "Administrator")
	v.SetDefault(KeyEnv, "development")
	v.SetDefault(KeyMaxUploadBytes, 10<<20)
	v.SetDefault(KeyMaxImages, 3)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv copies variables from a .env file into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads the config file into v and decodes the result. With an empty
// file argument najdeno.yaml is looked up in the working directory and may be
// absent; an explicit file must exist.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("najdeno")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &c, nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db path is required")
	}
	if c.Addr == "" {
		return errors.New("listen address is required")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}
	if c.MaxImages <= 0 {
		return errors.New("max_images must be positive")
	}
	if c.AdminEmail != "" && !strings.Contains(c.AdminEmail, "@") {
		return fmt.Errorf("admin_email %q is not an email address", c.AdminEmail)
	}
	if c.IsProduction() && c.LogPath == "" {
		return errors.New("a log file path is required in production")
	}
	return nil
}
