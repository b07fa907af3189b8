// Package config loads entql settings from .entql.yaml, ENTQL_* variables
// and .env files.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/entql/internal/debug"
)

var AppFs = afero.NewOsFs()

// FileName is the config file name without extension.
const FileName = ".entql"

// Config holds the application configuration
type Config struct {
	SchemaPath  string   `mapstructure:"schema_path"`
	Dialect     string   `mapstructure:"dialect"`
	PageSize    int      `mapstructure:"page_size"`
	Functions   []string `mapstructure:"functions"`
	CacheDir    string   `mapstructure:"cache_dir"`
	CacheSize   int      `mapstructure:"cache_size"`
	Debug       bool     `mapstructure:"debug"`
	DebugArgs   bool     `mapstructure:"debug_args"`
	DatabaseURL string   `mapstructure:"database_url"`
}

// New returns a viper instance with entql's search paths, environment
// binding and defaults applied.
func New() (*viper.Viper, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(AppFs)
	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(home)
	v.AddConfigPath(filepath.Join(home, ".config", "entql"))

	v.SetEnvPrefix("ENTQL")
	v.AutomaticEnv()

	v.SetDefault("schema_path", "schema.entql")
	v.SetDefault("dialect", "sqlite")
	v.SetDefault("page_size", 50)
	v.SetDefault("functions", []string{})
	v.SetDefault("cache_dir", filepath.Join(home, ".cache", "entql"))
	v.SetDefault("cache_size", 256)
	v.SetDefault("debug", false)
	v.SetDefault("debug_args", false)
	v.SetDefault("database_url", "")
	return v, nil
}

// LoadConfig loads configuration from various sources
func LoadConfig() (*Config, error) {
	loadDotEnv()

	v, err := New()
	if err != nil {
		return nil, err
	}
	return Load(v)
}

// Load reads the config file, if any, into a Config.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	} else {
		debug.Debug("loaded config", "file", v.ConfigFileUsed())
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

// loadDotEnv loads .env and then .env.local, the latter overriding.
func loadDotEnv() {
	if _, err := AppFs.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			debug.Warn("failed to load .env", "error", err)
		}
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		if err := godotenv.Overload(".env.local"); err != nil {
			debug.Warn("failed to load .env.local", "error", err)
		}
	}
}

// SaveConfig writes cfg to dir/.entql.yaml and returns the file path.
func SaveConfig(cfg *Config, dir string) (string, error) {
	v := viper.New()
	v.SetFs(AppFs)
	v.Set("schema_path", cfg.SchemaPath)
	v.Set("dialect", cfg.Dialect)
	v.Set("page_size", cfg.PageSize)
	v.Set("functions", cfg.Functions)
	v.Set("cache_size", cfg.CacheSize)
	if cfg.CacheDir != "" {
		v.Set("cache_dir", cfg.CacheDir)
	}

	if err := AppFs.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName+".yaml")
	return path, v.WriteConfigAs(path)
}
