// Package config provides configuration management for the heap snapshot
// ingestion and analysis service.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application. OpenTelemetry settings
// are deliberately not part of this struct: they follow the teacher's
// env-var-only convention (see pkg/telemetry.LoadFromEnv) rather than the
// file/viper path, so a snapshot can be re-ingested with different tracing
// settings without touching the config file.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Store    StoreConfig    `mapstructure:"store"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      LogConfig      `mapstructure:"log"`
}

// AnalysisConfig holds ingestion-run configuration.
type AnalysisConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	DefaultTop int    `mapstructure:"default_top"`
}

// StoreConfig describes an output store connection. Validate checks it, but
// the ingestion pipeline does not read it: the decoded node/edge/location
// tables are always written to the sqlite file named by
// service.DerivedDBPath.
type StoreConfig struct {
	Type     string `mapstructure:"type"` // sqlite, postgres or mysql
	DSN      string `mapstructure:"dsn"`  // sqlite file path, or postgres/mysql DSN
	MaxConns int    `mapstructure:"max_conns"`
}

// CatalogConfig holds the optional shared bookkeeping database configuration.
// When Enabled is false no catalog connection is opened and ingestion runs
// are not recorded anywhere but the output store itself.
type CatalogConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Type     string `mapstructure:"type"` // postgres or mysql
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// StorageConfig holds object storage configuration, used to resolve
// "cos://..." snapshot sources. Ingestion reports are written to the local
// filesystem, not through storage.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`
	Scheme    string `mapstructure:"scheme"`
	LocalPath string `mapstructure:"local_path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"` // json or text
}

// Load reads configuration from the specified file path.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/heapsnap-analysis")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults")
		} else if os.IsNotExist(err) {
			fmt.Printf("Config file %s not found, using defaults\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from raw content (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("analysis.data_dir", "./data")
	v.SetDefault("analysis.default_top", 20)

	v.SetDefault("store.type", "sqlite")
	v.SetDefault("store.dsn", "./data/heapsnap.db")
	v.SetDefault("store.max_conns", 10)

	v.SetDefault("catalog.enabled", false)
	v.SetDefault("catalog.type", "postgres")
	v.SetDefault("catalog.host", "localhost")
	v.SetDefault("catalog.port", 5432)
	v.SetDefault("catalog.max_conns", 10)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./storage")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "./logs")
	v.SetDefault("log.format", "text")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Store.Type != "sqlite" && c.Store.Type != "postgres" && c.Store.Type != "mysql" {
		return fmt.Errorf("unsupported store type: %s", c.Store.Type)
	}
	if c.Store.DSN == "" {
		return fmt.Errorf("store dsn is required")
	}

	if c.Catalog.Enabled {
		if c.Catalog.Host == "" {
			return fmt.Errorf("catalog host is required when catalog is enabled")
		}
		if c.Catalog.Type != "postgres" && c.Catalog.Type != "mysql" {
			return fmt.Errorf("unsupported catalog database type: %s", c.Catalog.Type)
		}
	}

	// Storage config validation is delegated to the storage package.

	return nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	if c.Analysis.DataDir == "" {
		return nil
	}
	return os.MkdirAll(c.Analysis.DataDir, 0755)
}

// GetRunDir returns the run-specific directory path for a given ingestion run ID.
func (c *Config) GetRunDir(runID string) string {
	return filepath.Join(c.Analysis.DataDir, runID)
}
