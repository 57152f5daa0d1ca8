package infra

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultExtension is the accepted data file extension when the config leaves it empty
const DefaultExtension = ".parquet"

// Config holds every application setting. Sensitive or host-specific
// values can be overridden through environment variables after load.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Data struct {
		Dir               string `yaml:"dir"`                // Tick data directory
		Extension         string `yaml:"extension"`          // Accepted file extension, default ".parquet"
		DecodeConcurrency int    `yaml:"decode_concurrency"` // Parallel file decodes per load, default 4
	} `yaml:"data"`

	Cache struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"cache"`

	Catalog struct {
		Persist bool   `yaml:"persist"` // Keep a SQLite ledger of symbol summaries
		DBPath  string `yaml:"db_path"` // Empty = user config dir
	} `yaml:"catalog"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"` // Empty = "logs"
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Data.Extension == "" {
		c.Data.Extension = DefaultExtension
	}
	if !strings.HasPrefix(c.Data.Extension, ".") {
		c.Data.Extension = "." + c.Data.Extension
	}
	if c.Data.DecodeConcurrency <= 0 {
		c.Data.DecodeConcurrency = 4
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = "logs"
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Data.Dir == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.Data.Extension == "." {
		return fmt.Errorf("invalid data file extension: %q", c.Data.Extension)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.Logging.Level)
	}

	return nil
}

// overrideWithEnv replaces settings from environment variables when present
func overrideWithEnv(cfg *Config) {
	if dir := os.Getenv("TICKSTORE_DATA_DIR"); dir != "" {
		cfg.Data.Dir = dir
	}
	if dbPath := os.Getenv("TICKSTORE_CATALOG_DB"); dbPath != "" {
		cfg.Catalog.DBPath = dbPath
	}
	if level := os.Getenv("TICKSTORE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
