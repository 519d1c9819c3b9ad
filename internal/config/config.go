package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Path   string `yaml:"path"`   // SQLite file path
		Schema string `yaml:"schema"` // DDL script applied before ingestion
	} `yaml:"database"`

	Model struct {
		Path string `yaml:"path"` // serialized pipeline artifact
	} `yaml:"model"`

	Dashboard struct {
		MaxUploadMB      int `yaml:"max_upload_mb"`
		TableLimit       int `yaml:"table_limit"`        // rows rendered in the HTML table
		UploadTTLMinutes int `yaml:"upload_ttl_minutes"` // how long a previewed upload can still be ingested
	} `yaml:"dashboard"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	config := &Config{}
	config.applyDefaults()
	return config
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyDefaults()

	// Expand environment variables in paths
	config.Database.Path = os.ExpandEnv(config.Database.Path)
	config.Database.Schema = os.ExpandEnv(config.Database.Schema)
	config.Model.Path = os.ExpandEnv(config.Model.Path)

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8501"
	}

	if c.Database.Path == "" {
		c.Database.Path = "data/reviews.db"
	}

	if c.Database.Schema == "" {
		c.Database.Schema = "sql/schema.sql"
	}

	if c.Model.Path == "" {
		c.Model.Path = "models/pipeline.json"
	}

	if c.Dashboard.MaxUploadMB == 0 {
		c.Dashboard.MaxUploadMB = 32
	}

	if c.Dashboard.TableLimit == 0 {
		c.Dashboard.TableLimit = 500
	}

	if c.Dashboard.UploadTTLMinutes == 0 {
		c.Dashboard.UploadTTLMinutes = 15
	}
}
