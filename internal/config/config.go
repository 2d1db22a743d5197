package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models worktrack.yml.
type Config struct {
	Server struct {
		Addr      string `yaml:"addr"`
		BaseURL   string `yaml:"base_url"`
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"server"`
	Export struct {
		Dir           string `yaml:"dir"`
		BackupDir     string `yaml:"backup_dir"`
		SigningSecret string `yaml:"signing_secret"`
		DownloadTTL   string `yaml:"download_ttl"`
	} `yaml:"export"`
	AI struct {
		Enabled    bool    `yaml:"enabled"`
		BaseURL    string  `yaml:"base_url"`
		Model      string  `yaml:"model"`
		APIKey     string  `yaml:"api_key"`
		MaxRetries int     `yaml:"max_retries"`
		BaseDelayS float64 `yaml:"base_delay_seconds"`
	} `yaml:"ai"`
	Calendar struct {
		ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	} `yaml:"calendar"`
}

// Default returns a config usable out of the box for local work.
func Default() *Config {
	var c Config
	c.Server.Addr = "127.0.0.1:8787"
	c.Server.BaseURL = "http://127.0.0.1:8787"
	c.Export.Dir = "exports"
	c.Export.BackupDir = "backups"
	c.Export.DownloadTTL = "24h"
	c.AI.Model = "claude-3-sonnet"
	c.AI.MaxRetries = 3
	c.AI.BaseDelayS = 1
	c.Calendar.ConfidenceThreshold = 0.7
	return &c
}

// Load reads worktrack.yml from path, falling back to defaults when absent.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

func FromYAML(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config.server.addr is required")
	}
	if c.Export.Dir == "" {
		return fmt.Errorf("config.export.dir is required")
	}
	if c.Export.BackupDir == "" {
		return fmt.Errorf("config.export.backup_dir is required")
	}
	if _, err := c.DownloadTTL(); err != nil {
		return fmt.Errorf("config.export.download_ttl: %w", err)
	}
	if c.Calendar.ConfidenceThreshold < 0 || c.Calendar.ConfidenceThreshold > 1 {
		return fmt.Errorf("config.calendar.confidence_threshold must be within [0,1]")
	}
	if c.AI.Enabled && c.AI.BaseURL == "" {
		return fmt.Errorf("config.ai.base_url is required when ai is enabled")
	}
	return nil
}

// DownloadTTL parses the export download lifetime.
func (c *Config) DownloadTTL() (time.Duration, error) {
	if c.Export.DownloadTTL == "" {
		return 24 * time.Hour, nil
	}
	return time.ParseDuration(c.Export.DownloadTTL)
}
