// Package config loads orderdocs configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all orderdocs configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage"`

	// Report enrichment configuration
	Report ReportConfig `yaml:"report"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig configures the SQLite backing store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ReportConfig configures which report gets attachment enrichment.
type ReportConfig struct {
	// SaleOrderReportName is the report name enrichment applies to.
	SaleOrderReportName string `yaml:"sale_order_report_name"`
	// SaleOrderModel is the model that report must target.
	SaleOrderModel string `yaml:"sale_order_model"`
	// OutputDir is where the render command writes merged PDFs.
	OutputDir string `yaml:"output_dir"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "orderdocs",
		Version: "1.0.0",

		Storage: StorageConfig{
			DatabasePath: "data/orderdocs.db",
		},

		Report: ReportConfig{
			SaleOrderReportName: "sale.report_saleorder",
			SaleOrderModel:      "sale.order",
			OutputDir:           "out",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("ORDERDOCS_DB"); path != "" {
		c.Storage.DatabasePath = path
	}
	if dir := os.Getenv("ORDERDOCS_OUT"); dir != "" {
		c.Report.OutputDir = dir
	}
	if level := os.Getenv("ORDERDOCS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}
