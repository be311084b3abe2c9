package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	LogMode string       `json:"log_mode"`
	Export  ExportConfig `json:"export"`
	Assist  AssistConfig `json:"assist"`
}

// ExportConfig holds configuration for dataset export
type ExportConfig struct {
	ValSplit    float64 `json:"val_split"`
	Seed        int64   `json:"seed"`
	Workers     int     `json:"workers"`
	ROIFormat   string  `json:"roi_format"`
	JPEGQuality int     `json:"jpeg_quality"`
}

// AssistConfig holds configuration for the vision-model prelabel assist
type AssistConfig struct {
	URL         string `json:"url"`
	Model       string `json:"model"`
	MaxSendDim  int    `json:"max_send_dim"`
	SendQuality int    `json:"send_quality"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		LogMode: "dev",
		Export: ExportConfig{
			ValSplit:    0.2,
			Seed:        42,
			Workers:     4,
			ROIFormat:   "png",
			JPEGQuality: 90,
		},
		Assist: AssistConfig{
			URL:         "http://localhost:11434",
			Model:       "qwen2.5vl",
			MaxSendDim:  1536,
			SendQuality: 85,
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Export.ValSplit < 0 || c.Export.ValSplit > 1 {
		return fmt.Errorf("export.val_split must be between 0 and 1")
	}

	if c.Export.Workers < 1 {
		return fmt.Errorf("export.workers must be positive")
	}

	switch c.Export.ROIFormat {
	case "png", "jpg", "jpeg", "webp":
	default:
		return fmt.Errorf("export.roi_format must be png, jpg or webp")
	}

	if c.Export.JPEGQuality < 1 || c.Export.JPEGQuality > 100 {
		return fmt.Errorf("export.jpeg_quality must be between 1 and 100")
	}

	if c.Assist.SendQuality < 1 || c.Assist.SendQuality > 100 {
		return fmt.Errorf("assist.send_quality must be between 1 and 100")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "perioscan", "config.json")
}
