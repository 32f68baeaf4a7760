package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPath()
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			// Config file is optional, don't fail if it doesn't exist
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	loadFromEnv(cfg)
	return cfg, nil
}

// getConfigPath returns the path to the config file.
func getConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "goforge", "config.yaml")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "goforge", "config.yaml")
}

// loadFromFile loads configuration from a YAML file. Environment variables
// referenced in the file (e.g. api_key: ${GEMINI_API_KEY}) are expanded.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadFromEnv applies environment variable overrides.
func loadFromEnv(cfg *Config) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		if p := cfg.Provider("gemini"); p != nil && p.APIKey == "" {
			p.APIKey = key
		}
	}
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		if p := cfg.Provider("openrouter"); p != nil && p.APIKey == "" {
			p.APIKey = key
		}
	}
	if level := os.Getenv("GOFORGE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if mode := os.Getenv("GOFORGE_UI_MODE"); mode != "" {
		cfg.UI.Mode = mode
	}
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() string {
	return getConfigPath()
}

// Save saves the configuration to the config file.
func Save(cfg *Config) error {
	configPath := getConfigPath()
	if configPath == "" {
		return fmt.Errorf("could not determine config path")
	}

	// 0700: config may contain API keys
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
