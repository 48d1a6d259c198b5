package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the configuration for lockdiff
type Config struct {
	// Health API settings
	API struct {
		BaseURL  string `yaml:"base_url"`
		Key      string `yaml:"key"`
		Platform string `yaml:"platform"`
	} `yaml:"api"`

	// Lock file path relative to the repository root
	Lockfile string `yaml:"lockfile"`

	// Default refs when none are given on the command line
	Refs struct {
		Source string `yaml:"source"`
		Target string `yaml:"target"`
	} `yaml:"refs"`

	// Severity levels per update magnitude
	Severity struct {
		Major string `yaml:"major"` // Default: error
		Minor string `yaml:"minor"` // Default: warning
		Patch string `yaml:"patch"` // Default: info
	} `yaml:"severity"`

	// Output configuration
	Output struct {
		Format string `yaml:"format"` // text, json
		File   string `yaml:"file"`   // Output file path (stdout if empty)
	} `yaml:"output"`

	// Gems to leave out of the report entirely
	IgnoreGems []string `yaml:"ignoreGems"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	config := &Config{}

	config.API.BaseURL = "https://api.gemhealth.io"
	config.API.Platform = "rubygems"
	config.Lockfile = "Gemfile.lock"
	config.Refs.Source = "main"
	config.Refs.Target = "HEAD"

	// Set default severity levels
	config.Severity.Major = "error"
	config.Severity.Minor = "warning"
	config.Severity.Patch = "info"

	config.Output.Format = "text"

	return config
}

// LoadConfig loads the configuration from the specified file path
// If no path is provided, it looks for .lockdiff.yaml in the current directory
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath == "" {
		configPath = ".lockdiff.yaml"
	}

	// Missing config file is fine, defaults apply
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return config, nil
}

// FindAndLoadConfig searches for a config file in the repository directory and its parents
func FindAndLoadConfig(repoPath string) (*Config, error) {
	config := DefaultConfig()

	// Start from the repository directory and work up to the root
	currentDir := repoPath
	for {
		configPath := filepath.Join(currentDir, ".lockdiff.yaml")
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
			}

			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("error parsing config file %s: %w", configPath, err)
			}

			return config, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached the root directory, no config file found
			break
		}
		currentDir = parentDir
	}

	return config, nil
}

// IsGemIgnored checks if a gem should be left out of the report
func (c *Config) IsGemIgnored(name string) bool {
	for _, ignored := range c.IgnoreGems {
		if ignored == name {
			return true
		}
	}
	return false
}

// GetSeverityForUpdate returns the configured severity level for the given update level
func (c *Config) GetSeverityForUpdate(level string) string {
	switch level {
	case "major":
		return c.Severity.Major
	case "minor":
		return c.Severity.Minor
	case "patch":
		return c.Severity.Patch
	default:
		return ""
	}
}
