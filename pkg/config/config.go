// Package config loads and saves the on-disk settings for a bptree.Tree
// builder: where its metadata and node storage live, how wide its nodes
// are, and how much of it stays resident in memory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config describes how to open or create a persistent tree.
type Config struct {
	// Degree is the tree's branching factor, passed straight through to
	// bptree.Options.Degree.
	Degree int `yaml:"degree"`

	// MetadataPath locates the tree's metadata file. Required.
	MetadataPath string `yaml:"metadata_path"`

	// StorageDir and StorageFile locate the node storage file for a tree
	// being created for the first time. Ignored when reopening a tree
	// whose metadata already records a storage location.
	StorageDir  string `yaml:"storage_dir"`
	StorageFile string `yaml:"storage_file"`

	// CacheSize bounds how many resident nodes stay in memory. Zero
	// disables eviction.
	CacheSize int `yaml:"cache_size"`

	Logging Logging `yaml:"logging"`
}

// Logging contains logging configuration.
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a config for a tree rooted at dataDir.
func DefaultConfig(dataDir string) *Config {
	return &Config{
		Degree:       64,
		MetadataPath: filepath.Join(dataDir, "tree.meta"),
		StorageDir:   dataDir,
		StorageFile:  "nodes.dat",
		CacheSize:    10000,
		Logging: Logging{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from the specified path.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfig saves the configuration to the specified path with secure
// permissions.
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default configuration path for the
// current platform.
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./bptreectl.yaml"
	}

	configDir := filepath.Join(homeDir, ".config", "bptreectl")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists.
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}

// Bootstrap creates a new configuration rooted at dataDir if none exists
// yet at configPath, and saves it. If one already exists there, it is
// loaded and returned unchanged.
func Bootstrap(configPath, dataDir string) (*Config, error) {
	if ConfigExists(configPath) {
		return LoadConfig(configPath)
	}
	config := DefaultConfig(dataDir)
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}
	return config, nil
}
