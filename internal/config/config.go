// Package config provides configuration loading and structs for futago.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source types.
const (
	SourceVault  = "vault"
	SourceSQLite = "sqlite"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Source    SourceConfig    `yaml:"source"`
	Detection DetectionConfig `yaml:"detection"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SourceConfig selects where documents are read from.
type SourceConfig struct {
	Type         string   `yaml:"type"`
	VaultPath    string   `yaml:"vault_path"`
	DatabasePath string   `yaml:"database_path"`
	ConfigDir    string   `yaml:"config_dir"`
	Extensions   []string `yaml:"extensions"`
}

// DetectionConfig holds the user-facing detection options as they appear in YAML.
// Pointer fields distinguish an explicit 0 from "unset".
type DetectionConfig struct {
	SimilarityThreshold *int     `yaml:"similarity_threshold"`
	ExcludedFolders     []string `yaml:"excluded_folders"`
	MinContentLength    *int     `yaml:"min_content_length"`
}

// WatchConfig holds live rescan settings.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMs int  `yaml:"debounce_ms"`
}

// Settings returns the detection settings with defaults filled in.
// The result is not validated; call Validate or Clamp before handing it to the detector.
func (d *DetectionConfig) Settings() Settings {
	s := Settings{
		SimilarityThreshold: DefaultSimilarityThreshold,
		ExcludedFolders:     append([]string(nil), d.ExcludedFolders...),
		MinContentLength:    DefaultMinContentLength,
	}
	if d.SimilarityThreshold != nil {
		s.SimilarityThreshold = *d.SimilarityThreshold
	}
	if d.MinContentLength != nil {
		s.MinContentLength = *d.MinContentLength
	}
	return s
}

// SetSettings stores s back into the YAML representation.
func (d *DetectionConfig) SetSettings(s Settings) {
	threshold := s.SimilarityThreshold
	minLen := s.MinContentLength
	d.SimilarityThreshold = &threshold
	d.MinContentLength = &minLen
	d.ExcludedFolders = append([]string(nil), s.ExcludedFolders...)
}

// Load reads and parses the config file at path, applies defaults, expands paths, and validates
// the detection settings. Returns an error if the file cannot be read or parsed, or if the
// detection settings are out of range.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Source.VaultPath = expandPath(cfg.Source.VaultPath, configDir)
	cfg.Source.DatabasePath = expandPath(cfg.Source.DatabasePath, configDir)

	if err := cfg.Detection.Settings().Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path. Used for persisting settings changed through the API.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
