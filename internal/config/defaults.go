package config

import "time"

// Detection defaults.
const (
	DefaultSimilarityThreshold = 80
	DefaultMinContentLength    = 50
	DefaultConfigDir           = ".obsidian"
)

// DefaultExcludedFolders are skipped when the config does not list any.
var DefaultExcludedFolders = []string{".trash", "templates"}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8765
	}
	if cfg.Source.Type == "" {
		cfg.Source.Type = SourceVault
	}
	if cfg.Source.VaultPath == "" {
		cfg.Source.VaultPath = "./vault"
	}
	if cfg.Source.DatabasePath == "" {
		cfg.Source.DatabasePath = "./data/notes.db"
	}
	if cfg.Source.ConfigDir == "" {
		cfg.Source.ConfigDir = DefaultConfigDir
	}
	if cfg.Source.Extensions == nil {
		cfg.Source.Extensions = []string{".md"}
	}
	if cfg.Detection.SimilarityThreshold == nil {
		t := DefaultSimilarityThreshold
		cfg.Detection.SimilarityThreshold = &t
	}
	if cfg.Detection.MinContentLength == nil {
		n := DefaultMinContentLength
		cfg.Detection.MinContentLength = &n
	}
	if cfg.Detection.ExcludedFolders == nil {
		cfg.Detection.ExcludedFolders = append([]string(nil), DefaultExcludedFolders...)
	}
	cfg.Detection.ExcludedFolders = Settings{ExcludedFolders: cfg.Detection.ExcludedFolders}.
		WithConfigDir(cfg.Source.ConfigDir).ExcludedFolders
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = 400
	}
}

// Debounce returns the watch debounce as a duration.
func (w *WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// Default returns a config with every default applied and no file behind it.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
