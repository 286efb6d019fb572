package config

import (
	"fmt"
	"strings"
)

// Settings is the validated detection configuration consumed by the scanner and detector.
type Settings struct {
	SimilarityThreshold int      `json:"similarity_threshold"`
	ExcludedFolders     []string `json:"excluded_folders"`
	MinContentLength    int      `json:"min_content_length"`
}

// DefaultSettings returns the built-in detection settings.
func DefaultSettings() Settings {
	return Settings{
		SimilarityThreshold: DefaultSimilarityThreshold,
		ExcludedFolders:     append([]string{DefaultConfigDir}, DefaultExcludedFolders...),
		MinContentLength:    DefaultMinContentLength,
	}
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// Validate rejects out-of-range values.
func (s Settings) Validate() error {
	if s.SimilarityThreshold < 0 || s.SimilarityThreshold > 100 {
		return &ConfigError{Field: "similarity_threshold", Reason: fmt.Sprintf("%d is outside 0..100", s.SimilarityThreshold)}
	}
	if s.MinContentLength < 0 {
		return &ConfigError{Field: "min_content_length", Reason: fmt.Sprintf("%d is negative", s.MinContentLength)}
	}
	return nil
}

// Clamp returns a copy with the threshold clamped to 0..100, the minimum length floored at 0,
// and blank excluded folders removed.
func (s Settings) Clamp() Settings {
	out := Settings{
		SimilarityThreshold: max(0, min(100, s.SimilarityThreshold)),
		MinContentLength:    max(0, s.MinContentLength),
		ExcludedFolders:     make([]string, 0, len(s.ExcludedFolders)),
	}
	for _, f := range s.ExcludedFolders {
		if strings.TrimSpace(f) != "" {
			out.ExcludedFolders = append(out.ExcludedFolders, f)
		}
	}
	return out
}

// WithConfigDir returns a copy whose excluded folders start with dir unless it is already listed.
// The host's own config directory is never scanned.
func (s Settings) WithConfigDir(dir string) Settings {
	dir = strings.TrimSpace(dir)
	if dir == "" || containsFold(s.ExcludedFolders, dir) {
		return s
	}
	s.ExcludedFolders = append([]string{dir}, s.ExcludedFolders...)
	return s
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
