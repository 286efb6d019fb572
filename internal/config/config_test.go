package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
detection:
  similarity_threshold: 65
  min_content_length: 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	s := cfg.Detection.Settings()
	if s.SimilarityThreshold != 65 {
		t.Errorf("threshold = %d, want 65", s.SimilarityThreshold)
	}
	if s.MinContentLength != 0 {
		t.Errorf("explicit min_content_length 0 must be kept, got %d", s.MinContentLength)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
source:
  vault_path: "./notes"
  database_path: "./data/notes.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Dir(path)
	if want := filepath.Join(dir, "notes"); cfg.Source.VaultPath != want {
		t.Errorf("vault_path = %s, want %s", cfg.Source.VaultPath, want)
	}
	if want := filepath.Join(dir, "data", "notes.db"); cfg.Source.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Source.DatabasePath, want)
	}
}

func TestLoad_rejectsOutOfRangeThreshold(t *testing.T) {
	path := writeConfig(t, `
detection:
  similarity_threshold: 140
`)
	_, err := Load(path)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Field != "similarity_threshold" {
		t.Errorf("field = %s", cfgErr.Field)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8765 {
		t.Errorf("default server: got %+v", cfg.Server)
	}
	if cfg.Source.Type != SourceVault {
		t.Errorf("default source type: got %s", cfg.Source.Type)
	}
	s := cfg.Detection.Settings()
	if s.SimilarityThreshold != 80 || s.MinContentLength != 50 {
		t.Errorf("default detection settings: got %+v", s)
	}
	want := []string{".obsidian", ".trash", "templates"}
	if !reflect.DeepEqual(s.ExcludedFolders, want) {
		t.Errorf("excluded folders = %v, want %v", s.ExcludedFolders, want)
	}
	if cfg.Watch.Debounce().Milliseconds() != 400 {
		t.Errorf("debounce = %v", cfg.Watch.Debounce())
	}
}

func TestApplyDefaults_configDirNotDuplicated(t *testing.T) {
	cfg := &Config{Detection: DetectionConfig{ExcludedFolders: []string{"archive", ".OBSIDIAN"}}}
	ApplyDefaults(cfg)
	if len(cfg.Detection.ExcludedFolders) != 2 {
		t.Errorf("config dir should not be prepended twice: %v", cfg.Detection.ExcludedFolders)
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		s       Settings
		wantErr bool
	}{
		{"defaults", DefaultSettings(), false},
		{"zero threshold", Settings{SimilarityThreshold: 0}, false},
		{"full threshold", Settings{SimilarityThreshold: 100}, false},
		{"negative threshold", Settings{SimilarityThreshold: -1}, true},
		{"threshold above 100", Settings{SimilarityThreshold: 101}, true},
		{"negative min length", Settings{SimilarityThreshold: 50, MinContentLength: -5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSettings_Clamp(t *testing.T) {
	got := Settings{
		SimilarityThreshold: 250,
		ExcludedFolders:     []string{"a", "  ", "", "b"},
		MinContentLength:    -3,
	}.Clamp()
	if got.SimilarityThreshold != 100 {
		t.Errorf("threshold = %d", got.SimilarityThreshold)
	}
	if got.MinContentLength != 0 {
		t.Errorf("min length = %d", got.MinContentLength)
	}
	if !reflect.DeepEqual(got.ExcludedFolders, []string{"a", "b"}) {
		t.Errorf("excluded = %v", got.ExcludedFolders)
	}
	if low := (Settings{SimilarityThreshold: -10}).Clamp(); low.SimilarityThreshold != 0 {
		t.Errorf("negative threshold clamps to 0, got %d", low.SimilarityThreshold)
	}
}

func TestSettings_WithConfigDir(t *testing.T) {
	tests := []struct {
		name     string
		excluded []string
		dir      string
		want     []string
	}{
		{"prepended", []string{"archive"}, ".obsidian", []string{".obsidian", "archive"}},
		{"already listed", []string{"archive", ".Obsidian"}, ".obsidian", []string{"archive", ".Obsidian"}},
		{"empty list", nil, ".obsidian", []string{".obsidian"}},
		{"no dir", []string{"archive"}, " ", []string{"archive"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Settings{SimilarityThreshold: 70, ExcludedFolders: tt.excluded}
			got := in.WithConfigDir(tt.dir)
			if !reflect.DeepEqual(got.ExcludedFolders, tt.want) {
				t.Errorf("excluded = %q, want %q", got.ExcludedFolders, tt.want)
			}
			if got.SimilarityThreshold != 70 {
				t.Errorf("threshold changed: %d", got.SimilarityThreshold)
			}
		})
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := Default()
	cfg.Server.Port = 9090
	cfg.Detection.SetSettings(Settings{SimilarityThreshold: 70, MinContentLength: 10, ExcludedFolders: []string{"x"}})
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	s := loaded.Detection.Settings()
	if s.SimilarityThreshold != 70 || s.MinContentLength != 10 {
		t.Errorf("loaded settings: %+v", s)
	}
}
