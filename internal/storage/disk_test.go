package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "f1.md"), 5)
	write(t, filepath.Join(dir, "sub", "a.md"), 2)
	write(t, filepath.Join(dir, "sub", "deeper", "b.md"), 3)

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"file", []string{filepath.Join(dir, "f1.md")}, 5},
		{"directory", []string{filepath.Join(dir, "sub")}, 5},
		{"everything", []string{dir}, 10},
		{"missing and empty", []string{filepath.Join(dir, "nope"), ""}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %d bytes, want %d", got, tt.want)
			}
		})
	}
}

func TestVaultUsage(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "note.md"), 10)
	write(t, filepath.Join(root, ".trash", "old.md"), 4)

	u, err := VaultUsage(root, ".trash")
	if err != nil {
		t.Fatal(err)
	}
	if u.Bytes != 10 || u.TrashBytes != 4 {
		t.Errorf("got %+v, want 10 bytes and 4 trash bytes", u)
	}
}

func TestDatabaseUsage(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "notes.db")
	write(t, dbPath, 8)
	write(t, dbPath+"-wal", 2)

	u, err := DatabaseUsage(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if u.Bytes != 10 {
		t.Errorf("got %d bytes, want 10", u.Bytes)
	}
}
