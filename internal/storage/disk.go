package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Usage is the disk space taken by a note source.
type Usage struct {
	Bytes      int64 `json:"bytes"`
	TrashBytes int64 `json:"trash_bytes"`
}

// DiskUsageBytes returns the total size in bytes of the given files or directories.
// Missing paths count as zero.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return 0, err
		}
	}
	return total, nil
}

// VaultUsage measures a vault directory. Files under trashDir (relative to root) are counted
// in TrashBytes only.
func VaultUsage(root, trashDir string) (Usage, error) {
	all, err := DiskUsageBytes(root)
	if err != nil {
		return Usage{}, err
	}
	trash, err := DiskUsageBytes(filepath.Join(root, trashDir))
	if err != nil {
		return Usage{}, err
	}
	return Usage{Bytes: all - trash, TrashBytes: trash}, nil
}

// DatabaseUsage measures a SQLite database including its WAL and shared-memory files.
// Trashed notes live in the same file and are not reported separately.
func DatabaseUsage(dbPath string) (Usage, error) {
	n, err := DiskUsageBytes(dbPath, dbPath+"-wal", dbPath+"-shm")
	if err != nil {
		return Usage{}, err
	}
	return Usage{Bytes: n}, nil
}
