package provider

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hyperjump/futago/internal/extract"
	"go.uber.org/zap"
)

// TrashDir is the vault-local folder deleted documents are moved into.
const TrashDir = ".trash"

// Vault reads documents from a directory tree. Paths are slash-separated and
// relative to the vault root; titles are file names without extension.
type Vault struct {
	root       string
	extensions []string
	extractor  *extract.Extractor
	logger     *zap.Logger // optional

	mu      sync.Mutex
	trashed map[string][]string // vault path -> trash locations, most recent last
}

// VaultOption configures a Vault.
type VaultOption func(*Vault)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) VaultOption {
	return func(v *Vault) { v.logger = l }
}

// WithExtractor sets the extractor used to read non-plain-text formats.
func WithExtractor(e *extract.Extractor) VaultOption {
	return func(v *Vault) { v.extractor = e }
}

// NewVault returns a vault rooted at root. Only files whose extension is in
// extensions (case-insensitive) are listed; an empty list means all files.
func NewVault(root string, extensions []string, opts ...VaultOption) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", abs)
	}
	v := &Vault{root: abs, extensions: extensions, trashed: make(map[string][]string)}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Root returns the absolute vault directory.
func (v *Vault) Root() string {
	return v.root
}

// Extensions returns the listed file extensions.
func (v *Vault) Extensions() []string {
	return append([]string(nil), v.extensions...)
}

// ListDocuments walks the vault in lexical order and returns every matching regular file.
// Exclusion of folders is left to the scanner.
func (v *Vault) ListDocuments(ctx context.Context) ([]DocumentRef, error) {
	var refs []DocumentRef
	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !extract.MatchExtension(path, v.extensions) {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := v.rel(path)
		if err != nil {
			return err
		}
		refs = append(refs, DocumentRef{Path: rel, Title: TitleFromPath(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list vault %s: %w", v.root, err)
	}
	return refs, nil
}

// ReadContent reads and extracts the text of the document at the vault-relative path.
func (v *Vault) ReadContent(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	abs, err := v.abs(path)
	if err != nil {
		return "", &ReadError{Path: path, Err: err}
	}
	var text string
	switch {
	case v.extractor != nil:
		text, err = v.extractor.Extract(abs)
	case extract.IsBinaryFormat(filepath.Ext(abs)):
		err = fmt.Errorf("%w: %s", errNoExtractor, filepath.Ext(abs))
	default:
		var b []byte
		b, err = os.ReadFile(abs)
		text = string(b)
	}
	if err != nil {
		return "", &ReadError{Path: path, Err: err}
	}
	return text, nil
}

// Trash moves the document into the vault's .trash folder, keeping its relative layout.
// An existing file in the trash with the same name is not overwritten; a numeric suffix is added.
func (v *Vault) Trash(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := v.abs(path)
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("trash %s: %w", path, err)
	}
	dst := uniquePath(filepath.Join(v.root, TrashDir, filepath.FromSlash(path)))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create trash directory: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("trash %s: %w", path, err)
	}
	v.trashed[path] = append(v.trashed[path], dst)
	if v.logger != nil {
		v.logger.Debug("vault trashed document", zap.String("path", path), zap.String("trash_path", dst))
	}
	return nil
}

// Restore puts the document back at the vault-relative path. A file this vault trashed
// is moved back unchanged; otherwise content is written as a new file.
// It fails when a file already exists at path.
func (v *Vault) Restore(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst, err := v.abs(path)
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("restore %s: %w", path, os.ErrExist)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	if locs := v.trashed[path]; len(locs) > 0 {
		src := locs[len(locs)-1]
		if _, err := os.Stat(src); err == nil {
			if err := os.Rename(src, dst); err != nil {
				return fmt.Errorf("restore %s: %w", path, err)
			}
			v.popTrashed(path)
			if v.logger != nil {
				v.logger.Debug("vault restored document from trash", zap.String("path", path), zap.String("trash_path", src))
			}
			return nil
		}
		// Removed from the trash by someone else.
		v.popTrashed(path)
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("restore %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("restore %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("restore %s: %w", path, err)
	}
	if v.logger != nil {
		v.logger.Debug("vault restored document from snapshot", zap.String("path", path))
	}
	return nil
}

func (v *Vault) popTrashed(path string) {
	locs := v.trashed[path]
	if len(locs) <= 1 {
		delete(v.trashed, path)
		return
	}
	v.trashed[path] = locs[:len(locs)-1]
}

// Resolve returns the absolute file path for a vault-relative path.
func (v *Vault) Resolve(path string) (string, error) {
	return v.abs(path)
}

func (v *Vault) rel(abs string) (string, error) {
	rel, err := filepath.Rel(v.root, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

var (
	errOutsideVault = errors.New("path escapes vault")
	errNoExtractor  = errors.New("no extractor configured for format")
)

func (v *Vault) abs(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", errOutsideVault, path)
	}
	return filepath.Join(v.root, clean), nil
}

// TitleFromPath returns the file name of path without its extension.
func TitleFromPath(path string) string {
	base := filepath.Base(filepath.FromSlash(path))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s %d%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
