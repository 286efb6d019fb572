package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/futago/internal/provider"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS notes (
		path TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		trashed_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_notes_trashed_at ON notes(trashed_at);
	`
	_, err := db.Exec(schema)
	return err
}

// restoreNote reactivates a trashed row in place, keeping its title, or inserts a new one.
const restoreNote = `INSERT INTO notes (path, title, content, created_at, updated_at, trashed_at)
	VALUES (?, ?, ?, ?, ?, NULL)
	ON CONFLICT(path) DO UPDATE SET
		content = excluded.content,
		updated_at = excluded.updated_at,
		trashed_at = NULL`

const upsertNote = `INSERT INTO notes (path, title, content, created_at, updated_at, trashed_at)
	VALUES (?, ?, ?, ?, ?, NULL)
	ON CONFLICT(path) DO UPDATE SET
		title = excluded.title,
		content = excluded.content,
		updated_at = excluded.updated_at,
		trashed_at = NULL`

// PutNote inserts or replaces a note. A trashed note at the same path becomes active again.
func (s *SQLiteStore) PutNote(ctx context.Context, note *Note) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx, upsertNote, note.Path, note.Title, note.Content, now, now)
	return err
}

// PutNotes inserts or replaces multiple notes in a transaction.
func (s *SQLiteStore) PutNotes(ctx context.Context, notes []*Note) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertNote)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, note := range notes {
		if _, err := stmt.ExecContext(ctx, note.Path, note.Title, note.Content, now, now); err != nil {
			return fmt.Errorf("put note %s: %w", note.Path, err)
		}
	}
	return tx.Commit()
}

// GetNote returns the active note at path.
func (s *SQLiteStore) GetNote(ctx context.Context, path string) (*Note, error) {
	var note Note
	err := s.db.QueryRowContext(ctx,
		`SELECT path, title, content FROM notes WHERE path = ? AND trashed_at IS NULL`, path,
	).Scan(&note.Path, &note.Title, &note.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoteNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// ListDocuments returns every active note ordered by path.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]provider.DocumentRef, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, title FROM notes WHERE trashed_at IS NULL ORDER BY path`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []provider.DocumentRef
	for rows.Next() {
		var ref provider.DocumentRef
		if err := rows.Scan(&ref.Path, &ref.Title); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// ReadContent returns the content of the active note at path.
func (s *SQLiteStore) ReadContent(ctx context.Context, path string) (string, error) {
	note, err := s.GetNote(ctx, path)
	if err != nil {
		return "", &provider.ReadError{Path: path, Err: err}
	}
	return note.Content, nil
}

// Trash marks the note at path as trashed.
func (s *SQLiteStore) Trash(ctx context.Context, path string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notes SET trashed_at = ? WHERE path = ? AND trashed_at IS NULL`,
		time.Now(), path,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, path)
	}
	return nil
}

// Restore makes the note at path active again with content, keeping its stored title.
// It fails if an active note exists there.
func (s *SQLiteStore) Restore(ctx context.Context, path, content string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notes WHERE path = ? AND trashed_at IS NULL`, path,
	).Scan(&active)
	if err != nil {
		return err
	}
	if active > 0 {
		return fmt.Errorf("restore %s: %w", path, os.ErrExist)
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx, restoreNote, path, provider.TitleFromPath(path), content, now, now); err != nil {
		return err
	}
	return tx.Commit()
}

// CountNotes returns the number of active notes.
func (s *SQLiteStore) CountNotes(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes WHERE trashed_at IS NULL`).Scan(&count)
	return count, err
}

// CountTrashed returns the number of trashed notes.
func (s *SQLiteStore) CountTrashed(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes WHERE trashed_at IS NOT NULL`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
