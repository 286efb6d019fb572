// Package storage defines the persistence interface for notes kept outside the filesystem.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/futago/internal/provider"
)

// ErrNoteNotFound is returned when no active note exists at a path.
var ErrNoteNotFound = errors.New("note not found")

// Note is one stored note.
type Note struct {
	Path    string
	Title   string
	Content string
}

// Store holds notes and serves them to the scanner. Trashed notes are kept but not listed.
type Store interface {
	provider.Source

	// Note operations
	PutNote(ctx context.Context, note *Note) error
	PutNotes(ctx context.Context, notes []*Note) error
	GetNote(ctx context.Context, path string) (*Note, error)

	// Stats
	CountNotes(ctx context.Context) (int64, error)
	CountTrashed(ctx context.Context) (int64, error)

	Close() error
}
