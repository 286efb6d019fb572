// Package provider defines the content source consumed by the scanner and
// the trash capability used when reviewing duplicates.
package provider

import (
	"context"
	"fmt"
)

// DocumentRef is one candidate document as listed by a provider.
type DocumentRef struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

// ContentProvider enumerates documents and reads their text.
type ContentProvider interface {
	ListDocuments(ctx context.Context) ([]DocumentRef, error)
	// ReadContent returns the text of the document at path.
	// Implementations return a *ReadError when the document cannot be read.
	ReadContent(ctx context.Context, path string) (string, error)
}

// Trasher moves documents out of the collection and puts them back.
type Trasher interface {
	Trash(ctx context.Context, path string) error
	// Restore puts the document at path back. Sources that keep the trashed original
	// restore it as it was; others recreate it from content. It fails if a document already exists there.
	Restore(ctx context.Context, path, content string) error
}

// Source is a provider that supports both reading and trashing.
type Source interface {
	ContentProvider
	Trasher
}

// ReadError reports a failure to read a single document.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
