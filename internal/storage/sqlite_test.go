package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/futago/internal/provider"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "notes.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_PutAndList(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.PutNote(ctx, &Note{Path: "b.md", Title: "B", Content: "bee"}); err != nil {
		t.Fatal(err)
	}
	err := store.PutNotes(ctx, []*Note{
		{Path: "a.md", Title: "A", Content: "ay"},
		{Path: "b.md", Title: "B2", Content: "bee updated"},
	})
	if err != nil {
		t.Fatal(err)
	}

	refs, err := store.ListDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []provider.DocumentRef{{Path: "a.md", Title: "A"}, {Path: "b.md", Title: "B2"}}
	if len(refs) != 2 || refs[0] != want[0] || refs[1] != want[1] {
		t.Errorf("got %+v, want %+v", refs, want)
	}

	content, err := store.ReadContent(ctx, "b.md")
	if err != nil {
		t.Fatal(err)
	}
	if content != "bee updated" {
		t.Errorf("content = %q", content)
	}

	n, err := store.CountNotes(ctx)
	if err != nil || n != 2 {
		t.Errorf("CountNotes: %v, %d", err, n)
	}
}

func TestSQLiteStore_ReadMissing(t *testing.T) {
	store := openStore(t)
	_, err := store.ReadContent(context.Background(), "missing.md")
	var readErr *provider.ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected ReadError, got %v", err)
	}
	if !errors.Is(err, ErrNoteNotFound) {
		t.Errorf("expected ErrNoteNotFound, got %v", err)
	}
}

func TestSQLiteStore_TrashAndRestore(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if err := store.PutNote(ctx, &Note{Path: "dir/n.md", Title: "n", Content: "original"}); err != nil {
		t.Fatal(err)
	}

	if err := store.Trash(ctx, "dir/n.md"); err != nil {
		t.Fatal(err)
	}
	refs, _ := store.ListDocuments(ctx)
	if len(refs) != 0 {
		t.Errorf("trashed note should not be listed: %+v", refs)
	}
	if n, _ := store.CountTrashed(ctx); n != 1 {
		t.Errorf("CountTrashed = %d", n)
	}
	if err := store.Trash(ctx, "dir/n.md"); !errors.Is(err, ErrNoteNotFound) {
		t.Errorf("second trash: %v", err)
	}

	if err := store.Restore(ctx, "dir/n.md", "original"); err != nil {
		t.Fatal(err)
	}
	note, err := store.GetNote(ctx, "dir/n.md")
	if err != nil {
		t.Fatal(err)
	}
	if note.Content != "original" || note.Title != "n" {
		t.Errorf("restored note = %+v", note)
	}
	if err := store.Restore(ctx, "dir/n.md", "again"); !errors.Is(err, os.ErrExist) {
		t.Errorf("restore over active note: %v", err)
	}
	if n, _ := store.CountTrashed(ctx); n != 0 {
		t.Errorf("CountTrashed after restore = %d", n)
	}
}

func TestSQLiteStore_RestoreKeepsTitle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if err := store.PutNote(ctx, &Note{Path: "daily/2024-05-01.md", Title: "Standup notes", Content: "original"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Trash(ctx, "daily/2024-05-01.md"); err != nil {
		t.Fatal(err)
	}
	if err := store.Restore(ctx, "daily/2024-05-01.md", "original"); err != nil {
		t.Fatal(err)
	}
	note, err := store.GetNote(ctx, "daily/2024-05-01.md")
	if err != nil {
		t.Fatal(err)
	}
	if note.Title != "Standup notes" {
		t.Errorf("title = %q, want the stored title", note.Title)
	}

	// A path the store never held takes its title from the file name.
	if err := store.Restore(ctx, "inbox/new idea.md", "fresh"); err != nil {
		t.Fatal(err)
	}
	note, err = store.GetNote(ctx, "inbox/new idea.md")
	if err != nil {
		t.Fatal(err)
	}
	if note.Title != "new idea" || note.Content != "fresh" {
		t.Errorf("new note = %+v", note)
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.PutNote(context.Background(), &Note{Path: "x.md", Title: "x", Content: "kept"}); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	store, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if n, _ := store.CountNotes(context.Background()); n != 1 {
		t.Errorf("expected 1 note after reopen, got %d", n)
	}
}
