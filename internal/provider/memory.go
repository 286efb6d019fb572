package provider

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// Memory is an in-memory Source. Documents are listed in insertion order.
type Memory struct {
	mu       sync.Mutex
	order    []string
	titles   map[string]string
	contents map[string]string
	failures map[string]error
}

// NewMemory returns an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{
		titles:   make(map[string]string),
		contents: make(map[string]string),
		failures: make(map[string]error),
	}
}

// Add stores a document titled after its file name.
func (m *Memory) Add(path, content string) {
	m.AddWithTitle(path, TitleFromPath(path), content)
}

// AddWithTitle stores a document with an explicit title, replacing any document at path.
func (m *Memory) AddWithTitle(path, title, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contents[path]; !ok {
		m.order = append(m.order, path)
	}
	m.titles[path] = title
	m.contents[path] = content
}

// FailRead makes reads of path fail with err.
func (m *Memory) FailRead(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path] = err
}

// Has reports whether a document exists at path.
func (m *Memory) Has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.contents[path]
	return ok
}

func (m *Memory) ListDocuments(ctx context.Context) ([]DocumentRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	refs := make([]DocumentRef, 0, len(m.order))
	for _, p := range m.order {
		refs = append(refs, DocumentRef{Path: p, Title: m.titles[p]})
	}
	return refs, nil
}

func (m *Memory) ReadContent(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failures[path]; ok {
		return "", &ReadError{Path: path, Err: err}
	}
	content, ok := m.contents[path]
	if !ok {
		return "", &ReadError{Path: path, Err: os.ErrNotExist}
	}
	return content, nil
}

func (m *Memory) Trash(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contents[path]; !ok {
		return fmt.Errorf("trash %s: %w", path, os.ErrNotExist)
	}
	delete(m.contents, path)
	delete(m.titles, path)
	for i, p := range m.order {
		if p == path {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) Restore(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contents[path]; ok {
		return fmt.Errorf("restore %s: %w", path, os.ErrExist)
	}
	m.order = append(m.order, path)
	m.titles[path] = TitleFromPath(path)
	m.contents[path] = content
	return nil
}
