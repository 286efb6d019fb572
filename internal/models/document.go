// Package models defines core data structures for scanned documents, duplicate groups, and progress.
package models

import "strings"

// Document is a point-in-time snapshot of one scanned note.
// It is created by the scanner and never mutated afterwards.
type Document struct {
	Path        string `json:"path"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Fingerprint string `json:"fingerprint"`
	WordCount   int    `json:"word_count"`
}

// PairKey identifies an unordered pair of document paths.
type PairKey struct {
	A, B string
}

// NewPairKey returns the key for the pair (p1, p2) regardless of argument order.
func NewPairKey(p1, p2 string) PairKey {
	if p2 < p1 {
		p1, p2 = p2, p1
	}
	return PairKey{A: p1, B: p2}
}

// String renders the key as "a|b".
func (k PairKey) String() string {
	return strings.Join([]string{k.A, k.B}, "|")
}
