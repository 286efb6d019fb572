// Package extract turns vault files into plain text for duplicate detection.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type extractFunc func(content []byte) (string, error)

// formats maps a lowercase extension (with dot) to its extractor.
// Anything not listed is read as plain text.
var formats = map[string]extractFunc{
	".pdf":  extractPDF,
	".docx": extractDOCX,
	".xlsx": extractExcel,
	".pptx": extractPPTX,
	".odt":  extractOpenDocument,
	".ods":  extractOpenDocument,
	".odp":  extractOpenDocument,
}

// Extractor reads document files and returns their text.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
// Markdown and other text files are returned as-is apart from UTF-8 repair and BOM removal;
// office and PDF formats are converted to text.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content based on ext (with leading dot, any case).
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	if fn, ok := formats[strings.ToLower(ext)]; ok {
		return fn(content)
	}
	return extractPlain(content)
}

// IsBinaryFormat reports whether ext needs a format-specific extractor.
func IsBinaryFormat(ext string) bool {
	_, ok := formats[strings.ToLower(ext)]
	return ok
}

// MatchExtension reports whether path has one of extensions (case-insensitive, dot optional).
// An empty list matches every path.
func MatchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
