// Package scanner loads documents from a content provider into Document snapshots.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/futago/internal/config"
	"github.com/hyperjump/futago/internal/models"
	"github.com/hyperjump/futago/internal/provider"
	"go.uber.org/zap"
)

// YieldEvery is the number of documents processed between cooperative yields.
const YieldEvery = 50

// Result is the outcome of a scan.
type Result struct {
	Documents  []*models.Document
	Unreadable []*provider.ReadError
	Excluded   int
	TooShort   int
}

// Scanner filters and loads documents. It is not safe for concurrent scans.
type Scanner struct {
	provider provider.ContentProvider
	settings config.Settings
	logger   *zap.Logger // optional
	yield    func()
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithYield replaces the cooperative yield hook (runtime.Gosched by default).
func WithYield(fn func()) Option {
	return func(s *Scanner) {
		if fn != nil {
			s.yield = fn
		}
	}
}

// NewScanner returns a scanner reading from p with the given settings.
func NewScanner(p provider.ContentProvider, settings config.Settings, opts ...Option) *Scanner {
	s := &Scanner{provider: p, settings: settings, yield: runtime.Gosched}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateSettings replaces the settings used by subsequent scans.
func (s *Scanner) UpdateSettings(settings config.Settings) {
	s.settings = settings
}

// Settings returns the current settings.
func (s *Scanner) Settings() config.Settings {
	return s.settings
}

// Scan lists, filters and reads every document. A document that cannot be read is
// recorded in Result.Unreadable and skipped. Scan fails only when listing fails or ctx is done.
func (s *Scanner) Scan(ctx context.Context, onProgress models.ProgressFunc) (*Result, error) {
	refs, err := s.provider.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	res := &Result{}
	candidates := make([]provider.DocumentRef, 0, len(refs))
	for _, ref := range refs {
		if IsExcluded(ref.Path, s.settings.ExcludedFolders) {
			res.Excluded++
			continue
		}
		candidates = append(candidates, ref)
	}

	total := len(candidates)
	for i, ref := range candidates {
		onProgress.Report(models.Progress{
			Current: i + 1,
			Total:   total,
			Phase:   models.PhaseScanning,
			Message: "scanning: " + ref.Path,
		})

		content, err := s.provider.ReadContent(ctx, ref.Path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			var readErr *provider.ReadError
			if !errors.As(err, &readErr) {
				readErr = &provider.ReadError{Path: ref.Path, Err: err}
			}
			res.Unreadable = append(res.Unreadable, readErr)
			if s.logger != nil {
				s.logger.Warn("skipping unreadable document", zap.String("path", ref.Path), zap.Error(err))
			}
		} else if utf8.RuneCountInString(content) < s.settings.MinContentLength {
			res.TooShort++
			if s.logger != nil {
				s.logger.Debug("skipping short document", zap.String("path", ref.Path))
			}
		} else {
			res.Documents = append(res.Documents, NewDocument(ref, content))
		}

		if i%YieldEvery == 0 {
			s.yield()
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}

	if s.logger != nil {
		s.logger.Debug("scan complete",
			zap.Int("documents", len(res.Documents)),
			zap.Int("excluded", res.Excluded),
			zap.Int("too_short", res.TooShort),
			zap.Int("unreadable", len(res.Unreadable)),
		)
	}
	return res, nil
}

// NewDocument builds the snapshot of one document.
func NewDocument(ref provider.DocumentRef, content string) *models.Document {
	return &models.Document{
		Path:        ref.Path,
		Title:       ref.Title,
		Content:     content,
		Fingerprint: Fingerprint(content),
		WordCount:   CountWords(content),
	}
}

// IsExcluded reports whether path equals, or lies under, one of folders. Comparison is case-insensitive.
func IsExcluded(path string, folders []string) bool {
	lower := strings.ToLower(path)
	for _, f := range folders {
		f = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(f), "/"))
		if f == "" {
			continue
		}
		if lower == f || strings.HasPrefix(lower, f+"/") {
			return true
		}
	}
	return false
}
