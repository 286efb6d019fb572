// Package detector finds duplicate documents in three passes: equal titles, equal content,
// and similar content.
package detector

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/hyperjump/futago/internal/config"
	"github.com/hyperjump/futago/internal/models"
	"github.com/hyperjump/futago/internal/provider"
	"github.com/hyperjump/futago/internal/scanner"
	"github.com/hyperjump/futago/internal/similarity"
	"go.uber.org/zap"
)

// ProgressEvery is the number of pair comparisons between progress events and yields.
const ProgressEvery = 100

// Report is the result of one detection run.
type Report struct {
	Groups      []*models.DuplicateGroup
	Scan        *scanner.Result
	Comparisons int
	Duration    time.Duration
}

// Detector runs duplicate detection over a content provider.
// A Detector must not run two detections at once; callers serialize runs.
type Detector struct {
	scanner  *scanner.Scanner
	settings config.Settings
	logger   *zap.Logger // optional
	yield    func()
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets a logger for the detector and its scanner.
func WithLogger(l *zap.Logger) Option {
	return func(d *Detector) { d.logger = l }
}

// WithYield replaces the cooperative yield hook (runtime.Gosched by default).
func WithYield(fn func()) Option {
	return func(d *Detector) {
		if fn != nil {
			d.yield = fn
		}
	}
}

// NewDetector returns a detector reading documents from p.
func NewDetector(p provider.ContentProvider, settings config.Settings, opts ...Option) *Detector {
	d := &Detector{settings: settings, yield: runtime.Gosched}
	for _, opt := range opts {
		opt(d)
	}
	d.scanner = scanner.NewScanner(p, settings, scanner.WithLogger(d.logger), scanner.WithYield(d.yield))
	return d
}

// UpdateSettings replaces the settings used by subsequent runs.
func (d *Detector) UpdateSettings(settings config.Settings) {
	d.settings = settings
	d.scanner.UpdateSettings(settings)
}

// Settings returns the current settings.
func (d *Detector) Settings() config.Settings {
	return d.settings
}

// DetectDuplicates scans the provider and returns the ranked duplicate groups.
func (d *Detector) DetectDuplicates(ctx context.Context, onProgress models.ProgressFunc) ([]*models.DuplicateGroup, error) {
	report, err := d.Run(ctx, onProgress)
	if err != nil {
		return nil, err
	}
	return report.Groups, nil
}

// Run scans the provider and detects duplicates, returning the groups together with scan details.
func (d *Detector) Run(ctx context.Context, onProgress models.ProgressFunc) (*Report, error) {
	start := time.Now()
	scan, err := d.scanner.Scan(ctx, onProgress)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	report, err := d.Detect(ctx, scan.Documents, onProgress)
	if err != nil {
		return nil, err
	}
	report.Scan = scan
	report.Duration = time.Since(start)

	if d.logger != nil {
		d.logger.Info("duplicate detection finished",
			zap.Int("documents", len(scan.Documents)),
			zap.Int("unreadable", len(scan.Unreadable)),
			zap.Int("groups", len(report.Groups)),
			zap.Int("comparisons", report.Comparisons),
			zap.Duration("duration", report.Duration),
		)
	}
	return report, nil
}

// Detect runs the three detection passes over already scanned documents.
func (d *Detector) Detect(ctx context.Context, docs []*models.Document, onProgress models.ProgressFunc) (*Report, error) {
	start := time.Now()
	report := &Report{Groups: []*models.DuplicateGroup{}}
	if len(docs) == 0 {
		onProgress.Report(models.Progress{Phase: models.PhaseDone, Message: "no documents to compare"})
		return report, nil
	}

	onProgress.Report(models.Progress{
		Current: 0,
		Total:   len(docs),
		Phase:   models.PhaseComparing,
		Message: "comparing documents",
	})

	titleGroups := groupByTitle(docs)
	contentGroups := groupByFingerprint(docs)
	d.debugPass("exact_title", titleGroups)
	d.debugPass("exact_content", contentGroups)

	processed := make(map[models.PairKey]struct{})
	for _, groups := range [][]*models.DuplicateGroup{titleGroups, contentGroups} {
		for _, g := range groups {
			for _, key := range g.Pairs() {
				processed[key] = struct{}{}
			}
		}
	}

	similar, comparisons, err := d.compareContent(ctx, docs, processed, onProgress)
	if err != nil {
		return nil, err
	}
	d.debugPass("similar_content", similar)

	report.Groups = append(report.Groups, titleGroups...)
	report.Groups = append(report.Groups, contentGroups...)
	report.Groups = append(report.Groups, similar...)
	SortGroups(report.Groups)
	report.Comparisons = comparisons
	report.Duration = time.Since(start)

	onProgress.Report(models.Progress{
		Current: comparisons,
		Total:   comparisons,
		Phase:   models.PhaseDone,
		Message: fmt.Sprintf("found %d duplicate groups", len(report.Groups)),
	})
	return report, nil
}

func (d *Detector) debugPass(pass string, groups []*models.DuplicateGroup) {
	if d.logger != nil {
		d.logger.Debug("detection pass complete", zap.String("pass", pass), zap.Int("groups", len(groups)))
	}
}

// groupByTitle groups documents whose trimmed, lowercased titles are equal.
// Groups appear in the order their first member was seen.
func groupByTitle(docs []*models.Document) []*models.DuplicateGroup {
	return partition(docs, func(doc *models.Document) string {
		return strings.ToLower(strings.TrimSpace(doc.Title))
	}, func(_ string, members []*models.Document) *models.DuplicateGroup {
		return newGroup("title-"+members[0].Title, models.GroupExactTitle, 100, members)
	})
}

func groupByFingerprint(docs []*models.Document) []*models.DuplicateGroup {
	return partition(docs, func(doc *models.Document) string {
		return doc.Fingerprint
	}, func(hash string, members []*models.Document) *models.DuplicateGroup {
		return newGroup("content-"+hash, models.GroupExactContent, 100, members)
	})
}

func partition(
	docs []*models.Document,
	keyOf func(*models.Document) string,
	build func(key string, members []*models.Document) *models.DuplicateGroup,
) []*models.DuplicateGroup {
	buckets := make(map[string][]*models.Document)
	var keys []string
	for _, doc := range docs {
		k := keyOf(doc)
		if _, ok := buckets[k]; !ok {
			keys = append(keys, k)
		}
		buckets[k] = append(buckets[k], doc)
	}
	var groups []*models.DuplicateGroup
	for _, k := range keys {
		if members := buckets[k]; len(members) > 1 {
			groups = append(groups, build(k, members))
		}
	}
	return groups
}

type candidate struct {
	doc     *models.Document
	profile *similarity.Profile
}

// compareContent compares every pair not yet in processed, shortest documents first,
// and returns a two-member group for each pair at or above the threshold.
func (d *Detector) compareContent(
	ctx context.Context,
	docs []*models.Document,
	processed map[models.PairKey]struct{},
	onProgress models.ProgressFunc,
) ([]*models.DuplicateGroup, int, error) {
	cands := make([]candidate, len(docs))
	for i, doc := range docs {
		cands[i] = candidate{doc: doc, profile: similarity.NewProfile(doc.Content)}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].profile.Len() < cands[j].profile.Len()
	})

	threshold := d.settings.SimilarityThreshold
	n := len(cands)
	total := n * (n - 1) / 2
	current := 0
	var groups []*models.DuplicateGroup

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			current++
			a, b := cands[i], cands[j]
			key := models.NewPairKey(a.doc.Path, b.doc.Path)

			if _, seen := processed[key]; !seen &&
				similarity.LengthRatio(a.profile.Len(), b.profile.Len()) >= similarity.MinLengthRatio {
				if score := similarity.Compare(a.profile, b.profile); score >= threshold {
					id := "similar-" + a.doc.Path + "-" + b.doc.Path
					groups = append(groups, newGroup(id, models.GroupSimilarContent, score, []*models.Document{a.doc, b.doc}))
					processed[key] = struct{}{}
				}
			}

			if current%ProgressEvery == 0 {
				onProgress.Report(models.Progress{
					Current: current,
					Total:   total,
					Phase:   models.PhaseComparing,
					Message: fmt.Sprintf("comparing: %d%%", percent(current, total)),
				})
				d.yield()
				if err := ctx.Err(); err != nil {
					return nil, current, err
				}
			}
		}
	}
	return groups, current, nil
}

func percent(current, total int) int {
	if total == 0 {
		return 100
	}
	return (current*200 + total) / (2 * total)
}

func newGroup(id string, t models.GroupType, score int, members []*models.Document) *models.DuplicateGroup {
	return &models.DuplicateGroup{
		ID:         id,
		Type:       t,
		Similarity: score,
		Members:    members,
		Primary:    members[0],
	}
}

// SortGroups orders groups by type (exact content, exact title, similar content) and then by
// similarity, highest first. Equal groups keep their relative order.
func SortGroups(groups []*models.DuplicateGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		pi, pj := groups[i].Type.Priority(), groups[j].Type.Priority()
		if pi != pj {
			return pi < pj
		}
		return groups[i].Similarity > groups[j].Similarity
	})
}
