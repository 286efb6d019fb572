// Package review holds the latest detection result and lets a user work through it:
// trash duplicates, undo and redo those deletions, and trigger new runs.
package review

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/futago/internal/config"
	"github.com/hyperjump/futago/internal/detector"
	"github.com/hyperjump/futago/internal/models"
	"github.com/hyperjump/futago/internal/provider"
	"go.uber.org/zap"
)

// OwnChangeWindow is how long a path trashed or restored by the session is ignored by Changed.
const OwnChangeWindow = 5 * time.Second

var (
	ErrScanInProgress = errors.New("scan already in progress")
	ErrNothingToUndo  = errors.New("nothing to undo")
	ErrNothingToRedo  = errors.New("nothing to redo")
	ErrGroupNotFound  = errors.New("group not found")
	ErrMemberNotFound = errors.New("document is not a member of the group")
)

// Detector is the detection engine driven by a session.
type Detector interface {
	Run(ctx context.Context, onProgress models.ProgressFunc) (*detector.Report, error)
	Settings() config.Settings
	UpdateSettings(settings config.Settings)
}

// Report describes the most recent completed run.
type Report struct {
	RunID       string                   `json:"run_id"`
	StartedAt   time.Time                `json:"started_at"`
	FinishedAt  time.Time                `json:"finished_at"`
	Documents   int                      `json:"documents"`
	Unreadable  []string                 `json:"unreadable,omitempty"`
	Comparisons int                      `json:"comparisons"`
	Groups      []*models.DuplicateGroup `json:"groups"`
}

// Status is a point-in-time view of the session.
type Status struct {
	Running   bool            `json:"running"`
	Progress  models.Progress `json:"progress"`
	RunID     string          `json:"run_id,omitempty"`
	Groups    int             `json:"groups"`
	UndoDepth int             `json:"undo_depth"`
	RedoDepth int             `json:"redo_depth"`
	LastError string          `json:"last_error,omitempty"`
}

// groupSnapshot is a group as it was before a document was removed from it.
type groupSnapshot struct {
	index int
	group *models.DuplicateGroup
}

// action is one reversible deletion.
type action struct {
	doc    *models.Document
	groups []groupSnapshot
}

// Session serializes detection runs and keeps the delete history for the current result.
// It is safe for concurrent use.
type Session struct {
	detector Detector
	trasher  provider.Trasher
	logger   *zap.Logger // optional

	mu       sync.Mutex
	running  bool
	pending  bool
	progress models.Progress
	lastErr  error
	report   *Report
	groups   []*models.DuplicateGroup
	history  []action
	redo     []action
	touched  map[string]time.Time
	wg       sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets a logger for review actions.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession returns a session over d that trashes documents through t.
func NewSession(d Detector, t provider.Trasher, opts ...Option) *Session {
	s := &Session{detector: d, trasher: t, touched: make(map[string]time.Time)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan runs a detection and waits for it. It returns ErrScanInProgress if a run is active.
func (s *Session) Scan(ctx context.Context) (*Report, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	return s.run(ctx)
}

// Start launches a detection in the background. It returns ErrScanInProgress if a run is active.
func (s *Session) Start(ctx context.Context) error {
	if err := s.begin(); err != nil {
		return err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.run(ctx)
	}()
	return nil
}

// Request starts a background run, or, if one is active, schedules another run after it.
func (s *Session) Request(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	if err := s.Start(ctx); errors.Is(err, ErrScanInProgress) {
		s.mu.Lock()
		s.pending = true
		s.mu.Unlock()
	}
}

// Changed is called with paths modified outside the session. It requests a run unless every
// path was itself trashed or restored by the session within OwnChangeWindow, and reports
// whether a run was requested.
func (s *Session) Changed(ctx context.Context, paths []string) bool {
	s.mu.Lock()
	now := time.Now()
	foreign := false
	for _, p := range paths {
		if at, ok := s.touched[p]; !ok || now.Sub(at) > OwnChangeWindow {
			foreign = true
		}
	}
	for p, at := range s.touched {
		if now.Sub(at) > OwnChangeWindow {
			delete(s.touched, p)
		}
	}
	s.mu.Unlock()

	if !foreign {
		return false
	}
	s.Request(ctx)
	return true
}

// Wait blocks until background runs have finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrScanInProgress
	}
	s.running = true
	s.progress = models.Progress{Phase: models.PhaseScanning, Message: "starting"}
	return nil
}

// run performs detections until no further run was requested. The caller must have called begin.
func (s *Session) run(ctx context.Context) (*Report, error) {
	for {
		report, err := s.runOnce(ctx)

		s.mu.Lock()
		s.lastErr = err
		if err == nil {
			s.report = report
			s.groups = cloneGroups(report.Groups)
			s.history = nil
			s.redo = nil
		}
		again := s.pending && ctx.Err() == nil
		s.pending = false
		if !again {
			s.running = false
		}
		s.mu.Unlock()

		if !again {
			return report, err
		}
	}
}

func (s *Session) runOnce(ctx context.Context) (*Report, error) {
	started := time.Now()
	res, err := s.detector.Run(ctx, s.setProgress)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("detection run failed", zap.Error(err))
		}
		return nil, err
	}
	report := &Report{
		RunID:       uuid.New().String(),
		StartedAt:   started,
		FinishedAt:  time.Now(),
		Comparisons: res.Comparisons,
		Groups:      res.Groups,
	}
	if res.Scan != nil {
		report.Documents = len(res.Scan.Documents)
		for _, re := range res.Scan.Unreadable {
			report.Unreadable = append(report.Unreadable, re.Path)
		}
	}
	if s.logger != nil {
		s.logger.Info("detection run complete", zap.String("run_id", report.RunID), zap.Int("groups", len(report.Groups)))
	}
	return report, nil
}

func (s *Session) setProgress(p models.Progress) {
	s.mu.Lock()
	s.progress = p
	s.mu.Unlock()
}

// Progress returns the last progress event.
func (s *Session) Progress() models.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Running reports whether a detection is in flight.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Report returns the last completed run with the current, reviewed groups, or nil before the first run.
func (s *Session) Report() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return nil
	}
	r := *s.report
	r.Groups = cloneGroups(s.groups)
	return &r
}

// Groups returns a copy of the current groups.
func (s *Session) Groups() []*models.DuplicateGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneGroups(s.groups)
}

// Status returns a summary of the session state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Running:   s.running,
		Progress:  s.progress,
		Groups:    len(s.groups),
		UndoDepth: len(s.history),
		RedoDepth: len(s.redo),
	}
	if s.report != nil {
		st.RunID = s.report.RunID
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Settings returns the detector's current settings.
func (s *Session) Settings() config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detector.Settings()
}

// UpdateSettings applies settings to subsequent runs. It fails while a run is active.
func (s *Session) UpdateSettings(settings config.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrScanInProgress
	}
	s.detector.UpdateSettings(settings)
	return nil
}

// Delete trashes the document at path and removes it from every group it belongs to.
// Groups left with fewer than two members are dropped.
func (s *Session) Delete(ctx context.Context, groupID, path string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, ErrScanInProgress
	}
	g := s.findGroup(groupID)
	if g == nil {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	doc := g.Member(path)
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, path)
	}
	if err := s.trasher.Trash(ctx, path); err != nil {
		return nil, fmt.Errorf("trash %s: %w", path, err)
	}
	s.touched[path] = time.Now()
	s.history = append(s.history, s.remove(doc))
	s.redo = nil
	if s.logger != nil {
		s.logger.Info("deleted document", zap.String("path", path), zap.String("group", groupID))
	}
	return doc, nil
}

// Undo restores the most recently deleted document and puts it back into its groups.
func (s *Session) Undo(ctx context.Context) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, ErrScanInProgress
	}
	if len(s.history) == 0 {
		return nil, ErrNothingToUndo
	}
	a := s.history[len(s.history)-1]
	if err := s.trasher.Restore(ctx, a.doc.Path, a.doc.Content); err != nil {
		return nil, fmt.Errorf("restore %s: %w", a.doc.Path, err)
	}
	s.touched[a.doc.Path] = time.Now()
	s.history = s.history[:len(s.history)-1]
	s.restore(a)
	s.redo = append(s.redo, a)
	if s.logger != nil {
		s.logger.Info("undid delete", zap.String("path", a.doc.Path))
	}
	return a.doc, nil
}

// Redo deletes again the most recently restored document.
func (s *Session) Redo(ctx context.Context) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, ErrScanInProgress
	}
	if len(s.redo) == 0 {
		return nil, ErrNothingToRedo
	}
	a := s.redo[len(s.redo)-1]
	if err := s.trasher.Trash(ctx, a.doc.Path); err != nil {
		return nil, fmt.Errorf("trash %s: %w", a.doc.Path, err)
	}
	s.touched[a.doc.Path] = time.Now()
	s.redo = s.redo[:len(s.redo)-1]
	s.history = append(s.history, s.remove(a.doc))
	if s.logger != nil {
		s.logger.Info("redid delete", zap.String("path", a.doc.Path))
	}
	return a.doc, nil
}

func (s *Session) findGroup(id string) *models.DuplicateGroup {
	for _, g := range s.groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// remove takes doc out of every group and returns the action that undoes it.
func (s *Session) remove(doc *models.Document) action {
	a := action{doc: doc}
	kept := s.groups[:0:0]
	for i, g := range s.groups {
		if g.Member(doc.Path) == nil {
			kept = append(kept, g)
			continue
		}
		a.groups = append(a.groups, groupSnapshot{index: i, group: g.Clone()})
		members := make([]*models.Document, 0, len(g.Members)-1)
		for _, m := range g.Members {
			if m.Path != doc.Path {
				members = append(members, m)
			}
		}
		if len(members) < 2 {
			continue
		}
		g.Members = members
		if g.Primary == nil || g.Primary.Path == doc.Path {
			g.Primary = members[0]
		}
		kept = append(kept, g)
	}
	s.groups = kept
	return a
}

// restore puts back the groups recorded in a. Deletions are undone in reverse order,
// so the current groups are exactly those left by a.
func (s *Session) restore(a action) {
	for _, snap := range a.groups {
		restored := snap.group.Clone()
		replaced := false
		for i, g := range s.groups {
			if g.ID == restored.ID {
				s.groups[i] = restored
				replaced = true
				break
			}
		}
		if replaced {
			continue
		}
		idx := min(snap.index, len(s.groups))
		s.groups = append(s.groups, nil)
		copy(s.groups[idx+1:], s.groups[idx:])
		s.groups[idx] = restored
	}
}

func cloneGroups(groups []*models.DuplicateGroup) []*models.DuplicateGroup {
	out := make([]*models.DuplicateGroup, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
	}
	return out
}
