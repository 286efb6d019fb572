package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/futago/internal/config"
	"github.com/hyperjump/futago/internal/detector"
	"github.com/hyperjump/futago/internal/models"
	"github.com/hyperjump/futago/internal/provider"
	"github.com/hyperjump/futago/internal/review"
	"github.com/hyperjump/futago/internal/storage"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, configPath string, opts ...Option) (*Server, *provider.Memory) {
	t.Helper()
	m := provider.NewMemory()
	m.Add("a.md", "the quick brown fox jumps")
	m.Add("b.md", "the quick brown fox jumps")
	m.Add("c.md", "completely different words here")

	cfg := config.Default()
	settings := config.Settings{SimilarityThreshold: 80}
	cfg.Detection.SetSettings(settings)
	d := detector.NewDetector(m, settings)
	session := review.NewSession(d, m)
	srv := NewServer(session, m, cfg, configPath, zap.NewNop(), opts...)
	t.Cleanup(func() { srv.cancel(); session.Wait() })
	return srv, m
}

func do(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, "")
	w := do(t, srv.Router(), http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestHandleGroups_beforeScan(t *testing.T) {
	srv, _ := newTestServer(t, "")
	w := do(t, srv.Router(), http.MethodGet, "/api/v1/groups", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestScanDeleteUndoRedo(t *testing.T) {
	srv, m := newTestServer(t, "")
	h := srv.Router()

	w := do(t, h, http.MethodPost, "/api/v1/scan?wait=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("scan status: got %d: %s", w.Code, w.Body.String())
	}
	var report review.Report
	decode(t, w, &report)
	if len(report.Groups) != 1 || report.Groups[0].Type != models.GroupExactContent {
		t.Fatalf("unexpected groups: %+v", report.Groups)
	}
	groupID := report.Groups[0].ID

	w = do(t, h, http.MethodGet, "/api/v1/groups", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("groups status: got %d", w.Code)
	}

	w = do(t, h, http.MethodPost, "/api/v1/groups/"+groupID+"/delete", deleteRequest{Path: "a.md"})
	if w.Code != http.StatusOK {
		t.Fatalf("delete status: got %d: %s", w.Code, w.Body.String())
	}
	if m.Has("a.md") {
		t.Error("a.md should be trashed")
	}

	w = do(t, h, http.MethodPost, "/api/v1/undo", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("undo status: got %d: %s", w.Code, w.Body.String())
	}
	if !m.Has("a.md") {
		t.Error("a.md should be restored")
	}

	w = do(t, h, http.MethodPost, "/api/v1/redo", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("redo status: got %d", w.Code)
	}
	w = do(t, h, http.MethodPost, "/api/v1/redo", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("second redo: got %d", w.Code)
	}
}

func TestHandleDelete_errors(t *testing.T) {
	srv, _ := newTestServer(t, "")
	h := srv.Router()
	do(t, h, http.MethodPost, "/api/v1/scan?wait=true", nil)

	tests := []struct {
		name   string
		target string
		body   interface{}
		want   int
	}{
		{"unknown group", "/api/v1/groups/nope/delete", deleteRequest{Path: "a.md"}, http.StatusNotFound},
		{"missing path", "/api/v1/groups/nope/delete", deleteRequest{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, tt.target, tt.body)
			if w.Code != tt.want {
				t.Errorf("got %d, want %d", w.Code, tt.want)
			}
		})
	}

	r := httptest.NewRequest(http.MethodPost, "/api/v1/groups/x/delete", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid body: got %d", w.Code)
	}
}

func TestHandleCompare(t *testing.T) {
	srv, _ := newTestServer(t, "")
	h := srv.Router()

	w := do(t, h, http.MethodGet, "/api/v1/compare?a=a.md&b=b.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var resp compareResponse
	decode(t, w, &resp)
	if resp.Similarity != 100 || resp.LengthRatio != 1 {
		t.Errorf("unexpected response %+v", resp)
	}

	w = do(t, h, http.MethodGet, "/api/v1/compare?a=a.md&b=missing.md", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing document: got %d", w.Code)
	}
	w = do(t, h, http.MethodGet, "/api/v1/compare?a=a.md", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing parameter: got %d", w.Code)
	}
}

func TestHandleSettings(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	var hooked config.Settings
	srv, _ := newTestServer(t, configPath, WithSettingsHook(func(s config.Settings) { hooked = s }))
	h := srv.Router()

	w := do(t, h, http.MethodPut, "/api/v1/settings", config.Settings{SimilarityThreshold: 150})
	if w.Code != http.StatusBadRequest {
		t.Errorf("out of range threshold: got %d", w.Code)
	}

	want := config.Settings{SimilarityThreshold: 60, ExcludedFolders: []string{"archive"}, MinContentLength: 10}
	w = do(t, h, http.MethodPut, "/api/v1/settings", want)
	if w.Code != http.StatusOK {
		t.Fatalf("put settings: got %d: %s", w.Code, w.Body.String())
	}
	if hooked.SimilarityThreshold != 60 {
		t.Errorf("settings hook not called: %+v", hooked)
	}

	w = do(t, h, http.MethodGet, "/api/v1/settings", nil)
	var got config.Settings
	decode(t, w, &got)
	if got.SimilarityThreshold != 60 || got.MinContentLength != 10 {
		t.Errorf("get settings = %+v", got)
	}
	if want := []string{config.DefaultConfigDir, "archive"}; !reflect.DeepEqual(got.ExcludedFolders, want) {
		t.Errorf("excluded folders = %q, want %q", got.ExcludedFolders, want)
	}
	if !reflect.DeepEqual(hooked.ExcludedFolders, got.ExcludedFolders) {
		t.Errorf("settings hook saw excluded folders %q", hooked.ExcludedFolders)
	}

	saved, err := config.Load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if s := saved.Detection.Settings(); s.SimilarityThreshold != 60 || s.MinContentLength != 10 {
		t.Errorf("persisted settings = %+v", s)
	}
	if ex := saved.Detection.ExcludedFolders; len(ex) == 0 || ex[0] != config.DefaultConfigDir {
		t.Errorf("persisted excluded folders = %q", ex)
	}
}

func TestHandleSettings_keepsConfigDirExcluded(t *testing.T) {
	srv, m := newTestServer(t, "")
	m.Add(".obsidian/workspace.md", "the quick brown fox jumps")
	h := srv.Router()

	body := config.Settings{SimilarityThreshold: 70, ExcludedFolders: []string{"archive"}}
	if w := do(t, h, http.MethodPut, "/api/v1/settings", body); w.Code != http.StatusOK {
		t.Fatalf("put settings: got %d: %s", w.Code, w.Body.String())
	}
	if ex := srv.session.Settings().ExcludedFolders; len(ex) == 0 || ex[0] != config.DefaultConfigDir {
		t.Fatalf("applied excluded folders = %q", ex)
	}

	w := do(t, h, http.MethodPost, "/api/v1/scan?wait=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("scan: got %d", w.Code)
	}
	var report review.Report
	decode(t, w, &report)
	for _, g := range report.Groups {
		if g.Member(".obsidian/workspace.md") != nil {
			t.Errorf("config directory note was scanned: group %s", g.ID)
		}
	}
}

func TestHandleStatus(t *testing.T) {
	srv, _ := newTestServer(t, "", WithUsage(func() (storage.Usage, error) {
		return storage.Usage{Bytes: 42}, nil
	}))
	w := do(t, srv.Router(), http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Session   review.Status `json:"session"`
		Source    string        `json:"source"`
		DiskUsage storage.Usage `json:"disk_usage"`
	}
	decode(t, w, &out)
	if out.Source != config.SourceVault || out.DiskUsage.Bytes != 42 || out.Session.Running {
		t.Errorf("unexpected status %+v", out)
	}
}

func TestHandleScan_background(t *testing.T) {
	srv, _ := newTestServer(t, "")
	h := srv.Router()

	w := do(t, h, http.MethodPost, "/api/v1/scan", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status: got %d", w.Code)
	}
	srv.session.Wait()

	w = do(t, h, http.MethodGet, "/api/v1/progress", nil)
	var out struct {
		Running  bool            `json:"running"`
		Progress models.Progress `json:"progress"`
	}
	decode(t, w, &out)
	if out.Running || out.Progress.Phase != models.PhaseDone {
		t.Errorf("unexpected progress %+v", out)
	}
}
