package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/futago/internal/config"
	"github.com/hyperjump/futago/internal/provider"
	"github.com/hyperjump/futago/internal/review"
	"github.com/hyperjump/futago/internal/similarity"
	"go.uber.org/zap"
)

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("wait") == "true" {
		report, err := s.session.Scan(r.Context())
		if err != nil {
			s.respondReviewError(w, "scan", err)
			return
		}
		s.respondJSON(w, http.StatusOK, report)
		return
	}
	if err := s.session.Start(s.baseCtx); err != nil {
		s.respondReviewError(w, "scan", err)
		return
	}
	s.logger.Debug("scan started")
	s.respondJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	report := s.session.Report()
	if report == nil {
		s.respondError(w, http.StatusNotFound, "no scan has completed yet")
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"running":  s.session.Running(),
		"progress": s.session.Progress(),
	})
}

type deleteRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	// group IDs embed titles and paths, so clients escape them
	id := chi.URLParam(r, "id")
	if unescaped, err := url.PathUnescape(id); err == nil {
		id = unescaped
	}
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	s.logger.Debug("delete request", zap.String("group", id), zap.String("path", req.Path))
	doc, err := s.session.Delete(r.Context(), id, req.Path)
	if err != nil {
		s.respondReviewError(w, "delete", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "path": doc.Path})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	doc, err := s.session.Undo(r.Context())
	if err != nil {
		s.respondReviewError(w, "undo", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "restored", "path": doc.Path})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	doc, err := s.session.Redo(r.Context())
	if err != nil {
		s.respondReviewError(w, "redo", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "path": doc.Path})
}

type compareResponse struct {
	A           string  `json:"a"`
	B           string  `json:"b"`
	Similarity  int     `json:"similarity"`
	LengthRatio float64 `json:"length_ratio"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	a, b := r.URL.Query().Get("a"), r.URL.Query().Get("b")
	if a == "" || b == "" {
		s.respondError(w, http.StatusBadRequest, "query parameters a and b are required")
		return
	}
	contentA, err := s.source.ReadContent(r.Context(), a)
	if err != nil {
		s.respondReadError(w, err)
		return
	}
	contentB, err := s.source.ReadContent(r.Context(), b)
	if err != nil {
		s.respondReadError(w, err)
		return
	}
	pa, pb := similarity.NewProfile(contentA), similarity.NewProfile(contentB)
	s.respondJSON(w, http.StatusOK, compareResponse{
		A:           a,
		B:           b,
		Similarity:  similarity.Compare(pa, pb),
		LengthRatio: similarity.LengthRatio(pa.Len(), pb.Len()),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.session.Settings())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings config.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := settings.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	settings = settings.Clamp().WithConfigDir(s.configDir())
	if err := s.session.UpdateSettings(settings); err != nil {
		s.respondReviewError(w, "update settings", err)
		return
	}
	if s.onSettings != nil {
		s.onSettings(settings)
	}
	if s.config != nil {
		s.configMu.Lock()
		s.config.Detection.SetSettings(settings)
		var err error
		if s.configPath != "" {
			err = config.Save(s.configPath, s.config)
		}
		s.configMu.Unlock()
		if err != nil {
			s.logger.Warn("failed to persist settings", zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusOK, settings)
}

func (s *Server) configDir() string {
	if s.config == nil || s.config.Source.ConfigDir == "" {
		return config.DefaultConfigDir
	}
	return s.config.Source.ConfigDir
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"session": s.session.Status(),
	}
	if s.config != nil {
		resp["source"] = s.config.Source.Type
	}
	if s.usage != nil {
		if u, err := s.usage(); err == nil {
			resp["disk_usage"] = u
		} else {
			s.logger.Debug("status: disk usage failed", zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondReviewError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, review.ErrScanInProgress),
		errors.Is(err, review.ErrNothingToUndo),
		errors.Is(err, review.ErrNothingToRedo):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, review.ErrGroupNotFound), errors.Is(err, review.ErrMemberNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error(op+" failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondReadError(w http.ResponseWriter, err error) {
	var readErr *provider.ReadError
	if errors.As(err, &readErr) {
		s.respondError(w, http.StatusNotFound, readErr.Error())
		return
	}
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
