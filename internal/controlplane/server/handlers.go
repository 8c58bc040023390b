package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/atenabot/atena/pkg/oplog"
)

const analyzeTimeout = 60 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"bot":    s.cfg.Supervisor.Status(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Supervisor.Status())
}

func (s *Server) handleAnalyzeCwd(w http.ResponseWriter, r *http.Request) {
	s.runAnalyze(w, r, ".")
}

// handleAnalyzePath serves GET /analyze/<path>. The suffix is taken
// byte-verbatim from the request target, no decoding or sanitization; see
// the tasks log for what was actually analyzed.
func (s *Server) handleAnalyzePath(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.EscapedPath(), "/analyze/")
	if path == "" {
		path = "."
	}
	s.runAnalyze(w, r, path)
}

func (s *Server) handleAnalyzePost(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	path := "."
	if v, ok := body["path"].(string); ok && strings.TrimSpace(v) != "" {
		path = v
	}
	s.runAnalyze(w, r, path)
}

func (s *Server) runAnalyze(w http.ResponseWriter, r *http.Request, path string) {
	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	summary, err := s.cfg.Supervisor.AnalyzeProject(ctx, path)
	if err != nil {
		s.recordTaskRun(ctx, "analyze_project", path, oplog.StatusFailed)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.recordTaskRun(ctx, "analyze_project", path, oplog.StatusCompleted)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleErrorHelp(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	msg, _ := body["error"].(string)
	if strings.TrimSpace(msg) == "" {
		writeError(w, http.StatusBadRequest, "Missing 'error' field")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	help, err := s.cfg.Supervisor.ErrorHelp(ctx, msg)
	if err != nil {
		s.recordTaskRun(ctx, "error_help", msg, oplog.StatusFailed)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.recordTaskRun(ctx, "error_help", help.ErrorType, oplog.StatusSuccess)
	writeJSON(w, http.StatusOK, help)
}

// decodeBody parses a POST body into a generic map. An empty body counts as
// an empty object; malformed JSON is rejected before any route-specific
// validation.
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return nil, false
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]any{}, true
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return nil, false
	}
	return body, true
}
