package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atenabot/atena/pkg/logger"
)

// TaskRun is one recorded analyze/error-help request.
type TaskRun struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	Detail    string    `json:"detail"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// recordTaskRun persists one task run. History is best-effort: a failed
// insert is logged, not surfaced to the request. created_at is stored as
// UnixNano so ORDER BY compares numerically.
func (s *Server) recordTaskRun(ctx context.Context, operation, detail, status string) {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO task_runs (id, operation, detail, status, created_at)
VALUES (?,?,?,?,?)
`, uuid.NewString(), operation, detail, status, time.Now().UnixNano())
	if err != nil {
		logger.Warnf("record task run: %v", err)
	}
}

func (s *Server) listTaskRuns(ctx context.Context, limit int) ([]TaskRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, operation, detail, status, created_at
FROM task_runs
ORDER BY created_at DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TaskRun{}
	for rows.Next() {
		var (
			t         TaskRun
			createdAt int64
		)
		if err := rows.Scan(&t.ID, &t.Operation, &t.Detail, &t.Status, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt = time.Unix(0, createdAt)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Server) handleTasksList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	runs, err := s.listTaskRuns(ctx, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("db list: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": runs})
}
