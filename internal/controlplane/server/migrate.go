package server

import (
	"context"
	"time"
)

func (s *Server) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`
CREATE TABLE IF NOT EXISTS task_runs (
  id TEXT PRIMARY KEY,
  operation TEXT NOT NULL,
  detail TEXT NOT NULL,
  status TEXT NOT NULL,
  created_at INTEGER NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_task_runs_created_at ON task_runs(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
