// Package server is the HTTP control plane over the supervised bot.
package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	"github.com/atenabot/atena/internal/bot"
	"github.com/atenabot/atena/pkg/oplog"
	"github.com/atenabot/atena/pkg/ratelimit"
)

// Throttle for the expensive analysis/help endpoints.
const (
	taskBurst      = 20
	tasksPerSecond = 10
)

type Config struct {
	Supervisor *bot.Supervisor
	Ops        *oplog.Sink
	DBPath     string
	// LogTailDefault is how many oplog lines GET /logs returns by default.
	LogTailDefault int
}

type Server struct {
	cfg     Config
	db      *sql.DB
	limiter *ratelimit.TokenBucket
}

func New(cfg Config) (*Server, error) {
	if cfg.Supervisor == nil {
		return nil, errors.New("supervisor is required")
	}
	if cfg.Ops == nil {
		return nil, errors.New("oplog sink is required")
	}
	if cfg.DBPath == "" {
		return nil, errors.New("db path is required")
	}
	if cfg.LogTailDefault <= 0 {
		cfg.LogTailDefault = 50
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Server{
		cfg:     cfg,
		db:      db,
		limiter: ratelimit.NewTokenBucket(taskBurst, tasksPerSecond),
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsAllowAll())

	r.GET("/", s.wrap(s.handleHealth))
	r.GET("/health", s.wrap(s.handleHealth))
	r.GET("/status", s.wrap(s.handleStatus))
	r.GET("/analyze", s.wrap(s.throttled(s.handleAnalyzeCwd)))
	r.POST("/analyze", s.wrap(s.throttled(s.handleAnalyzePost)))
	r.POST("/error-help", s.wrap(s.throttled(s.handleErrorHelp)))
	r.GET("/logs", s.wrap(s.handleLogsTail))
	r.GET("/logs/stream", s.wrap(s.handleLogsStream))
	r.GET("/logs/ws", s.wrap(s.handleLogsWS))
	r.GET("/tasks", s.wrap(s.handleTasksList))

	// GET /analyze/<path> takes the suffix verbatim, so it is routed by
	// hand instead of through the tree. Everything else unmatched is the
	// JSON 404.
	r.NoRoute(s.wrap(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodGet && strings.HasPrefix(req.URL.EscapedPath(), "/analyze/") {
			s.throttled(s.handleAnalyzePath)(w, req)
			return
		}
		writeError(w, http.StatusNotFound, "Not found")
	}))
	r.NoMethod(s.wrap(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	}))

	return r
}

// throttled rejects the request with 429 once the task bucket runs dry.
func (s *Server) throttled(h func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		h(w, r)
	}
}

// wrap adapts net/http handlers to gin.
func (s *Server) wrap(h func(http.ResponseWriter, *http.Request)) gin.HandlerFunc {
	return func(c *gin.Context) {
		h(c.Writer, c.Request)
	}
}

// corsAllowAll sets the open CORS policy the control plane ships with.
func corsAllowAll() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Next()
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
