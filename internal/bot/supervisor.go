// Package bot owns the supervised bot lifecycle: run state, uptime
// accounting, task counters, and delegation to the analysis and doc-help
// collaborators.
package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/atenabot/atena/internal/analyzer"
	"github.com/atenabot/atena/internal/domain"
	"github.com/atenabot/atena/internal/ports"
	"github.com/atenabot/atena/pkg/logger"
	"github.com/atenabot/atena/pkg/oplog"
)

// Version reported in every status payload.
const Version = "1.0.0"

// State is the bot lifecycle state.
type State string

const (
	StateInitialized State = "initialized"
	StateRunning     State = "running"
	StateStopped     State = "stopped"
)

// Status is the derived status snapshot, computed on demand and never stored.
type Status struct {
	Name           string  `json:"name"`
	Status         State   `json:"status"`
	Uptime         string  `json:"uptime"`
	TasksProcessed int     `json:"tasks_processed"`
	StartTime      *string `json:"start_time"`
	CurrentTime    string  `json:"current_time"`
	Version        string  `json:"version"`
}

// Supervisor is the single lifecycle owner for the server process. It is
// constructed once and passed by reference into the HTTP handlers; all
// mutation goes through its methods under the mutex, so handlers and the
// heartbeat loop may run concurrently.
type Supervisor struct {
	name              string
	heartbeatInterval time.Duration

	analyzerPort ports.Analyzer
	docAssistant ports.DocAssistant
	ops          *oplog.Sink

	mu        sync.Mutex
	state     State
	startTime time.Time
	taskCount int
}

// New builds a supervisor in the initialized state.
func New(name string, heartbeatInterval time.Duration, az ports.Analyzer, da ports.DocAssistant, ops *oplog.Sink) *Supervisor {
	return &Supervisor{
		name:              name,
		heartbeatInterval: heartbeatInterval,
		analyzerPort:      az,
		docAssistant:      da,
		ops:               ops,
		state:             StateInitialized,
	}
}

// Start transitions to running and stamps the start time. Calling Start on
// an already-running supervisor re-stamps the start time; the uptime reset
// is intentional, pinned behavior.
func (s *Supervisor) Start() {
	s.mu.Lock()
	s.state = StateRunning
	s.startTime = time.Now()
	started := s.startTime
	s.mu.Unlock()

	s.ops.LogOperation("bot_start", oplog.StatusSuccess,
		fmt.Sprintf("%s started at %s", s.name, started.Format(time.RFC3339)))
	logger.Infof("%s bot started", s.name)
}

// Stop transitions to stopped. Idempotent: stopping twice re-logs without
// error.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()

	s.ops.LogOperation("bot_stop", oplog.StatusSuccess, fmt.Sprintf("%s stopped", s.name))
	logger.Infof("%s bot stopped", s.name)
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Uptime returns "Not started" before the first Start, otherwise an
// hours/minutes/seconds breakdown with integer truncation.
func (s *Supervisor) Uptime() string {
	s.mu.Lock()
	start := s.startTime
	s.mu.Unlock()

	if start.IsZero() {
		return "Not started"
	}
	total := int(time.Since(start).Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// Status assembles the status snapshot. Pure read: neither state nor the
// task counter change.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	state := s.state
	start := s.startTime
	tasks := s.taskCount
	s.mu.Unlock()

	var startStr *string
	if !start.IsZero() {
		v := start.Format(time.RFC3339)
		startStr = &v
	}
	return Status{
		Name:           s.name,
		Status:         state,
		Uptime:         s.Uptime(),
		TasksProcessed: tasks,
		StartTime:      startStr,
		CurrentTime:    time.Now().Format(time.RFC3339),
		Version:        Version,
	}
}

// TaskCount returns the number of analyze/error-help requests handled.
func (s *Supervisor) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taskCount
}

func (s *Supervisor) incTasks() {
	s.mu.Lock()
	s.taskCount++
	s.mu.Unlock()
}

// AnalyzeProject runs the analysis collaborator over path and folds the
// results into a summary. The task counter increases exactly once per call,
// whether or not the collaborator succeeds.
func (s *Supervisor) AnalyzeProject(ctx context.Context, path string) (*domain.AnalysisSummary, error) {
	s.incTasks()
	s.ops.LogOperation("analyze_project", oplog.StatusStarted, path)

	results, err := s.analyzerPort.AnalyzePath(ctx, path)
	if err != nil {
		s.ops.LogError("analyze_project", err)
		return nil, err
	}

	summary := analyzer.Summarize(results)
	s.ops.LogOperation("analyze_project", oplog.StatusCompleted,
		fmt.Sprintf("%d issues found", summary.TotalIssues))
	return &summary, nil
}

// ErrorHelp delegates to the doc assistant, returning its payload verbatim.
// Counts a task regardless of outcome.
func (s *Supervisor) ErrorHelp(ctx context.Context, message string) (*domain.ErrorHelp, error) {
	s.incTasks()
	return s.docAssistant.AnalyzeError(ctx, message)
}

// Heartbeat emits a debug log entry every heartbeat interval while the bot
// is running. It returns when the state leaves running or ctx is done; it
// never flips the state itself.
func (s *Supervisor) Heartbeat(ctx context.Context) {
	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	for {
		if s.State() != StateRunning {
			return
		}
		logger.Debugf("heartbeat - uptime: %s", s.Uptime())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
