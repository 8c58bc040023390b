package bot

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/atenabot/atena/internal/domain"
	"github.com/atenabot/atena/pkg/oplog"
)

type stubAnalyzer struct {
	results []domain.FileResult
	err     error
	calls   int
}

func (s *stubAnalyzer) AnalyzePath(_ context.Context, _ string) ([]domain.FileResult, error) {
	s.calls++
	return s.results, s.err
}

type stubAssistant struct {
	help *domain.ErrorHelp
	err  error
}

func (s *stubAssistant) AnalyzeError(_ context.Context, _ string) (*domain.ErrorHelp, error) {
	return s.help, s.err
}

func newTestSupervisor(t *testing.T, az *stubAnalyzer, da *stubAssistant) *Supervisor {
	t.Helper()
	if az == nil {
		az = &stubAnalyzer{}
	}
	if da == nil {
		da = &stubAssistant{help: &domain.ErrorHelp{ErrorType: "Unknown"}}
	}
	ops := oplog.NewSink(filepath.Join(t.TempDir(), "atena.log"))
	return New("ATENA", time.Second, az, da, ops)
}

func TestLifecycleTransitions(t *testing.T) {
	s := newTestSupervisor(t, nil, nil)

	if s.State() != StateInitialized {
		t.Fatalf("initial state = %s, want initialized", s.State())
	}

	s.Start()
	if s.State() != StateRunning {
		t.Fatalf("after Start state = %s, want running", s.State())
	}

	s.Stop()
	if s.State() != StateStopped {
		t.Fatalf("after Stop state = %s, want stopped", s.State())
	}

	// Stop is idempotent.
	s.Stop()
	if s.State() != StateStopped {
		t.Fatalf("after second Stop state = %s, want stopped", s.State())
	}

	// The state always reflects the last call.
	s.Start()
	if s.State() != StateRunning {
		t.Fatalf("restart state = %s, want running", s.State())
	}
}

func TestUptimeNotStarted(t *testing.T) {
	s := newTestSupervisor(t, nil, nil)
	if got := s.Uptime(); got != "Not started" {
		t.Fatalf("Uptime() = %q, want Not started", got)
	}
	s.Start()
	if got := s.Uptime(); got == "Not started" {
		t.Fatalf("Uptime() after Start = %q", got)
	}
	if got := s.Uptime(); !strings.HasSuffix(got, "s") || !strings.Contains(got, "h ") {
		t.Fatalf("Uptime() format = %q, want XhYmZs breakdown", got)
	}
}

// Start on a running supervisor re-stamps the start time. Pinned behavior:
// uptime resets rather than carrying over.
func TestStartTwiceRestampsStartTime(t *testing.T) {
	s := newTestSupervisor(t, nil, nil)
	s.Start()
	first := s.Status().StartTime
	time.Sleep(1100 * time.Millisecond)
	s.Start()
	second := s.Status().StartTime

	if first == nil || second == nil {
		t.Fatalf("start times not set: %v %v", first, second)
	}
	if *first == *second {
		t.Fatalf("start time not re-stamped: %s", *first)
	}
}

func TestTaskCountMonotonic(t *testing.T) {
	az := &stubAnalyzer{err: errors.New("bad path")}
	da := &stubAssistant{err: errors.New("no docs")}
	s := newTestSupervisor(t, az, da)
	s.Start()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := s.AnalyzeProject(ctx, "nowhere"); err == nil {
			t.Fatalf("expected analyzer error")
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := s.ErrorHelp(ctx, "boom"); err == nil {
			t.Fatalf("expected assistant error")
		}
	}

	// Failed collaborator calls still count.
	if got := s.TaskCount(); got != 5 {
		t.Fatalf("TaskCount() = %d, want 5", got)
	}
}

func TestStatusIsPureRead(t *testing.T) {
	s := newTestSupervisor(t, nil, nil)
	s.Start()
	before := s.TaskCount()
	for i := 0; i < 10; i++ {
		_ = s.Status()
	}
	if got := s.TaskCount(); got != before {
		t.Fatalf("Status() mutated task count: %d -> %d", before, got)
	}
	if st := s.Status(); st.Version != Version || st.Name != "ATENA" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestAnalyzeProjectSummary(t *testing.T) {
	az := &stubAnalyzer{results: []domain.FileResult{
		{Path: "a.go", Issues: []domain.Issue{
			{Severity: domain.SeverityHigh, Line: 1, Message: "x"},
			{Severity: domain.SeverityLow, Line: 2, Message: "y"},
		}},
		{Path: "b.go", Issues: nil},
	}}
	s := newTestSupervisor(t, az, nil)
	s.Start()

	summary, err := s.AnalyzeProject(context.Background(), ".")
	if err != nil {
		t.Fatalf("AnalyzeProject: %v", err)
	}
	if summary.FilesAnalyzed != 2 || summary.TotalIssues != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.IssuesBySeverity[domain.SeverityHigh] != 1 ||
		summary.IssuesBySeverity[domain.SeverityMedium] != 0 ||
		summary.IssuesBySeverity[domain.SeverityLow] != 1 {
		t.Fatalf("severity counts = %v", summary.IssuesBySeverity)
	}
}

func TestHeartbeatStopsWithState(t *testing.T) {
	s := newTestSupervisor(t, nil, nil)
	s.heartbeatInterval = 10 * time.Millisecond
	s.Start()

	done := make(chan struct{})
	go func() {
		s.Heartbeat(context.Background())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("heartbeat did not exit after Stop")
	}
}
