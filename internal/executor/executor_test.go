package executor

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/atenabot/atena/pkg/oplog"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	dir := t.TempDir()
	return New(dir, oplog.NewSink(filepath.Join(dir, "ops.log")))
}

func TestRunEcho(t *testing.T) {
	e := newTestExecutor(t)
	res := e.Run(context.Background(), "echo hello", Options{})
	if !res.Success {
		t.Fatalf("echo failed: %+v", res)
	}
	if !strings.Contains(res.Stdout, "hello") {
		t.Fatalf("stdout = %q, want hello", res.Stdout)
	}
	if res.Stderr != "" {
		t.Fatalf("stderr = %q, want empty", res.Stderr)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	e := newTestExecutor(t)
	res := e.Run(context.Background(), "echo out; echo err >&2; exit 3", Options{})
	if res.Success {
		t.Fatal("expected failure on exit 3")
	}
	// Output is returned verbatim regardless of exit code.
	if !strings.Contains(res.Stdout, "out") || !strings.Contains(res.Stderr, "err") {
		t.Fatalf("output not captured: %+v", res)
	}
}

func TestRunTimeout(t *testing.T) {
	e := newTestExecutor(t)
	start := time.Now()
	res := e.Run(context.Background(), "sleep 5", Options{Timeout: 200 * time.Millisecond})
	elapsed := time.Since(start)

	if res.Success {
		t.Fatal("expected timeout failure")
	}
	if res.Stderr != "Command timed out" {
		t.Fatalf("stderr = %q, want Command timed out", res.Stderr)
	}
	if res.Stdout != "" {
		t.Fatalf("stdout = %q, want empty", res.Stdout)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("timeout kill took %s", elapsed)
	}
}

// A timed-out command's children must not outlive the run.
func TestRunTimeoutKillsChildren(t *testing.T) {
	e := newTestExecutor(t)
	start := time.Now()
	res := e.Run(context.Background(), "sh -c 'sleep 5' & wait", Options{Timeout: 200 * time.Millisecond})
	if res.Success {
		t.Fatal("expected timeout failure")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("process group not killed, run took %s", elapsed)
	}
}

// Cancelling the caller's context is not a timeout and must be reported as
// a cancellation.
func TestRunParentCancel(t *testing.T) {
	e := newTestExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res := e.Run(ctx, "sleep 5", Options{Timeout: 30 * time.Second})
	if res.Success {
		t.Fatal("expected failure after cancel")
	}
	if res.Stderr != "Command canceled" {
		t.Fatalf("stderr = %q, want Command canceled", res.Stderr)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("cancel kill took %s", elapsed)
	}
}

func TestRunWorkingDirectory(t *testing.T) {
	e := newTestExecutor(t)
	other := t.TempDir()
	res := e.Run(context.Background(), "pwd", Options{Dir: other})
	if !res.Success {
		t.Fatalf("pwd failed: %+v", res)
	}
	got := strings.TrimSpace(res.Stdout)
	want, _ := filepath.EvalSymlinks(other)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != want {
		t.Fatalf("pwd = %q, want %q", got, want)
	}
}

func TestRunStartFailure(t *testing.T) {
	e := newTestExecutor(t)
	e.BaseDir = filepath.Join(e.BaseDir, "does-not-exist")
	res := e.Run(context.Background(), "echo hi", Options{})
	if res.Success {
		t.Fatal("expected start failure in missing directory")
	}
	if res.Stderr == "" {
		t.Fatal("expected stringified error in stderr")
	}
}
