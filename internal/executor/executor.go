// Package executor runs shell commands synchronously with timeout
// enforcement and operation logging.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/atenabot/atena/pkg/oplog"
)

// DefaultTimeout bounds a single command run unless overridden.
const DefaultTimeout = 300 * time.Second

// Result is the outcome of one command run. Ownership ends at the caller.
type Result struct {
	Success bool   `json:"success"`
	Stdout  string `json:"stdout"`
	Stderr  string `json:"stderr"`
}

// Options tune a single run.
type Options struct {
	Dir     string        // working directory, falls back to the executor's BaseDir
	Timeout time.Duration // falls back to DefaultTimeout
}

// Executor executes shell commands under a base directory.
type Executor struct {
	BaseDir string
	Ops     *oplog.Sink
}

func New(baseDir string, ops *oplog.Sink) *Executor {
	return &Executor{BaseDir: baseDir, Ops: ops}
}

// Run executes command through `sh -c` and blocks until it finishes or the
// timeout expires. The command's whole process group is killed on timeout,
// so children do not outlive the deadline. Subprocess failures are folded
// into the Result, never returned as errors.
func (e *Executor) Run(ctx context.Context, command string, opts Options) Result {
	dir := opts.Dir
	if dir == "" {
		dir = e.BaseDir
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	e.logOp("command_execute", oplog.StatusStarted, command)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = dir
	// Own process group so a timeout kill reaches grandchildren too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		e.logError("command_execute", err)
		return Result{Success: false, Stdout: "", Stderr: err.Error()}
	}
	pid := cmd.Process.Pid

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	select {
	case <-runCtx.Done():
		killProcessGroup(pid)
		<-waitCh
		// Deadline expiry is a timeout; anything else is the caller
		// cancelling the parent context.
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			e.logError("command_execute", fmt.Errorf("command timed out: %s", command))
			return Result{Success: false, Stdout: "", Stderr: "Command timed out"}
		}
		e.logError("command_execute", fmt.Errorf("command canceled: %s", command))
		return Result{Success: false, Stdout: "", Stderr: "Command canceled"}
	case err := <-waitCh:
		exitCode := 0
		if err != nil {
			var ee *exec.ExitError
			if errors.As(err, &ee) {
				exitCode = ee.ExitCode()
			} else {
				e.logError("command_execute", err)
				return Result{Success: false, Stdout: "", Stderr: err.Error()}
			}
		}
		success := exitCode == 0
		status := oplog.StatusSuccess
		if !success {
			status = oplog.StatusFailed
		}
		e.logOp("command_execute", status, fmt.Sprintf("Exit code: %d", exitCode))
		return Result{Success: success, Stdout: stdout.String(), Stderr: stderr.String()}
	}
}

// killProcessGroup sends SIGKILL to the group, falling back to the single
// process when the group is already gone.
func killProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		_ = unix.Kill(pid, unix.SIGKILL)
	}
}

func (e *Executor) logOp(operation, status, detail string) {
	if e.Ops != nil {
		e.Ops.LogOperation(operation, status, detail)
	}
}

func (e *Executor) logError(operation string, err error) {
	if e.Ops != nil {
		e.Ops.LogError(operation, err)
	}
}
