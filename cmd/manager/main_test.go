package main

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/atenabot/atena/internal/executor"
	"github.com/atenabot/atena/pkg/config"
	"github.com/atenabot/atena/pkg/oplog"
)

func setupRunEnv(t *testing.T, commandTimeout time.Duration) {
	t.Helper()
	dir := t.TempDir()
	cfg = &config.Config{
		BotName:        "ATENA",
		BaseDir:        dir,
		CommandTimeout: commandTimeout,
	}
	ops = oplog.NewSink(filepath.Join(dir, "operations.log"))
	runner = executor.New(dir, ops)
}

// Without an explicit --timeout the configured command timeout applies.
func TestRunUsesConfiguredTimeout(t *testing.T) {
	setupRunEnv(t, 200*time.Millisecond)

	cmd := newRunCmd()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"sleep 5"})

	start := time.Now()
	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		t.Fatal("expected timeout failure")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("configured timeout not applied, run took %s", elapsed)
	}
}

func TestRunFlagOverridesConfiguredTimeout(t *testing.T) {
	setupRunEnv(t, 50*time.Millisecond)

	cmd := newRunCmd()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--timeout", "10s", "sleep 0.2 && echo done"})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("explicit --timeout should win over config: %v", err)
	}
}
