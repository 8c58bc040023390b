package oplog

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/atenabot/atena/pkg/logger"
)

func TestTailMissingFile(t *testing.T) {
	s := NewSink(filepath.Join(t.TempDir(), "missing.log"))
	lines, err := s.Tail(50)
	if err != nil {
		t.Fatalf("Tail on missing file: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("got %d lines, want 0", len(lines))
	}
	if lines == nil {
		t.Fatal("want empty slice, not nil")
	}
}

func TestTailReturnsLastN(t *testing.T) {
	s := NewSink(filepath.Join(t.TempDir(), "ops.log"))
	for i := 0; i < 100; i++ {
		s.LogOperation("op", StatusSuccess, fmt.Sprintf("entry-%d", i))
	}

	lines, err := s.Tail(50)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(lines) != 50 {
		t.Fatalf("got %d lines, want 50", len(lines))
	}

	var first, last Record
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal first line: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[49]), &last); err != nil {
		t.Fatalf("unmarshal last line: %v", err)
	}
	if first.Detail != "entry-50" || last.Detail != "entry-99" {
		t.Fatalf("tail window wrong: first=%s last=%s", first.Detail, last.Detail)
	}
}

func TestRecordFields(t *testing.T) {
	s := NewSink(filepath.Join(t.TempDir(), "ops.log"))
	s.LogOperation("bot_start", StatusSuccess, "ATENA started")

	lines, err := s.Tail(1)
	if err != nil || len(lines) != 1 {
		t.Fatalf("Tail: %v lines=%d", err, len(lines))
	}
	var rec Record
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("record ID empty")
	}
	if rec.Operation != "bot_start" || rec.Status != StatusSuccess || rec.Detail != "ATENA started" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}
}

// Every line in the sink file must be a JSON record even while the process
// logger is active: the logger mirror goes to its own file, never the sink's.
func TestSinkStaysMachineReadableWithLoggerActive(t *testing.T) {
	dir := t.TempDir()
	if err := logger.Init(logger.Config{
		Level:      "debug",
		OutputFile: filepath.Join(dir, "atena.log"),
	}); err != nil {
		t.Fatalf("logger init: %v", err)
	}

	s := NewSink(filepath.Join(dir, "operations.log"))
	for i := 0; i < 5; i++ {
		s.LogOperation("op", StatusSuccess, fmt.Sprintf("entry-%d", i))
	}
	logger.Infof("unrelated app log line")

	lines, err := s.Tail(50)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5: logger output leaked into the sink", len(lines))
	}
	for i, line := range lines {
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("line %d is not a record: %v (%q)", i, err, line)
		}
	}
}

func TestLogErrorWritesFailed(t *testing.T) {
	s := NewSink(filepath.Join(t.TempDir(), "ops.log"))
	s.LogError("install_dependencies", fmt.Errorf("manifest not found"))

	lines, _ := s.Tail(1)
	var rec Record
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Status != StatusFailed {
		t.Fatalf("status = %s, want FAILED", rec.Status)
	}
}
