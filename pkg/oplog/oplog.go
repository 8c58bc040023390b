// Package oplog is the append-only operation log shared by every component.
// One record per line, JSON encoded, read back only as a bounded tail.
package oplog

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atenabot/atena/pkg/logger"
)

// Operation statuses.
const (
	StatusStarted   = "STARTED"
	StatusSuccess   = "SUCCESS"
	StatusFailed    = "FAILED"
	StatusCompleted = "COMPLETED"
)

// Record is one structured operation log line. Never mutated once written.
type Record struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink appends records to a single log file. Appends are serialized so the
// server and CLI goroutines can share one sink.
type Sink struct {
	path string
	mu   sync.Mutex
}

// NewSink creates a sink writing to path. The file is created lazily on
// first append.
func NewSink(path string) *Sink {
	return &Sink{path: path}
}

// Path returns the backing file path.
func (s *Sink) Path() string {
	return s.path
}

// LogOperation appends one record and mirrors it onto the process logger.
func (s *Sink) LogOperation(operation, status, detail string) {
	rec := Record{
		ID:        uuid.NewString(),
		Operation: operation,
		Status:    status,
		Detail:    detail,
		Timestamp: time.Now(),
	}
	if err := s.append(rec); err != nil {
		logger.Errorf("oplog append failed: %v", err)
	}
	switch status {
	case StatusFailed:
		logger.WithField("operation", operation).Errorf("%s: %s", status, detail)
	default:
		logger.WithField("operation", operation).Infof("%s: %s", status, detail)
	}
}

// LogError appends a FAILED record for err.
func (s *Sink) LogError(operation string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	s.LogOperation(operation, StatusFailed, detail)
}

func (s *Sink) append(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(data, '\n'))
	return err
}

// tailWindow bounds how far back Tail reads from the end of the file.
const tailWindow = 256 * 1024

// Tail returns the last n lines of the log file. A missing file yields an
// empty slice, not an error.
func (s *Sink) Tail(n int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, err := tailLines(s.path, n, tailWindow)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	return lines, nil
}

// tailLines reads at most maxBytes from the end of path and returns the
// last n lines.
func tailLines(path string, n int, maxBytes int64) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := st.Size()
	if size <= 0 {
		return []string{}, nil
	}

	start := int64(0)
	if size > maxBytes {
		start = size - maxBytes
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}

	r := bufio.NewReader(f)
	lines := []string{}
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			lines = append(lines, strings.TrimRight(line, "\r\n"))
			if len(lines) > n {
				lines = lines[len(lines)-n:]
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
	}
	return lines, nil
}
