package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

func (s *Server) handleLogsTail(w http.ResponseWriter, r *http.Request) {
	tailN := s.cfg.LogTailDefault
	if v := strings.TrimSpace(r.URL.Query().Get("tail")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			tailN = n
		}
	}

	lines, err := s.cfg.Ops.Tail(tailN)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("read log: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": lines})
}

// handleLogsStream follows the operation log over SSE: open, seek to end,
// poll for appended lines.
func (s *Server) handleLogsStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")

	f, err := os.Open(s.cfg.Ops.Path())
	if err != nil {
		// Log file may not exist yet.
		fmt.Fprintf(w, "event: info\ndata: log file not found yet\n\n")
		flusher.Flush()
		<-r.Context().Done()
		return
	}
	defer f.Close()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("seek log: %v", err))
		return
	}

	notify := r.Context().Done()
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	keepAlive := time.NewTicker(15 * time.Second)
	defer keepAlive.Stop()

	buf := make([]byte, 32*1024)
	var partial strings.Builder

	sendLine := func(line string) {
		line = strings.TrimRight(line, "\r\n")
		fmt.Fprintf(w, "data: %s\n\n", escapeSSE(line))
		flusher.Flush()
	}

	for {
		select {
		case <-notify:
			return
		case <-keepAlive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		case <-ticker.C:
			n, err := f.Read(buf)
			if n > 0 {
				partial.WriteString(string(buf[:n]))
				for {
					chunk := partial.String()
					idx := strings.IndexByte(chunk, '\n')
					if idx < 0 {
						break
					}
					sendLine(chunk[:idx])
					rest := chunk[idx+1:]
					partial.Reset()
					partial.WriteString(rest)
				}
			}
			if err != nil && err != io.EOF {
				fmt.Fprintf(w, "event: error\ndata: %s\n\n", escapeSSE(err.Error()))
				flusher.Flush()
				return
			}
		}
	}
}

func escapeSSE(s string) string {
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
