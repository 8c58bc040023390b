package server

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/atenabot/atena/pkg/logger"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Same open policy as the CORS header on the JSON surface.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleLogsWS follows the operation log over a websocket, one text message
// per appended line.
func (s *Server) handleLogsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	f, err := os.Open(s.cfg.Ops.Path())
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte("log file not found yet"))
		waitForClose(conn)
		return
	}
	defer f.Close()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "seek failed"),
			time.Now().Add(time.Second))
		return
	}

	// Reader goroutine: surfaces client close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	buf := make([]byte, 32*1024)
	var partial strings.Builder

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
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
					line := strings.TrimRight(chunk[:idx], "\r")
					if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
						return
					}
					rest := chunk[idx+1:]
					partial.Reset()
					partial.WriteString(rest)
				}
			}
			if err != nil && err != io.EOF {
				logger.Warnf("log ws read: %v", err)
				return
			}
		}
	}
}

func waitForClose(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
