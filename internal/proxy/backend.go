package proxy

import (
	"net"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/novacheck/novacheck/internal/logging"
)

// serveSerial runs the built-in fake serial port: greet with the banner,
// then echo input back, completing each carriage return with a newline and
// a fresh prompt. Reduced clients tear the TCP connection down without a
// close frame, so any read error ends the session quietly.
func (s *Server) serveSerial(conn *websocket.Conn, remoteAddr string) {
	if err := writeChunked(conn, []byte(s.config.Banner)); err != nil {
		logging.Warn("Failed to send banner",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			logging.Debug("Session read ended",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			return
		}
		if len(payload) == 0 {
			continue
		}

		logging.LogFrame("receive", payload)

		if err := writeChunked(conn, echoResponse(payload)); err != nil {
			logging.Warn("Failed to echo input",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			return
		}
	}
}

// echoResponse echoes typed bytes the way a line-mode serial console does.
func echoResponse(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+8)
	for _, b := range payload {
		out = append(out, b)
		if b == '\r' {
			out = append(out, '\n', '$', ' ')
		}
	}
	return out
}

// bridgeTCP connects the session to a TCP backend and copies bytes both
// ways. Backend output is chunked into frames the reduced client can parse.
func (s *Server) bridgeTCP(conn *websocket.Conn, remoteAddr string) {
	backend, err := net.Dial("tcp", s.config.Backend)
	if err != nil {
		logging.Error("Backend dial failed",
			zap.String("remote_addr", remoteAddr),
			zap.String("backend", s.config.Backend),
			zap.Error(err),
		)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "backend unavailable"))
		return
	}
	defer func() { _ = backend.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, maxFramePayload)
		for {
			n, err := backend.Read(buf)
			if n > 0 {
				if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
					return
				}
			}
			if err != nil {
				// Close the session so the client sees EOF
				// rather than a silent stall.
				_ = conn.Close()
				return
			}
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			logging.Debug("Session read ended",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			break
		}
		if len(payload) == 0 {
			continue
		}
		if _, err := backend.Write(payload); err != nil {
			logging.Warn("Backend write failed",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			break
		}
	}

	_ = backend.Close()
	<-done
}
