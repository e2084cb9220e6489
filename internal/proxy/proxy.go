package proxy

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/novacheck/novacheck/internal/logging"
)

const (
	// DefaultBanner greets new fake serial sessions.
	DefaultBanner = "novacheck console ready\r\n$ "

	// maxFramePayload caps outbound frame payloads. Reduced console
	// clients parse only the 7-bit length form, so nothing the proxy
	// sends may exceed it.
	maxFramePayload = 125
)

// Config holds the proxy configuration.
type Config struct {
	Addr     string // listen address, e.g. "127.0.0.1:6080"
	Token    string // expected session token; empty disables authentication
	Backend  string // TCP backend address; empty serves the built-in fake serial
	Banner   string // fake serial greeting; DefaultBanner when empty
	LogLevel string
}

// Server is the console proxy.
type Server struct {
	config     *Config
	upgrader   websocket.Upgrader
	httpServer *http.Server

	mu       sync.Mutex
	wg       sync.WaitGroup
	sessions map[string]*websocket.Conn
}

// New creates a proxy server from config.
func New(config *Config) *Server {
	if config.Banner == "" {
		config.Banner = DefaultBanner
	}
	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			Subprotocols: []string{"binary"},
			// Console clients are tools, not browsers; Origin means
			// nothing here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sessions: make(map[string]*websocket.Conn),
	}
}

// Handler returns the proxy's HTTP handler. Tests mount it on their own
// listeners.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/websockify", s.handleWebsockify)
	return mux
}

// Start listens on the configured address and blocks until a shutdown
// signal arrives or the server fails.
func (s *Server) Start() error {
	if err := logging.Initialize(s.config.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}

	backend := "fake serial"
	if s.config.Backend != "" {
		backend = s.config.Backend
	}
	logging.Info("Starting console proxy",
		zap.String("addr", listener.Addr().String()),
		zap.String("backend", backend),
		zap.Bool("auth", s.config.Token != ""),
	)

	s.httpServer = &http.Server{Handler: s.Handler()}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping proxy...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Shutdown stops accepting sessions, closes the active ones and waits for
// their handlers to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down proxy...")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			logging.Error("Error shutting down HTTP server", zap.Error(err))
		}
	}

	s.mu.Lock()
	for addr, conn := range s.sessions {
		logging.Info("Closing active session", zap.String("remote_addr", addr))
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All sessions closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	case <-time.After(10 * time.Second):
		logging.Warn("Shutdown timeout after 10 seconds, forcing close")
	}

	logging.Sync()
	return nil
}

// ActiveSessions returns the number of open console sessions.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// handleWebsockify authenticates and upgrades one console session, then
// hands it to the configured backend.
func (s *Server) handleWebsockify(w http.ResponseWriter, r *http.Request) {
	remoteAddr := r.RemoteAddr

	if !s.authorized(r) {
		logging.Warn("Rejected console session",
			zap.String("remote_addr", remoteAddr),
		)
		http.Error(w, "invalid or missing token", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return
	}

	s.mu.Lock()
	s.sessions[remoteAddr] = conn
	s.mu.Unlock()
	s.wg.Add(1)

	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.sessions, remoteAddr)
		s.mu.Unlock()
		s.wg.Done()
		logging.LogConnection(remoteAddr, "session_closed")
	}()

	logging.LogConnection(remoteAddr, "session_opened")

	if s.config.Backend != "" {
		s.bridgeTCP(conn, remoteAddr)
		return
	}
	s.serveSerial(conn, remoteAddr)
}

// authorized checks the session token. The token may arrive in the URL
// query or, for reduced clients, inside the Cookie header.
func (s *Server) authorized(r *http.Request) bool {
	if s.config.Token == "" {
		return true
	}
	if token := r.URL.Query().Get("token"); token == s.config.Token {
		return true
	}
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value == s.config.Token {
		return true
	}
	return false
}

// writeChunked writes data as binary frames no larger than maxFramePayload.
func writeChunked(conn *websocket.Conn, data []byte) error {
	for len(data) > 0 {
		n := len(data)
		if n > maxFramePayload {
			n = maxFramePayload
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}
