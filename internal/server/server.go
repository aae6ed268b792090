package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/metergrid/moded/internal/config"
	"github.com/metergrid/moded/internal/decoder"
	"github.com/metergrid/moded/internal/discovery"
	"github.com/metergrid/moded/internal/logging"
)

// Server is the moded collector: a TCP ingest listener feeding decoded
// telegrams to the logs, the capture directory, and the websocket feed.
type Server struct {
	cfg      *config.Config
	listener net.Listener

	feed    *Hub
	feedSrv *http.Server

	capture   *CaptureWriter
	announcer *discovery.Announcer

	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]net.Conn
}

// New creates a Server from a validated configuration.
func New(cfg *config.Config) (*Server, error) {
	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	s := &Server{
		cfg:         cfg,
		activeConns: make(map[string]net.Conn),
	}

	if cfg.Capture != nil {
		s.capture = NewCaptureWriter(cfg.Capture.Dir)
	}
	if cfg.FeedAddr() != "" {
		s.feed = NewHub()
	}

	return s, nil
}

// Start brings up the listeners and blocks until a shutdown signal arrives
// or the accept loop fails.
func (s *Server) Start() error {
	addr := s.cfg.ListenAddr()

	logging.Info("Starting moded collector",
		zap.String("addr", addr),
		zap.String("feed_addr", s.cfg.FeedAddr()),
		zap.Bool("capture", s.capture != nil),
		zap.String("log_level", s.cfg.LogLevel),
	)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create ingest listener: %w", err)
	}
	s.listener = listener

	logging.Info("Ingest listener ready", zap.String("addr", addr))

	if s.feed != nil {
		if err := s.startFeed(); err != nil {
			_ = s.listener.Close()
			return err
		}
	}

	if s.cfg.Discovery != nil && s.cfg.Discovery.Announce {
		announcer, err := discovery.Announce(s.cfg)
		if err != nil {
			logging.Error("Failed to announce service", zap.Error(err))
		} else {
			s.announcer = announcer
		}
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.acceptConnections()
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping collector...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// startFeed brings up the HTTP server carrying the websocket feed.
func (s *Server) startFeed() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/stream", s.feed.HandleStream)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	feedListener, err := net.Listen("tcp", s.cfg.FeedAddr())
	if err != nil {
		return fmt.Errorf("failed to create feed listener: %w", err)
	}

	s.feedSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("Feed listener ready", zap.String("addr", s.cfg.FeedAddr()))

	go func() {
		if err := s.feedSrv.Serve(feedListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Feed server stopped", zap.Error(err))
		}
	}()

	return nil
}

// acceptConnections accepts and handles incoming meter connections.
func (s *Server) acceptConnections() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if listener was closed (during shutdown)
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logging.Error("Failed to accept connection", zap.Error(err))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection consumes one meter stream until it ends. Decode errors
// are logged and the stream keeps being read; the decoder resynchronizes
// at the next start marker.
func (s *Server) handleConnection(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()

	s.mu.Lock()
	s.activeConns[remoteAddr] = conn
	s.mu.Unlock()

	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.activeConns, remoteAddr)
		s.mu.Unlock()
		logging.LogConnection(remoteAddr, "connection_closed")
	}()

	logging.LogConnection(remoteAddr, "connection_accepted")

	idleTimeout := time.Duration(s.cfg.Listen.IdleTimeout) * time.Second
	r := decoder.NewReader(&idleConn{Conn: conn, timeout: idleTimeout})

	for {
		t, err := r.ReadTelegram()
		switch {
		case err == nil:
			logging.LogTelegram(remoteAddr, t)
			rec := NewRecord(remoteAddr, t)
			s.capture.Append(rec)
			s.feed.Broadcast(rec)

		case decoder.IsDecodeError(err):
			logging.LogDecodeError(remoteAddr, err)

		case errors.Is(err, io.EOF):
			logging.Info("Stream ended",
				zap.String("remote_addr", remoteAddr),
			)
			return

		case errors.Is(err, io.ErrUnexpectedEOF):
			logging.Warn("Stream ended mid-telegram",
				zap.String("remote_addr", remoteAddr),
				zap.Int("buffered_bytes", r.Buffered()),
			)
			return

		default:
			logging.Error("Stream read failed",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			return
		}
	}
}

// idleConn arms a read deadline before every read so that silent meters
// are eventually dropped. A zero timeout disables the deadline.
type idleConn struct {
	net.Conn
	timeout time.Duration
}

func (c *idleConn) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(p)
}

// Shutdown gracefully shuts down the collector.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down collector...")

	if s.announcer != nil {
		s.announcer.Shutdown()
	}

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			logging.Error("Error closing ingest listener", zap.Error(err))
		}
	}

	if s.feedSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.feedSrv.Shutdown(shutdownCtx); err != nil {
			logging.Error("Error closing feed server", zap.Error(err))
		}
	}
	s.feed.Close()

	// Close all active meter connections
	s.mu.Lock()
	for addr, conn := range s.activeConns {
		logging.Info("Closing active connection", zap.String("remote_addr", addr))
		_ = conn.Close()
	}
	s.mu.Unlock()

	// Wait for connection handlers to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	case <-time.After(10 * time.Second):
		logging.Warn("Shutdown timeout after 10 seconds, forcing close")
	}

	logging.Sync()

	return nil
}

// GetActiveConnections returns the number of active meter connections.
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}
