package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/vyrodovalexey/webfunc/internal/config"
	"github.com/vyrodovalexey/webfunc/internal/observability"
)

// ErrNotListening is returned by NewServer for hosting types whose runtime
// invokes the handler itself (aws).
var ErrNotListening = errors.New("hosting type does not run its own listener")

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Hosting        config.HostingType
	Address        string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodyBytes   int64
}

// ServerConfigFrom converts the file configuration.
func ServerConfigFrom(cfg *config.Config) ServerConfig {
	return ServerConfig{
		Hosting:      cfg.HostingType(),
		Address:      cfg.Server.Address,
		Port:         cfg.ListenPort(),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	}
}

// Server serves a swappable dispatcher over HTTP.
type Server struct {
	config  ServerConfig
	target  *Switch
	handler http.Handler
	logger  observability.Logger

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	done       chan struct{}
}

// NewServer creates a server for cfg.Hosting. express is served by a gin
// engine, localhost, now and gcp by net/http.
func NewServer(cfg ServerConfig, d Dispatcher, logger observability.Logger) (*Server, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if cfg.Hosting == "" {
		cfg.Hosting = config.HostingLocalhost
	}
	if !cfg.Hosting.Listens() {
		return nil, fmt.Errorf("%w: %s", ErrNotListening, cfg.Hosting)
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 120 * time.Second
	}
	if cfg.MaxHeaderBytes == 0 {
		cfg.MaxHeaderBytes = 1 << 20
	}

	s := &Server{
		config: cfg,
		target: NewSwitch(d),
		logger: logger,
	}

	opts := []Option{WithMaxBodyBytes(cfg.MaxBodyBytes), WithLogger(logger)}
	if cfg.Hosting == config.HostingExpress {
		s.handler = NewGinEngine(s.target, opts...)
	} else {
		s.handler = HTTPHandler(s.target, opts...)
	}
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Swap replaces the dispatcher serving new requests.
func (s *Server) Swap(d Dispatcher) {
	s.target.Swap(d)
	s.logger.Info("dispatcher swapped")
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return fmt.Errorf("server already running")
	}

	addr := net.JoinHostPort(s.config.Address, fmt.Sprint(s.config.Port))

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		MaxHeaderBytes:    s.config.MaxHeaderBytes,
	}
	s.listener = ln
	s.done = make(chan struct{})

	s.logger.Info("server started",
		observability.String("address", ln.Addr().String()),
		observability.String("hosting", string(s.config.Hosting)),
	)

	go s.serve(s.httpServer, ln, s.done)

	return nil
}

func (s *Server) serve(srv *http.Server, ln net.Listener, done chan struct{}) {
	defer close(done)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("server error", observability.Error(err))
	}
}

// Addr returns the bound address, or "" when not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.httpServer != nil
}

// Stop shuts the server down gracefully, closing it outright when ctx
// expires first.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.httpServer, s.done
	s.httpServer, s.listener, s.done = nil, nil, nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	s.logger.Info("stopping server")

	if err := srv.Shutdown(ctx); err != nil {
		if closeErr := srv.Close(); closeErr != nil {
			return fmt.Errorf("failed to close server: %w", closeErr)
		}
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}
	<-done

	s.logger.Info("server stopped")
	return nil
}
