package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/yndnr/storefront-go/internal/infra/tlsroots"
)

// Config holds listener settings for the HTTP server.
type Config struct {
	Addr string

	// TLS is enabled when both files are set. The pair is reloaded when
	// either file changes.
	TLSCertFile string
	TLSKeyFile  string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	cfg        Config
	logger     *slog.Logger

	mu      sync.Mutex
	keyPair *tlsroots.KeyPair
}

// New creates a new HTTP server.
func New(cfg Config, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		handler: handler,
		cfg:     cfg,
		logger:  logger,
	}
}

// TLSEnabled reports whether the server terminates TLS.
func (s *Server) TLSEnabled() bool {
	return s.cfg.TLSCertFile != "" && s.cfg.TLSKeyFile != ""
}

// ListenAndServe listens on the configured address and serves until
// Shutdown. A clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown. A clean shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("http server listening", "addr", ln.Addr().String(), "tls", s.TLSEnabled())

	var err error
	if s.TLSEnabled() {
		if err := s.loadKeyPair(); err != nil {
			_ = ln.Close()
			return err
		}
		err = s.httpServer.ServeTLS(ln, "", "")
	} else {
		err = s.httpServer.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// loadKeyPair installs a reloading certificate source. A failing file
// watch only disables reloads.
func (s *Server) loadKeyPair() error {
	kp, err := tlsroots.NewKeyPair(s.cfg.TLSCertFile, s.cfg.TLSKeyFile, tlsroots.WithLogger(s.logger))
	if err != nil {
		return err
	}
	if err := kp.Start(); err != nil {
		s.logger.Warn("certificate reload disabled", "error", err)
	}
	s.mu.Lock()
	s.keyPair = kp
	s.mu.Unlock()
	s.httpServer.TLSConfig = kp.TLSConfig()
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keyPair != nil {
		_ = s.keyPair.Stop()
	}
	return err
}
