package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"vaani-labs/drishti/pkg/config"
	"vaani-labs/drishti/pkg/logging"
	"vaani-labs/drishti/pkg/plugin"
)

// Server is the standalone gateway: a reverse proxy that measures every
// request it forwards to the upstream inference service.
type Server struct {
	cfg          *config.Config
	plugin       *plugin.Plugin
	logger       *logging.Logger
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.Mutex
	running      bool
}

// NewServer creates a gateway around an assembled plugin.
func NewServer(cfg *config.Config, p *plugin.Plugin) (*Server, error) {
	if cfg.Server.Upstream == "" {
		return nil, &config.ConfigurationError{
			Field:  "server.upstream",
			Reason: "required in gateway mode",
		}
	}
	return &Server{
		cfg:          cfg,
		plugin:       p,
		logger:       p.Logger(),
		shutdownChan: make(chan struct{}),
	}, nil
}

// Start starts the plugin lifecycle and the HTTP server, then blocks until
// shutdown by signal, context cancellation, or Shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	handler, err := s.setupRoutes()
	if err != nil {
		return err
	}

	if err := s.plugin.Start(ctx); err != nil {
		return fmt.Errorf("starting plugin: %w", err)
	}
	defer s.plugin.Close()

	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.Listen,
		Handler:      handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("gateway listening",
			"address", s.cfg.Server.Listen,
			"upstream", s.cfg.Server.Upstream,
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully drains in-flight requests, bounded by the configured
// shutdown timeout. Shutdown is idempotent.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown",
			"timeout", s.cfg.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		s.logger.Info("gateway stopped")
	})

	return shutdownErr
}

// setupRoutes builds the handler chain: exposition endpoints unmeasured,
// everything else measured and proxied to the upstream.
func (s *Server) setupRoutes() (http.Handler, error) {
	proxy, err := s.buildProxy()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	s.plugin.RegisterEndpoints(mux)
	mux.Handle("/", s.plugin.Middleware(proxy))

	// Recovery is outermost: the interceptor records handler panics and
	// re-raises them.
	return Recovery(s.logger)(mux), nil
}

func (s *Server) buildProxy() (*httputil.ReverseProxy, error) {
	upstream, err := url.Parse(s.cfg.Server.Upstream)
	if err != nil {
		return nil, &config.ConfigurationError{
			Field:  "server.upstream",
			Reason: fmt.Sprintf("invalid URL: %v", err),
		}
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.ErrorContext(r.Context(), "upstream request failed",
				"upstream", upstream.String(),
				"error", err,
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, `{"error":"upstream unavailable"}`)
		},
	}
	return proxy, nil
}
