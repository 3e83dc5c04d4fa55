package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/leanttro/vitrine/internal/shell/directus"
	"github.com/leanttro/vitrine/internal/shell/store"
	"github.com/leanttro/vitrine/internal/shell/superfrete"
	"github.com/leanttro/vitrine/internal/shell/web"
	"github.com/leanttro/vitrine/internal/shell/workers"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitHTTPServerError = 3
)

// =============================================================================
// Server
// =============================================================================

// Server represents the storefront application server.
type Server struct {
	config     *Config
	httpServer *http.Server
	store      store.Store
	refresher  *workers.Refresher
	logger     *slog.Logger

	refresherCancel context.CancelFunc
}

// NewServer creates a new server with the given config.
func NewServer(cfg *Config, logger *slog.Logger) (*Server, error) {
	// Connect to database
	s, err := store.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitDatabaseError,
		}
	}

	// Create CMS client
	cms := directus.NewClient(directus.Config{
		BaseURL: cfg.Directus.URL,
		Token:   cfg.Directus.Token,
		ShopID:  cfg.Directus.ShopID,
		Timeout: cfg.Directus.Timeout,
	})

	// Create carrier client. Without a token we still serve pages, the
	// quote endpoint just returns no carrier options.
	var shipper superfrete.Client
	if cfg.SuperFrete.Token != "" {
		shipper = superfrete.NewHTTPClient(superfrete.Config{
			CalculatorURL: cfg.SuperFrete.CalculatorURL,
			Token:         cfg.SuperFrete.Token,
			OriginCEP:     cfg.SuperFrete.OriginCEP,
			Services:      cfg.SuperFrete.Services,
			Timeout:       cfg.SuperFrete.Timeout,
		})
		logger.Info("shipping quotes enabled", "calculator_url", cfg.SuperFrete.CalculatorURL)
	} else {
		shipper = superfrete.NewNoopClient(logger)
		logger.Warn("no SuperFrete token configured, shipping quotes disabled")
	}

	// Create catalog refresher
	refresher := workers.NewRefresher(workers.RefresherConfig{
		Source:      cms,
		Store:       s,
		Interval:    cfg.Catalog.RefreshInterval,
		SyncTimeout: cfg.Catalog.SyncTimeout,
		Logger:      logger,
	})

	// Create HTTP handler
	handler, err := web.Setup(web.Config{
		Store:         s,
		Shipper:       shipper,
		ShopID:        cfg.Directus.ShopID,
		Logger:        logger,
		TechnologyURL: cfg.Redirects.TechnologyURL,
	})
	if err != nil {
		s.Close()
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitConfigError,
		}
	}

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		store:      s,
		refresher:  refresher,
		logger:     logger,
	}, nil
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start catalog refresher in background. It warms the cache on startup
	// and keeps re-syncing until shutdown.
	refresherCtx, cancel := context.WithCancel(ctx)
	s.refresherCancel = cancel
	go s.refresher.Start(refresherCtx)

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		return &ServerError{
			Op:       "Start",
			Err:      err,
			ExitCode: ExitHTTPServerError,
		}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	// Shutdown HTTP server
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	// Stop catalog refresher
	if s.refresherCancel != nil {
		s.refresherCancel()
	}
	s.refresher.Stop()

	// Close database
	if err := s.store.Close(); err != nil {
		s.logger.Error("database close error", "error", err)
	}

	s.logger.Info("shutdown complete")
	return nil
}

// =============================================================================
// Server Error
// =============================================================================

// ServerError represents an error during server operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
