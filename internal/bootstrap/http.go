package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/pressqueue/config"
	"github.com/target/pressqueue/internal/core"
	httpx "github.com/target/pressqueue/internal/http"
)

// OpsServerConfig contains configuration for the ops HTTP server.
type OpsServerConfig struct {
	HTTP   config.HTTPConfig
	Routes httpx.RouterServices
	Logger *slog.Logger
}

// StartOpsServer creates and starts the ops HTTP server.
// Returns the server instance for graceful shutdown.
func StartOpsServer(cfg *OpsServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Routes.Logger == nil {
		cfg.Routes.Logger = logger
	}

	httpCfg := cfg.HTTP
	httpCfg.Sanitize()

	server := &http.Server{
		Addr:              httpCfg.Addr,
		Handler:           httpx.NewRouter(cfg.Routes),
		ReadTimeout:       httpCfg.ReadTimeout,
		ReadHeaderTimeout: httpCfg.ReadTimeout,
		WriteTimeout:      httpCfg.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting ops HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops HTTP server failed", "error", err)
		}
	}()

	return server
}

// opsRoutes assembles router dependencies. A nil cycle runner disables POST /cycles.
func opsRoutes(deps *serviceStartupDeps, cycles core.CycleRunner) httpx.RouterServices {
	routes := httpx.RouterServices{Cycles: cycles, Logger: deps.logger}
	if deps.cfg.DB != nil {
		routes.DB = deps.cfg.DB
	}
	if deps.cfg.Services.Cache != nil {
		routes.Cache = deps.cfg.Services.Cache
	}
	return routes
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Timeout time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down ops HTTP server")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(parent), timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("ops HTTP server stopped")
	}

	return nil
}
