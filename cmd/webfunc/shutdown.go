package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vyrodovalexey/webfunc/internal/config"
	"github.com/vyrodovalexey/webfunc/internal/observability"
)

// runServer runs the server and handles shutdown. An empty configPath
// disables hot reload.
func runServer(app *application, configPath string) {
	ctx := context.Background()
	logger := app.logger

	if err := app.server.Start(ctx); err != nil {
		fatalWithSync(logger, "failed to start server", observability.Error(err))
		return
	}

	app.startMetricsServerIfEnabled()

	var watcher *config.Watcher
	if configPath != "" {
		watcher = startConfigWatcher(app, configPath)
	}

	waitForShutdown(app, watcher)
}

// startConfigWatcher starts the configuration watcher.
func startConfigWatcher(app *application, configPath string) *config.Watcher {
	watcher, err := config.NewWatcher(configPath, app.applyReload,
		config.WithLogger(app.logger),
		config.WithErrorCallback(func(error) {
			app.metrics.RecordConfigReload(false)
		}),
	)
	if err != nil {
		app.logger.Warn("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(context.Background()); err != nil {
		app.logger.Warn("failed to start config watcher", observability.Error(err))
		_ = watcher.Stop()
		return nil
	}

	return watcher
}

// waitForShutdown blocks until SIGINT or SIGTERM. SIGHUP re-reads the
// configuration file.
func waitForShutdown(app *application, watcher *config.Watcher) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			reloadOnSignal(app, watcher)
			continue
		}
		app.logger.Info("received shutdown signal", observability.String("signal", sig.String()))
		break
	}

	app.shutdown(watcher)
}

// reloadOnSignal re-reads the configuration file immediately.
func reloadOnSignal(app *application, watcher *config.Watcher) {
	if watcher == nil {
		app.logger.Warn("ignoring SIGHUP: no configuration file is watched")
		return
	}
	app.logger.Info("received SIGHUP, reloading configuration")
	if err := watcher.Reload(); err != nil {
		app.logger.Warn("configuration reload failed", observability.Error(err))
	}
}

// shutdown stops every component within the configured timeout.
func (a *application) shutdown(watcher *config.Watcher) {
	timeout := a.currentConfig().Server.ShutdownTimeout.Duration()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if watcher != nil {
		_ = watcher.Stop()
	}

	if a.metricsServer != nil {
		a.logger.Info("stopping metrics server")
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Error("failed to stop metrics server gracefully", observability.Error(err))
		}
	}

	if a.server != nil {
		if err := a.server.Stop(ctx); err != nil {
			a.logger.Error("failed to stop server gracefully", observability.Error(err))
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("failed to close redis client", observability.Error(err))
		}
	}

	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	a.logger.Info("webfunc stopped")
}

// createMetricsServer creates the metrics HTTP server.
func (a *application) createMetricsServer(cfg config.MetricsConfig) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, a.metrics.Handler())

	addr := fmt.Sprintf(":%d", cfg.Port)
	a.logger.Info("starting metrics server",
		observability.String("address", addr),
		observability.String("metrics_path", cfg.Path),
	)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// startMetricsServerIfEnabled starts the metrics server if enabled.
func (a *application) startMetricsServerIfEnabled() {
	cfg := a.currentConfig().Metrics
	if !cfg.Enabled {
		return
	}

	a.metricsServer = a.createMetricsServer(cfg)
	go func(srv *http.Server) {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", observability.Error(err))
		}
	}(a.metricsServer)
}
