package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cura-ai/scheduling-assistant/internal/api/handlers"
	"github.com/cura-ai/scheduling-assistant/internal/api/router"
	"github.com/cura-ai/scheduling-assistant/internal/app/bootstrap"
	appconfig "github.com/cura-ai/scheduling-assistant/internal/config"
	"github.com/cura-ai/scheduling-assistant/internal/observability/metrics"
	"github.com/cura-ai/scheduling-assistant/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting scheduling assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"data_dir", cfg.DataDir,
	)

	st, err := bootstrap.BuildStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open record store", "error", err)
		os.Exit(1)
	}

	m := metrics.NewSchedulingMetrics(nil)

	ctx := context.Background()
	driver, closeDriver, err := bootstrap.BuildDriver(ctx, cfg, st, m, logger)
	if err != nil {
		logger.Error("failed to build conversation driver", "error", err)
		os.Exit(1)
	}
	defer closeDriver()

	sessions, closeSessions, err := bootstrap.BuildSessionStore(cfg, logger)
	if err != nil {
		logger.Error("failed to build session store", "error", err)
		os.Exit(1)
	}
	defer closeSessions()

	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        handlers.NewChatHandler(sessions, driver, logger),
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
