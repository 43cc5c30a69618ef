// Command score-handler serves the scoring and repayment API over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"score-handler/internal/api"
	"score-handler/internal/app"
	"score-handler/internal/common/config"
	"score-handler/internal/common/logger"
	"score-handler/internal/common/secrets"
)

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := secrets.Apply(ctx, cfg); err != nil {
		bootLog.Fatal("doppler secrets failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting score handler...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	rt, err := app.Build(ctx, cfg, "score-handler", zapLog)
	if err != nil {
		zapLog.Fatal("startup failed", zap.Error(err))
	}
	defer rt.Close()

	go app.RefreshRiskModel(ctx, rt.Service, time.Duration(cfg.Scoring.ModelRefreshInterval)*time.Second, zapLog)

	srv := api.NewServer(cfg.HTTP, rt.Service, logger.Component(log, "http"), rt.Checks...)
	httpServer := srv.HTTPServer()

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, draining requests...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Score handler stopped gracefully")
}
