// Command worker-manager registers the scoring job workers with Zeebe.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"score-handler/internal/api"
	"score-handler/internal/app"
	"score-handler/internal/common/camunda"
	"score-handler/internal/common/config"
	"score-handler/internal/common/database"
	"score-handler/internal/common/logger"
	"score-handler/internal/common/secrets"

	// Amortization Workers (1)
	crp "score-handler/internal/workers/amortization/compute-repayment-plan"

	// Reference Population Workers (1)
	rnd "score-handler/internal/workers/reference/register-non-defaulter"

	// Scoring Workers (2)
	scs "score-handler/internal/workers/scoring/score-clustered-survey"
	ss "score-handler/internal/workers/scoring/score-survey"
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

	zapLog.Info("Starting worker manager...")

	// --- Init Zeebe Client with retry ---
	zeebe, err := camunda.NewClient(cfg.Camunda)
	if err != nil {
		zapLog.Fatal("zeebe client failed", zap.Error(err))
	}
	defer zeebe.Close()
	if err := database.WaitForRetryable(ctx, zeebe, "Zeebe", 10, 2*time.Second, zapLog, camunda.IsTransient); err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	rt, err := app.Build(ctx, cfg, "worker-manager", zapLog)
	if err != nil {
		zapLog.Fatal("startup failed", zap.Error(err))
	}
	defer rt.Close()

	go app.RefreshRiskModel(ctx, rt.Service, time.Duration(cfg.Scoring.ModelRefreshInterval)*time.Second, zapLog)

	// --- Register Workers ---
	workerLog := logger.Component(log, "worker")
	svc := rt.Service

	var workers []*camunda.Worker
	open := func(taskType string, handler camunda.JobHandler) {
		w := camunda.Open(zeebe.Zeebe(), taskType, config.GetWorkerConfig(cfg, taskType), handler, workerLog)
		if w != nil {
			workers = append(workers, w)
		}
	}

	open(ss.TaskType, ss.NewHandler(ss.LoadConfig(config.GetWorkerConfig(cfg, ss.TaskType)), svc, workerLog))
	open(scs.TaskType, scs.NewHandler(scs.LoadConfig(config.GetWorkerConfig(cfg, scs.TaskType)), svc, workerLog))
	open(crp.TaskType, crp.NewHandler(crp.LoadConfig(config.GetWorkerConfig(cfg, crp.TaskType)), svc, workerLog))
	open(rnd.TaskType, rnd.NewHandler(rnd.LoadConfig(config.GetWorkerConfig(cfg, rnd.TaskType)), svc, workerLog))

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	checks := append([]api.ReadyCheck{{Name: "zeebe", Check: zeebe.Ping}}, rt.Checks...)
	healthServer := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           healthMux(checks),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.HTTP.Address))
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range workers {
		w.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down health server", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func healthMux(checks []api.ReadyCheck) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, c := range checks {
			if err := c.Check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				results[c.Name] = err.Error()
				continue
			}
			results[c.Name] = "ok"
		}
		writeJSON(w, status, map[string]interface{}{
			"ready":  status == http.StatusOK,
			"checks": results,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
