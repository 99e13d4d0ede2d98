package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avolkov/newschat/internal/bootstrap"
	"github.com/avolkov/newschat/internal/config"
	"github.com/avolkov/newschat/internal/observability/logging"
	"github.com/avolkov/newschat/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", workerMetrics.Handler())
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := http.ListenAndServe(":"+cfg.WorkerMetricsPort, mux); err != nil && err != http.ErrServerClosed {
			slog.Error("worker_metrics_server_error", "error", err)
		}
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeRebuildRequested(ctx, func(handlerCtx context.Context, jobID string) error {
		rebuildCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()

		workerMetrics.StartRebuild()
		started := time.Now()
		rebuildErr := app.RebuildUC.RunRebuild(rebuildCtx, jobID)
		workerMetrics.FinishRebuild("worker", time.Since(started), rebuildErr)
		return rebuildErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
