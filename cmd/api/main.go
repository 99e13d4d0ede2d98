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

	httpadapter "github.com/avolkov/newschat/internal/adapters/http"
	"github.com/avolkov/newschat/internal/adapters/ws"
	"github.com/avolkov/newschat/internal/bootstrap"
	"github.com/avolkov/newschat/internal/config"
	"github.com/avolkov/newschat/internal/observability/logging"
	"github.com/avolkov/newschat/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	serverMetrics := metrics.NewServerMetrics("api")
	hub := ws.NewHub(app.ConversationUC, app.Sessions, app.Limiter, serverMetrics)
	router := httpadapter.NewRouter(
		app.ConversationUC,
		app.ChatUC,
		app.Sessions,
		app.RebuildUC,
		app.Limiter,
		serverMetrics,
		hub.Handler(),
	).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_error", "error", err)
	}
}
