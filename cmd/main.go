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

	"github.com/pairline/signal-service/config"
	"github.com/pairline/signal-service/internal/service"
	"github.com/pairline/signal-service/internal/store"
	httpx "github.com/pairline/signal-service/internal/transport/http"
	"github.com/pairline/signal-service/internal/transport/ws"
	"github.com/pairline/signal-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting signal-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- state ---
	registry := store.NewConnectionRegistry()
	rooms := store.NewRoomStore()

	// --- WS hub, services ---
	hub := ws.NewHub()
	matchmaker := service.NewMatchmaker(registry, rooms, hub)
	relay := service.NewRelayRouter(registry, rooms, hub)
	reconciler := service.NewDisconnectReconciler(registry, rooms, hub)

	wsServer := ws.NewServer(hub, registry, matchmaker, relay, reconciler,
		cfg.PingInterval(), cfg.WS.MaxMessageBytes)

	// --- HTTP ---
	router := httpx.NewRouter(wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
