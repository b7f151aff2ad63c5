package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paramwatch/paramwatch/server/internal/api"
	"github.com/paramwatch/paramwatch/server/internal/config"
	"github.com/paramwatch/paramwatch/server/internal/history"
	"github.com/paramwatch/paramwatch/server/internal/metrics"
	"github.com/paramwatch/paramwatch/server/internal/model"
	"github.com/paramwatch/paramwatch/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Level is adjustable so a hot reload can change it without a restart.
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("paramwatch starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Log.SlogLevel())

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"a", cfg.Model.A,
		"b", cfg.Model.B,
		"history_ttl", cfg.History.TTL,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := model.New(model.WithLogger(logger), model.WithParams(cfg.Model.A, cfg.Model.B))

	// Update log with background TTL eviction.
	hist := history.New(cfg.History.TTL, cfg.History.MaxEntries)
	m.Subscribe(hist.Append)
	go hist.Run(ctx)

	// WebSocket hub: one push per recompute plus a periodic heartbeat.
	hub := ws.New(m, cfg.Server.BroadcastInterval)
	m.Subscribe(hub.Notify)
	go hub.Run(ctx)

	// Hot reload applies the parameters that changed since the previous file
	// contents in one batch. Values set through the API in between are kept.
	go func() {
		if err := config.Watch(ctx, *configPath, cfg, func(prev, next *config.Config) {
			level.Set(next.Log.SlogLevel())
			applyParams(m, prev.Model, next.Model)
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/api/", api.New(m, hist))
	mux.Handle("/ws/stream", hub)
	mux.Handle("/metrics", metrics.Handler(m))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("paramwatch shutting down", "value", m.Value())

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	srv.Shutdown(shutdownCtx) //nolint:errcheck
}

// applyParams sets the parameters that differ between prev and next on m
// inside one batch. A parameter the file did not change keeps its live value,
// even if the API moved it since the last load.
func applyParams(m *model.Model, prev, next config.ModelConfig) {
	if prev == next {
		slog.Debug("config: model params unchanged")
		return
	}
	m.Batch(func() error { //nolint:errcheck
		if prev.A != next.A {
			m.SetA(next.A)
		}
		if prev.B != next.B {
			m.SetB(next.B)
		}
		return nil
	})
}
