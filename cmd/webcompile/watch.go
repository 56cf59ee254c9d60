package main

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/webcompile/internal/metrics"
	"git.home.luguber.info/inful/webcompile/internal/observability"
	"git.home.luguber.info/inful/webcompile/internal/pipeline"
	"git.home.luguber.info/inful/webcompile/internal/watch"
)

func runWatch(ctx context.Context) int {
	cfg, root, err := loadRunConfig()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		return pipeline.ErrorExitCode
	}

	o, err := newOrchestrator(cfg, root)
	if err != nil {
		slog.Error("Git setup failed", "error", err)
		return pipeline.ErrorExitCode
	}

	if CLI.Watch.MetricsAddr != "" {
		reg := prom.NewRegistry()
		o.Recorder = metrics.NewPrometheusRecorder(reg)
		go serveMetrics(ctx, CLI.Watch.MetricsAddr, reg)
	}

	w := &watch.Watcher{
		Root:     root,
		Config:   cfg,
		Debounce: CLI.Watch.Debounce,
		Run: func(runCtx context.Context) error {
			runCtx = observability.WithRunID(runCtx, uuid.NewString())
			result, _, runErr := o.RunAll(runCtx)
			if runErr != nil {
				return runErr
			}
			reportResult(runCtx, result)
			return nil
		},
	}

	slog.Info("Watching for changes", "root", root, "debounce", CLI.Watch.Debounce)
	if err := w.Start(ctx); err != nil && !stdErrors.Is(err, context.Canceled) {
		slog.Error("Watch failed", "error", err)
		return pipeline.ErrorExitCode
	}
	return 0
}

func serveMetrics(ctx context.Context, addr string, reg *prom.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
		slog.Warn("Metrics server stopped", "error", err)
	}
}
