// Package main implements the kencana-farm MCP server.
//
// The server exposes the crop and reminder collections and the harvest
// calculations as MCP tools over stdio JSON-RPC. Configuration comes from
// KENCANA_* environment variables (see internal/config).
//
// When KENCANA_METRICS_ADDR is set, Prometheus metrics are served on
// http://<addr>/metrics for as long as the server runs.
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

	"github.com/mark3labs/mcp-go/server"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/JamesPrial/kencana-farm/internal/config"
	"github.com/JamesPrial/kencana-farm/internal/farm"
	"github.com/JamesPrial/kencana-farm/internal/logging"
	"github.com/JamesPrial/kencana-farm/internal/mcpserver"
	"github.com/JamesPrial/kencana-farm/internal/metrics"
)

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[mcp-server] %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[mcp-server] %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("mcp-server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder metrics.Recorder
	if cfg.MetricsAddr != "" {
		reg := prom.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewPrometheusRecorder(reg)

		shutdown := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer shutdown()
	}

	f, err := farm.Open(ctx, cfg, logger, recorder)
	if err != nil {
		logger.Error("failed to open farm", zap.Error(err))
		return 1
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close farm", zap.Error(err))
		}
	}()

	srv, err := mcpserver.NewServer(f, logger)
	if err != nil {
		logger.Error("failed to create MCP server", zap.Error(err))
		return 1
	}

	logger.Info("serving MCP over stdio", zap.String("backend", cfg.Storage.Backend))
	if err := server.ServeStdio(srv, server.WithErrorLogger(zap.NewStdLog(logger))); err != nil {
		logger.Error("server error", zap.Error(err))
		return 1
	}
	return 0
}

// serveMetrics starts the Prometheus endpoint and returns a function that
// stops it.
func serveMetrics(addr string, reg *prom.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctx)
	}
}

func main() {
	os.Exit(run())
}
