// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/pdiddy/leadgen/internal/dashboard"
	"github.com/pdiddy/leadgen/internal/leadstore"
	"github.com/pdiddy/leadgen/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the lead dashboard",
	Long: `Serve starts the dashboard: a filterable table of the latest run's leads,
a score histogram, email drafts and CSV/JSON/YAML downloads. Runs are started
from the page or with POST /api/runs; only one run executes at a time.
Leads are kept in memory and are gone when the server stops.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
	}
	if cmd.Flags().Changed("run-on-start") {
		cfg.Server.RunOnStart, _ = cmd.Flags().GetBool("run-on-start")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	p, _, err := buildPipeline(cfg, os.Stderr, rec)
	if err != nil {
		return err
	}

	store, err := leadstore.Open()
	if err != nil {
		return err
	}
	defer store.Close()

	dash := dashboard.New(p, store,
		dashboard.WithLogger(logger),
		dashboard.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           dash.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.Server.RunOnStart {
		go func() {
			if _, err := dash.TriggerRun(ctx); err != nil {
				logger.Error("initial run failed", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dashboard listening", "addr", "http://"+cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8501", "listen address")
	serveCmd.Flags().Bool("run-on-start", false, "run the pipeline once when the server starts")

	rootCmd.AddCommand(serveCmd)
}
