// Command rebuildd runs the index build pipeline on a cron schedule,
// exposing its Prometheus metrics for scraping between runs. It is the
// long-running counterpart to the one-shot cmd/build.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fundlens/retrieval/internal/buildlog"
	"github.com/fundlens/retrieval/internal/buildpipeline"
	"github.com/fundlens/retrieval/internal/config"
	"github.com/fundlens/retrieval/internal/metrics"
)

func main() {
	schedule := flag.String("schedule", "0 */6 * * *", "cron schedule on which to rebuild the index")
	metricsAddr := flag.String("metrics-addr", ":9090", "address to serve Prometheus metrics on")
	runOnStart := flag.Bool("run-on-start", true, "run one build immediately before entering the schedule")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	buildLog, err := buildlog.Open(cfg.BuildLogDBPath)
	if err != nil {
		log.Fatalf("failed to open build log: %v", err)
	}
	defer func() { _ = buildLog.Close() }()

	m := metrics.New()

	metricsServer := &http.Server{Addr: *metricsAddr, Handler: m.Handler()}
	go func() {
		slog.Info("serving metrics", "addr", *metricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("metrics server failed: %v", err)
		}
	}()

	runBuild := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		slog.Info("starting scheduled build")
		result, err := buildpipeline.Run(ctx, cfg, buildLog, m)
		if err != nil {
			slog.Error("scheduled build failed", "error", err)
			return
		}
		slog.Info("scheduled build complete", "generation_id", result.GenerationID,
			"records", result.RecordCount, "rejected", result.RejectedCount, "duration", result.Duration)
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, runBuild); err != nil {
		log.Fatalf("invalid cron schedule %q: %v", *schedule, err)
	}

	if *runOnStart {
		runBuild()
	}

	c.Start()
	slog.Info("rebuild daemon running", "schedule", *schedule)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down")
	stopCtx := c.Stop()
	<-stopCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
