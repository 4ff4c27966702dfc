// Command build runs one offline index-build pass against the configured
// corpus and index directory, recording the run in the build-history log.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/fundlens/retrieval/internal/buildlog"
	"github.com/fundlens/retrieval/internal/buildpipeline"
	"github.com/fundlens/retrieval/internal/config"
	"github.com/fundlens/retrieval/internal/metrics"
)

func main() {
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := buildpipeline.Run(ctx, cfg, buildLog, metrics.New())
	if err != nil {
		log.Fatalf("build failed: %v", err)
	}

	slog.Info("build complete", "generation_id", result.GenerationID, "records", result.RecordCount,
		"rejected", result.RejectedCount, "duration", result.Duration)
}
