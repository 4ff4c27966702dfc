// Package buildpipeline runs one offline index-build pass: ingest the
// corpus, embed every description, build the BM25 and dense indices, and
// persist the generation's artifacts. It is shared by cmd/build (one-shot)
// and cmd/rebuildd (cron-scheduled), so both entrypoints stay in lockstep.
package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/fundlens/retrieval/internal/buildlog"
	"github.com/fundlens/retrieval/internal/config"
	"github.com/fundlens/retrieval/internal/embedding"
	"github.com/fundlens/retrieval/internal/fund"
	"github.com/fundlens/retrieval/internal/ingest"
	"github.com/fundlens/retrieval/internal/lexical"
	"github.com/fundlens/retrieval/internal/metrics"
	"github.com/fundlens/retrieval/internal/normalize"
	"github.com/fundlens/retrieval/internal/vector"
)

// Result summarizes one completed build.
type Result struct {
	GenerationID  string
	RecordCount   int
	RejectedCount int
	Duration      time.Duration
}

// Run executes a full build pass against cfg, recording progress to log
// and observations to m. It returns the new generation's id on success.
func Run(ctx context.Context, cfg *config.Config, buildLog *buildlog.Log, m *metrics.Metrics) (*Result, error) {
	started := time.Now()
	generationID := uuid.New().String()

	run := buildlog.Run{
		GenerationID:   generationID,
		CorpusPath:     cfg.CorpusPath,
		EmbeddingModel: cfg.EmbeddingModelName,
		StartedAt:      started,
	}

	fail := func(detail string) error {
		run.Succeeded = false
		run.ErrorDetail = detail
		run.FinishedAt = time.Now()
		_ = buildLog.Record(run)
		m.ObserveBuild("failure", run.FinishedAt.Sub(started), run.RecordCount, run.RejectedCount, 0)
		return errors.New(detail)
	}

	result, err := ingest.Load(cfg.CorpusPath)
	if err != nil {
		return nil, fail(fmt.Sprintf("ingest failed: %v", err))
	}
	slog.Info("ingested corpus", "accepted", len(result.Records), "rejected", len(result.Errors), "path", cfg.CorpusPath)
	for _, rowErr := range result.Errors {
		run.RowErrors = append(run.RowErrors, buildlog.RowError{Line: rowErr.Line, FundID: rowErr.FundID, Message: rowErr.Message})
	}
	run.RecordCount = len(result.Records)
	run.RejectedCount = len(result.Errors)

	if len(result.Records) == 0 {
		return nil, fail("no valid records ingested")
	}
	seen := make(map[string]bool, len(result.Records))
	for _, r := range result.Records {
		if seen[r.FundID] {
			return nil, fail(fmt.Sprintf("duplicate fund_id %q", r.FundID))
		}
		seen[r.FundID] = true
	}

	corpus := fund.NewCorpus(generationID, result.Records)

	docs := make([]lexical.Document, 0, len(corpus.IDs()))
	texts := make([]string, 0, len(corpus.IDs()))
	for _, id := range corpus.IDs() {
		r, _ := corpus.Get(id)
		docs = append(docs, lexical.Document{FundID: r.FundID, Text: normalize.Text(r.Description)})
		texts = append(texts, r.Description)
	}
	lexIndex := lexical.NewIndex(docs, cfg.K1, cfg.B)
	slog.Info("built lexical index", "documents", lexIndex.Len())

	embedder := embedding.NewHTTPEmbedder(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingDim, cfg.EmbeddingRateLimit)

	embedStart := time.Now()
	vectors, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		m.ObserveEmbeddingCall("failure", time.Since(embedStart))
		return nil, fail(fmt.Sprintf("embedding failed: %v", err))
	}
	m.ObserveEmbeddingCall("success", time.Since(embedStart))
	run.EmbeddingDim = embedder.Dim()
	slog.Info("embedded corpus", "records", len(vectors), "dim", embedder.Dim())

	if err := os.MkdirAll(cfg.IndexDir, 0755); err != nil {
		return nil, fail(fmt.Sprintf("failed to create index directory: %v", err))
	}

	if cfg.UseQdrant {
		if err := buildQdrant(ctx, cfg, corpus.IDs(), vectors); err != nil {
			return nil, fail(fmt.Sprintf("qdrant build failed: %v", err))
		}
		slog.Info("upserted vectors to qdrant", "collection", cfg.QdrantCollection)
	} else {
		graph := vector.Build(embedder.Dim(), 16, 64, corpus.IDs(), vectors)
		if err := persistGraph(cfg.IndexDir, corpus.IDs(), vectors, graph); err != nil {
			return nil, fail(fmt.Sprintf("failed to persist graph: %v", err))
		}
		slog.Info("built and persisted in-memory ANN graph", "nodes", graph.Len())
	}

	if err := persistLexical(cfg.IndexDir, lexIndex); err != nil {
		return nil, fail(fmt.Sprintf("failed to persist lexical index: %v", err))
	}
	if err := persistManifest(cfg.IndexDir, generationID, cfg.AUMUnit, corpus); err != nil {
		return nil, fail(fmt.Sprintf("failed to persist manifest: %v", err))
	}

	run.Succeeded = true
	run.FinishedAt = time.Now()
	if err := buildLog.Record(run); err != nil {
		return nil, err
	}
	m.ObserveBuild("success", run.FinishedAt.Sub(started), run.RecordCount, run.RejectedCount, run.FinishedAt.Unix())

	return &Result{
		GenerationID:  generationID,
		RecordCount:   run.RecordCount,
		RejectedCount: run.RejectedCount,
		Duration:      run.FinishedAt.Sub(started),
	}, nil
}

func buildQdrant(ctx context.Context, cfg *config.Config, fundIDs []string, vectors [][]float32) error {
	idx, err := vector.NewQdrantIndex(cfg.QdrantURL, cfg.QdrantCollection, cfg.EmbeddingDim)
	if err != nil {
		return err
	}
	if err := idx.EnsureCollection(ctx); err != nil {
		return err
	}
	return idx.Upsert(ctx, fundIDs, vectors, nil)
}

func persistGraph(indexDir string, fundIDs []string, vectors [][]float32, graph *vector.MemoryGraph) error {
	vecFile, err := os.Create(filepath.Join(indexDir, "vectors.bin"))
	if err != nil {
		return err
	}
	defer func() { _ = vecFile.Close() }()
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	if err := vector.SaveVectors(vecFile, fundIDs, vectors, dim); err != nil {
		return err
	}

	graphFile, err := os.Create(filepath.Join(indexDir, "graph.bin"))
	if err != nil {
		return err
	}
	defer func() { _ = graphFile.Close() }()
	return vector.SaveGraph(graphFile, graph)
}

func persistLexical(indexDir string, idx *lexical.Index) error {
	f, err := os.Create(filepath.Join(indexDir, "bm25.json"))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return idx.Save(f)
}

func persistManifest(indexDir, generationID, aumUnit string, corpus *fund.Corpus) error {
	f, err := os.Create(filepath.Join(indexDir, "manifest.json"))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = fmt.Fprintf(f, "{\"generation_id\":%q,\"record_count\":%d,\"aum_unit\":%q,\"built_at\":%q}\n",
		generationID, corpus.Len(), aumUnit, time.Now().UTC().Format(time.RFC3339))
	return err
}
