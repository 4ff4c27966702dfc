// Command query loads the most recently built generation's artifacts and
// serves an interactive read-eval-print loop over the Search and
// ExplainPrompt operations, for manual exploration and smoke-testing a
// build without standing up the HTTP surface.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fundlens/retrieval/internal/buildlog"
	"github.com/fundlens/retrieval/internal/candidates"
	"github.com/fundlens/retrieval/internal/config"
	"github.com/fundlens/retrieval/internal/ctxlog"
	"github.com/fundlens/retrieval/internal/embedding"
	"github.com/fundlens/retrieval/internal/fund"
	"github.com/fundlens/retrieval/internal/ingest"
	"github.com/fundlens/retrieval/internal/lexical"
	"github.com/fundlens/retrieval/internal/rerank"
	"github.com/fundlens/retrieval/internal/vector"

	"github.com/fundlens/retrieval/internal/engine"
)

func main() {
	lexicalOnly := flag.Bool("lexical-only", false, "skip the embedding/ANN path and serve BM25-only results")
	k := flag.Int("k", 5, "number of results to return")
	explain := flag.Bool("explain", false, "include the per-candidate score explanation")
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
	ctx := ctxlog.WithLogger(context.Background(), logger)

	manifest, err := readManifest(cfg.IndexDir)
	if err != nil {
		log.Fatalf("failed to read manifest (run cmd/build first): %v", err)
	}

	store := fund.NewStore()
	corpus, err := loadCorpusFromBuildLog(cfg)
	if err != nil {
		log.Fatalf("failed to load corpus from last build: %v", err)
	}
	store.Swap(corpus)
	slog.Info("loaded generation", "generation_id", manifest.GenerationID, "records", corpus.Len())

	lexIndex, err := loadLexicalIndex(cfg.IndexDir)
	if err != nil {
		log.Fatalf("failed to load lexical index: %v", err)
	}

	embedder := embedding.NewHTTPEmbedder(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingDim, cfg.EmbeddingRateLimit)

	var denseIndex vector.Index
	if cfg.UseQdrant {
		denseIndex, err = vector.NewQdrantIndex(cfg.QdrantURL, cfg.QdrantCollection, cfg.EmbeddingDim)
		if err != nil {
			log.Fatalf("failed to connect to qdrant: %v", err)
		}
	} else {
		denseIndex, err = loadGraph(cfg.IndexDir)
		if err != nil {
			log.Fatalf("failed to load ANN graph: %v", err)
		}
	}

	generator := &candidates.Generator{
		Lexical:            lexIndex,
		Dense:              denseIndex,
		Embedder:           embedder,
		SmallPoolThreshold: cfg.SmallPoolThreshold,
		KBM25:              cfg.KBM25,
		KANN:               cfg.KANN,
	}
	reranker := &rerank.Reranker{
		Weights:           rerank.Weights{Sem: cfg.WSem, Meta: cfg.WMeta, Fuzz: cfg.WFuzz},
		PartialCreditBand: cfg.PartialCreditBand,
	}
	eng := engine.New(store, generator, reranker, *lexicalOnly)

	if flag.NArg() > 0 {
		runQuery(ctx, eng, strings.Join(flag.Args(), " "), *k, *explain)
		return
	}

	slog.Info("entering interactive mode, type a query and press enter (Ctrl+D to exit)")
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		query := strings.TrimSpace(scanner.Text())
		if query != "" {
			runQuery(ctx, eng, query, *k, *explain)
		}
		fmt.Print("> ")
	}
}

func runQuery(ctx context.Context, eng *engine.Engine, query string, k int, explain bool) {
	start := time.Now()
	results, err := eng.Search(ctx, query, k, explain)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	for i, r := range results {
		fmt.Printf("%d. %s (%s, %s, %s) final=%.4f sem=%.4f meta=%.4f fuzz=%.4f\n",
			i+1, r.FundName, r.FundHouse, r.Category, r.RiskLevel, r.FinalScore, r.SemanticScore, r.MetadataScore, r.FuzzyScore)
		if explain && r.Explanation != nil {
			for _, c := range r.Explanation.MetadataContributions {
				fmt.Printf("     %s: weight=%.2f indicator=%.2f\n", c.Field, c.Weight, c.Indicator)
			}
		}
	}
	fmt.Printf("(%d results in %s)\n", len(results), time.Since(start))
}

type manifestFile struct {
	GenerationID string `json:"generation_id"`
	RecordCount  int    `json:"record_count"`
	AUMUnit      string `json:"aum_unit"`
	BuiltAt      string `json:"built_at"`
}

func readManifest(indexDir string) (*manifestFile, error) {
	f, err := os.Open(filepath.Join(indexDir, "manifest.json"))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var m manifestFile
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// loadCorpusFromBuildLog re-ingests the corpus file as of the last build.
// The build pipeline does not persist full fund records (only vectors,
// graph, and lexical state), so re-ingestion is the source of truth for
// record content; the build log's latest succeeded generation_id is
// cross-checked against the manifest to catch a stale or partial build.
func loadCorpusFromBuildLog(cfg *config.Config) (*fund.Corpus, error) {
	manifest, err := readManifest(cfg.IndexDir)
	if err != nil {
		return nil, err
	}

	blog, err := buildlog.Open(cfg.BuildLogDBPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = blog.Close() }()

	latest, err := blog.LatestSucceeded()
	if err != nil {
		return nil, err
	}
	if latest != "" && latest != manifest.GenerationID {
		slog.Warn("manifest generation_id does not match the build log's latest succeeded run",
			"manifest", manifest.GenerationID, "build_log", latest)
	}

	result, err := ingest.Load(cfg.CorpusPath)
	if err != nil {
		return nil, err
	}
	return fund.NewCorpus(manifest.GenerationID, result.Records), nil
}

func loadLexicalIndex(indexDir string) (*lexical.Index, error) {
	f, err := os.Open(filepath.Join(indexDir, "bm25.json"))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return lexical.Load(f)
}

func loadGraph(indexDir string) (*vector.MemoryGraph, error) {
	f, err := os.Open(filepath.Join(indexDir, "graph.bin"))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return vector.LoadGraph(f)
}
