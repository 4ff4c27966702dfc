package buildpipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fundlens/retrieval/internal/buildlog"
	"github.com/fundlens/retrieval/internal/config"
	"github.com/fundlens/retrieval/internal/metrics"
	"github.com/fundlens/retrieval/internal/vector"
)

const sampleCorpus = `fund_id,fund_name,fund_house,category,sub_category,asset_class,fund_type,sector,risk_level,expense_ratio,return_1yr,return_3yr,return_5yr,aum,top_holdings,sector_allocation
F1,SBI Technology Fund,SBI,Equity,,Equity,Open Ended,Technology,High,1.2,18.5,15.2,12.1,5000,Infosys;TCS,Technology:0.6;Financial:0.2
F2,SBI Debt Fund,SBI,Debt,,Debt,Open Ended,,Low,0.5,7.1,6.8,6.2,2000,,
`

func testEmbeddingServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		type embeddingData struct {
			Embedding []float64 `json:"embedding"`
		}
		resp := struct {
			Data []embeddingData `json:"data"`
		}{}
		for range req.Input {
			vec := make([]float64, dim)
			vec[0] = 1
			resp.Data = append(resp.Data, embeddingData{Embedding: vec})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func testConfig(t *testing.T, embeddingURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "funds.csv")
	if err := os.WriteFile(corpusPath, []byte(sampleCorpus), 0644); err != nil {
		t.Fatalf("failed to write sample corpus: %v", err)
	}
	return &config.Config{
		K1: 1.5, B: 0.75,
		EmbeddingBaseURL:   embeddingURL,
		EmbeddingAPIKey:    "key",
		EmbeddingModelName: "test-model",
		EmbeddingDim:       4,
		EmbeddingRateLimit: 1000,
		CorpusPath:         corpusPath,
		IndexDir:           filepath.Join(dir, "index"),
	}
}

func openBuildLog(t *testing.T, cfg *config.Config) *buildlog.Log {
	t.Helper()
	l, err := buildlog.Open(filepath.Join(filepath.Dir(cfg.IndexDir), "buildlog.db"))
	if err != nil {
		t.Fatalf("buildlog.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRunPersistsArtifactsAndRecordsSuccess(t *testing.T) {
	srv := testEmbeddingServer(t, 4)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	blog := openBuildLog(t, cfg)

	result, err := Run(context.Background(), cfg, blog, metrics.New())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.RecordCount != 2 {
		t.Fatalf("expected 2 records, got %d", result.RecordCount)
	}

	for _, name := range []string{"vectors.bin", "graph.bin", "bm25.json", "manifest.json"} {
		if _, err := os.Stat(filepath.Join(cfg.IndexDir, name)); err != nil {
			t.Errorf("expected artifact %s to exist: %v", name, err)
		}
	}

	latest, err := blog.LatestSucceeded()
	if err != nil {
		t.Fatalf("LatestSucceeded() error = %v", err)
	}
	if latest != result.GenerationID {
		t.Fatalf("expected latest succeeded generation %s, got %s", result.GenerationID, latest)
	}
}

func TestRunRoundTripsGraphArtifact(t *testing.T) {
	srv := testEmbeddingServer(t, 4)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	blog := openBuildLog(t, cfg)

	if _, err := Run(context.Background(), cfg, blog, metrics.New()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	f, err := os.Open(filepath.Join(cfg.IndexDir, "graph.bin"))
	if err != nil {
		t.Fatalf("failed to open graph artifact: %v", err)
	}
	defer func() { _ = f.Close() }()

	graph, err := vector.LoadGraph(f)
	if err != nil {
		t.Fatalf("LoadGraph() error = %v", err)
	}
	if graph.Len() != 2 {
		t.Fatalf("expected 2 nodes in persisted graph, got %d", graph.Len())
	}
}

func TestRunFailsOnEmptyCorpus(t *testing.T) {
	srv := testEmbeddingServer(t, 4)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	dir := filepath.Dir(cfg.CorpusPath)
	emptyPath := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(emptyPath, []byte("fund_id,fund_name\n"), 0644); err != nil {
		t.Fatalf("failed to write empty corpus: %v", err)
	}
	cfg.CorpusPath = emptyPath
	blog := openBuildLog(t, cfg)

	if _, err := Run(context.Background(), cfg, blog, metrics.New()); err == nil {
		t.Fatalf("expected an error for an empty corpus")
	}
	if _, err := os.Stat(filepath.Join(cfg.IndexDir, "manifest.json")); err == nil {
		t.Fatalf("expected no manifest to be written on a failed build")
	}
}
