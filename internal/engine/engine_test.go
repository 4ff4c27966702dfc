package engine

import (
	"context"
	"testing"

	"github.com/fundlens/retrieval/internal/candidates"
	"github.com/fundlens/retrieval/internal/fund"
	"github.com/fundlens/retrieval/internal/lexical"
	"github.com/fundlens/retrieval/internal/normalize"
	"github.com/fundlens/retrieval/internal/rerank"
	"github.com/fundlens/retrieval/internal/vector"
)

type stubEmbedder struct{ dim int }

func (s stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, s.dim)
		v[0] = 1
		out[i] = v
	}
	return out, nil
}
func (s stubEmbedder) Dim() int { return s.dim }

func testEngine(t *testing.T) (*Engine, *fund.Store) {
	t.Helper()
	records := []*fund.FundRecord{
		{FundID: "F1", FundName: "SBI Technology Fund", FundHouse: "SBI", Category: "Equity", Sector: "Technology", RiskLevel: fund.RiskHigh, Description: "sbi technology fund"},
		{FundID: "F2", FundName: "SBI Debt Fund", FundHouse: "SBI", Category: "Debt", RiskLevel: fund.RiskLow, Description: "sbi debt fund"},
	}
	corpus := fund.NewCorpus("gen-1", records)
	store := fund.NewStore()
	store.Swap(corpus)

	docs := []lexical.Document{
		{FundID: "F1", Text: normalize.Text("sbi technology fund")},
		{FundID: "F2", Text: normalize.Text("sbi debt fund")},
	}
	idx := lexical.NewIndex(docs, lexical.DefaultK1, lexical.DefaultB)
	dense := vector.Build(2, 4, 8, []string{"F1", "F2"}, [][]float32{{1, 0}, {0, 1}})

	gen := &candidates.Generator{
		Lexical:            idx,
		Dense:              dense,
		Embedder:           stubEmbedder{dim: 2},
		SmallPoolThreshold: 200,
		KBM25:              50,
		KANN:               50,
	}
	rr := &rerank.Reranker{Weights: rerank.Weights{Sem: 0.6, Meta: 0.3, Fuzz: 0.1}, PartialCreditBand: 0.20}

	return New(store, gen, rr, false), store
}

func TestSearchRejectsInvalidK(t *testing.T) {
	e, _ := testEngine(t)
	if _, err := e.Search(context.Background(), "sbi fund", 0, false); err == nil {
		t.Fatalf("expected error for k=0")
	}
	if _, err := e.Search(context.Background(), "sbi fund", 101, false); err == nil {
		t.Fatalf("expected error for k=101")
	}
}

func TestSearchRespectsK(t *testing.T) {
	e, _ := testEngine(t)
	out, err := e.Search(context.Background(), "sbi fund", 1, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) > 1 {
		t.Fatalf("expected at most 1 result, got %d", len(out))
	}
}

func TestSearchWithExplainPopulatesExplanation(t *testing.T) {
	e, _ := testEngine(t)
	out, err := e.Search(context.Background(), "low risk sbi debt fund", 2, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range out {
		if r.Explanation == nil {
			t.Fatalf("expected explanation to be populated when explain=true")
		}
	}
}

func TestSearchWithoutExplainOmitsExplanation(t *testing.T) {
	e, _ := testEngine(t)
	out, err := e.Search(context.Background(), "sbi fund", 2, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range out {
		if r.Explanation != nil {
			t.Fatalf("expected no explanation when explain=false")
		}
	}
}

func TestSearchFilterSoundness(t *testing.T) {
	e, _ := testEngine(t)
	out, err := e.Search(context.Background(), "sbi funds", 5, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range out {
		if r.FundHouse != "SBI" {
			t.Fatalf("expected every result to have fund_house SBI, got %s", r.FundHouse)
		}
	}
}

func TestExplainPromptReturnsPromptAndCandidates(t *testing.T) {
	e, _ := testEngine(t)
	prompt, records, err := e.ExplainPrompt(context.Background(), "sbi debt fund")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prompt == "" {
		t.Fatalf("expected a non-empty prompt")
	}
	if len(records) == 0 {
		t.Fatalf("expected at least one candidate record")
	}
}

func TestSearchErrorsWithoutLoadedGeneration(t *testing.T) {
	e, _ := testEngine(t)
	e.Store = fund.NewStore()
	if _, err := e.Search(context.Background(), "sbi fund", 5, false); err == nil {
		t.Fatalf("expected error when no generation is loaded")
	}
}
