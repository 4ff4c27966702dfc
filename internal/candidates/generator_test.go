package candidates

import (
	"context"
	"testing"

	"github.com/fundlens/retrieval/internal/fund"
	"github.com/fundlens/retrieval/internal/lexical"
	"github.com/fundlens/retrieval/internal/normalize"
	"github.com/fundlens/retrieval/internal/queryparser"
	"github.com/fundlens/retrieval/internal/vector"
)

func ptr(v float64) *float64 { return &v }

func testCorpus() *fund.Corpus {
	records := []*fund.FundRecord{
		{FundID: "F1", FundName: "SBI Technology Fund", FundHouse: "SBI", Category: "Equity", Sector: "Technology", Description: "sbi technology fund equity sector"},
		{FundID: "F2", FundName: "SBI Debt Fund", FundHouse: "SBI", Category: "Debt", Sector: "", Description: "sbi debt fund"},
		{FundID: "F3", FundName: "HDFC Technology Fund", FundHouse: "HDFC", Category: "Equity", Sector: "Technology", Description: "hdfc technology fund equity sector"},
	}
	return fund.NewCorpus("gen-1", records)
}

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

func buildGenerator(t *testing.T, corpus *fund.Corpus) *Generator {
	t.Helper()
	docs := make([]lexical.Document, 0, corpus.Len())
	fundIDs := make([]string, 0, corpus.Len())
	vecs := make([][]float32, 0, corpus.Len())
	for _, id := range corpus.IDs() {
		f, _ := corpus.Get(id)
		docs = append(docs, lexical.Document{FundID: id, Text: normalize.Text(f.Description)})
		fundIDs = append(fundIDs, id)
		vecs = append(vecs, []float32{1, 0})
	}
	idx := lexical.NewIndex(docs, lexical.DefaultK1, lexical.DefaultB)
	dense := vector.Build(2, 4, 8, fundIDs, vecs)
	return &Generator{
		Lexical:            idx,
		Dense:              dense,
		Embedder:           stubEmbedder{dim: 2},
		SmallPoolThreshold: 1,
		KBM25:              50,
		KANN:               50,
	}
}

func TestGenerateSmallPoolShortcut(t *testing.T) {
	corpus := testCorpus()
	gen := buildGenerator(t, corpus)
	gen.SmallPoolThreshold = 200

	pq := queryparser.Parse("sbi funds")
	out, err := gen.Generate(context.Background(), corpus, pq, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 SBI funds in the small pool, got %d: %+v", len(out), out)
	}
	for _, c := range out {
		if !c.FromFilter {
			t.Errorf("expected FromFilter=true for %s in small-pool shortcut", c.FundID)
		}
	}
}

func TestGenerateEmptyParsedQueryReturnsEmpty(t *testing.T) {
	corpus := testCorpus()
	gen := buildGenerator(t, corpus)
	pq := queryparser.Parse("")
	out, err := gen.Generate(context.Background(), corpus, pq, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no candidates for an empty parsed query, got %+v", out)
	}
}

func TestGenerateFansOutWhenPoolLarge(t *testing.T) {
	corpus := testCorpus()
	gen := buildGenerator(t, corpus)
	gen.SmallPoolThreshold = 0

	pq := queryparser.Parse("technology fund")
	out, err := gen.Generate(context.Background(), corpus, pq, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected at least one candidate from BM25/ANN fan-out")
	}
}
