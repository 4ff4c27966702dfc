// Package candidates implements the Candidate Generator (§4.5): it turns
// a ParsedQuery into a pool of candidate fund_ids by applying hard
// metadata filters, then fanning out to BM25 and ANN over the residual
// semantic query, unioning the two result sets.
package candidates

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/fundlens/retrieval/internal/embedding"
	"github.com/fundlens/retrieval/internal/fund"
	"github.com/fundlens/retrieval/internal/lexical"
	"github.com/fundlens/retrieval/internal/normalize"
	"github.com/fundlens/retrieval/internal/queryparser"
	"github.com/fundlens/retrieval/internal/vector"
)

// poolExpansionFactor over-fetches from the lexical/dense indices before
// filtering to the hard-filtered pool P, since both indices rank over the
// whole corpus and a narrow pool can otherwise starve the requested K.
const poolExpansionFactor = 5

// Candidate is one pool member before reranking: the raw per-source
// scores the reranker needs, 0 when a source did not surface the fund.
type Candidate struct {
	FundID     string
	BM25Score  float64
	CosineSim  float32
	FromBM25   bool
	FromANN    bool
	FromFilter bool // true if it reached the pool purely via metadata filters (small-pool shortcut)
}

// Generator wires the shared indices the generator fans out to.
type Generator struct {
	Lexical            *lexical.Index
	Dense              vector.Index
	Embedder           embedding.Embedder
	SmallPoolThreshold int
	KBM25              int
	KANN               int
	// LexicalOnly skips the embedding/ANN path entirely, the only path
	// §7 allows for a partial-result search ("a partial result path is
	// only taken when the caller explicitly requests lexical-only search").
	LexicalOnly bool
}

// hardFilterFields are the high-precision equality constraints applied
// before any ranked retrieval runs (§4.5 step 1).
var hardFilterFields = map[string]func(*fund.FundRecord) string{
	"amc":      func(f *fund.FundRecord) string { return f.FundHouse },
	"category": func(f *fund.FundRecord) string { return f.Category },
	"sector":   func(f *fund.FundRecord) string { return f.Sector },
}

// Generate computes the candidate pool for one request. corpus is the
// generation borrow the caller took for this request (§5 generation-swap
// atomicity); the same borrow must be used for every sub-lookup.
func (g *Generator) Generate(ctx context.Context, corpus *fund.Corpus, pq *queryparser.ParsedQuery, k int) ([]Candidate, error) {
	pool := g.hardFilteredPool(corpus, pq)

	if len(pq.Constraints) == 0 && pq.Residual == "" {
		return nil, nil
	}

	if len(pool) <= g.SmallPoolThreshold {
		out := make([]Candidate, len(pool))
		for i, id := range pool {
			out[i] = Candidate{FundID: id, FromFilter: true}
		}
		return out, nil
	}

	if pq.Residual == "" {
		out := make([]Candidate, len(pool))
		for i, id := range pool {
			out[i] = Candidate{FundID: id, FromFilter: true}
		}
		return out, nil
	}

	inPool := make(map[string]bool, len(pool))
	for _, id := range pool {
		inPool[id] = true
	}

	kBM25 := g.KBM25
	if want := 3 * k; want > kBM25 {
		kBM25 = want
	}
	kANN := g.KANN
	if want := 3 * k; want > kANN {
		kANN = want
	}

	var (
		bm25Results []lexical.Result
		annResults  []vector.Result
		annErr      error
		wg          sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		normalizedQuery := normalize.Text(pq.Residual)
		bm25Results = g.Lexical.Search(normalizedQuery, kBM25*poolExpansionFactor)
	}()

	if !g.LexicalOnly {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vecs, err := g.Embedder.EmbedTexts(ctx, []string{pq.Residual})
			if err != nil {
				annErr = err
				return
			}
			annResults, annErr = g.Dense.Search(ctx, vecs[0], kANN*poolExpansionFactor)
		}()
	}

	wg.Wait()
	if annErr != nil {
		return nil, annErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := make(map[string]*Candidate)

	bm25Kept := 0
	for _, r := range bm25Results {
		if !inPool[r.FundID] || bm25Kept >= kBM25 {
			continue
		}
		bm25Kept++
		c := getOrCreate(merged, r.FundID)
		c.BM25Score = r.Score
		c.FromBM25 = true
	}

	annKept := 0
	for _, r := range annResults {
		if !inPool[r.FundID] || annKept >= kANN {
			continue
		}
		annKept++
		c := getOrCreate(merged, r.FundID)
		c.CosineSim = r.Score
		c.FromANN = true
	}

	out := make([]Candidate, 0, len(merged))
	for _, c := range merged {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FundID < out[j].FundID })
	return out, nil
}

func getOrCreate(m map[string]*Candidate, fundID string) *Candidate {
	c, ok := m[fundID]
	if !ok {
		c = &Candidate{FundID: fundID}
		m[fundID] = c
	}
	return c
}

// hardFilteredPool returns the sorted set of fund_ids passing every
// equality constraint present in pq that names a hard-filter field. If pq
// has no hard-filter constraints, the pool is the entire corpus.
func (g *Generator) hardFilteredPool(corpus *fund.Corpus, pq *queryparser.ParsedQuery) []string {
	active := make(map[string]string) // field -> expected value
	for field := range hardFilterFields {
		if c, ok := pq.Constraints[field]; ok && c.Kind == queryparser.KindEquals {
			active[field] = c.StringValue
		}
	}
	if len(active) == 0 {
		return corpus.IDs()
	}
	return corpus.Filter(func(f *fund.FundRecord) bool {
		for field, want := range active {
			got := hardFilterFields[field](f)
			if !strings.EqualFold(got, want) {
				return false
			}
		}
		return true
	})
}
