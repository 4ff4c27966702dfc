// Package engine wires the Corpus Store, Query Parser, Candidate
// Generator, Reranker, and Prompt Builder into the top-level Search and
// ExplainPrompt operations described in the External Interfaces section.
package engine

import (
	"context"
	"fmt"

	"github.com/fundlens/retrieval/internal/candidates"
	"github.com/fundlens/retrieval/internal/ctxlog"
	"github.com/fundlens/retrieval/internal/engineerr"
	"github.com/fundlens/retrieval/internal/fund"
	"github.com/fundlens/retrieval/internal/promptbuilder"
	"github.com/fundlens/retrieval/internal/queryparser"
	"github.com/fundlens/retrieval/internal/rerank"
)

const explainPromptK = 3

// Result is one scored result returned by Search, matching the External
// Interfaces output contract. Explanation is nil unless the caller
// requested explain=true.
type Result struct {
	FundID        string
	FundName      string
	FundHouse     string
	Category      string
	SubCategory   string
	RiskLevel     string
	FinalScore    float64
	SemanticScore float64
	MetadataScore float64
	FuzzyScore    float64
	Explanation   *rerank.Explanation
}

// Engine holds the shared, generation-swapped corpus store plus the
// stateless pipeline stages built from Configuration. A single Engine is
// safe for concurrent Search/ExplainPrompt calls.
type Engine struct {
	Store       *fund.Store
	Generator   *candidates.Generator
	Reranker    *rerank.Reranker
	LexicalOnly bool // if true, Search skips the embedding/ANN path entirely
}

// New builds an Engine from the already-wired generator/reranker
// (constructed once at build/load time from Configuration and the
// persisted index artifacts). lexicalOnly, if set, makes every Search on
// this Engine skip the embedding/ANN path (the one caller-requested
// partial-result mode §7 allows).
func New(store *fund.Store, generator *candidates.Generator, reranker *rerank.Reranker, lexicalOnly bool) *Engine {
	generator.LexicalOnly = lexicalOnly
	return &Engine{Store: store, Generator: generator, Reranker: reranker, LexicalOnly: lexicalOnly}
}

// Search executes one query end-to-end: parse -> generate candidates ->
// rerank -> top-k. It borrows exactly one corpus generation for the
// entire request, satisfying the generation-swap atomicity invariant.
func (e *Engine) Search(ctx context.Context, query string, k int, explain bool) ([]Result, error) {
	if k < 1 || k > 100 {
		return nil, engineerr.Wrap(engineerr.ErrInvalidInput, fmt.Sprintf("k must be in [1,100], got %d", k))
	}

	corpus := e.Store.Current()
	if corpus == nil {
		return nil, engineerr.Wrap(engineerr.ErrNotFound, "no corpus generation loaded")
	}

	pq := queryparser.Parse(query)
	for _, w := range pq.Warnings {
		ctxlog.FromContext(ctx).Warn("parse warning", "query", query, "detail", w)
	}

	cands, err := e.Generator.Generate(ctx, corpus, pq, k)
	if err != nil {
		if ctx.Err() != nil {
			return nil, engineerr.Wrap(engineerr.ErrDeadlineExceeded, "search cancelled")
		}
		return nil, engineerr.Wrap(engineerr.ErrEmbeddingProvider, err.Error())
	}

	scored := e.Reranker.Rerank(ctx, corpus, cands, pq, k)

	results := make([]Result, len(scored))
	for i, s := range scored {
		r := Result{
			FundID:        s.FundID,
			FundName:      s.Record.FundName,
			FundHouse:     s.Record.FundHouse,
			Category:      s.Record.Category,
			SubCategory:   s.Record.SubCategory,
			RiskLevel:     string(s.Record.RiskLevel),
			FinalScore:    s.FinalScore,
			SemanticScore: s.SemanticScore,
			MetadataScore: s.MetadataScore,
			FuzzyScore:    s.FuzzyScore,
		}
		if explain {
			exp := s.Explanation
			r.Explanation = &exp
		}
		results[i] = r
	}
	return results, nil
}

// ExplainPrompt runs Search fixed at k=3 and formats the results into the
// RAG advisor prompt. Output is a pure function of (query, top-3
// candidates) for a fixed corpus generation.
func (e *Engine) ExplainPrompt(ctx context.Context, query string) (string, []*fund.FundRecord, error) {
	corpus := e.Store.Current()
	if corpus == nil {
		return "", nil, engineerr.Wrap(engineerr.ErrNotFound, "no corpus generation loaded")
	}

	pq := queryparser.Parse(query)
	cands, err := e.Generator.Generate(ctx, corpus, pq, explainPromptK)
	if err != nil {
		return "", nil, engineerr.Wrap(engineerr.ErrEmbeddingProvider, err.Error())
	}
	scored := e.Reranker.Rerank(ctx, corpus, cands, pq, explainPromptK)

	records := make([]*fund.FundRecord, len(scored))
	for i, s := range scored {
		records[i] = s.Record
	}

	prompt := promptbuilder.Build(query, scored)
	return prompt, records, nil
}
