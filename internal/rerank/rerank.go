// Package rerank implements the Enhanced Reranker (§4.6): per-candidate
// semantic, metadata, and fuzzy subscores combined by a fixed weight
// vector into a final score, with an explanation record for each result.
package rerank

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/fundlens/retrieval/internal/candidates"
	"github.com/fundlens/retrieval/internal/fund"
	"github.com/fundlens/retrieval/internal/fuzzy"
	"github.com/fundlens/retrieval/internal/queryparser"
)

// Weights are the fixed metadata-constraint weights from the Metadata
// subscore table.
const (
	weightAMC        = 2.0
	weightCategory   = 1.5
	weightRiskLevel  = 1.2
	weightSector     = 1.2
	weightMinReturn  = 1.0
	weightMaxExpense = 0.8
	weightMinAUM     = 0.8

	partialMatchCredit = 0.5 // adjacent risk tier / top-3 sector allocation; see DESIGN.md
)

// IndicatorContribution is one constraint->indicator pair that
// contributed to a candidate's metadata subscore, part of the
// explanation contract.
type IndicatorContribution struct {
	Field     string
	Weight    float64
	Indicator float64
}

// Explanation is the per-candidate explanation record: subscores at
// four-decimal precision, the weighting factors as used, and the
// constraint contributions that produced the metadata subscore.
type Explanation struct {
	SemanticScore          float64
	MetadataScore          float64
	FuzzyScore             float64
	FinalScore             float64
	WeightSemantic         float64
	WeightMetadata         float64
	WeightFuzzy            float64
	SemanticFromBM25       bool // true when s_sem was substituted from the BM25 score divided by the pool's maximum BM25 score
	MetadataContributions  []IndicatorContribution
}

// Scored is one reranked candidate.
type Scored struct {
	FundID        string
	Record        *fund.FundRecord
	SemanticScore float64
	MetadataScore float64
	FuzzyScore    float64
	FinalScore    float64
	Explanation   Explanation
}

// Weights bundles the final-score fusion weights; callers typically use
// the Configuration defaults (0.6/0.3/0.1).
type Weights struct {
	Sem  float64
	Meta float64
	Fuzz float64
}

// Reranker scores and orders a candidate pool.
type Reranker struct {
	Weights           Weights
	PartialCreditBand float64
}

// Rerank scores every candidate against pq and returns the top k, sorted
// by descending final score, then descending metadata score, then
// ascending fund_id (§4.6).
func (r *Reranker) Rerank(ctx context.Context, corpus *fund.Corpus, cands []candidates.Candidate, pq *queryparser.ParsedQuery, k int) []Scored {
	bm25Max := 0.0
	for _, c := range cands {
		if c.BM25Score > bm25Max {
			bm25Max = c.BM25Score
		}
	}

	out := make([]Scored, 0, len(cands))
	for _, c := range cands {
		record, ok := corpus.Get(c.FundID)
		if !ok {
			continue
		}

		sSem, fromBM25 := r.semanticScore(c, bm25Max)
		sMeta, contributions := r.metadataScore(record, pq)
		sFuzz := r.fuzzyScore(record, pq)
		final := r.Weights.Sem*sSem + r.Weights.Meta*sMeta + r.Weights.Fuzz*sFuzz

		out = append(out, Scored{
			FundID:        c.FundID,
			Record:        record,
			SemanticScore: sSem,
			MetadataScore: sMeta,
			FuzzyScore:    sFuzz,
			FinalScore:    final,
			Explanation: Explanation{
				SemanticScore:          round4(sSem),
				MetadataScore:          round4(sMeta),
				FuzzyScore:             round4(sFuzz),
				FinalScore:             round4(final),
				WeightSemantic:         r.Weights.Sem,
				WeightMetadata:         r.Weights.Meta,
				WeightFuzzy:            r.Weights.Fuzz,
				SemanticFromBM25:       fromBM25,
				MetadataContributions:  contributions,
			},
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FinalScore != out[j].FinalScore {
			return out[i].FinalScore > out[j].FinalScore
		}
		if out[i].MetadataScore != out[j].MetadataScore {
			return out[i].MetadataScore > out[j].MetadataScore
		}
		return out[i].FundID < out[j].FundID
	})

	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// semanticScore returns s_sem in [0,1]. Candidates with a recorded cosine
// similarity use it directly (clamped to 0 at the floor, per "max(0,
// cosine)"). Candidates reached only via BM25 substitute their BM25 score
// divided by the pool's own maximum BM25 score, flagged in the
// explanation per §4.6's allowance to "mark this in the explanation".
func (r *Reranker) semanticScore(c candidates.Candidate, bm25Max float64) (float64, bool) {
	if c.FromANN {
		s := float64(c.CosineSim)
		if s < 0 {
			s = 0
		}
		return s, false
	}
	if c.FromBM25 && bm25Max > 0 {
		return c.BM25Score / bm25Max, true
	}
	return 0, false
}

func (r *Reranker) metadataScore(record *fund.FundRecord, pq *queryparser.ParsedQuery) (float64, []IndicatorContribution) {
	if len(pq.Constraints) == 0 {
		return 0, nil
	}

	var weightedSum, weightTotal float64
	var contributions []IndicatorContribution

	add := func(field string, weight, indicator float64) {
		weightedSum += weight * indicator
		weightTotal += weight
		contributions = append(contributions, IndicatorContribution{Field: field, Weight: weight, Indicator: indicator})
	}

	if c, ok := pq.Constraints["amc"]; ok {
		indicator := 0.0
		if strings.EqualFold(record.FundHouse, c.StringValue) {
			indicator = 1
		}
		add("amc", weightAMC, indicator)
	}

	if c, ok := pq.Constraints["category"]; ok {
		indicator := 0.0
		if strings.EqualFold(record.Category, c.StringValue) {
			indicator = 1
		}
		add("category", weightCategory, indicator)
	}

	if c, ok := pq.Constraints["risk_level"]; ok {
		indicator := riskIndicator(record.RiskLevel, fund.RiskLevel(c.StringValue))
		add("risk_level", weightRiskLevel, indicator)
	}

	if c, ok := pq.Constraints["sector"]; ok {
		indicator := 0.0
		if strings.EqualFold(record.Sector, c.StringValue) {
			indicator = 1
		} else {
			for _, s := range record.TopSectors(3) {
				if strings.EqualFold(s, c.StringValue) {
					indicator = partialMatchCredit
					break
				}
			}
		}
		add("sector", weightSector, indicator)
	}

	for field, c := range pq.Constraints {
		if !strings.HasPrefix(field, "min_return_") {
			continue
		}
		var value *float64
		switch field {
		case "min_return_1yr":
			value = record.Return1Yr
		case "min_return_3yr":
			value = record.Return3Yr
		case "min_return_5yr":
			value = record.Return5Yr
		}
		indicator := partialCredit(value, c.NumericValue, directionAtLeast, r.PartialCreditBand)
		add(field, weightMinReturn, indicator)
	}

	if c, ok := pq.Constraints["max_expense_ratio"]; ok {
		indicator := partialCredit(record.ExpenseRatio, c.NumericValue, directionAtMost, r.PartialCreditBand)
		add("max_expense_ratio", weightMaxExpense, indicator)
	}

	if c, ok := pq.Constraints["min_aum"]; ok {
		indicator := partialCredit(record.AUM, c.NumericValue, directionAtLeast, r.PartialCreditBand)
		add("min_aum", weightMinAUM, indicator)
	}

	if weightTotal == 0 {
		return 0, contributions
	}
	return weightedSum / weightTotal, contributions
}

func riskIndicator(actual fund.RiskLevel, wanted fund.RiskLevel) float64 {
	if actual == "" {
		return 0
	}
	if strings.EqualFold(string(actual), string(wanted)) {
		return 1
	}
	diff := actual.Ordinal() - wanted.Ordinal()
	if diff == 1 || diff == -1 {
		return partialMatchCredit
	}
	return 0
}

type direction int

const (
	directionAtLeast direction = iota // value >= threshold is full credit
	directionAtMost                   // value <= threshold is full credit
)

// partialCredit implements the shared soft-numeric-match helper named in
// §9: a single tolerance band reused by every numeric constraint. value
// is the candidate's own field value (nil means absent, scoring 0 since
// absence never satisfies a constraint); threshold is the query's bound;
// band is the relative tolerance (default 0.20).
func partialCredit(value *float64, threshold float64, dir direction, band float64) float64 {
	if value == nil {
		return 0
	}
	v := *value

	switch dir {
	case directionAtLeast:
		if v >= threshold {
			return 1
		}
		lower := threshold * (1 - band)
		if v >= lower && threshold > 0 {
			return v / threshold
		}
		return 0
	case directionAtMost:
		if v <= threshold {
			return 1
		}
		upper := threshold * (1 + band)
		if v <= upper && v > 0 {
			return threshold / v
		}
		return 0
	default:
		return 0
	}
}

func (r *Reranker) fuzzyScore(record *fund.FundRecord, pq *queryparser.ParsedQuery) float64 {
	query := pq.Residual
	if query == "" {
		return 0
	}
	best := fuzzy.TokenSetRatio(query, record.FundName)
	if s := fuzzy.TokenSetRatio(query, record.FundHouse); s > best {
		best = s
	}
	return float64(best) / 100.0
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
