// Package lexical implements the BM25 lexical index: an inverted index
// over normalized tokens of each fund's description and key metadata
// fields, used for fast recall on keyword- and name-heavy queries.
package lexical

import (
	"math"
	"sort"

	"github.com/fundlens/retrieval/internal/normalize"
)

// DefaultK1 and DefaultB are the tuning defaults.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// Result is one scored document from a BM25 lookup.
type Result struct {
	FundID string
	Score  float64
}

// Index is an Okapi BM25 inverted index built over a fixed document set
// (one composite document per fund). It is immutable once built; a
// rebuild constructs a new Index rather than mutating this one, matching
// the generation-swap model of the surrounding corpus.
type Index struct {
	k1, b float64

	docIDs    []string // fund_id per document index, ascending
	termFreqs []map[string]int
	docLens   []int
	avgDocLen float64
	idf       map[string]float64
}

// Document is one fund's composite text before tokenization.
type Document struct {
	FundID string
	Text   string // already-normalized text (see internal/normalize)
}

// NewIndex builds a BM25 index over docs using k1 and b. Documents are
// sorted by fund_id ascending so that score-tie resolution downstream can
// rely on stable enumeration order.
func NewIndex(docs []Document, k1, b float64) *Index {
	sorted := make([]Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FundID < sorted[j].FundID })

	idx := &Index{
		k1:        k1,
		b:         b,
		docIDs:    make([]string, len(sorted)),
		termFreqs: make([]map[string]int, len(sorted)),
		docLens:   make([]int, len(sorted)),
	}

	docFreq := make(map[string]int)
	var totalLen int
	for i, d := range sorted {
		idx.docIDs[i] = d.FundID
		toks := normalize.Tokens(d.Text)
		tf := make(map[string]int, len(toks))
		for _, t := range toks {
			tf[t]++
		}
		idx.termFreqs[i] = tf
		idx.docLens[i] = len(toks)
		totalLen += len(toks)
		for t := range tf {
			docFreq[t]++
		}
	}

	n := len(sorted)
	if n > 0 {
		idx.avgDocLen = float64(totalLen) / float64(n)
	}

	idx.idf = make(map[string]float64, len(docFreq))
	for term, df := range docFreq {
		idx.idf[term] = math.Log((float64(n)-float64(df)+0.5)/(float64(df)+0.5) + 1)
	}

	return idx
}

// Search tokenizes an already-normalized query the same way documents
// were tokenized and returns up to limit results ordered by descending
// score, ties broken by ascending fund_id. An empty or stop-only query
// (no recognized terms) returns an empty, non-error result.
func (idx *Index) Search(normalizedQuery string, limit int) []Result {
	queryTerms := normalize.Tokens(normalizedQuery)
	if len(queryTerms) == 0 {
		return nil
	}

	results := make([]Result, 0, len(idx.docIDs))
	for i := range idx.docIDs {
		s := idx.scoreDoc(i, queryTerms)
		if s > 0 {
			results = append(results, Result{FundID: idx.docIDs[i], Score: s})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].FundID < results[j].FundID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (idx *Index) scoreDoc(docIndex int, queryTerms []string) float64 {
	tf := idx.termFreqs[docIndex]
	docLen := float64(idx.docLens[docIndex])
	var score float64
	for _, term := range queryTerms {
		freq, ok := tf[term]
		if !ok {
			continue
		}
		idfVal := idx.idf[term]
		numerator := float64(freq) * (idx.k1 + 1)
		denominator := float64(freq) + idx.k1*(1-idx.b+idx.b*docLen/idx.avgDocLen)
		score += idfVal * numerator / denominator
	}
	return score
}

// Len reports the number of documents in the index.
func (idx *Index) Len() int { return len(idx.docIDs) }
