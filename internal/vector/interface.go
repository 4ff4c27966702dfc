// Package vector implements the Dense Index: an approximate-nearest-
// neighbor index over L2-normalized fund-description embeddings, searched
// under inner-product similarity (equivalent to cosine since vectors are
// unit-norm).
package vector

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_index.go -package=mocks github.com/fundlens/retrieval/internal/vector Index

import (
	"context"
	"math"
)

// Result is one scored neighbor from an ANN lookup.
type Result struct {
	FundID string
	Score  float32 // inner-product similarity, in [-1, 1]
}

// Index is the dense retrieval contract used by the candidate generator.
// Implementations: MemoryGraph (the default, in-process navigable small
// world graph) and QdrantIndex (a remote, pluggable backend).
type Index interface {
	// Search returns up to k nearest neighbors of query by inner-product
	// similarity. query must already be L2-normalized.
	Search(ctx context.Context, query []float32, k int) ([]Result, error)
	// Len reports how many vectors are indexed.
	Len() int
	// Dim reports the configured vector dimensionality.
	Dim() int
}

// normalizeL2 scales v in place to unit L2 norm. A zero vector is left
// unchanged (there is nothing to normalize).
func normalizeL2(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(1.0 / math.Sqrt(sumSq))
	for i := range v {
		v[i] *= norm
	}
}
