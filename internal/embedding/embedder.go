// Package embedding wraps the injected embedding capability: a function
// embed(text) -> R^d that is deterministic for a given model version and
// whose output this package L2-normalizes before returning, per the Dense
// Index's contract with the embedding provider.
package embedding

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks github.com/fundlens/retrieval/internal/embedding Embedder

import "context"

// Embedder turns text into fixed-dimensionality, unit-norm vectors.
type Embedder interface {
	// EmbedTexts embeds each text, returning one vector per input in the
	// same order. Every returned vector has length Dim() and unit L2 norm.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// Dim reports the embedding dimensionality this Embedder produces.
	Dim() int
}
