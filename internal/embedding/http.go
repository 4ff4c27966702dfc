package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/fundlens/retrieval/internal/engineerr"
)

// HTTPEmbedder calls an OpenAI-compatible /v1/embeddings endpoint,
// guarding the call with a circuit breaker (so a stalled provider fails
// fast instead of piling up blocked requests) and a rate limiter (so a
// burst of query traffic does not overwhelm the provider). This is the
// only Embedder implementation; it is the injected capability the rest of
// the engine is built against via the Embedder interface.
type HTTPEmbedder struct {
	baseURL string
	apiKey  string
	model   string
	dim     int
	client  *http.Client

	breaker *gobreaker.CircuitBreaker[[][]float32]
	limiter *rate.Limiter
}

// NewHTTPEmbedder creates an HTTPEmbedder. dim is the expected output
// dimensionality (validated on every call); ratePerSecond bounds how
// often the provider is called (burst of 1 ratePerSecond-worth of calls).
func NewHTTPEmbedder(baseURL, apiKey, model string, dim int, ratePerSecond float64) *HTTPEmbedder {
	st := gobreaker.Settings{
		Name:        "embedding-provider",
		MaxRequests: 1,
		Timeout:     0, // use library default open->half-open timeout
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	burst := int(math.Max(1, ratePerSecond))
	return &HTTPEmbedder{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		dim:     dim,
		client:  http.DefaultClient,
		breaker: gobreaker.NewCircuitBreaker[[][]float32](st),
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingData struct {
	Embedding []float64 `json:"embedding"`
}

type embeddingsResponse struct {
	Data []embeddingData `json:"data"`
}

// EmbedTexts implements Embedder.
func (c *HTTPEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: empty input array", engineerr.ErrInvalidInput)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, engineerr.Wrap(err, "rate limit wait")
	}

	vectors, err := c.breaker.Execute(func() ([][]float32, error) {
		return c.doEmbed(ctx, texts)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engineerr.ErrEmbeddingProvider, err)
	}
	return vectors, nil
}

func (c *HTTPEmbedder) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	url := fmt.Sprintf("%s/v1/embeddings", c.baseURL)
	body, err := json.Marshal(embeddingsRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(parsed.Data))
	}

	out := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		if len(d.Embedding) != c.dim {
			return nil, fmt.Errorf("embedding %d has dim %d, expected %d", i, len(d.Embedding), c.dim)
		}
		vec := make([]float32, len(d.Embedding))
		var sumSq float64
		for j, v := range d.Embedding {
			vec[j] = float32(v)
			sumSq += v * v
		}
		if sumSq > 0 {
			norm := float32(1 / math.Sqrt(sumSq))
			for j := range vec {
				vec[j] *= norm
			}
		}
		out[i] = vec
	}
	return out, nil
}

// Dim implements Embedder.
func (c *HTTPEmbedder) Dim() int { return c.dim }
