package vector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/fundlens/retrieval/internal/ctxlog"
)

// QdrantIndex implements Index against a remote Qdrant collection. It is
// an alternate backend to MemoryGraph for corpora too large to hold a
// graph in process memory; the Search contract (unit-norm query in,
// inner-product Result out) is identical either way so the candidate
// generator can swap backends without caring which one is active.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dim        int
}

// NewQdrantIndex creates a Qdrant-backed dense index client. urlStr should
// be in the form "http://host:port"; the gRPC port is derived as the HTTP
// port + 1, matching Qdrant's default port layout.
func NewQdrantIndex(urlStr, collection string, dim int) (*QdrantIndex, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if parsedURL.Port() != "" {
		if httpPort, err := strconv.Atoi(parsedURL.Port()); err == nil {
			port = httpPort + 1
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantIndex{client: client, collection: collection, dim: dim}, nil
}

// EnsureCollection creates the backing collection with cosine distance if
// it does not already exist, or validates the existing vector size.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		logger.InfoContext(ctx, "creating qdrant collection", "collection", q.collection, "dim", q.dim)
		return q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: q.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(q.dim),
				Distance: qdrant.Distance_Cosine,
			}),
		})
	}

	info, err := q.client.GetCollectionInfo(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil || params.Size == 0 {
		return fmt.Errorf("could not determine collection vector size")
	}
	if int(params.Size) != q.dim {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", q.dim, params.Size)
	}
	return nil
}

// Upsert loads fund vectors into the collection, keyed by fund_id.
func (q *QdrantIndex) Upsert(ctx context.Context, fundIDs []string, vectors [][]float32, meta []map[string]any) error {
	logger := ctxlog.FromContext(ctx)
	if len(fundIDs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(fundIDs))
	for i, id := range fundIDs {
		p := &qdrant.PointStruct{
			Id:      qdrant.NewID(id),
			Vectors: qdrant.NewVectors(vectors[i]...),
		}
		if i < len(meta) && len(meta[i]) > 0 {
			p.Payload = qdrant.NewValueMap(meta[i])
		}
		points[i] = p
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         points,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert vectors", "collection", q.collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	return nil
}

// Search implements Index. It applies no payload filters; SearchFiltered
// is the variant that restricts results by amc/category/sector/risk_level.
func (q *QdrantIndex) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	return q.SearchFiltered(ctx, query, k, nil)
}

// SearchFiltered is Search plus an optional equality-filter map over
// payload fields (amc, category, sector, risk_level).
func (q *QdrantIndex) SearchFiltered(ctx context.Context, query []float32, k int, filters map[string]string) ([]Result, error) {
	logger := ctxlog.FromContext(ctx)
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	var qdrantFilter *qdrant.Filter
	if len(filters) > 0 {
		must := make([]*qdrant.Condition, 0, len(filters))
		for field, value := range filters {
			must = append(must, qdrant.NewMatch(field, value))
		}
		qdrantFilter = &qdrant.Filter{Must: must}
	}

	limit := uint64(k)
	req := &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if qdrantFilter != nil {
		req.Filter = qdrantFilter
	}

	scored, err := q.client.Query(ctx, req)
	if err != nil {
		logger.ErrorContext(ctx, "qdrant search failed", "collection", q.collection, "k", k, "error", err)
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	results := make([]Result, 0, len(scored))
	for _, r := range scored {
		id := ""
		if r.Id != nil {
			id = r.Id.GetUuid()
			if id == "" {
				id = fmt.Sprintf("%d", r.Id.GetNum())
			}
		}
		results = append(results, Result{FundID: id, Score: r.Score})
	}
	return results, nil
}

// Len implements Index by querying the collection's point count.
func (q *QdrantIndex) Len() int {
	ctx := context.Background()
	info, err := q.client.GetCollectionInfo(ctx, q.collection)
	if err != nil || info.PointsCount == nil {
		return 0
	}
	return int(*info.PointsCount)
}

// Dim implements Index.
func (q *QdrantIndex) Dim() int { return q.dim }
