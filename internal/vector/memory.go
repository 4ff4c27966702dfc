package vector

import (
	"context"
	"sort"
)

// MemoryGraph is a navigable-small-world graph ANN index: each vector is a
// node connected to its M nearest neighbors found at insertion time by a
// greedy search from a single entry node (the first inserted). Search does
// a best-first walk outward from that entry node, which in practice visits
// a small fraction of the graph for typical fund-catalog sizes. This is
// the default dense index; no ANN library appears anywhere in the
// reference corpus so the graph structure and greedy-search algorithm are
// a direct, from-scratch implementation of the well-known NSW technique.
type MemoryGraph struct {
	dim int
	m   int // neighbors per node
	ef  int // candidate list size during construction/search

	fundIDs []string
	vectors [][]float32
	edges   [][]int // adjacency by node index
	byFund  map[string]int
}

// NewMemoryGraph creates an empty graph for vectors of dimensionality dim.
// m is the number of neighbors maintained per node (typical 8-32); ef is
// the candidate-list breadth used during both construction and search
// (typical 64-200). Callers on a small corpus can pass generous ef since
// cost scales with corpus size, not a fixed budget.
func NewMemoryGraph(dim, m, ef int) *MemoryGraph {
	if m < 1 {
		m = 16
	}
	if ef < m {
		ef = m * 4
	}
	return &MemoryGraph{
		dim:    dim,
		m:      m,
		ef:     ef,
		byFund: make(map[string]int),
	}
}

// Build replaces the graph's contents with entries, inserting them in the
// given order. entries must all have length dim and should already be
// L2-normalized; Build normalizes defensively regardless.
func Build(dim, m, ef int, fundIDs []string, vectors [][]float32) *MemoryGraph {
	g := NewMemoryGraph(dim, m, ef)
	for i, id := range fundIDs {
		g.Insert(id, vectors[i])
	}
	return g
}

// Insert adds one vector to the graph, connecting it to its m nearest
// existing neighbors (found via a greedy search) and updating those
// neighbors' edge lists symmetrically.
func (g *MemoryGraph) Insert(fundID string, vec []float32) {
	v := make([]float32, len(vec))
	copy(v, vec)
	normalizeL2(v)

	idx := len(g.vectors)
	g.fundIDs = append(g.fundIDs, fundID)
	g.vectors = append(g.vectors, v)
	g.edges = append(g.edges, nil)
	g.byFund[fundID] = idx

	if idx == 0 {
		return
	}

	candidates := g.greedySearch(v, g.ef, idx)
	neighbors := candidates
	if len(neighbors) > g.m {
		neighbors = neighbors[:g.m]
	}
	for _, c := range neighbors {
		g.connect(idx, c.node)
		g.connect(c.node, idx)
	}
}

func (g *MemoryGraph) connect(a, b int) {
	for _, e := range g.edges[a] {
		if e == b {
			return
		}
	}
	g.edges[a] = append(g.edges[a], b)
	if len(g.edges[a]) > g.m*2 {
		g.pruneEdges(a)
	}
}

// pruneEdges keeps only the m closest neighbors of node a, dropping the
// weakest connections once a node accumulates far more edges than its
// budget (this happens when many later inserts connect back to an early,
// well-placed node).
func (g *MemoryGraph) pruneEdges(a int) {
	type scored struct {
		node int
		sim  float32
	}
	scoredEdges := make([]scored, len(g.edges[a]))
	for i, e := range g.edges[a] {
		scoredEdges[i] = scored{node: e, sim: dot(g.vectors[a], g.vectors[e])}
	}
	sort.Slice(scoredEdges, func(i, j int) bool { return scoredEdges[i].sim > scoredEdges[j].sim })
	if len(scoredEdges) > g.m {
		scoredEdges = scoredEdges[:g.m]
	}
	kept := make([]int, len(scoredEdges))
	for i, s := range scoredEdges {
		kept[i] = s.node
	}
	g.edges[a] = kept
}

type candidate struct {
	node int
	sim  float32
}

// greedySearch does a best-first walk over the graph starting from node 0
// (node 1 when node 0 is the excluded node), expanding the
// frontier by each visited node's neighbors and keeping the ef
// highest-similarity candidates seen. exclude, if >= 0, is never returned
// (used during Insert to avoid a node linking to itself).
func (g *MemoryGraph) greedySearch(query []float32, ef, exclude int) []candidate {
	if len(g.vectors) == 0 {
		return nil
	}

	visited := make(map[int]bool)
	entry := 0
	if entry == exclude && len(g.vectors) > 1 {
		entry = 1
	}
	visited[entry] = true

	frontier := []candidate{{node: entry, sim: dot(query, g.vectors[entry])}}
	best := append([]candidate(nil), frontier...)

	for len(frontier) > 0 {
		sort.Slice(frontier, func(i, j int) bool { return frontier[i].sim > frontier[j].sim })
		cur := frontier[0]
		frontier = frontier[1:]

		improved := false
		for _, nb := range g.edges[cur.node] {
			if nb == exclude || visited[nb] {
				continue
			}
			visited[nb] = true
			c := candidate{node: nb, sim: dot(query, g.vectors[nb])}
			best = append(best, c)
			frontier = append(frontier, c)
			improved = true
		}
		if len(best) >= ef && !improved {
			break
		}
		if len(frontier) > ef {
			sort.Slice(frontier, func(i, j int) bool { return frontier[i].sim > frontier[j].sim })
			frontier = frontier[:ef]
		}
	}

	sort.Slice(best, func(i, j int) bool { return best[i].sim > best[j].sim })
	if len(best) > ef {
		best = best[:ef]
	}
	return best
}

func dot(a, b []float32) float32 {
	var s float32
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		s += a[i] * b[i]
	}
	return s
}

// Search implements Index.
func (g *MemoryGraph) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalizeL2(q)

	ef := g.ef
	if k > ef {
		ef = k * 2
	}
	candidates := g.greedySearch(q, ef, -1)

	out := make([]Result, 0, k)
	for _, c := range candidates {
		out = append(out, Result{FundID: g.fundIDs[c.node], Score: clampSim(c.sim)})
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func clampSim(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

// Len implements Index.
func (g *MemoryGraph) Len() int { return len(g.vectors) }

// Dim implements Index.
func (g *MemoryGraph) Dim() int { return g.dim }

// Vector returns the stored (normalized) vector for fundID, if present.
func (g *MemoryGraph) Vector(fundID string) ([]float32, bool) {
	idx, ok := g.byFund[fundID]
	if !ok {
		return nil, false
	}
	return g.vectors[idx], true
}
