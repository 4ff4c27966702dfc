package vector

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// SaveVectors writes the vector array artifact: a little-endian float32,
// row-major binary blob with an 8-byte header {count uint32, dim uint32},
// with rows in the order of vectors. Only len(fundIDs) is written (as the
// count); the fund_ids themselves are not stored and no id-mapping file is
// produced.
func SaveVectors(w io.Writer, fundIDs []string, vectors [][]float32, dim int) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(fundIDs))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(dim)); err != nil {
		return fmt.Errorf("write dim: %w", err)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("vector %d has dim %d, expected %d", i, len(v), dim)
		}
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write vector %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// LoadVectors reads the vector array artifact back into row-major
// []float32 slices. It does not know fund_ids: rows come back in the order
// SaveVectors wrote them, and no count is checked against any id mapping.
func LoadVectors(r io.Reader) (vectors [][]float32, dim int, err error) {
	br := bufio.NewReader(r)
	var count, d uint32
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, 0, fmt.Errorf("read count: %w", err)
	}
	if err := binary.Read(br, binary.LittleEndian, &d); err != nil {
		return nil, 0, fmt.Errorf("read dim: %w", err)
	}
	vectors = make([][]float32, count)
	for i := range vectors {
		v := make([]float32, d)
		if err := binary.Read(br, binary.LittleEndian, v); err != nil {
			return nil, 0, fmt.Errorf("read vector %d: %w", i, err)
		}
		vectors[i] = v
	}
	return vectors, int(d), nil
}

// SaveGraph persists the ANN graph's topology: dim, m, ef, then per node
// its fund_id and adjacency list. This is the "library-native binary"
// artifact for MemoryGraph, since the library here is this package.
func SaveGraph(w io.Writer, g *MemoryGraph) error {
	bw := bufio.NewWriter(w)
	header := [3]uint32{uint32(g.dim), uint32(g.m), uint32(g.ef)}
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(g.fundIDs))); err != nil {
		return fmt.Errorf("write node count: %w", err)
	}
	for i, id := range g.fundIDs {
		idBytes := []byte(id)
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(idBytes))); err != nil {
			return fmt.Errorf("write id length: %w", err)
		}
		if _, err := bw.Write(idBytes); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		if err := binary.Write(bw, binary.LittleEndian, g.vectors[i]); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(g.edges[i]))); err != nil {
			return fmt.Errorf("write edge count: %w", err)
		}
		for _, e := range g.edges[i] {
			if err := binary.Write(bw, binary.LittleEndian, uint32(e)); err != nil {
				return fmt.Errorf("write edge: %w", err)
			}
		}
	}
	return bw.Flush()
}

// LoadGraph restores a MemoryGraph previously written by SaveGraph.
func LoadGraph(r io.Reader) (*MemoryGraph, error) {
	br := bufio.NewReader(r)
	var header [3]uint32
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	g := NewMemoryGraph(int(header[0]), int(header[1]), int(header[2]))

	var nodeCount uint32
	if err := binary.Read(br, binary.LittleEndian, &nodeCount); err != nil {
		return nil, fmt.Errorf("read node count: %w", err)
	}

	g.fundIDs = make([]string, nodeCount)
	g.vectors = make([][]float32, nodeCount)
	g.edges = make([][]int, nodeCount)

	for i := 0; i < int(nodeCount); i++ {
		var idLen uint32
		if err := binary.Read(br, binary.LittleEndian, &idLen); err != nil {
			return nil, fmt.Errorf("read id length: %w", err)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(br, idBytes); err != nil {
			return nil, fmt.Errorf("read id: %w", err)
		}
		g.fundIDs[i] = string(idBytes)
		g.byFund[g.fundIDs[i]] = i

		vec := make([]float32, g.dim)
		if err := binary.Read(br, binary.LittleEndian, vec); err != nil {
			return nil, fmt.Errorf("read vector: %w", err)
		}
		g.vectors[i] = vec

		var edgeCount uint32
		if err := binary.Read(br, binary.LittleEndian, &edgeCount); err != nil {
			return nil, fmt.Errorf("read edge count: %w", err)
		}
		edges := make([]int, edgeCount)
		for j := range edges {
			var e uint32
			if err := binary.Read(br, binary.LittleEndian, &e); err != nil {
				return nil, fmt.Errorf("read edge: %w", err)
			}
			edges[j] = int(e)
		}
		g.edges[i] = edges
	}

	return g, nil
}
