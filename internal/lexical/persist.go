package lexical

import (
	"encoding/json"
	"io"
)

// snapshot is the exported JSON representation of an Index: vocabulary
// with per-term IDF values (not raw document frequencies), per-document
// term frequencies, lengths, average length, and tuning parameters, per §6's "BM25 state (single JSON ... blob with
// vocab, df, tf, lengths, params)".
type snapshot struct {
	K1        float64            `json:"k1"`
	B         float64            `json:"b"`
	AvgDocLen float64            `json:"avg_doc_len"`
	IDF       map[string]float64 `json:"idf"`
	DocIDs    []string           `json:"doc_ids"`
	DocLens   []int              `json:"doc_lens"`
	TermFreqs []map[string]int   `json:"term_freqs"`
}

// Save writes the index state to w as JSON.
func (idx *Index) Save(w io.Writer) error {
	snap := snapshot{
		K1:        idx.k1,
		B:         idx.b,
		AvgDocLen: idx.avgDocLen,
		IDF:       idx.idf,
		DocIDs:    idx.docIDs,
		DocLens:   idx.docLens,
		TermFreqs: idx.termFreqs,
	}
	return json.NewEncoder(w).Encode(snap)
}

// Load restores an Index previously written by Save.
func Load(r io.Reader) (*Index, error) {
	var snap snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, err
	}
	return &Index{
		k1:        snap.K1,
		b:         snap.B,
		avgDocLen: snap.AvgDocLen,
		idf:       snap.IDF,
		docIDs:    snap.DocIDs,
		docLens:   snap.DocLens,
		termFreqs: snap.TermFreqs,
	}, nil
}
