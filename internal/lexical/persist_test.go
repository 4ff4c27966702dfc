package lexical

import (
	"bytes"
	"testing"

	"github.com/fundlens/retrieval/internal/normalize"
)

func TestSaveLoadRoundTripsSearchResults(t *testing.T) {
	idx := newTestIndex()

	var buf bytes.Buffer
	if err := idx.Save(&buf); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	restored, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	query := normalize.Text("technology fund")
	want := idx.Search(query, 10)
	got := restored.Search(query, 10)

	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].FundID != want[i].FundID || got[i].Score != want[i].Score {
			t.Fatalf("result %d mismatch: want %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestSaveLoadPreservesLen(t *testing.T) {
	idx := newTestIndex()

	var buf bytes.Buffer
	if err := idx.Save(&buf); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	restored, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if restored.Len() != idx.Len() {
		t.Fatalf("expected Len() %d, got %d", idx.Len(), restored.Len())
	}
}
