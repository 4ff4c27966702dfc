package lexical

import (
	"testing"

	"github.com/fundlens/retrieval/internal/normalize"
)

func newTestIndex() *Index {
	docs := []Document{
		{FundID: "F2", Text: normalize.Text("SBI Technology Fund invests in technology sector companies")},
		{FundID: "F1", Text: normalize.Text("HDFC Debt Fund invests in government bonds")},
		{FundID: "F3", Text: normalize.Text("Axis Technology Opportunities Fund technology focused equity")},
	}
	return NewIndex(docs, DefaultK1, DefaultB)
}

func TestSearchRanksMatchingDocsAboveNonMatching(t *testing.T) {
	idx := newTestIndex()
	results := idx.Search(normalize.Text("technology fund"), 10)
	if len(results) == 0 {
		t.Fatalf("expected at least one result")
	}
	for _, r := range results {
		if r.FundID == "F1" {
			t.Fatalf("F1 should not match a technology query at all, got %+v", r)
		}
	}
}

func TestSearchEmptyQueryReturnsEmptyNotError(t *testing.T) {
	idx := newTestIndex()
	results := idx.Search("", 10)
	if results != nil {
		t.Fatalf("expected nil/empty results for empty query, got %v", results)
	}
}

func TestSearchStopOnlyQueryReturnsEmpty(t *testing.T) {
	idx := newTestIndex()
	results := idx.Search(normalize.Text("xyzzy nonexistent"), 10)
	if len(results) != 0 {
		t.Fatalf("expected no results for tokens absent from the corpus, got %v", results)
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	idx := newTestIndex()
	results := idx.Search(normalize.Text("fund technology invests"), 1)
	if len(results) != 1 {
		t.Fatalf("expected exactly 1 result with limit=1, got %d", len(results))
	}
}

func TestSearchTieBreaksByAscendingFundID(t *testing.T) {
	docs := []Document{
		{FundID: "F9", Text: normalize.Text("balanced fund")},
		{FundID: "F1", Text: normalize.Text("balanced fund")},
	}
	idx := NewIndex(docs, DefaultK1, DefaultB)
	results := idx.Search(normalize.Text("balanced fund"), 10)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].FundID != "F1" || results[1].FundID != "F9" {
		t.Fatalf("expected tie broken by ascending fund_id, got %+v", results)
	}
}
