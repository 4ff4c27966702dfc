package promptbuilder

import (
	"strings"
	"testing"

	"github.com/fundlens/retrieval/internal/fund"
	"github.com/fundlens/retrieval/internal/rerank"
)

func ptr(v float64) *float64 { return &v }

func TestBuildFillsMissingSlotsWithPlaceholder(t *testing.T) {
	cands := []rerank.Scored{
		{Record: &fund.FundRecord{FundID: "F1", FundName: "SBI Technology Fund", FundHouse: "SBI", Category: "Equity", RiskLevel: fund.RiskHigh, Return1Yr: ptr(12.5)}},
	}
	prompt := Build("technology fund", cands)

	if !strings.Contains(prompt, "FUND 1: SBI Technology Fund") {
		t.Fatalf("expected FUND 1 to contain the fund name, got:\n%s", prompt)
	}
	if strings.Count(prompt, emptySlotPlaceholder) != 2 {
		t.Fatalf("expected 2 empty-slot placeholders for FUND 2 and FUND 3, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "1yr: 12.5%") {
		t.Fatalf("expected return_1yr rendered, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "3yr: N/A") {
		t.Fatalf("expected missing return_3yr to render as N/A, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "N/A%") {
		t.Fatalf("expected N/A to render without a trailing percent sign, got:\n%s", prompt)
	}
}

func TestBuildIsPureFunctionOfInputs(t *testing.T) {
	cands := []rerank.Scored{
		{Record: &fund.FundRecord{FundID: "F1", FundName: "Fund A", FundHouse: "SBI"}},
	}
	a := Build("query", cands)
	b := Build("query", cands)
	if a != b {
		t.Fatalf("expected Build to be deterministic for identical inputs")
	}
}

func TestBuildEscapesQuoteInQuery(t *testing.T) {
	prompt := Build(`fund with "quotes"`, nil)
	if !strings.Contains(prompt, `A user asked: "fund with \"quotes\"".`) {
		t.Fatalf("expected the query line with escaped quotes, got:\n%s", prompt)
	}
}
