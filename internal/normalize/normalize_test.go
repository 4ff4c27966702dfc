package normalize

import (
	"strings"
	"testing"
)

func TestTextLowercasesAndCollapsesWhitespace(t *testing.T) {
	got := Text("  SBI   Technology   Fund  ")
	want := "sbi technology fund"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTextStripsPunctuationButKeepsHyphensAndPercent(t *testing.T) {
	got := Text("Large-Cap fund, returns: 12% p.a.!")
	want := "large-cap fund returns 12% p a"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTextExpandsAbbreviations(t *testing.T) {
	got := Text("ELSS fund from an AMC")
	if got == "" {
		t.Fatalf("expected non-empty normalized text")
	}
	if !strings.Contains(got, "tax-saving equity-linked saving scheme") {
		t.Fatalf("expected elss expansion, got %q", got)
	}
	if !strings.Contains(got, "asset management company") {
		t.Fatalf("expected amc expansion, got %q", got)
	}
}

func TestTextIsIdempotent(t *testing.T) {
	once := Text("SBI Small Cap Fund - 12% returns")
	twice := Text(once)
	if once != twice {
		t.Fatalf("normalization should be idempotent: %q != %q", once, twice)
	}
}

func TestTokens(t *testing.T) {
	toks := Tokens(Text("HDFC Flexi Cap Fund"))
	if len(toks) != 4 {
		t.Fatalf("expected 4 tokens, got %d (%v)", len(toks), toks)
	}
}
