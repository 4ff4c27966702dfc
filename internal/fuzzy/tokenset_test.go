package fuzzy

import "testing"

func TestTokenSetRatioIdenticalStrings(t *testing.T) {
	if r := TokenSetRatio("HDFC Flexicap Fund", "HDFC Flexicap Fund"); r != 100 {
		t.Fatalf("expected 100 for identical strings, got %d", r)
	}
}

func TestTokenSetRatioMisspelledMatch(t *testing.T) {
	r := TokenSetRatio("hdfc flexcap", "HDFC Flexicap Fund")
	if r < 85 {
		t.Fatalf("expected ratio >= 85 for near-match, got %d", r)
	}
}

func TestTokenSetRatioUnrelatedStrings(t *testing.T) {
	r := TokenSetRatio("SBI Technology Fund", "Axis Liquid Fund")
	if r > 60 {
		t.Fatalf("expected low ratio for unrelated strings, got %d", r)
	}
}

func TestTokenSetRatioEmptyInputs(t *testing.T) {
	if r := TokenSetRatio("", ""); r != 100 {
		t.Fatalf("expected 100 for two empty strings, got %d", r)
	}
	if r := TokenSetRatio("fund", ""); r != 0 {
		t.Fatalf("expected 0 when one side is empty, got %d", r)
	}
}

func TestTokenSetRatioIgnoresWordOrder(t *testing.T) {
	r := TokenSetRatio("Technology SBI Fund", "SBI Technology Fund")
	if r != 100 {
		t.Fatalf("expected 100 regardless of word order, got %d", r)
	}
}
