// Package normalize implements the Text Normalizer: the single
// normalization routine applied identically to fund descriptions at build
// time and to queries at search time, plus description synthesis from
// fund metadata at ingestion.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var caser = cases.Lower(language.Und)

// abbreviations is the fixed expansion dictionary. Expansion happens after
// case-folding so lookups are always lowercase. A couple of common query
// typos are folded in here too, rather than as a separate pass, since both
// run at the same point in the pipeline.
//
// "aum" is deliberately absent: the query parser's minimum-AUM extractor
// matches the literal token "aum" after this same normalization runs
// first, so expanding it here would make that constraint family
// unextractable. Any abbreviation added here must first be checked against
// every queryparser extractor for the same collision (nav/sip/etf are not
// currently parsed, so they are safe for now).
var abbreviations = map[string]string{
	"amc":       "asset management company",
	"elss":      "tax-saving equity-linked saving scheme",
	"nav":       "net asset value",
	"sip":       "systematic investment plan",
	"etf":       "exchange traded fund",
	"tecnology": "technology",
	"recieve":   "receive",
	"flexicap":  "flexi cap",
	"flexcap":   "flexi cap",
}

// Text runs the full normalization pipeline: Unicode NFKC fold, case-fold
// to lower, strip punctuation (except intra-word hyphens and percent
// signs adjacent to digits), collapse whitespace, then expand the
// abbreviation dictionary word-by-word.
func Text(s string) string {
	s = norm.NFKC.String(s)
	s = caser.String(s)
	s = stripPunctuation(s)
	s = collapseWhitespace(s)
	return expandAbbreviations(s)
}

// stripPunctuation removes punctuation/symbol runes except a hyphen
// flanked by word runes on both sides and a '%' immediately following a
// digit.
func stripPunctuation(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes))
	for i, r := range runes {
		if r == '-' && i > 0 && i < len(runes)-1 && isWordRune(runes[i-1]) && isWordRune(runes[i+1]) {
			b.WriteRune(r)
			continue
		}
		if r == '%' && i > 0 && unicode.IsDigit(runes[i-1]) {
			b.WriteRune(r)
			continue
		}
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

func expandAbbreviations(s string) string {
	if s == "" {
		return s
	}
	words := strings.Split(s, " ")
	out := make([]string, 0, len(words))
	for _, w := range words {
		if exp, ok := abbreviations[w]; ok {
			out = append(out, exp)
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

// Tokens splits already-normalized text on whitespace. Tokenization for
// the BM25 index and for query matching must use the same Normalizer
// output, so callers should pass Text(s) through this function rather
// than tokenizing raw input.
func Tokens(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}
