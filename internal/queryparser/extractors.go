package queryparser

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// extractAlias finds the longest (by word count) matching phrase from
// aliases present in text as a whole-word/whole-phrase match, removes it
// from text, and returns the canonical value, the matched substring, and
// the updated text. wholeWordOnly forces single-word keys to match only
// as a complete token (used by the sector family, per spec.md §4.4).
func extractAlias(text string, aliases map[string]string, wholeWordOnly bool) (canonical, substring, remaining string, found bool) {
	phrases := make([]string, 0, len(aliases))
	for k := range aliases {
		phrases = append(phrases, k)
	}
	sort.Slice(phrases, func(i, j int) bool {
		return len(strings.Fields(phrases[i])) > len(strings.Fields(phrases[j]))
	})

	for _, phrase := range phrases {
		if wholeWordOnly || strings.Contains(phrase, " ") {
			pattern := `\b` + regexp.QuoteMeta(phrase) + `\b`
			re := regexp.MustCompile(pattern)
			loc := re.FindStringIndex(text)
			if loc == nil {
				continue
			}
			return aliases[phrase], text[loc[0]:loc[1]], removeSpan(text, loc[0], loc[1]), true
		}
		if idx := indexOfWord(text, phrase); idx >= 0 {
			end := idx + len(phrase)
			return aliases[phrase], text[idx:end], removeSpan(text, idx, end), true
		}
	}
	return "", "", text, false
}

func indexOfWord(text, word string) int {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
	loc := re.FindStringIndex(text)
	if loc == nil {
		return -1
	}
	return loc[0]
}

func removeSpan(text string, start, end int) string {
	out := text[:start] + " " + text[end:]
	return strings.Join(strings.Fields(out), " ")
}

// The period prefix ("3 year(s)") is optional: a bare "returns over X%"
// with no period named is treated as a 3-year return constraint, the
// chosen canonical default for an under-specified return phrase (see
// DESIGN.md).
var returnRegex = regexp.MustCompile(`\b(?:([135])\s*years?\s*)?returns?\s*(?:over|above|at least|more than|exceeding)\s*(\d+(?:\.\d+)?)%?`)

const defaultReturnPeriod = "3"

// extractMinReturn finds at most one "[N year(s)] return(s) over X%"
// phrase. It is applied repeatedly by the parser to pick up every period
// mentioned, since a single query may name more than one.
func extractMinReturn(text string) (period string, value float64, substring, remaining string, found bool) {
	loc := returnRegex.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", 0, "", text, false
	}
	full := text[loc[0]:loc[1]]
	periodStr := defaultReturnPeriod
	if loc[2] >= 0 {
		periodStr = text[loc[2]:loc[3]]
	}
	valueStr := text[loc[4]:loc[5]]
	v, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return "", 0, "", text, false
	}
	return periodStr, v, full, removeSpan(text, loc[0], loc[1]), true
}

var expenseRatioRegex = regexp.MustCompile(`expense ratio\s*(?:under|below|less than)\s*(\d+(?:\.\d+)?)%?`)

func extractMaxExpenseRatio(text string) (value float64, substring, remaining string, found bool) {
	loc := expenseRatioRegex.FindStringSubmatchIndex(text)
	if loc == nil {
		return 0, "", text, false
	}
	full := text[loc[0]:loc[1]]
	valueStr := text[loc[2]:loc[3]]
	v, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, "", text, false
	}
	return v, full, removeSpan(text, loc[0], loc[1]), true
}

var aumRegex = regexp.MustCompile(`aum\s*(?:over|above)\s*(\d+(?:\.\d+)?)\s*(cr|crore|lakh|billion|million)?`)

func extractMinAUM(text string) (value float64, substring, remaining string, found bool) {
	loc := aumRegex.FindStringSubmatchIndex(text)
	if loc == nil {
		return 0, "", text, false
	}
	full := text[loc[0]:loc[1]]
	valueStr := text[loc[2]:loc[3]]
	v, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, "", text, false
	}
	if loc[4] >= 0 {
		unit := text[loc[4]:loc[5]]
		if factor, ok := aumUnitFactor[unit]; ok {
			v *= factor
		}
	}
	return v, full, removeSpan(text, loc[0], loc[1]), true
}

var horizonPhrases = map[string]string{
	"retirement": "long_term",
	"long term":  "long_term",
	"short term": "short_term",
}

func extractHorizon(text string) (tag, substring, remaining string, found bool) {
	for phrase, tag := range horizonPhrases {
		pattern := `\b` + regexp.QuoteMeta(phrase) + `\b`
		re := regexp.MustCompile(pattern)
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		return tag, text[loc[0]:loc[1]], removeSpan(text, loc[0], loc[1]), true
	}
	return "", "", text, false
}

func returnField(period string) string {
	return fmt.Sprintf("min_return_%syr", period)
}
