package queryparser

import (
	"fmt"
	"strconv"

	"github.com/fundlens/retrieval/internal/normalize"
)

// sane numeric ranges; a match outside these bounds is dropped with a
// warning rather than rejected outright, per the Parse warnings policy.
const (
	maxReturnPercent  = 100.0
	maxExpensePercent = 100.0
)

// Parse converts a free-text query into a ParsedQuery. Extractors run in
// the fixed order documented in §4.4 (fund house, risk level, category,
// sector, minimum return per period, maximum expense ratio, minimum AUM,
// horizon hint); each consumes its recognized span from the residual
// before the next extractor runs. Parse is idempotent: calling it again
// on the Residual of a prior Parse produces no new constraints, because
// every recognized span is physically removed from the text before the
// next extractor sees it.
func Parse(query string) *ParsedQuery {
	text := normalize.Text(query)
	pq := newParsedQuery(text)

	if canonical, substring, rest, ok := extractAlias(text, fundHouseAliases, false); ok {
		pq.add("amc", Constraint{Field: "amc", Kind: KindEquals, StringValue: canonical}, substring)
		text = rest
	}

	if canonical, substring, rest, ok := extractAlias(text, riskPhraseToLevel, false); ok {
		pq.add("risk_level", Constraint{Field: "risk_level", Kind: KindEquals, StringValue: canonical}, substring)
		text = rest
	}

	if canonical, substring, rest, ok := extractAlias(text, categoryAliases, false); ok {
		pq.add("category", Constraint{Field: "category", Kind: KindEquals, StringValue: canonical}, substring)
		text = rest
	}

	if canonical, substring, rest, ok := extractAlias(text, sectorAliases, true); ok {
		pq.add("sector", Constraint{Field: "sector", Kind: KindEquals, StringValue: canonical}, substring)
		text = rest
	}

	for {
		period, value, substring, rest, ok := extractMinReturn(text)
		if !ok {
			break
		}
		text = rest
		if value < 0 || value > maxReturnPercent {
			pq.warn(fmt.Sprintf("dropped out-of-range return constraint %q (%.2f%%)", substring, value))
			continue
		}
		field := returnField(period)
		pq.add(field, Constraint{Field: field, Kind: KindMinNumeric, NumericValue: value}, substring)
	}

	if value, substring, rest, ok := extractMaxExpenseRatio(text); ok {
		text = rest
		if value < 0 || value > maxExpensePercent {
			pq.warn(fmt.Sprintf("dropped out-of-range expense ratio constraint %q (%.2f%%)", substring, value))
		} else {
			pq.add("max_expense_ratio", Constraint{Field: "max_expense_ratio", Kind: KindMaxNumeric, NumericValue: value}, substring)
		}
	}

	if value, substring, rest, ok := extractMinAUM(text); ok {
		text = rest
		if value < 0 {
			pq.warn(fmt.Sprintf("dropped negative AUM constraint %q", substring))
		} else {
			pq.add("min_aum", Constraint{Field: "min_aum", Kind: KindMinNumeric, NumericValue: value}, substring)
		}
	}

	if tag, substring, rest, ok := extractHorizon(text); ok {
		pq.add("horizon", Constraint{Field: "horizon", Kind: KindTag, StringValue: tag}, substring)
		text = rest
	}

	pq.Residual = text
	return pq
}

// Render reconstructs a canonical query string from a ParsedQuery, used
// by the idempotent-parsing property test: Parse(Render(Parse(q))) must
// equal Parse(q) in its constraint set.
func Render(pq *ParsedQuery) string {
	out := pq.Residual
	for field, c := range pq.Constraints {
		switch c.Kind {
		case KindEquals:
			out += " " + c.StringValue
			if field == "risk_level" {
				out += " risk"
			}
		case KindTag:
			out += " " + c.StringValue
		case KindMinNumeric:
			if field == "min_aum" {
				out += " aum over " + strconv.FormatFloat(c.NumericValue, 'f', -1, 64)
			} else {
				period := field[len("min_return_") : len(field)-len("yr")]
				out += fmt.Sprintf(" %s year returns over %g%%", period, c.NumericValue)
			}
		case KindMaxNumeric:
			out += fmt.Sprintf(" expense ratio under %g%%", c.NumericValue)
		}
	}
	return normalize.Text(out)
}
