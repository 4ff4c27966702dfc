// Package promptbuilder implements the RAG Prompt Builder (§4.7): a pure
// function of (query, top candidates) producing the fixed advisor prompt
// consumed by a downstream large-language-model.
package promptbuilder

import (
	"fmt"
	"strings"

	"github.com/fundlens/retrieval/internal/fund"
	"github.com/fundlens/retrieval/internal/rerank"
)

const topN = 3

const naPlaceholder = "N/A"
const emptySlotPlaceholder = "No additional fund data available."

// Build formats the top 3 reranked candidates into the fixed advisor
// prompt. Fewer than 3 candidates leaves the remaining slots rendered as
// the empty-slot placeholder; missing numeric fields render as N/A.
func Build(query string, candidates []rerank.Scored) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a mutual fund advisor. A user asked: %q.\n", query)
	b.WriteString("Here are top matching funds:\n")

	for i := 0; i < topN; i++ {
		fmt.Fprintf(&b, "FUND %d: ", i+1)
		if i < len(candidates) {
			b.WriteString(formatFund(candidates[i].Record))
		} else {
			b.WriteString(emptySlotPlaceholder + "\n")
		}
	}

	b.WriteString("Which one is the best match? Explain why in 3 sentences.\n")
	return b.String()
}

func formatFund(f *fund.FundRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", f.FundName)
	fmt.Fprintf(&b, "- AMC: %s\n", f.FundHouse)
	fmt.Fprintf(&b, "- Category: %s\n", f.Category)
	fmt.Fprintf(&b, "- Risk Level: %s\n", string(f.RiskLevel))
	fmt.Fprintf(&b, "- Returns: 1yr: %s, 3yr: %s, 5yr: %s\n",
		formatPercent(f.Return1Yr), formatPercent(f.Return3Yr), formatPercent(f.Return5Yr))
	fmt.Fprintf(&b, "- Expense Ratio: %s\n", formatPercent(f.ExpenseRatio))
	return b.String()
}

// formatPercent renders v as "<value>%", or the bare N/A placeholder with
// no trailing percent sign when v is absent.
func formatPercent(v *float64) string {
	if v == nil {
		return naPlaceholder
	}
	return fmt.Sprintf("%g%%", *v)
}
