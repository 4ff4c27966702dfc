package normalize

import (
	"fmt"
	"strings"

	"github.com/fundlens/retrieval/internal/fund"
)

// Describe synthesizes a FundRecord's natural-language description from
// its available metadata, concatenating templated sentences. Missing
// fields are omitted entirely rather than rendered as "N/A" — the
// description text must stay usable as BM25/embedding input, where an
// "N/A" token would itself become a spurious match target.
func Describe(f *fund.FundRecord) string {
	var sentences []string

	if f.FundName != "" {
		s := f.FundName
		if f.FundHouse != "" {
			s = fmt.Sprintf("%s is a fund from %s.", f.FundName, f.FundHouse)
		} else {
			s = fmt.Sprintf("%s is a mutual fund.", f.FundName)
		}
		sentences = append(sentences, s)
	}

	if f.Category != "" {
		s := "It belongs to the " + f.Category + " category"
		if f.SubCategory != "" {
			s += " (" + f.SubCategory + ")"
		}
		s += "."
		sentences = append(sentences, s)
	}

	if f.Sector != "" {
		sentences = append(sentences, "Its primary sector focus is "+f.Sector+".")
	}

	if f.RiskLevel != "" {
		sentences = append(sentences, "It carries a "+strings.ToLower(string(f.RiskLevel))+" risk profile.")
	}

	if n := len(f.TopHoldings); n > 0 {
		max := n
		if max > 3 {
			max = 3
		}
		sentences = append(sentences, "Top holdings include "+strings.Join(f.TopHoldings[:max], ", ")+".")
	}

	if n := len(f.SectorAllocation); n > 0 {
		max := n
		if max > 3 {
			max = 3
		}
		parts := make([]string, max)
		for i := 0; i < max; i++ {
			a := f.SectorAllocation[i]
			parts[i] = fmt.Sprintf("%s %.1f%%", a.Sector, a.Weight*100)
		}
		sentences = append(sentences, "Sector allocation: "+strings.Join(parts, ", ")+".")
	}

	return strings.Join(sentences, " ")
}
