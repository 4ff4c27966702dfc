package queryparser

// fundHouseAliases maps a recognized phrase to its canonical AMC name.
// Grounded on original_source/FINAL/query_parser.py's fund-house list,
// extended with the multi-word houses spec.md names explicitly.
var fundHouseAliases = map[string]string{
	"icici":        "ICICI",
	"hdfc":         "HDFC",
	"sbi":          "SBI",
	"axis":         "Axis",
	"kotak":        "Kotak",
	"aditya birla": "Aditya Birla",
	"nippon":       "Nippon",
	"tata":         "Tata",
	"uti":          "UTI",
}

// riskPhraseToLevel maps recognized phrases to the canonical risk level.
var riskPhraseToLevel = map[string]string{
	"low risk":    "Low",
	"conservative": "Low",
	"safe":        "Low",
	"moderate":    "Moderate",
	"medium":      "Moderate",
	"balanced":    "Moderate",
	"high risk":   "High",
	"aggressive":  "High",
}

// categoryAliases maps a recognized phrase to the canonical category.
var categoryAliases = map[string]string{
	"tax saving": "ELSS",
	"tax saver":  "ELSS",
	"elss":       "ELSS",
	"index":      "Index",
	"large cap":  "Large Cap",
	"mid cap":    "Mid Cap",
	"small cap":  "Small Cap",
	"debt":       "Debt",
	"liquid":     "Liquid",
	"hybrid":     "Hybrid",
	"equity":     "Equity",
}

// sectorAliases maps a recognized phrase to the canonical sector name.
// Single-word sectors require a whole-word match (enforced by the
// extractor, not by this table) to avoid matching inside unrelated words.
var sectorAliases = map[string]string{
	"tech":           "Technology",
	"it":             "Technology",
	"technology":     "Technology",
	"pharma":         "Healthcare",
	"pharmaceutical": "Healthcare",
	"healthcare":     "Healthcare",
	"finance":        "Financial",
	"financial":      "Financial",
	"auto":           "Automobile",
	"automobile":     "Automobile",
	"energy":         "Energy",
	"infrastructure": "Infrastructure",
	"consumer":       "Consumer",
}

// aumUnitFactor maps a recognized AUM unit suffix to its multiplier. The
// absence of a suffix leaves the parsed number as-is, per the spec's
// chosen resolution of the min_aum unit ambiguity.
var aumUnitFactor = map[string]float64{
	"cr":      1e7,
	"crore":   1e7,
	"lakh":    1e5,
	"billion": 1e9,
	"million": 1e6,
}
