// Package ingest reads the tabular fund corpus from CSV, JSON, or XLSX
// sources into fund.FundRecord values, rejecting malformed rows with
// line-level errors rather than aborting the whole load (§6 External
// Interfaces, "rows with missing fund_id or fund_name are rejected with a
// line-level error"). Numeric fields are parsed leniently.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fundlens/retrieval/internal/engineerr"
	"github.com/fundlens/retrieval/internal/fund"
	"github.com/fundlens/retrieval/internal/normalize"
)

// Result is the outcome of loading a corpus file: the accepted records
// (description already synthesized) plus every rejected row.
type Result struct {
	Records []*fund.FundRecord
	Errors  []engineerr.RowError
}

// Load dispatches to the format-specific reader based on path's
// extension: .csv, .json, or .xlsx.
func Load(path string) (*Result, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		return LoadCSV(f)
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		return LoadJSON(f)
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return nil, engineerr.Wrap(engineerr.ErrInvalidInput, fmt.Sprintf("unsupported corpus format %q", ext))
	}
}

// LoadCSV reads one fund per CSV row, with a header row naming columns.
func LoadCSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return &Result{}, nil
		}
		return nil, err
	}
	colIndex := indexHeader(header)

	result := &Result{}
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		record, rowErr := rowToRecord(line, func(col string) string {
			i, ok := colIndex[col]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		})
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		result.Records = append(result.Records, record)
	}
	return result, nil
}

func indexHeader(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

// jsonRow mirrors the column set for JSON-encoded corpora: an array of
// flat objects, one per fund, with the same field names as the CSV
// header (so a single rowToRecord path serves both formats).
type jsonRow map[string]string

// LoadJSON reads a JSON array of flat fund objects.
func LoadJSON(r io.Reader) (*Result, error) {
	var rows []jsonRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, err
	}

	result := &Result{}
	for i, row := range rows {
		line := i + 1
		record, rowErr := rowToRecord(line, func(col string) string {
			return row[col]
		})
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		result.Records = append(result.Records, record)
	}
	return result, nil
}

// LoadXLSX reads the first sheet of an Excel workbook, treating row 1 as
// the header.
func LoadXLSX(path string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &Result{}, nil
	}

	colIndex := indexHeader(rows[0])
	result := &Result{}
	for i, row := range rows[1:] {
		line := i + 2
		record, rowErr := rowToRecord(line, func(col string) string {
			idx, ok := colIndex[col]
			if !ok || idx >= len(row) {
				return ""
			}
			return row[idx]
		})
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		result.Records = append(result.Records, record)
	}
	return result, nil
}

// rowToRecord builds one FundRecord from a column accessor, validating
// the required fields and leniently parsing every numeric field.
func rowToRecord(line int, col func(string) string) (*fund.FundRecord, *engineerr.RowError) {
	fundID := strings.TrimSpace(col("fund_id"))
	fundName := strings.TrimSpace(col("fund_name"))
	if fundID == "" {
		return nil, &engineerr.RowError{Line: line, Message: "missing fund_id"}
	}
	if fundName == "" {
		return nil, &engineerr.RowError{Line: line, FundID: fundID, Message: "missing fund_name"}
	}

	r := &fund.FundRecord{
		FundID:       fundID,
		FundName:     fundName,
		FundHouse:    strings.TrimSpace(col("fund_house")),
		Category:     strings.TrimSpace(col("category")),
		SubCategory:  strings.TrimSpace(col("sub_category")),
		AssetClass:   strings.TrimSpace(col("asset_class")),
		FundType:     strings.TrimSpace(col("fund_type")),
		Sector:       strings.TrimSpace(col("sector")),
		RiskLevel:    fund.RiskLevel(canonicalRisk(col("risk_level"))),
		ExpenseRatio: parseOptionalFloat(col("expense_ratio")),
		Return1Yr:    parseOptionalFloat(col("return_1yr")),
		Return3Yr:    parseOptionalFloat(col("return_3yr")),
		Return5Yr:    parseOptionalFloat(col("return_5yr")),
		AUM:          parseOptionalFloat(col("aum")),
		TopHoldings:  splitList(col("top_holdings")),
	}
	r.SectorAllocation = parseSectorAllocation(col("sector_allocation"))
	r.Description = normalize.Describe(r)

	return r, nil
}

func canonicalRisk(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return string(fund.RiskLow)
	case "moderate", "medium":
		return string(fund.RiskModerate)
	case "high":
		return string(fund.RiskHigh)
	default:
		return ""
	}
}

func parseOptionalFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseSectorAllocation parses "Sector:Weight;Sector:Weight" pairs and
// orders them by weight descending (stable for equal weights).
func parseSectorAllocation(raw string) []fund.SectorWeight {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	out := make([]fund.SectorWeight, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kv := strings.SplitN(p, ":", 2)
		if len(kv) != 2 {
			continue
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			continue
		}
		out = append(out, fund.SectorWeight{Sector: strings.TrimSpace(kv[0]), Weight: weight})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}
