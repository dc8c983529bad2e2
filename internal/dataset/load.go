package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadOptions controls how raw files are parsed.
type LoadOptions struct {
	// Delimiter for CSV. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// DecimalSeparator for numbers. If 0, auto-detect per value.
	DecimalSeparator rune
}

// Column names of the fixed schema.
const (
	ColRowID          = "row_id"
	ColCountry        = "country"
	ColYear           = "year"
	ColStatus         = "status"
	ColLifeExpectancy = "life_expectancy"
	ColAdultMortality = "adult_mortality"
	ColGDP            = "gdp"
	ColBMI            = "bmi"
)

// Columns lists the fixed schema in output order.
var Columns = []string{ColRowID, ColCountry, ColYear, ColStatus, ColLifeExpectancy, ColAdultMortality, ColGDP, ColBMI}

// LoadCSV reads a CSV/TSV file into the store and returns the number of
// records inserted. Row IDs are assigned by the store in file order.
func LoadCSV(ctx context.Context, path string, s Store, opt LoadOptions) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	return ReadCSV(ctx, f, s, delim, opt)
}

// ReadCSV reads delimited records from r into the store.
func ReadCSV(ctx context.Context, r io.Reader, s Store, delim rune, opt LoadOptions) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("read header: %w", err)
	}
	return ingest(ctx, s, header, opt, func() ([]string, error) {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return rec, err
	})
}

// LoadXLSX reads a worksheet into the store. An empty sheet name selects
// the first sheet of the workbook.
func LoadXLSX(ctx context.Context, path, sheet string, s Store, opt LoadOptions) (int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return 0, fmt.Errorf("workbook %s has no sheets", path)
	}
	target := ""
	if sheet == "" {
		target = sheets[0]
	} else {
		for _, name := range sheets {
			if strings.EqualFold(name, sheet) {
				target = name
				break
			}
		}
		if target == "" {
			return 0, fmt.Errorf("sheet '%s' not found in workbook.\nAvailable sheets: %s", sheet, strings.Join(sheets, ", "))
		}
	}
	rows, err := f.Rows(target)
	if err != nil {
		return 0, fmt.Errorf("read sheet %s: %w", target, err)
	}
	defer rows.Close()
	next := func() ([]string, error) {
		if !rows.Next() {
			if err := rows.Error(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		return rows.Columns()
	}
	header, err := next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("read header: %w", err)
	}
	return ingest(ctx, s, header, opt, next)
}

func ingest(ctx context.Context, s Store, header []string, opt LoadOptions, next func() ([]string, error)) (int, error) {
	idx := map[string]int{}
	for i, h := range header {
		name := NormalizeHeader(h)
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	for _, required := range []string{ColCountry, ColYear} {
		if _, ok := idx[required]; !ok {
			return 0, fmt.Errorf("missing required column %q", required)
		}
	}
	cell := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	// The whole file is parsed before anything is stored, so a bad row
	// leaves the store untouched.
	line := 1
	var recs []Record
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		rec, err := next()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return 0, fmt.Errorf("read row %d: %w", line, err)
		}
		if blankRow(rec) {
			continue
		}
		r, err := parseRecord(rec, cell, opt)
		if err != nil {
			var me *MalformedRecordError
			if errors.As(err, &me) {
				me.Line = line
			}
			return 0, err
		}
		recs = append(recs, r)
	}
	if len(recs) == 0 {
		return 0, nil
	}
	if _, err := InsertAll(ctx, s, recs); err != nil {
		return 0, err
	}
	return len(recs), nil
}

func parseRecord(rec []string, cell func([]string, string) string, opt LoadOptions) (Record, error) {
	var r Record
	r.Country = cell(rec, ColCountry)
	if r.Country == "" {
		return r, &MalformedRecordError{Field: ColCountry, Reason: "empty"}
	}
	rawYear := cell(rec, ColYear)
	if rawYear == "" {
		return r, &MalformedRecordError{Field: ColYear, Reason: "empty"}
	}
	y, ok := parseNumeric(rawYear, opt)
	if !ok || y != math.Trunc(y) {
		return r, &MalformedRecordError{Field: ColYear, Reason: fmt.Sprintf("not an integer: %q", rawYear)}
	}
	r.Year = int(y)
	r.Status = ParseStatus(cell(rec, ColStatus))
	var err error
	if r.LifeExpectancy, err = numericField(cell(rec, ColLifeExpectancy), ColLifeExpectancy, opt); err != nil {
		return r, err
	}
	if r.AdultMortality, err = numericField(cell(rec, ColAdultMortality), ColAdultMortality, opt); err != nil {
		return r, err
	}
	if r.GDP, err = numericField(cell(rec, ColGDP), ColGDP, opt); err != nil {
		return r, err
	}
	if r.BMI, err = numericField(cell(rec, ColBMI), ColBMI, opt); err != nil {
		return r, err
	}
	return r, nil
}

// numericField parses an optional non-negative measurement. Empty means the
// missing sentinel (0).
func numericField(raw, col string, opt LoadOptions) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	x, ok := parseNumeric(raw, opt)
	if !ok {
		return 0, fmt.Errorf("column %s: invalid number %q", col, raw)
	}
	if x < 0 {
		return 0, fmt.Errorf("column %s: negative value %q", col, raw)
	}
	return x, nil
}

// NormalizeHeader folds a raw header to its schema name, e.g.
// " Life expectancy " -> "life_expectancy".
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.Join(strings.FieldsFunc(h, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '\t'
	}), "_")
	return h
}

func blankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// digitGroups reports whether raw is 1-3 leading digits followed by one or
// more sep-separated groups of exactly three digits.
func digitGroups(raw string, sep rune) bool {
	parts := strings.Split(raw, string(sep))
	if len(parts) < 2 || len(parts[0]) == 0 || len(parts[0]) > 3 {
		return false
	}
	for i, p := range parts {
		if i > 0 && len(p) != 3 {
			return false
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// parseNumeric parses a number with an explicit or auto-detected decimal
// separator. Auto-detection reads a lone comma followed by exactly three
// digits as a thousands separator; such files need DecimalSeparator ',' when
// the comma is really a decimal point.
func parseNumeric(s string, opt LoadOptions) (float64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	dec := opt.DecimalSeparator
	var thou rune
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0:
			// "1,500" and "1,234,567" are grouped integers; "70,5" is a decimal.
			if digitGroups(raw, ',') {
				dec, thou = '.', ','
			} else {
				dec = ','
			}
		case strings.Count(raw, ".") > 1 && digitGroups(raw, '.'):
			dec, thou = ',', '.'
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
