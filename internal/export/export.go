// Package export writes analysis result tables to disk.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/KaramelBytes/lifeexp-cli/internal/analysis"
	"github.com/KaramelBytes/lifeexp-cli/internal/cleaning"
	"github.com/KaramelBytes/lifeexp-cli/internal/dataset"
	"github.com/KaramelBytes/lifeexp-cli/internal/utils"
	"github.com/xuri/excelize/v2"
)

// Formats accepted by Write.
const (
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatXLSX     = "xlsx"
	FormatJSON     = "json"
)

// ValidFormat reports whether f is a known output format.
func ValidFormat(f string) bool {
	switch f {
	case FormatMarkdown, FormatCSV, FormatXLSX, FormatJSON:
		return true
	}
	return false
}

// Document is the JSON export of one run.
type Document struct {
	RunID       string            `json:"run_id"`
	Source      string            `json:"source"`
	GeneratedAt time.Time         `json:"generated_at"`
	Cleaning    *cleaning.Result  `json:"cleaning,omitempty"`
	Results     *analysis.Results `json:"results"`
}

// CSVDir writes one CSV file per table into dir and returns the paths.
func CSVDir(dir string, tables []analysis.Table) ([]string, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("ensure output dir: %w", err)
	}
	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(t.Columns); err != nil {
			return paths, fmt.Errorf("write %s header: %w", t.Name, err)
		}
		for _, row := range t.Rows {
			rec := make([]string, len(row))
			for i, v := range row {
				rec[i] = csvCell(v)
			}
			if err := w.Write(rec); err != nil {
				return paths, fmt.Errorf("write %s: %w", t.Name, err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return paths, fmt.Errorf("write %s: %w", t.Name, err)
		}
		p := filepath.Join(dir, t.Name+".csv")
		if err := utils.SafeWriteFile(p, buf.Bytes()); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func csvCell(v any) string {
	switch x := v.(type) {
	case float64:
		return dataset.FormatFloat(x)
	case int:
		return strconv.Itoa(x)
	case string:
		return x
	default:
		return fmt.Sprint(v)
	}
}

// XLSX writes one worksheet per table into a single workbook. The run ID is
// stored in the workbook's document properties.
func XLSX(path string, tables []analysis.Table, runID string) error {
	f := excelize.NewFile()
	defer f.Close()
	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("new sheet %s: %w", t.Name, err)
		}
		header := make([]any, len(t.Columns))
		for j, c := range t.Columns {
			header[j] = c
		}
		if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
			return fmt.Errorf("write %s header: %w", t.Name, err)
		}
		for r, row := range t.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			vals := row
			if err := f.SetSheetRow(t.Name, cell, &vals); err != nil {
				return fmt.Errorf("write %s row %d: %w", t.Name, r+1, err)
			}
		}
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:      "Life expectancy analysis",
		Identifier: runID,
		Created:    time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("set doc props: %w", err)
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

// JSON writes the document atomically to path.
func JSON(path string, doc Document) error {
	b, err := utils.PrettyJSON(doc)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, b)
}
