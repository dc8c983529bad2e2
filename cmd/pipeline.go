package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/lifeexp-cli/internal/analysis"
	"github.com/KaramelBytes/lifeexp-cli/internal/cleaning"
	cfgpkg "github.com/KaramelBytes/lifeexp-cli/internal/config"
	"github.com/KaramelBytes/lifeexp-cli/internal/dataset"
	"github.com/KaramelBytes/lifeexp-cli/internal/export"
	"github.com/KaramelBytes/lifeexp-cli/internal/utils"
)

// defaultOutputDir receives file outputs when no output_dir is configured.
const defaultOutputDir = "lifeexp-output"

// maxUnresolvedShown caps the per-record diagnostics printed to the terminal.
const maxUnresolvedShown = 10

// cleanRun is a loaded and cleaned dataset.
type cleanRun struct {
	Source string
	Store  dataset.Store
	Result *cleaning.Result
	close  func() error
}

func (r *cleanRun) Close() error {
	if r == nil || r.close == nil {
		return nil
	}
	return r.close()
}

func effectiveConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		loadConfig()
	}
	cfg.Store = strings.ToLower(cfg.Store)
	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadOptions(c *cfgpkg.Global) (dataset.LoadOptions, error) {
	delim, err := c.DelimiterRune()
	if err != nil {
		return dataset.LoadOptions{}, err
	}
	dec, err := c.DecimalRune()
	if err != nil {
		return dataset.LoadOptions{}, err
	}
	return dataset.LoadOptions{Delimiter: delim, DecimalSeparator: dec}, nil
}

// openStore opens the configured backend. An empty sqlitePath gives an
// in-memory SQLite database.
func openStore(c *cfgpkg.Global, sqlitePath string) (dataset.Store, func() error, error) {
	if c.Store != cfgpkg.StoreSQLite {
		return dataset.NewMemStore(), func() error { return nil }, nil
	}
	path, err := utils.ExpandHome(sqlitePath)
	if err != nil {
		return nil, nil, err
	}
	s, err := dataset.OpenSQLite(path)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

// loadInput reads path into s, choosing the loader by extension.
func loadInput(ctx context.Context, path string, s dataset.Store, opt dataset.LoadOptions) (int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("input file: %w", err)
	}
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return dataset.LoadXLSX(ctx, path, flagSheetName, s, opt)
	}
	return dataset.LoadCSV(ctx, path, s, opt)
}

// prepare opens a store, loads path into it (unless path is empty, in which
// case a persistent SQLite store is reused as-is) and runs the cleaning
// pipeline.
func prepare(ctx context.Context, c *cfgpkg.Global, path, sqlitePath string) (*cleanRun, error) {
	if path == "" && (c.Store != cfgpkg.StoreSQLite || sqlitePath == "") {
		return nil, fmt.Errorf("an input file is required unless --store sqlite with --sqlite-path points at loaded data")
	}
	opt, err := loadOptions(c)
	if err != nil {
		return nil, err
	}
	s, closeFn, err := openStore(c, sqlitePath)
	if err != nil {
		return nil, err
	}
	run := &cleanRun{Source: path, Store: s, close: closeFn}

	existing, err := s.Len(ctx)
	if err != nil {
		_ = run.Close()
		return nil, err
	}
	if path != "" {
		if existing > 0 {
			_ = run.Close()
			return nil, fmt.Errorf("store %s already holds %d records; remove it or omit the input file to reuse it", sqlitePath, existing)
		}
		n, err := loadInput(ctx, path, s, opt)
		if err != nil {
			_ = run.Close()
			return nil, err
		}
		logger.Info("loaded dataset", "path", path, "records", n, "store", c.Store)
	} else {
		if existing == 0 {
			_ = run.Close()
			return nil, fmt.Errorf("store %s holds no records", sqlitePath)
		}
		run.Source = sqlitePath
		logger.Info("reusing stored dataset", "path", sqlitePath, "records", existing)
	}

	p := cleaning.New(cleaning.Options{Merge: c.DedupMerge, Logger: logger})
	out, res, err := p.Run(ctx, s)
	if err != nil {
		_ = run.Close()
		return nil, err
	}
	run.Store = out
	run.Result = res
	return run, nil
}

// printDiagnostics writes the cleaning summary and any remaining gaps.
func printDiagnostics(w io.Writer, res *cleaning.Result) {
	d := res.Diagnostics
	fmt.Fprintf(w, "✓ Cleaned %d records (run %s)\n", d.Records, res.RunID)
	for _, st := range res.Stages {
		fmt.Fprintf(w, "  %-12s examined=%d updated=%d removed=%d merged=%d\n",
			st.Stage, st.Examined, st.Updated, st.Removed, st.Merged)
	}
	for _, a := range d.Ambiguous {
		vals := make([]string, len(a.Values))
		for i, v := range a.Values {
			vals[i] = string(v)
		}
		fmt.Fprintf(w, "⚠ Ambiguous status for %s (%s); missing statuses left unset\n", a.Country, strings.Join(vals, ", "))
	}
	if d.MissingLifeExpectancy > 0 || d.MissingStatus > 0 {
		fmt.Fprintf(w, "⚠ Unresolved: %d missing life_expectancy, %d missing status\n", d.MissingLifeExpectancy, d.MissingStatus)
		for i, u := range d.Unresolved {
			if i == maxUnresolvedShown {
				fmt.Fprintf(w, "  ... and %d more\n", len(d.Unresolved)-maxUnresolvedShown)
				break
			}
			fmt.Fprintf(w, "  row %d %s %d: %s\n", u.RowID, u.Country, u.Year, strings.Join(u.Fields, ", "))
		}
	}
}

// renderResults writes the analysis in the configured format. base names
// the output file (without extension) or, for csv, the subdirectory used
// when several datasets share one output directory.
func renderResults(stdout, status io.Writer, c *cfgpkg.Global, run *cleanRun, res *analysis.Results, dir, base string) error {
	switch c.OutputFormat {
	case export.FormatMarkdown:
		md := res.Markdown()
		if dir == "" {
			fmt.Fprintln(stdout, md)
			return nil
		}
		path := filepath.Join(dir, nameOr(base)+".md")
		if err := utils.SafeWriteFile(path, []byte(md)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(status, "✓ Wrote analysis to %s\n", path)
	case export.FormatCSV:
		out := orDefault(dir)
		if base != "" {
			out = filepath.Join(out, base)
		}
		paths, err := export.CSVDir(out, res.Tables())
		if err != nil {
			return err
		}
		fmt.Fprintf(status, "✓ Wrote %d tables to %s\n", len(paths), out)
	case export.FormatXLSX:
		path := filepath.Join(orDefault(dir), nameOr(base)+".xlsx")
		if err := export.XLSX(path, res.Tables(), run.Result.RunID); err != nil {
			return err
		}
		fmt.Fprintf(status, "✓ Wrote workbook to %s\n", path)
	case export.FormatJSON:
		path := filepath.Join(orDefault(dir), nameOr(base)+".json")
		doc := export.Document{
			RunID:       run.Result.RunID,
			Source:      run.Source,
			GeneratedAt: run.Result.StartedAt.UTC(),
			Cleaning:    run.Result,
			Results:     res,
		}
		if err := export.JSON(path, doc); err != nil {
			return err
		}
		fmt.Fprintf(status, "✓ Wrote results to %s\n", path)
	default:
		return fmt.Errorf("unsupported output format: %s", c.OutputFormat)
	}
	return nil
}

func orDefault(dir string) string {
	if dir == "" {
		return defaultOutputDir
	}
	return dir
}

func nameOr(base string) string {
	if base == "" {
		return "analysis"
	}
	return base
}
