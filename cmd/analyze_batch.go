package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/lifeexp-cli/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	abOutputDir    string
	abFormat       string
	abGDPThreshold float64
	abQuiet        bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Clean and analyze multiple CSV/TSV/XLSX files, one report per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		seen := map[string]struct{}{}
		for _, arg := range args {
			matches, _ := filepath.Glob(arg)
			if len(matches) == 0 {
				// treat as literal path if exists
				if _, err := os.Stat(arg); err == nil {
					matches = []string{arg}
				}
			}
			for _, m := range matches {
				if _, ok := seen[m]; ok {
					continue
				}
				seen[m] = struct{}{}
				files = append(files, m)
			}
		}
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		sort.Strings(files)

		if cfg == nil {
			loadConfig()
		}
		f := cmd.Flags()
		if f.Changed("gdp-threshold") {
			cfg.GDPThreshold = abGDPThreshold
		}
		if f.Changed("format") {
			cfg.OutputFormat = strings.ToLower(strings.TrimSpace(abFormat))
		}
		if f.Changed("output") {
			cfg.OutputDir = abOutputDir
		}
		c, err := effectiveConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		status := cmd.ErrOrStderr()
		if abQuiet {
			status = io.Discard
		}
		used := map[string]int{}
		total := len(files)
		for i, path := range files {
			fmt.Fprintf(status, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			// Each file gets its own throwaway store; a persistent SQLite
			// path would mix datasets.
			run, err := prepare(cmd.Context(), c, path, "")
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			res, err := analysis.NewEngine(c.GDPThreshold, logger).Run(cmd.Context(), run.Store)
			if err != nil {
				_ = run.Close()
				return fmt.Errorf("%s: %w", path, err)
			}
			printDiagnostics(status, run.Result)

			base := uniqueBase(used, path)
			if base != stem(path) {
				fmt.Fprintf(status, "⚠ Detected duplicate file name, writing %s outputs as %s to avoid overwrite.\n", filepath.Base(path), base)
			}
			if c.OutputFormat == "markdown" && c.OutputDir == "" {
				fmt.Fprintf(out, "# %s\n\n", path)
			}
			err = renderResults(out, status, c, run, res, c.OutputDir, base)
			_ = run.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		fmt.Fprintf(status, "✓ Analyzed %d files\n", total)
		return nil
	},
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// uniqueBase returns the file stem, suffixed __2, __3... when an earlier
// file in the batch had the same stem.
func uniqueBase(used map[string]int, path string) string {
	s := stem(path)
	used[s]++
	if n := used[s]; n > 1 {
		return fmt.Sprintf("%s__%d", s, n)
	}
	return s
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVarP(&abOutputDir, "output", "o", "", "output directory (default: stdout for markdown, ./lifeexp-output otherwise)")
	analyzeBatchCmd.Flags().StringVar(&abFormat, "format", "", "output format: markdown | csv | xlsx | json (overrides config)")
	analyzeBatchCmd.Flags().Float64Var(&abGDPThreshold, "gdp-threshold", analysis.DefaultGDPThreshold, "GDP bucket threshold (overrides config)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}
