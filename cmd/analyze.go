package cmd

import (
	"strings"

	"github.com/KaramelBytes/lifeexp-cli/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	anaOutputDir    string
	anaFormat       string
	anaGDPThreshold float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Clean a dataset and report the seven life-expectancy views",
	Long: `Loads a CSV/TSV/XLSX file (or a previously cleaned SQLite store), runs the
cleaning pipeline and renders trend, yearly average, GDP correlation, GDP bucket,
status comparison, BMI correlation and adult-mortality rolling totals.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyAnalyzeFlags(cmd)
		c, err := effectiveConfig()
		if err != nil {
			return err
		}
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		run, err := prepare(cmd.Context(), c, path, c.SQLitePath)
		if err != nil {
			return err
		}
		defer run.Close()

		res, err := analysis.NewEngine(c.GDPThreshold, logger).Run(cmd.Context(), run.Store)
		if err != nil {
			return err
		}
		printDiagnostics(cmd.ErrOrStderr(), run.Result)
		return renderResults(cmd.OutOrStdout(), cmd.ErrOrStderr(), c, run, res, c.OutputDir, "")
	},
}

// applyAnalyzeFlags copies explicitly set analysis flags over the config.
func applyAnalyzeFlags(cmd *cobra.Command) {
	if cfg == nil {
		loadConfig()
	}
	f := cmd.Flags()
	if f.Changed("gdp-threshold") {
		cfg.GDPThreshold = anaGDPThreshold
	}
	if f.Changed("format") {
		cfg.OutputFormat = strings.ToLower(strings.TrimSpace(anaFormat))
	}
	if f.Changed("output") {
		cfg.OutputDir = anaOutputDir
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputDir, "output", "o", "", "output directory (default: stdout for markdown, ./lifeexp-output otherwise)")
	analyzeCmd.Flags().StringVar(&anaFormat, "format", "", "output format: markdown | csv | xlsx | json (overrides config)")
	analyzeCmd.Flags().Float64Var(&anaGDPThreshold, "gdp-threshold", analysis.DefaultGDPThreshold, "GDP bucket threshold (overrides config)")
}
