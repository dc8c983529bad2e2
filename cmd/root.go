package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	cfgpkg "github.com/KaramelBytes/lifeexp-cli/internal/config"
	"github.com/KaramelBytes/lifeexp-cli/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags (override config when set)
	cfgFile        string
	debug          bool
	flagStore      string
	flagSQLitePath string
	flagNoMerge    bool
	flagDelimiter  string
	flagDecimal    string
	flagSheetName  string
	flagLogFormat  string

	// Loaded configuration and logger
	cfg    *cfgpkg.Global
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lifeexp",
	Short: "lifeexp CLI: clean and analyze country life-expectancy data",
	Long: `lifeexp loads a per-country, per-year life-expectancy table (CSV, TSV or XLSX),
removes duplicate observations, imputes missing development status, interpolates
missing life expectancy from adjacent years, and reports seven analytical views.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.lifeexp/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")
	pf.StringVar(&flagStore, "store", "", "record store backend: memory | sqlite (overrides config)")
	pf.StringVar(&flagSQLitePath, "sqlite-path", "", "SQLite database file; empty means in-memory (overrides config)")
	pf.BoolVar(&flagNoMerge, "no-merge", false, "do not back-fill duplicate survivors from discarded duplicates")
	pf.StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (auto-detect if omitted)")
	pf.StringVar(&flagDecimal, "decimal", "", "decimal separator for numbers: '.' | ',' (auto-detect if omitted)")
	pf.StringVar(&flagSheetName, "sheet-name", "", "XLSX: sheet name to load (default: first sheet)")
	pf.StringVar(&flagLogFormat, "log-format", "", "log format: text | json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("store") {
		cfg.Store = flagStore
	}
	if f.Changed("sqlite-path") {
		cfg.SQLitePath = flagSQLitePath
	}
	if f.Changed("no-merge") && flagNoMerge {
		cfg.DedupMerge = false
	}
	if f.Changed("delimiter") {
		cfg.Delimiter = flagDelimiter
	}
	if f.Changed("decimal") {
		cfg.DecimalSeparator = flagDecimal
	}
	if f.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	logger = logging.New(level, cfg.LogFormat, rootCmd.ErrOrStderr())
	slog.SetDefault(logger)
}
