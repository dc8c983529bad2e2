package cmd

import (
	"bytes"
	"fmt"

	"github.com/KaramelBytes/lifeexp-cli/internal/dataset"
	"github.com/KaramelBytes/lifeexp-cli/internal/utils"
	"github.com/spf13/cobra"
)

var cleanOutputPath string

var cleanCmd = &cobra.Command{
	Use:   "clean [file]",
	Short: "Deduplicate, impute and interpolate a dataset and write it back as CSV",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		var buf bytes.Buffer
		if err := dataset.WriteCSV(cmd.Context(), &buf, run.Store); err != nil {
			return err
		}
		status := cmd.ErrOrStderr()
		if cleanOutputPath != "" {
			if err := utils.SafeWriteFile(cleanOutputPath, buf.Bytes()); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(status, "✓ Wrote cleaned dataset to %s\n", cleanOutputPath)
		} else if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
			return err
		}
		printDiagnostics(status, run.Result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&cleanOutputPath, "output", "o", "", "path to write the cleaned CSV (default: stdout)")
}
