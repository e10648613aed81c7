// Command tidy completes tables: it adds the rows a table is missing so
// that every combination of the chosen key columns appears.
//
// Usage:
//
//	tidy complete --input data.csv --recipe recipe.yaml --output out.parquet
//	tidy complete --input data.csv --group group --group item_id,item_name --sort
//	tidy version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tidy",
		Short:         "Make implicitly missing rows of a table explicit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("verbose", false, "enable debug logging")
	root.PersistentFlags().String("config", "", "engine configuration file (.json, .yaml)")

	addCommands(root)
	return root
}

func addCommands(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Complete a table with the combinations of its key columns",
		Long: `Complete reads a table, adds a row for every combination of the groups
given by --group flags or a recipe file, fills the new cells and writes the result.
The input and output formats follow the file extensions (.csv, .parquet, .json,
.jsonl). Without --output the result is written to stdout as CSV.`,
		Args: cobra.NoArgs,
		RunE: runComplete}
	cmd.Flags().StringP("input", "i", "", "input table")
	cmd.Flags().StringP("recipe", "r", "", "YAML completion recipe")
	cmd.Flags().StringP("output", "o", "", "output table (default: CSV on stdout)")
	cmd.Flags().StringArrayP("group", "g", nil, "group column, or comma separated nested columns (repeatable)")
	cmd.Flags().StringSlice("by", nil, "columns to complete within (overrides the recipe)")
	cmd.Flags().Bool("sort", false, "sort the result by the key columns (overrides the recipe)")
	cmd.Flags().Bool("implicit", false, "fill only the rows added by completion")
	cmd.Flags().Bool("stats", false, "log the time spent in each completion stage")
	_ = cmd.MarkFlagRequired("input")
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE:  runVersion}
	cmd.Flags().Bool("json", false, "print build information as JSON")
	root.AddCommand(cmd)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
