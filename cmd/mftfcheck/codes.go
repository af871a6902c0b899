package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mftfcheck/internal/breaking"
)

var codesFormat string

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "List every change code with its severity",
	Long: `Print the catalogue of change codes. Codes are stable and can be used in
suppression lists.`,
	Args: cobra.NoArgs,
	RunE: runCodes,
}

func init() {
	codesCmd.Flags().StringVar(&codesFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(codesCmd)
}

// codeEntry is one row of the catalogue
type codeEntry struct {
	Code     string            `json:"code"`
	Name     string            `json:"name"`
	Severity breaking.Severity `json:"severity"`
	Reason   string            `json:"reason"`
}

func catalogueEntries() []codeEntry {
	kinds := breaking.AllChangeKinds()
	entries := make([]codeEntry, len(kinds))
	for i, k := range kinds {
		entries[i] = codeEntry{Code: k.Code(), Name: k.String(), Severity: k.Severity(), Reason: k.Reason()}
	}
	return entries
}

func runCodes(cmd *cobra.Command, args []string) error {
	entries := catalogueEntries()
	switch codesFormat {
	case "json":
		return writeJSON(cmd.OutOrStdout(), entries)
	case "human", "":
		writeCodes(cmd.OutOrStdout(), entries)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", codesFormat)
	}
}

func writeCodes(w io.Writer, entries []codeEntry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tSEVERITY\tNAME\tREASON")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Code, e.Severity, e.Name, e.Reason)
	}
	tw.Flush()
}
