package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"mftfcheck/internal/snapshot"
)

var snapshotOutput string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save and inspect corpus snapshots",
	Long: `Snapshots capture a scanned MFTF corpus in a single file so the "before"
side of a comparison does not need a checkout.

The encoding follows the file extension: .json, .yaml/.yml or .toml, each
optionally followed by .zst for zstd compression.`,
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save <corpus>",
	Short: "Scan a corpus and write it to a snapshot file",
	Long: `Scan a corpus directory and write its registry to a snapshot.

Examples:
  mftfcheck snapshot save app/code -o before.json.zst
  mftfcheck snapshot save vendor/magento -o snapshots/2.4.6.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshotSave,
}

var snapshotInfoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Describe a snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotInfo,
}

func init() {
	snapshotSaveCmd.Flags().StringVarP(&snapshotOutput, "output", "o", "", "Snapshot file to write (required)")
	_ = snapshotSaveCmd.MarkFlagRequired("output")

	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotInfoCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshotSave(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closer := newLogger(cfg, cmd.ErrOrStderr())
	defer closer.Close()

	if _, _, err := snapshot.ParsePath(snapshotOutput); err != nil {
		return err
	}

	reg, err := loadRegistry(newContext(), args[0], logger)
	if err != nil {
		return err
	}
	if err := snapshot.Save(snapshotOutput, reg, args[0]); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d entities in %d modules to %s\n",
		reg.Len(), len(reg.Modules()), snapshotOutput)
	return nil
}

func runSnapshotInfo(cmd *cobra.Command, args []string) error {
	doc, err := snapshot.Load(args[0])
	if err != nil {
		return err
	}
	if _, err := doc.Registry(); err != nil {
		return err
	}
	writeSnapshotInfo(cmd.OutOrStdout(), args[0], doc)
	return nil
}

func writeSnapshotInfo(w io.Writer, path string, doc *snapshot.Document) {
	modules := make([]string, 0, len(doc.Modules))
	total := 0
	for module, entities := range doc.Modules {
		modules = append(modules, module)
		total += len(entities)
	}
	sort.Strings(modules)

	fmt.Fprintf(w, "Snapshot: %s\n", path)
	fmt.Fprintf(w, "  Version: %d\n", doc.Version)
	if doc.Source != "" {
		fmt.Fprintf(w, "  Source: %s\n", doc.Source)
	}
	fmt.Fprintf(w, "  Created: %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(w, "  Modules: %d\n", len(modules))
	fmt.Fprintf(w, "  Entities: %d\n", total)
	for _, module := range modules {
		kinds := make(map[string]int)
		for _, e := range doc.Modules[module] {
			kinds[e.Kind]++
		}
		fmt.Fprintf(w, "    %s: %d (%s)\n", module, len(doc.Modules[module]), formatCounts(kinds))
	}
}

// formatCounts renders a kind histogram as "page=2, section=1", sorted by key.
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%d", k, counts[k])
	}
	return out
}
