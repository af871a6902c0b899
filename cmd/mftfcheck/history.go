package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mftfcheck/internal/config"
	ckerrors "mftfcheck/internal/errors"
	"mftfcheck/internal/storage"
)

var (
	historyFormat string
	historyLimit  int
	historyKeep   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded compare runs",
	Long: `Runs are recorded by 'mftfcheck compare --record' or when history.enabled
is set in .mftfcheck/config.json.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a recorded run and its operations",
	Long: `Show a recorded run. A unique prefix of the run id is accepted.

Examples:
  mftfcheck history show 3f2a9c1e
  mftfcheck history show 3f2a --format=json`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

func init() {
	historyCmd.PersistentFlags().StringVar(&historyFormat, "format", "human", "Output format (json, human)")
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list (0 for all)")
	historyPruneCmd.Flags().IntVar(&historyKeep, "keep", 50, "Number of runs to keep")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory opens the configured history database.
func openHistory(cmd *cobra.Command) (*storage.RunRepository, func(), error) {
	cfg, root, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, closer := newLogger(cfg, cmd.ErrOrStderr())
	path := historyPath(cfg, root)
	if path == "" {
		closer.Close()
		return nil, nil, ckerrors.Newf(ckerrors.ConfigInvalid, "history.path is not set")
	}
	db, err := storage.Open(path, logger)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return storage.NewRunRepository(db), func() {
		db.Close()
		closer.Close()
	}, nil
}

func historyPath(cfg *config.Config, root string) string {
	return resolvePath(root, cfg.History.Path)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	repo, done, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer done()

	runs, err := repo.List(historyLimit)
	if err != nil {
		return err
	}
	if historyFormat == "json" {
		if runs == nil {
			runs = []*storage.Run{}
		}
		return writeJSON(cmd.OutOrStdout(), runs)
	}
	writeRunTable(cmd.OutOrStdout(), runs)
	return nil
}

func writeRunTable(w io.Writer, runs []*storage.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tADVICE\tMAJOR\tMINOR\tPATCH\tBEFORE\tAFTER")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			shortID(run.ID),
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			run.SemverAdvice,
			run.Major, run.Minor, run.Patch,
			run.Before, run.After,
		)
	}
	tw.Flush()
}

// historyShowResponse is the JSON shape of `history show`
type historyShowResponse struct {
	Run        *storage.Run              `json:"run"`
	Operations []storage.OperationRecord `json:"operations"`
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	repo, done, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer done()

	run, err := repo.Get(args[0])
	if err != nil {
		return err
	}
	ops, err := repo.Operations(run.ID)
	if err != nil {
		return err
	}
	if ops == nil {
		ops = []storage.OperationRecord{}
	}

	if historyFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), historyShowResponse{Run: run, Operations: ops})
	}
	writeRunDetail(cmd.OutOrStdout(), run, ops)
	return nil
}

func writeRunDetail(w io.Writer, run *storage.Run, ops []storage.OperationRecord) {
	fmt.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "  Created: %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  Comparing: %s → %s\n", run.Before, run.After)
	fmt.Fprintf(w, "  Entities: %d before, %d after\n", run.TotalBefore, run.TotalAfter)
	fmt.Fprintf(w, "  Changes: %d major, %d minor, %d patch (%d suppressed)\n",
		run.Major, run.Minor, run.Patch, run.Suppressed)
	fmt.Fprintf(w, "  Recommended version bump: %s\n", run.SemverAdvice)
	fmt.Fprintf(w, "  Duration: %dms\n", run.DurationMs)

	if len(ops) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, op := range ops {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", op.Severity, op.Code, op.Target, op.Reason)
	}
	tw.Flush()
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	if historyKeep < 0 {
		return fmt.Errorf("--keep must not be negative")
	}
	repo, done, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer done()

	removed, err := repo.Prune(historyKeep)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs, kept at most %d.\n", removed, historyKeep)
	return nil
}
