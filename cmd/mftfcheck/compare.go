package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"mftfcheck/internal/breaking"
	"mftfcheck/internal/config"
	ckerrors "mftfcheck/internal/errors"
	"mftfcheck/internal/registry"
	"mftfcheck/internal/render"
	"mftfcheck/internal/scanner"
	"mftfcheck/internal/snapshot"
	"mftfcheck/internal/storage"
	"mftfcheck/internal/suppress"
)

var (
	compareFormat       string
	compareFailOn       string
	compareKinds        []string
	compareSuppressions string
	compareSequential   bool
	compareIncludeMinor bool
	compareNoColor      bool
	compareRecord       bool
	compareNoHistory    bool
)

var compareCmd = &cobra.Command{
	Use:   "compare <before> <after>",
	Short: "Classify MFTF changes between two corpora or snapshots",
	Long: `Compare two MFTF corpora and report every structural change with its
semantic-versioning severity.

Each side is either a directory (scanned for <Vendor>/<Module>/Test/Mftf) or a
snapshot written by 'mftfcheck snapshot save'.

Exit status is 0 when no reported change reaches --fail-on, 1 when one does,
and 2 on errors.

Examples:
  mftfcheck compare release-2.4.6/app/code app/code
  mftfcheck compare before.json.zst app/code --format=markdown
  mftfcheck compare a b --fail-on=minor --kinds=page,section
  mftfcheck compare a b --suppressions=.mftfcheck/suppress.toml --record`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareFormat, "format", "", "Output format (human, json, markdown)")
	compareCmd.Flags().StringVar(&compareFailOn, "fail-on", "", "Lowest severity that fails the run (major, minor, patch, never)")
	compareCmd.Flags().StringSliceVar(&compareKinds, "kinds", nil, "Limit to entity kinds (e.g. page,suite)")
	compareCmd.Flags().StringVar(&compareSuppressions, "suppressions", "", "Suppression list (TOML)")
	compareCmd.Flags().BoolVar(&compareSequential, "sequential", false, "Run analyzers one after another")
	compareCmd.Flags().BoolVar(&compareIncludeMinor, "include-minor", false, "List MINOR and PATCH changes")
	compareCmd.Flags().BoolVar(&compareNoColor, "no-color", false, "Disable colored output")
	compareCmd.Flags().BoolVar(&compareRecord, "record", false, "Store this run in the history database")
	compareCmd.Flags().BoolVar(&compareNoHistory, "no-history", false, "Do not store this run even if history is enabled")

	rootCmd.AddCommand(compareCmd)
}

// compareRequest is a fully resolved compare invocation
type compareRequest struct {
	Before       string
	After        string
	Format       render.Format
	FailOn       string
	Kinds        []string
	Parallel     bool
	Suppressions string
	HistoryPath  string
	Render       render.Options
	Now          time.Time
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closer := newLogger(cfg, cmd.ErrOrStderr())
	defer closer.Close()

	req, err := newCompareRequest(cmd, cfg, root, args[0], args[1])
	if err != nil {
		return err
	}

	code, err := executeCompare(newContext(), req, cmd.OutOrStdout(), logger)
	if err != nil {
		return err
	}
	if code != exitOK {
		return &exitError{code: code}
	}
	return nil
}

// newCompareRequest merges flags over the configuration. Flags win only when set.
func newCompareRequest(cmd *cobra.Command, cfg *config.Config, root, before, after string) (*compareRequest, error) {
	flags := cmd.Flags()
	req := &compareRequest{
		Before:       before,
		After:        after,
		FailOn:       cfg.Report.FailOn,
		Kinds:        cfg.Analysis.Kinds,
		Parallel:     cfg.Analysis.Parallel,
		Suppressions: resolvePath(root, cfg.Suppressions.Path),
		Render: render.Options{
			IncludeMinor: cfg.Report.IncludeMinor,
			Color:        cfg.Report.Color && isTerminal(cmd.OutOrStdout()),
		},
		Now: time.Now(),
	}

	formatName := cfg.Report.Format
	if compareFormat != "" {
		formatName = compareFormat
	}
	format, err := render.ParseFormat(formatName)
	if err != nil {
		return nil, ckerrors.New(ckerrors.UnsupportedFormat, err.Error(), err)
	}
	req.Format = format

	if compareFailOn != "" {
		req.FailOn = compareFailOn
	}
	if _, err := failThreshold(req.FailOn); err != nil {
		return nil, ckerrors.New(ckerrors.ConfigInvalid, err.Error(), err)
	}

	if len(compareKinds) > 0 {
		req.Kinds = compareKinds
	}
	if err := validateKinds(req.Kinds); err != nil {
		return nil, err
	}

	if flags.Changed("sequential") {
		req.Parallel = !compareSequential
	}
	if compareSuppressions != "" {
		req.Suppressions = compareSuppressions
	}
	if flags.Changed("include-minor") {
		req.Render.IncludeMinor = compareIncludeMinor
	}
	if compareNoColor {
		req.Render.Color = false
	}

	record := cfg.History.Enabled
	if flags.Changed("record") {
		record = compareRecord
	}
	if compareNoHistory {
		record = false
	}
	if record {
		req.HistoryPath = resolvePath(root, cfg.History.Path)
	}
	return req, nil
}

// executeCompare runs one comparison, writes the report to w and returns the
// exit status the report calls for.
func executeCompare(ctx context.Context, req *compareRequest, w io.Writer, logger *slog.Logger) (int, error) {
	start := time.Now()

	before, err := loadRegistry(ctx, req.Before, logger)
	if err != nil {
		return exitFailure, fmt.Errorf("before: %w", err)
	}
	after, err := loadRegistry(ctx, req.After, logger)
	if err != nil {
		return exitFailure, fmt.Errorf("after: %w", err)
	}

	comparer := breaking.NewComparer(breaking.CompareOptions{Kinds: req.Kinds, Parallel: req.Parallel}, logger)
	res, err := comparer.Compare(ctx, before, after)
	if err != nil {
		return exitFailure, err
	}

	report := res.Report
	suppressed := 0
	if req.Suppressions != "" {
		list, err := suppress.Load(req.Suppressions)
		if err != nil {
			return exitFailure, err
		}
		if list.Len() > 0 {
			applied := list.Apply(report, req.Now)
			report, suppressed = applied.Report, applied.Suppressed
			logger.Info("Applied suppressions",
				"rules", list.Len(),
				"suppressed", suppressed,
			)
		}
	}

	view := render.NewView(req.Before, req.After, res, report, suppressed)
	if err := render.Render(w, req.Format, view, req.Render); err != nil {
		return exitFailure, err
	}

	if req.HistoryPath != "" {
		if err := recordRun(req, res, report, suppressed, time.Since(start), logger); err != nil {
			logger.Warn("Failed to record run", "path", req.HistoryPath, "error", err)
		}
	}

	logger.Debug("Compare completed",
		"operations", report.Len(),
		"suppressed", suppressed,
		"duration", time.Since(start).Milliseconds(),
	)

	threshold, _ := failThreshold(req.FailOn)
	if sev, ok := report.MaxSeverity(); ok && threshold != "" && sev.AtLeast(threshold) {
		return exitFailOn, nil
	}
	return exitOK, nil
}

// loadRegistry reads one side of a comparison: a snapshot file or a corpus directory.
func loadRegistry(ctx context.Context, path string, logger *slog.Logger) (*registry.Registry, error) {
	if snapshot.IsSnapshotPath(path) {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			logger.Debug("Loading snapshot", "path", path)
			return snapshot.LoadRegistry(path)
		}
	}

	sc := scanner.NewScanner(scanner.Options{Logger: logger})
	reg, err := sc.Scan(ctx, path)
	if err != nil {
		return nil, err
	}
	stats := sc.Stats()
	logger.Info("Scanned corpus",
		"path", path,
		"modules", stats.Modules,
		"files", stats.Files,
		"entities", stats.Entities,
	)
	return reg, nil
}

func recordRun(req *compareRequest, res *breaking.CompareResult, report *breaking.Report, suppressed int, elapsed time.Duration, logger *slog.Logger) error {
	db, err := storage.Open(req.HistoryPath, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	run := storage.NewRun(req.Before, req.After, report, res.TotalBefore, res.TotalAfter, suppressed, elapsed)
	if err := storage.NewRunRepository(db).Create(run, report); err != nil {
		return err
	}
	logger.Info("Recorded run", "id", run.ID)
	return nil
}

// failThreshold maps --fail-on to a severity. "never" yields the empty severity.
func failThreshold(s string) (breaking.Severity, error) {
	if strings.EqualFold(strings.TrimSpace(s), "never") {
		return "", nil
	}
	return breaking.ParseSeverity(s)
}

func validateKinds(kinds []string) error {
	known := breaking.KindNames()
	for _, k := range kinds {
		found := false
		for _, name := range known {
			if k == name {
				found = true
				break
			}
		}
		if !found {
			return ckerrors.Newf(ckerrors.ConfigInvalid, "unknown entity kind %q (known: %s)", k, strings.Join(known, ", "))
		}
	}
	return nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
