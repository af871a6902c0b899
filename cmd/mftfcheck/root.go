package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mftfcheck/internal/breaking"
	"mftfcheck/internal/config"
	ckerrors "mftfcheck/internal/errors"
	"mftfcheck/internal/slogutil"
	"mftfcheck/internal/version"
)

var (
	// rootDir is where .mftfcheck/config.json is looked up
	rootDir   string
	verbosity int
	quiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "mftfcheck",
	Short: "mftfcheck - semantic version checker for MFTF test definitions",
	Long: `mftfcheck compares two snapshots of a Magento Functional Testing Framework
corpus (pages, sections, suites, action groups, data, metadata and tests) and
classifies every structural change as MAJOR, MINOR or PATCH.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("mftfcheck version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Project root holding .mftfcheck/ (default: current directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
}

// projectRoot returns --root or the working directory.
func projectRoot() (string, error) {
	if rootDir != "" {
		return filepath.Abs(rootDir)
	}
	return os.Getwd()
}

// loadConfig loads and validates the project configuration.
func loadConfig() (*config.Config, string, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, root, ckerrors.New(ckerrors.ConfigInvalid, "failed to load configuration", err)
	}
	if err := cfg.Validate(breaking.KindNames()); err != nil {
		return nil, root, ckerrors.New(ckerrors.ConfigInvalid, err.Error(), err)
	}
	return cfg, root, nil
}

// newLogger builds the stderr logger. The returned closer releases any log file.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, io.Closer) {
	level := slogutil.LevelFromVerbosity(verbosity, quiet)
	factory := slogutil.NewLoggerFactory(cfg, level, verbosity > 0 || quiet)
	return factory.Logger(w), factory
}

// resolvePath makes p absolute against root unless it already is.
func resolvePath(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// newContext creates a new context for command execution.
func newContext() context.Context {
	return context.Background()
}
