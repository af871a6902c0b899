package breaking

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"mftfcheck/internal/registry"
	"mftfcheck/internal/slogutil"
)

// CompareResult contains the result of comparing two snapshots
type CompareResult struct {
	Report       *Report  `json:"-"`
	Summary      *Summary `json:"summary"`
	SemverAdvice string   `json:"semverAdvice"`
	TotalBefore  int      `json:"totalBefore"`
	TotalAfter   int      `json:"totalAfter"`
}

// Comparer runs a fixed set of analyzers over two snapshots
type Comparer struct {
	analyzers []Analyzer
	parallel  bool
	logger    *slog.Logger
}

// NewComparer creates a comparer with the built-in analyzers selected by opts
func NewComparer(opts CompareOptions, logger *slog.Logger) *Comparer {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Comparer{
		analyzers: DefaultAnalyzers(opts.Kinds, logger),
		parallel:  opts.Parallel,
		logger:    logger,
	}
}

// NewComparerWith creates a comparer over caller-supplied analyzers
func NewComparerWith(analyzers []Analyzer, parallel bool, logger *slog.Logger) *Comparer {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Comparer{analyzers: analyzers, parallel: parallel, logger: logger}
}

// Compare analyzes changes between before and after. Each analyzer fills its
// own report; the fragments are merged by module, then entity name, with
// analyzer order breaking ties, so the result does not depend on scheduling.
// Nil registries are treated as empty.
func (c *Comparer) Compare(ctx context.Context, before, after *registry.Registry) (*CompareResult, error) {
	if before == nil {
		before = registry.Empty()
	}
	if after == nil {
		after = registry.Empty()
	}

	start := time.Now()
	c.logger.Debug("Starting comparison",
		"analyzers", len(c.analyzers),
		"parallel", c.parallel,
		"beforeEntities", before.Len(),
		"afterEntities", after.Len(),
	)

	fragments := make([]*Report, len(c.analyzers))
	run := func(i int) {
		an := c.analyzers[i]
		fragments[i] = an.Analyze(before, after)
		c.logger.Debug("Analyzer completed",
			slogutil.ScopeKey, an.Kind(),
			"operations", fragments[i].Len(),
		)
	}

	if c.parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i := range c.analyzers {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				run(i)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range c.analyzers {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			run(i)
		}
	}

	report := mergeFragments(fragments)

	summary := report.Summary()
	c.logger.Debug("Comparison completed",
		"operations", report.Len(),
		"duration", time.Since(start).Milliseconds(),
	)

	return &CompareResult{
		Report:       report,
		Summary:      summary,
		SemverAdvice: summary.SemverAdvice(),
		TotalBefore:  before.Len(),
		TotalAfter:   after.Len(),
	}, nil
}

// mergeFragments concatenates fragments and stably sorts the result by the
// module and entity name segments of each target (Module/Label/Name/...).
func mergeFragments(fragments []*Report) *Report {
	report := NewReport()
	for _, fragment := range fragments {
		report.Append(fragment)
	}
	sort.SliceStable(report.entries, func(i, j int) bool {
		mi, ni := entityOf(report.entries[i].op.Target)
		mj, nj := entityOf(report.entries[j].op.Target)
		if mi != mj {
			return mi < mj
		}
		return ni < nj
	})
	return report
}

func entityOf(target string) (module, name string) {
	parts := strings.SplitN(target, "/", 4)
	module = parts[0]
	if len(parts) > 2 {
		name = parts[2]
	}
	return module, name
}
