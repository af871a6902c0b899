package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"mftfcheck/internal/breaking"
)

type palette struct {
	major, minor, patch, heading *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		major:   color.New(color.FgRed, color.Bold),
		minor:   color.New(color.FgYellow, color.Bold),
		patch:   color.New(color.FgBlue, color.Bold),
		heading: color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.major, p.minor, p.patch, p.heading} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) forSeverity(sev breaking.Severity) *color.Color {
	switch sev {
	case breaking.SeverityMajor:
		return p.major
	case breaking.SeverityMinor:
		return p.minor
	default:
		return p.patch
	}
}

var sections = []struct {
	severity breaking.Severity
	title    string
	marker   string
}{
	{breaking.SeverityMajor, "Major Changes", "✗"},
	{breaking.SeverityMinor, "Minor Changes", "+"},
	{breaking.SeverityPatch, "Patch Changes", "~"},
}

// Human formats v for terminal reading, grouped by severity.
func Human(v *View, opts Options) string {
	p := newPalette(opts.Color)
	var sb strings.Builder

	sb.WriteString(p.heading.Sprint("MFTF Semantic Version Check") + "\n")
	sb.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")
	sb.WriteString(fmt.Sprintf("Comparing: %s → %s\n\n", v.Before, v.After))

	summary := v.Summary()
	if v.Report.Len() == 0 {
		sb.WriteString("No changes detected.\n")
		sb.WriteString(fmt.Sprintf("\nAnalyzed %d entities in target.\n", v.TotalAfter))
		if v.Suppressed > 0 {
			sb.WriteString(fmt.Sprintf("Suppressed: %d\n", v.Suppressed))
		}
		return sb.String()
	}

	groups := bySeverity(v.Report)
	for _, s := range sections {
		ops := groups[s.severity]
		if len(ops) == 0 || !listed(s.severity, opts) {
			continue
		}
		c := p.forSeverity(s.severity)
		sb.WriteString(fmt.Sprintf("%s (%d):\n\n", c.Sprint(s.title), len(ops)))
		for _, op := range ops {
			sb.WriteString(fmt.Sprintf("  %s [%s] %s\n", c.Sprint(s.marker), op.Code, op.Target))
			sb.WriteString(fmt.Sprintf("    %s\n", op.Reason))
			for _, loc := range op.SourceLocations {
				sb.WriteString(fmt.Sprintf("    Location: %s\n", loc))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("Summary:\n")
	sb.WriteString("━━━━━━━\n")
	sb.WriteString(fmt.Sprintf("  Total changes: %d\n", summary.TotalChanges))
	sb.WriteString(fmt.Sprintf("  Major: %d\n", summary.Major))
	sb.WriteString(fmt.Sprintf("  Minor: %d\n", summary.Minor))
	sb.WriteString(fmt.Sprintf("  Patch: %d\n", summary.Patch))
	if v.Suppressed > 0 {
		sb.WriteString(fmt.Sprintf("  Suppressed: %d\n", v.Suppressed))
	}

	advice := strings.ToUpper(summary.SemverAdvice())
	sb.WriteString(fmt.Sprintf("\nRecommended version bump: %s\n", p.forSeverity(breaking.Severity(advice)).Sprint(advice)))

	return sb.String()
}
