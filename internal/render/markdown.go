package render

import (
	"fmt"
	"strings"

	"mftfcheck/internal/breaking"
)

var markdownEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;", "|", `\|`)

// Markdown formats v as a markdown document suitable for a pull request comment.
func Markdown(v *View, opts Options) string {
	var sb strings.Builder
	summary := v.Summary()

	sb.WriteString("# MFTF Semantic Version Check\n\n")
	sb.WriteString(fmt.Sprintf("Comparing `%s` → `%s`\n\n", v.Before, v.After))
	sb.WriteString(fmt.Sprintf("**Recommended version bump: %s**\n\n", strings.ToUpper(summary.SemverAdvice())))

	sb.WriteString("| Severity | Count |\n")
	sb.WriteString("|----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| MAJOR | %d |\n", summary.Major))
	sb.WriteString(fmt.Sprintf("| MINOR | %d |\n", summary.Minor))
	sb.WriteString(fmt.Sprintf("| PATCH | %d |\n", summary.Patch))
	if v.Suppressed > 0 {
		sb.WriteString(fmt.Sprintf("\n%d operation(s) suppressed.\n", v.Suppressed))
	}

	var rows []breaking.Operation
	for _, op := range v.Report.All() {
		if listed(op.Severity, opts) {
			rows = append(rows, op)
		}
	}
	if len(rows) == 0 {
		if v.Report.Len() == 0 {
			sb.WriteString("\nNo changes detected.\n")
		}
		return sb.String()
	}

	sb.WriteString("\n| Level | Code | Target | Reason |\n")
	sb.WriteString("|-------|------|--------|--------|\n")
	for _, op := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %s | `%s` | %s |\n",
			op.Severity, op.Code, op.Target, markdownEscaper.Replace(op.Reason)))
	}
	return sb.String()
}
