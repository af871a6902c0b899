// Package render writes comparison reports as text, JSON or markdown.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"mftfcheck/internal/breaking"
	ckerrors "mftfcheck/internal/errors"
)

// Format is a report output format
type Format string

const (
	FormatHuman    Format = "human"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format name. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "human", "text", "":
		return FormatHuman, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", ckerrors.Newf(ckerrors.UnsupportedFormat, "unsupported report format %q (want human, json or markdown)", s)
}

// Options controls rendering
type Options struct {
	// IncludeMinor lists MINOR and PATCH operations in human and markdown
	// output. Counts always cover every operation; JSON always lists all.
	IncludeMinor bool
	Color        bool
}

// View is everything a renderer needs about one comparison
type View struct {
	Before      string
	After       string
	Report      *breaking.Report
	TotalBefore int
	TotalAfter  int
	Suppressed  int
}

// NewView builds a view over report, the possibly filtered report of res.
func NewView(before, after string, res *breaking.CompareResult, report *breaking.Report, suppressed int) *View {
	if report == nil {
		report = res.Report
	}
	return &View{
		Before:      before,
		After:       after,
		Report:      report,
		TotalBefore: res.TotalBefore,
		TotalAfter:  res.TotalAfter,
		Suppressed:  suppressed,
	}
}

// Summary summarizes the operations the view lists.
func (v *View) Summary() *breaking.Summary {
	return v.Report.Summary()
}

// Render writes v to w in format.
func Render(w io.Writer, format Format, v *View, opts Options) error {
	switch format {
	case FormatHuman:
		_, err := io.WriteString(w, Human(v, opts))
		return err
	case FormatJSON:
		return JSON(w, v)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(v, opts))
		return err
	}
	return ckerrors.Newf(ckerrors.UnsupportedFormat, "unsupported report format %q", format)
}

type jsonOperation struct {
	Context string `json:"context"`
	breaking.Operation
}

type jsonDocument struct {
	Before       string            `json:"before"`
	After        string            `json:"after"`
	SemverAdvice string            `json:"semverAdvice"`
	Summary      *breaking.Summary `json:"summary"`
	TotalBefore  int               `json:"totalBefore"`
	TotalAfter   int               `json:"totalAfter"`
	Suppressed   int               `json:"suppressed"`
	Operations   []jsonOperation   `json:"operations"`
}

// JSON writes v as indented JSON. Map keys are sorted by encoding/json and
// operations keep report order, so equal reports encode identically.
func JSON(w io.Writer, v *View) error {
	summary := v.Summary()
	doc := jsonDocument{
		Before:       v.Before,
		After:        v.After,
		SemverAdvice: summary.SemverAdvice(),
		Summary:      summary,
		TotalBefore:  v.TotalBefore,
		TotalAfter:   v.TotalAfter,
		Suppressed:   v.Suppressed,
		Operations:   make([]jsonOperation, 0, v.Report.Len()),
	}
	v.Report.Each(func(context string, op breaking.Operation) {
		doc.Operations = append(doc.Operations, jsonOperation{Context: context, Operation: op})
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

// bySeverity splits ops into MAJOR, MINOR and PATCH groups keeping order.
func bySeverity(r *breaking.Report) map[breaking.Severity][]breaking.Operation {
	groups := make(map[breaking.Severity][]breaking.Operation, len(breaking.Severities))
	for _, op := range r.All() {
		groups[op.Severity] = append(groups[op.Severity], op)
	}
	return groups
}

func listed(sev breaking.Severity, opts Options) bool {
	return sev == breaking.SeverityMajor || opts.IncludeMinor
}
