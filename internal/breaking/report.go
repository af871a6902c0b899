package breaking

import (
	"strings"
)

// ContextMFTF is the report context every MFTF analyzer writes to.
const ContextMFTF = "mftf"

// Operation is one detected change between two snapshots.
type Operation struct {
	Kind            ChangeKind `json:"-"`
	Code            string     `json:"code"`
	Severity        Severity   `json:"severity"`
	Reason          string     `json:"reason"`
	Target          string     `json:"target"`
	SourceLocations []string   `json:"sourceLocations,omitempty"`
}

// NewOperation creates the operation for kind at target.
func NewOperation(kind ChangeKind, target string, sources []string) Operation {
	var locs []string
	if len(sources) > 0 {
		locs = append(make([]string, 0, len(sources)), sources...)
	}
	return Operation{
		Kind:            kind,
		Code:            kind.Code(),
		Severity:        kind.Severity(),
		Reason:          kind.Reason(),
		Target:          target,
		SourceLocations: locs,
	}
}

// Module returns the module segment of the operation's target.
func (o Operation) Module() string {
	module, _, _ := strings.Cut(o.Target, "/")
	return module
}

// Sink is the append-only view of a report handed to analyzers.
type Sink interface {
	Add(context string, op Operation)
}

type reportEntry struct {
	context string
	op      Operation
}

// Report is an ordered, append-only collection of operations.
// A Report is not safe for concurrent appends; parallel analyzers each fill
// their own Report and the driver concatenates them.
type Report struct {
	entries []reportEntry
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{}
}

// Add appends op under context.
func (r *Report) Add(context string, op Operation) {
	r.entries = append(r.entries, reportEntry{context: context, op: op})
}

// Append copies every entry of other, in order, to the end of r.
func (r *Report) Append(other *Report) {
	if other == nil {
		return
	}
	r.entries = append(r.entries, other.entries...)
}

// Len returns the number of operations.
func (r *Report) Len() int {
	return len(r.entries)
}

// All returns every operation in insertion order.
func (r *Report) All() []Operation {
	ops := make([]Operation, len(r.entries))
	for i, e := range r.entries {
		ops[i] = e.op
	}
	return ops
}

// Each calls fn for every operation in insertion order.
func (r *Report) Each(fn func(context string, op Operation)) {
	for _, e := range r.entries {
		fn(e.context, e.op)
	}
}

// Context returns the operations added under context, in insertion order.
func (r *Report) Context(context string) []Operation {
	var ops []Operation
	for _, e := range r.entries {
		if e.context == context {
			ops = append(ops, e.op)
		}
	}
	return ops
}

// Contexts returns the distinct contexts in order of first appearance.
func (r *Report) Contexts() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range r.entries {
		if !seen[e.context] {
			seen[e.context] = true
			out = append(out, e.context)
		}
	}
	return out
}

// Filter returns a new report holding the operations keep accepts, with the
// original order and contexts preserved.
func (r *Report) Filter(keep func(Operation) bool) *Report {
	out := NewReport()
	for _, e := range r.entries {
		if keep(e.op) {
			out.entries = append(out.entries, e)
		}
	}
	return out
}

// MaxSeverity returns the most severe severity present; ok is false for an
// empty report.
func (r *Report) MaxSeverity() (sev Severity, ok bool) {
	for _, e := range r.entries {
		if !ok || severityOrder(e.op.Severity) < severityOrder(sev) {
			sev, ok = e.op.Severity, true
		}
	}
	return sev, ok
}

// Summary calculates summary statistics
func (r *Report) Summary() *Summary {
	summary := &Summary{
		TotalChanges: len(r.entries),
		ByCode:       make(map[string]int),
		ByModule:     make(map[string]int),
	}

	for _, e := range r.entries {
		summary.ByCode[e.op.Code]++
		if module := e.op.Module(); module != "" {
			summary.ByModule[module]++
		}

		switch e.op.Severity {
		case SeverityMajor:
			summary.Major++
		case SeverityMinor:
			summary.Minor++
		case SeverityPatch:
			summary.Patch++
		}
	}

	return summary
}
