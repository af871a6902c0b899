package breaking

import (
	"log/slog"
	"strings"

	"mftfcheck/internal/match"
	"mftfcheck/internal/registry"
	"mftfcheck/internal/slogutil"
)

// TextIdentity as an IdentityAttr matches elements by their text content.
const TextIdentity = "#text"

// Analyzer compares one entity kind between two snapshots
type Analyzer interface {
	Kind() string
	Analyze(before, after *registry.Registry) *Report
}

// AttributeRule reports Changed when the named attribute's value or presence
// differs between matched nodes. When Default is set, an absent attribute is
// read as Default, so spelling out the default is not a change.
type AttributeRule struct {
	Name    string
	Changed ChangeKind
	Default string
}

// ElementRule describes one tracked child collection of an entity or element.
type ElementRule struct {
	// Tag selects the children to match. A slash-separated path descends
	// through container elements ("arguments/argument"). An empty Tag matches
	// every direct child whose tag is not listed in Exclude.
	Tag     string
	Exclude []string

	// IdentityAttr is the attribute children are matched by. Singleton
	// children (containers such as <before>) are matched by tag instead.
	IdentityAttr string
	Singleton    bool

	Added   ChangeKind
	Removed ChangeKind
	// AddedFor, when set, picks the kind reported for an added element.
	AddedFor func(registry.Element) ChangeKind

	TypeChanged ChangeKind // tag differs for the same identity
	TextChanged ChangeKind
	Reordered   ChangeKind // relative order of matched children differs
	Attributes  []AttributeRule

	// Nested rules apply to the children of matched elements.
	Nested []ElementRule
}

func (r ElementRule) key() match.KeyFunc[registry.Element] {
	switch {
	case r.Singleton:
		return func(e registry.Element) (string, bool) { return e.Tag, true }
	case r.IdentityAttr == TextIdentity:
		return func(e registry.Element) (string, bool) { return e.Text, true }
	default:
		return match.ElementKey(r.IdentityAttr)
	}
}

func (r ElementRule) collect(children []registry.Element) []registry.Element {
	if r.Tag == "" {
		out := make([]registry.Element, 0, len(children))
		for _, c := range children {
			if !contains(r.Exclude, c.Tag) {
				out = append(out, c)
			}
		}
		return out
	}

	steps := strings.Split(r.Tag, "/")
	current := children
	for i, step := range steps {
		var next []registry.Element
		for _, c := range current {
			if c.Tag != step {
				continue
			}
			if i == len(steps)-1 {
				next = append(next, c)
			} else {
				next = append(next, c.Children...)
			}
		}
		current = next
	}
	return current
}

func (r ElementRule) addedKind(e registry.Element) ChangeKind {
	if r.AddedFor != nil {
		return r.AddedFor(e)
	}
	return r.Added
}

// KindSpec parameterizes the engine for one entity kind.
type KindSpec struct {
	Kind       string // entity kind discriminator, e.g. "page"
	Label      string // target segment, e.g. "Page"
	Added      ChangeKind
	Removed    ChangeKind
	Attributes []AttributeRule
	Elements   []ElementRule
}

// EntityAnalyzer is the generic analyzer driven by a KindSpec.
type EntityAnalyzer struct {
	spec    KindSpec
	context string
	logger  *slog.Logger
}

// NewEntityAnalyzer creates an analyzer for spec. A nil logger discards output.
func NewEntityAnalyzer(spec KindSpec, logger *slog.Logger) *EntityAnalyzer {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &EntityAnalyzer{
		spec:    spec,
		context: ContextMFTF,
		logger:  logger.With(slogutil.ScopeKey, spec.Kind),
	}
}

// Kind returns the entity kind the analyzer handles.
func (a *EntityAnalyzer) Kind() string {
	return a.spec.Kind
}

// Analyze compares every entity of the analyzer's kind. Modules and entity
// names are visited in ascending order; a module missing on one side is
// treated as empty.
func (a *EntityAnalyzer) Analyze(before, after *registry.Registry) *Report {
	report := NewReport()
	for _, module := range unionSorted(before.Modules(), after.Modules()) {
		a.analyzeModule(report, module, before, after)
	}
	return report
}

func (a *EntityAnalyzer) analyzeModule(sink Sink, module string, before, after *registry.Registry) {
	prefix := module + "/" + a.spec.Label + "/"

	for _, name := range unionSorted(before.Names(module), after.Names(module)) {
		b, inBefore := before.Lookup(module, name)
		af, inAfter := after.Lookup(module, name)
		ownBefore := inBefore && b.Kind == a.spec.Kind
		ownAfter := inAfter && af.Kind == a.spec.Kind
		if !ownBefore && !ownAfter {
			continue
		}

		// Presence is decided by name alone; a name kept under another kind is
		// neither removed nor added.
		target := prefix + name
		switch {
		case !inAfter:
			a.emit(sink, a.spec.Removed, target, b.SourceLocations)
		case !inBefore:
			a.emit(sink, a.spec.Added, target, af.SourceLocations)
		case ownBefore && ownAfter:
			a.compareEntity(sink, target, b, af)
		case ownBefore:
			a.logger.Warn("Entity changed kind, skipping comparison",
				"module", module,
				"name", name,
				"after", af.Kind,
			)
		}
	}
}

func (a *EntityAnalyzer) compareEntity(sink Sink, target string, before, after registry.Entity) {
	for _, rule := range a.spec.Attributes {
		if attributeChanged(before.Attributes, after.Attributes, rule) {
			a.emit(sink, rule.Changed, target, after.SourceLocations)
		}
	}
	a.compareElements(sink, target, before.Children, after.Children, a.spec.Elements, before.SourceLocations, after.SourceLocations)
}

func (a *EntityAnalyzer) compareElements(sink Sink, target string, before, after []registry.Element, rules []ElementRule, beforeSrc, afterSrc []string) {
	for _, rule := range rules {
		key := rule.key()
		bl := rule.collect(before)
		al := rule.collect(after)
		res := match.ByKey(bl, al, key)

		if len(res.Duplicates) > 0 {
			a.logger.Warn("Duplicate identity values, last declaration wins",
				"target", target,
				"tag", rule.Tag,
				"values", res.Duplicates,
			)
		}

		for _, el := range res.Removed {
			a.emit(sink, rule.Removed, childTarget(target, el, key), beforeSrc)
		}
		for _, el := range res.Added {
			a.emit(sink, rule.addedKind(el), childTarget(target, el, key), afterSrc)
		}
		for _, pair := range res.Matched {
			path := target + "/" + segment(pair.Key, pair.After)
			if pair.Before.Tag != pair.After.Tag {
				a.emit(sink, rule.TypeChanged, path, afterSrc)
			}
			if pair.Before.Text != pair.After.Text {
				a.emit(sink, rule.TextChanged, path, afterSrc)
			}
			for _, attr := range rule.Attributes {
				if attributeChanged(pair.Before.Attributes, pair.After.Attributes, attr) {
					a.emit(sink, attr.Changed, path, afterSrc)
				}
			}
			if len(rule.Nested) > 0 {
				a.compareElements(sink, path, pair.Before.Children, pair.After.Children, rule.Nested, beforeSrc, afterSrc)
			}
		}
		if rule.Reordered != ChangeNone && match.Reordered(bl, al, key) {
			a.emit(sink, rule.Reordered, target, afterSrc)
		}
	}
}

func (a *EntityAnalyzer) emit(sink Sink, kind ChangeKind, target string, sources []string) {
	if kind == ChangeNone {
		return
	}
	sink.Add(a.context, NewOperation(kind, target, sources))
}

func childTarget(target string, el registry.Element, key match.KeyFunc[registry.Element]) string {
	id, ok := key(el)
	if !ok {
		id = ""
	}
	return target + "/" + segment(id, el)
}

// segment names an element in a target path, falling back to its tag when it
// has no usable identity.
func segment(id string, el registry.Element) string {
	if id == "" {
		return el.Tag
	}
	return id
}

func attributeChanged(before, after map[string]string, rule AttributeRule) bool {
	bv, bok := before[rule.Name]
	av, aok := after[rule.Name]
	if rule.Default != "" {
		if !bok {
			bv, bok = rule.Default, true
		}
		if !aok {
			av, aok = rule.Default, true
		}
	}
	return bok != aok || bv != av
}

func unionSorted(a, b []string) []string {
	// Both inputs are sorted; merge them.
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j >= len(b) || (i < len(a) && a[i] < b[j]):
			out = append(out, a[i])
			i++
		case i >= len(a) || b[j] < a[i]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
