package breaking

import (
	"log/slog"

	"mftfcheck/internal/registry"
)

// Entity kinds as declared in MFTF XML.
const (
	KindTest        = "test"
	KindActionGroup = "actionGroup"
	KindData        = "entity"
	KindPage        = "page"
	KindSection     = "section"
	KindSuite       = "suite"
	KindMetadata    = "operation"
)

// Tags that hold structure rather than actions.
var (
	testContainerTags        = []string{"annotations", "before", "after"}
	actionGroupContainerTags = []string{"annotations", "arguments"}
)

func actionRule(added, removed, typeChanged ChangeKind, exclude []string) ElementRule {
	return ElementRule{
		Exclude:      exclude,
		IdentityAttr: "stepKey",
		Added:        added,
		Removed:      removed,
		TypeChanged:  typeChanged,
	}
}

func hookRule(tag string, added, removed ChangeKind, actions ElementRule) ElementRule {
	return ElementRule{
		Tag:       tag,
		Singleton: true,
		Added:     added,
		Removed:   removed,
		Nested:    []ElementRule{actions},
	}
}

func suiteSelectionRules(container string, added, removed ChangeKind) []ElementRule {
	var rules []ElementRule
	for _, tag := range []string{"test", "group", "module"} {
		rules = append(rules, ElementRule{
			Tag:          container + "/" + tag,
			IdentityAttr: "name",
			Added:        added,
			Removed:      removed,
		})
	}
	return rules
}

func argumentAddedKind(e registry.Element) ChangeKind {
	if _, ok := e.Attr("defaultValue"); ok {
		return ActionGroupOptionalArgumentAdded
	}
	return ActionGroupArgumentAdded
}

// TestSpec tracks test actions, hooks and group annotations.
var TestSpec = KindSpec{
	Kind:    KindTest,
	Label:   "Test",
	Added:   TestAdded,
	Removed: TestRemoved,
	Elements: []ElementRule{
		actionRule(TestActionAdded, TestActionRemoved, TestActionTypeChanged, testContainerTags),
		hookRule("before", TestBeforeAfterAdded, TestBeforeAfterRemoved,
			actionRule(TestBeforeAfterActionAdded, TestBeforeAfterActionRemoved, TestBeforeAfterActionTypeChanged, nil)),
		hookRule("after", TestBeforeAfterAdded, TestBeforeAfterRemoved,
			actionRule(TestBeforeAfterActionAdded, TestBeforeAfterActionRemoved, TestBeforeAfterActionTypeChanged, nil)),
		{
			Tag:          "annotations/group",
			IdentityAttr: "value",
			Added:        TestGroupAdded,
			Removed:      TestGroupRemoved,
		},
	},
}

// ActionGroupSpec tracks arguments and actions of action groups.
var ActionGroupSpec = KindSpec{
	Kind:    KindActionGroup,
	Label:   "ActionGroup",
	Added:   ActionGroupAdded,
	Removed: ActionGroupRemoved,
	Elements: []ElementRule{
		{
			Tag:          "arguments/argument",
			IdentityAttr: "name",
			AddedFor:     argumentAddedKind,
			Removed:      ActionGroupArgumentRemoved,
			Attributes: []AttributeRule{
				{Name: "type", Changed: ActionGroupArgumentTypeChanged},
				{Name: "defaultValue", Changed: ActionGroupArgumentDefaultValueChanged},
			},
		},
		actionRule(ActionGroupActionAdded, ActionGroupActionRemoved, ActionGroupActionTypeChanged, actionGroupContainerTags),
	},
}

// DataSpec tracks fields, required entities and arrays of data entities.
var DataSpec = KindSpec{
	Kind:    KindData,
	Label:   "Data",
	Added:   DataEntityAdded,
	Removed: DataEntityRemoved,
	Attributes: []AttributeRule{
		{Name: "type", Changed: DataEntityTypeChanged},
	},
	Elements: []ElementRule{
		{
			Tag:          "data",
			IdentityAttr: "key",
			Added:        DataEntityFieldAdded,
			Removed:      DataEntityFieldRemoved,
			TextChanged:  DataEntityFieldValueChanged,
		},
		{
			Tag:          "requiredEntity",
			IdentityAttr: "type",
			Added:        DataEntityRequiredEntityAdded,
			Removed:      DataEntityRequiredEntityRemoved,
			TextChanged:  DataEntityRequiredEntityValueChanged,
		},
		{
			Tag:          "array",
			IdentityAttr: "key",
			Added:        DataEntityArrayAdded,
			Removed:      DataEntityArrayRemoved,
			Nested: []ElementRule{{
				Tag:          "item",
				IdentityAttr: TextIdentity,
				Added:        DataEntityArrayItemAdded,
				Removed:      DataEntityArrayItemRemoved,
			}},
		},
	},
}

// PageSpec tracks the sections a page declares.
var PageSpec = KindSpec{
	Kind:    KindPage,
	Label:   "Page",
	Added:   PageAdded,
	Removed: PageRemoved,
	Attributes: []AttributeRule{
		{Name: "url", Changed: PageURLChanged},
	},
	Elements: []ElementRule{{
		Tag:          "section",
		IdentityAttr: "name",
		Added:        PageSectionAdded,
		Removed:      PageSectionRemoved,
	}},
}

// SectionSpec tracks section elements and their selectors.
var SectionSpec = KindSpec{
	Kind:    KindSection,
	Label:   "Section",
	Added:   SectionAdded,
	Removed: SectionRemoved,
	Elements: []ElementRule{{
		Tag:          "element",
		IdentityAttr: "name",
		Added:        SectionElementAdded,
		Removed:      SectionElementRemoved,
		Attributes: []AttributeRule{
			{Name: "selector", Changed: SectionElementSelectorChanged},
			{Name: "type", Changed: SectionElementTypeChanged},
		},
	}},
}

func suiteHookActions() ElementRule {
	r := actionRule(SuiteBeforeAfterActionAdded, SuiteBeforeAfterActionRemoved, SuiteBeforeAfterActionTypeChanged, nil)
	r.Reordered = SuiteBeforeAfterActionSequenceChanged
	return r
}

// SuiteSpec tracks suite hooks, whose action order matters, and the
// include/exclude selections.
var SuiteSpec = KindSpec{
	Kind:    KindSuite,
	Label:   "Suite",
	Added:   SuiteAdded,
	Removed: SuiteRemoved,
	Elements: append([]ElementRule{
		hookRule("before", SuiteBeforeAfterAdded, SuiteBeforeAfterRemoved, suiteHookActions()),
		hookRule("after", SuiteBeforeAfterAdded, SuiteBeforeAfterRemoved, suiteHookActions()),
	}, append(
		suiteSelectionRules("include", SuiteIncludeAdded, SuiteIncludeRemoved),
		suiteSelectionRules("exclude", SuiteExcludeAdded, SuiteExcludeRemoved)...,
	)...),
}

// metadataFieldRule matches <field key="sku">string</field>; the field type is
// its text content.
func metadataFieldRule() ElementRule {
	return ElementRule{
		Tag:          "field",
		IdentityAttr: "key",
		Added:        MetadataFieldAdded,
		Removed:      MetadataFieldRemoved,
		TextChanged:  MetadataFieldTypeChanged,
		Attributes: []AttributeRule{
			{Name: "required", Changed: MetadataFieldRequiredChanged, Default: "false"},
		},
	}
}

// MetadataSpec tracks the request contract of metadata operations.
var MetadataSpec = KindSpec{
	Kind:    KindMetadata,
	Label:   "Metadata",
	Added:   MetadataAdded,
	Removed: MetadataRemoved,
	Attributes: []AttributeRule{
		{Name: "dataType", Changed: MetadataDataTypeChanged},
		{Name: "type", Changed: MetadataTypeChanged},
		{Name: "url", Changed: MetadataURLChanged},
		{Name: "method", Changed: MetadataMethodChanged},
	},
	Elements: []ElementRule{
		metadataFieldRule(),
		{
			Tag:          "object",
			IdentityAttr: "key",
			Added:        MetadataObjectAdded,
			Removed:      MetadataObjectRemoved,
			Nested:       []ElementRule{metadataFieldRule()},
		},
	},
}

// Specs lists every built-in kind in report order.
var Specs = []KindSpec{
	TestSpec,
	ActionGroupSpec,
	DataSpec,
	PageSpec,
	SectionSpec,
	SuiteSpec,
	MetadataSpec,
}

// KindNames returns the entity kinds handled by Specs.
func KindNames() []string {
	names := make([]string, len(Specs))
	for i, s := range Specs {
		names[i] = s.Kind
	}
	return names
}

// DefaultAnalyzers builds one analyzer per built-in kind. When kinds is
// non-empty only those kinds are included; unknown names are ignored.
func DefaultAnalyzers(kinds []string, logger *slog.Logger) []Analyzer {
	var analyzers []Analyzer
	for _, spec := range Specs {
		if len(kinds) > 0 && !contains(kinds, spec.Kind) {
			continue
		}
		analyzers = append(analyzers, NewEntityAnalyzer(spec, logger))
	}
	return analyzers
}
