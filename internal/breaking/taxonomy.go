package breaking

import "fmt"

// ChangeKind enumerates every change the analyzers can report. Each kind is
// bound to exactly one code, severity and reason in the catalogue below.
type ChangeKind int

const (
	// ChangeNone marks a rule slot that reports nothing.
	ChangeNone ChangeKind = iota

	// Tests
	TestAdded
	TestRemoved
	TestActionAdded
	TestActionRemoved
	TestActionTypeChanged
	TestBeforeAfterAdded
	TestBeforeAfterRemoved
	TestBeforeAfterActionAdded
	TestBeforeAfterActionRemoved
	TestBeforeAfterActionTypeChanged
	TestGroupAdded
	TestGroupRemoved

	// Action groups
	ActionGroupAdded
	ActionGroupRemoved
	ActionGroupArgumentAdded
	ActionGroupOptionalArgumentAdded
	ActionGroupArgumentRemoved
	ActionGroupArgumentTypeChanged
	ActionGroupArgumentDefaultValueChanged
	ActionGroupActionAdded
	ActionGroupActionRemoved
	ActionGroupActionTypeChanged

	// Data entities
	DataEntityAdded
	DataEntityRemoved
	DataEntityTypeChanged
	DataEntityFieldAdded
	DataEntityFieldRemoved
	DataEntityFieldValueChanged
	DataEntityRequiredEntityAdded
	DataEntityRequiredEntityRemoved
	DataEntityRequiredEntityValueChanged
	DataEntityArrayAdded
	DataEntityArrayRemoved
	DataEntityArrayItemAdded
	DataEntityArrayItemRemoved

	// Pages
	PageAdded
	PageRemoved
	PageURLChanged
	PageSectionAdded
	PageSectionRemoved

	// Sections
	SectionAdded
	SectionRemoved
	SectionElementAdded
	SectionElementRemoved
	SectionElementSelectorChanged
	SectionElementTypeChanged

	// Suites
	SuiteAdded
	SuiteRemoved
	SuiteBeforeAfterAdded
	SuiteBeforeAfterRemoved
	SuiteBeforeAfterActionAdded
	SuiteBeforeAfterActionRemoved
	SuiteBeforeAfterActionTypeChanged
	SuiteIncludeAdded
	SuiteIncludeRemoved
	SuiteExcludeAdded
	SuiteExcludeRemoved
	SuiteBeforeAfterActionSequenceChanged

	// Metadata operations
	MetadataAdded
	MetadataRemoved
	MetadataDataTypeChanged
	MetadataTypeChanged
	MetadataURLChanged
	MetadataMethodChanged
	MetadataFieldAdded
	MetadataFieldRemoved
	MetadataFieldTypeChanged
	MetadataFieldRequiredChanged
	MetadataObjectAdded
	MetadataObjectRemoved

	numChangeKinds
)

type catalogueEntry struct {
	name     string
	code     string
	severity Severity
	reason   string
}

var catalogue = [numChangeKinds]catalogueEntry{
	TestAdded:                        {"TestAdded", "M100", SeverityPatch, "<test> was added"},
	TestRemoved:                      {"TestRemoved", "M101", SeverityMajor, "<test> was removed"},
	TestActionAdded:                  {"TestActionAdded", "M102", SeverityMinor, "<test> <action> was added"},
	TestActionRemoved:                {"TestActionRemoved", "M103", SeverityMajor, "<test> <action> was removed"},
	TestActionTypeChanged:            {"TestActionTypeChanged", "M104", SeverityMajor, "<test> <action> type was changed"},
	TestBeforeAfterAdded:             {"TestBeforeAfterAdded", "M105", SeverityMinor, "<test> <before/after> was added"},
	TestBeforeAfterRemoved:           {"TestBeforeAfterRemoved", "M106", SeverityMajor, "<test> <before/after> was removed"},
	TestBeforeAfterActionAdded:       {"TestBeforeAfterActionAdded", "M107", SeverityMinor, "<test> <before/after> <action> was added"},
	TestBeforeAfterActionRemoved:     {"TestBeforeAfterActionRemoved", "M108", SeverityMajor, "<test> <before/after> <action> was removed"},
	TestBeforeAfterActionTypeChanged: {"TestBeforeAfterActionTypeChanged", "M109", SeverityMajor, "<test> <before/after> <action> type was changed"},
	TestGroupAdded:                   {"TestGroupAdded", "M110", SeverityMinor, "<test> <annotations> <group> was added"},
	TestGroupRemoved:                 {"TestGroupRemoved", "M111", SeverityMajor, "<test> <annotations> <group> was removed"},

	ActionGroupAdded:                       {"ActionGroupAdded", "M200", SeverityMinor, "<actionGroup> was added"},
	ActionGroupRemoved:                     {"ActionGroupRemoved", "M201", SeverityMajor, "<actionGroup> was removed"},
	ActionGroupArgumentAdded:               {"ActionGroupArgumentAdded", "M202", SeverityMajor, "<actionGroup> <argument> without default value was added"},
	ActionGroupOptionalArgumentAdded:       {"ActionGroupOptionalArgumentAdded", "M203", SeverityMinor, "<actionGroup> <argument> with default value was added"},
	ActionGroupArgumentRemoved:             {"ActionGroupArgumentRemoved", "M204", SeverityMajor, "<actionGroup> <argument> was removed"},
	ActionGroupArgumentTypeChanged:         {"ActionGroupArgumentTypeChanged", "M205", SeverityMajor, "<actionGroup> <argument> type was changed"},
	ActionGroupArgumentDefaultValueChanged: {"ActionGroupArgumentDefaultValueChanged", "M206", SeverityPatch, "<actionGroup> <argument> default value was changed"},
	ActionGroupActionAdded:                 {"ActionGroupActionAdded", "M207", SeverityMinor, "<actionGroup> <action> was added"},
	ActionGroupActionRemoved:               {"ActionGroupActionRemoved", "M208", SeverityMajor, "<actionGroup> <action> was removed"},
	ActionGroupActionTypeChanged:           {"ActionGroupActionTypeChanged", "M209", SeverityMajor, "<actionGroup> <action> type was changed"},

	DataEntityAdded:                      {"DataEntityAdded", "M250", SeverityMinor, "<entity> was added"},
	DataEntityRemoved:                    {"DataEntityRemoved", "M251", SeverityMajor, "<entity> was removed"},
	DataEntityTypeChanged:                {"DataEntityTypeChanged", "M252", SeverityMajor, "<entity> type was changed"},
	DataEntityFieldAdded:                 {"DataEntityFieldAdded", "M253", SeverityMinor, "<entity> <data> field was added"},
	DataEntityFieldRemoved:               {"DataEntityFieldRemoved", "M254", SeverityMajor, "<entity> <data> field was removed"},
	DataEntityFieldValueChanged:          {"DataEntityFieldValueChanged", "M255", SeverityPatch, "<entity> <data> field value was changed"},
	DataEntityRequiredEntityAdded:        {"DataEntityRequiredEntityAdded", "M256", SeverityMinor, "<entity> <requiredEntity> was added"},
	DataEntityRequiredEntityRemoved:      {"DataEntityRequiredEntityRemoved", "M257", SeverityMajor, "<entity> <requiredEntity> was removed"},
	DataEntityRequiredEntityValueChanged: {"DataEntityRequiredEntityValueChanged", "M258", SeverityPatch, "<entity> <requiredEntity> value was changed"},
	DataEntityArrayAdded:                 {"DataEntityArrayAdded", "M259", SeverityMinor, "<entity> <array> was added"},
	DataEntityArrayRemoved:               {"DataEntityArrayRemoved", "M260", SeverityMajor, "<entity> <array> was removed"},
	DataEntityArrayItemAdded:             {"DataEntityArrayItemAdded", "M261", SeverityMinor, "<entity> <array> <item> was added"},
	DataEntityArrayItemRemoved:           {"DataEntityArrayItemRemoved", "M262", SeverityMajor, "<entity> <array> <item> was removed"},

	PageAdded:          {"PageAdded", "M300", SeverityMinor, "<page> was added"},
	PageRemoved:        {"PageRemoved", "M301", SeverityMajor, "<page> was removed"},
	PageURLChanged:     {"PageURLChanged", "M302", SeverityPatch, "<page> url was changed"},
	PageSectionAdded:   {"PageSectionAdded", "M303", SeverityMinor, "<page> <section> was added"},
	PageSectionRemoved: {"PageSectionRemoved", "M304", SeverityMajor, "<page> <section> was removed"},

	SectionAdded:                  {"SectionAdded", "M350", SeverityMinor, "<section> was added"},
	SectionRemoved:                {"SectionRemoved", "M351", SeverityMajor, "<section> was removed"},
	SectionElementAdded:           {"SectionElementAdded", "M352", SeverityMinor, "<section> <element> was added"},
	SectionElementRemoved:         {"SectionElementRemoved", "M353", SeverityMajor, "<section> <element> was removed"},
	SectionElementSelectorChanged: {"SectionElementSelectorChanged", "M354", SeverityPatch, "<section> <element> selector was changed"},
	SectionElementTypeChanged:     {"SectionElementTypeChanged", "M355", SeverityPatch, "<section> <element> type was changed"},

	SuiteAdded:                            {"SuiteAdded", "M400", SeverityMinor, "<suite> was added"},
	SuiteRemoved:                          {"SuiteRemoved", "M401", SeverityMajor, "<suite> was removed"},
	SuiteBeforeAfterAdded:                 {"SuiteBeforeAfterAdded", "M402", SeverityMinor, "<suite> <before/after> was added"},
	SuiteBeforeAfterRemoved:               {"SuiteBeforeAfterRemoved", "M403", SeverityMajor, "<suite> <before/after> was removed"},
	SuiteBeforeAfterActionAdded:           {"SuiteBeforeAfterActionAdded", "M404", SeverityMinor, "<suite> <before/after> <action> was added"},
	SuiteBeforeAfterActionRemoved:         {"SuiteBeforeAfterActionRemoved", "M405", SeverityMajor, "<suite> <before/after> <action> was removed"},
	SuiteBeforeAfterActionTypeChanged:     {"SuiteBeforeAfterActionTypeChanged", "M406", SeverityMajor, "<suite> <before/after> <action> type was changed"},
	SuiteIncludeAdded:                     {"SuiteIncludeAdded", "M407", SeverityMinor, "<suite> <include> <test/group/module> was added"},
	SuiteIncludeRemoved:                   {"SuiteIncludeRemoved", "M408", SeverityMajor, "<suite> <include> <test/group/module> was removed"},
	SuiteExcludeAdded:                     {"SuiteExcludeAdded", "M409", SeverityMajor, "<suite> <exclude> <test/group/module> was added"},
	SuiteExcludeRemoved:                   {"SuiteExcludeRemoved", "M410", SeverityMinor, "<suite> <exclude> <test/group/module> was removed"},
	SuiteBeforeAfterActionSequenceChanged: {"SuiteBeforeAfterActionSequenceChanged", "M418", SeverityMajor, "<suite> <before/after> <action> sequence was changed"},

	MetadataAdded:                {"MetadataAdded", "M450", SeverityMinor, "<operation> was added"},
	MetadataRemoved:              {"MetadataRemoved", "M451", SeverityMajor, "<operation> was removed"},
	MetadataDataTypeChanged:      {"MetadataDataTypeChanged", "M452", SeverityMajor, "<operation> dataType was changed"},
	MetadataTypeChanged:          {"MetadataTypeChanged", "M453", SeverityMajor, "<operation> type was changed"},
	MetadataURLChanged:           {"MetadataURLChanged", "M454", SeverityMajor, "<operation> url was changed"},
	MetadataMethodChanged:        {"MetadataMethodChanged", "M455", SeverityMajor, "<operation> method was changed"},
	MetadataFieldAdded:           {"MetadataFieldAdded", "M456", SeverityMinor, "<operation> <field> was added"},
	MetadataFieldRemoved:         {"MetadataFieldRemoved", "M457", SeverityMajor, "<operation> <field> was removed"},
	MetadataFieldTypeChanged:     {"MetadataFieldTypeChanged", "M458", SeverityMajor, "<operation> <field> type was changed"},
	MetadataFieldRequiredChanged: {"MetadataFieldRequiredChanged", "M459", SeverityMajor, "<operation> <field> required flag was changed"},
	MetadataObjectAdded:          {"MetadataObjectAdded", "M460", SeverityMinor, "<operation> <object> was added"},
	MetadataObjectRemoved:        {"MetadataObjectRemoved", "M461", SeverityMajor, "<operation> <object> was removed"},
}

func (k ChangeKind) entry() catalogueEntry {
	if k <= ChangeNone || k >= numChangeKinds {
		panic(fmt.Sprintf("breaking: change kind %d is not in the catalogue", int(k)))
	}
	return catalogue[k]
}

// Code returns the stable identifier used in reports and suppression lists.
func (k ChangeKind) Code() string { return k.entry().code }

// Severity returns the kind's fixed severity.
func (k ChangeKind) Severity() Severity { return k.entry().severity }

// Reason returns the kind's reason template.
func (k ChangeKind) Reason() string { return k.entry().reason }

// String returns the kind's name.
func (k ChangeKind) String() string {
	if k <= ChangeNone || k >= numChangeKinds {
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
	return catalogue[k].name
}

// AllChangeKinds returns every reportable kind in declaration order.
func AllChangeKinds() []ChangeKind {
	kinds := make([]ChangeKind, 0, numChangeKinds-1)
	for k := ChangeNone + 1; k < numChangeKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// KindByCode looks up a change kind by its stable code.
func KindByCode(code string) (ChangeKind, bool) {
	for k := ChangeNone + 1; k < numChangeKinds; k++ {
		if catalogue[k].code == code {
			return k, true
		}
	}
	return ChangeNone, false
}
