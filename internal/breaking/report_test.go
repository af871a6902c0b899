package breaking

import (
	"testing"
)

func TestReport_OrderAndContexts(t *testing.T) {
	r := NewReport()
	r.Add(ContextMFTF, NewOperation(PageRemoved, "M1/Page/A", nil))
	r.Add("custom", NewOperation(TestAdded, "M1/Test/T", nil))
	r.Add(ContextMFTF, NewOperation(PageAdded, "M2/Page/B", nil))

	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}
	all := r.All()
	if all[0].Target != "M1/Page/A" || all[2].Target != "M2/Page/B" {
		t.Errorf("All() order wrong: %v", all)
	}
	if got := r.Contexts(); len(got) != 2 || got[0] != ContextMFTF || got[1] != "custom" {
		t.Errorf("Contexts() = %v", got)
	}
	if got := r.Context(ContextMFTF); len(got) != 2 {
		t.Errorf("Context(mftf) returned %d operations, want 2", len(got))
	}
}

func TestReport_Append(t *testing.T) {
	a := NewReport()
	a.Add(ContextMFTF, NewOperation(PageRemoved, "M1/Page/A", nil))
	b := NewReport()
	b.Add(ContextMFTF, NewOperation(SuiteRemoved, "M1/Suite/S", nil))

	a.Append(b)
	a.Append(nil)

	if a.Len() != 2 || a.All()[1].Code != "M401" {
		t.Errorf("Append() produced %v", a.All())
	}
}

func TestReport_FilterAndSeverity(t *testing.T) {
	r := NewReport()
	r.Add(ContextMFTF, NewOperation(PageURLChanged, "M1/Page/A", nil))
	r.Add(ContextMFTF, NewOperation(PageSectionAdded, "M1/Page/A/s", nil))
	r.Add(ContextMFTF, NewOperation(PageSectionRemoved, "M2/Page/B/s", nil))

	if sev, ok := r.MaxSeverity(); !ok || sev != SeverityMajor {
		t.Errorf("MaxSeverity() = %s, %v, want MAJOR", sev, ok)
	}

	minorOrLess := r.Filter(func(op Operation) bool { return op.Severity != SeverityMajor })
	if sev, _ := minorOrLess.MaxSeverity(); sev != SeverityMinor {
		t.Errorf("filtered MaxSeverity() = %s, want MINOR", sev)
	}
	if r.Len() != 3 {
		t.Error("Filter() must not modify the source report")
	}

	if _, ok := NewReport().MaxSeverity(); ok {
		t.Error("empty report should have no max severity")
	}
}

func TestReport_Summary(t *testing.T) {
	r := NewReport()
	r.Add(ContextMFTF, NewOperation(PageRemoved, "M1/Page/A", nil))
	r.Add(ContextMFTF, NewOperation(PageAdded, "M1/Page/B", nil))
	r.Add(ContextMFTF, NewOperation(PageAdded, "M2/Page/C", nil))

	s := r.Summary()
	if s.TotalChanges != 3 || s.Major != 1 || s.Minor != 2 || s.Patch != 0 {
		t.Errorf("Summary() = %+v", s)
	}
	if s.ByCode["M300"] != 2 || s.ByModule["M1"] != 2 {
		t.Errorf("Summary() counts = %v %v", s.ByCode, s.ByModule)
	}
	if s.SemverAdvice() != "major" || !s.HasBreakingChanges() {
		t.Errorf("SemverAdvice() = %s", s.SemverAdvice())
	}

	var empty *Summary
	if empty.SemverAdvice() != "patch" || empty.HasBreakingChanges() {
		t.Error("nil summary should advise patch")
	}
}

func TestNewOperation_CopiesSources(t *testing.T) {
	src := []string{"a.xml"}
	op := NewOperation(PageRemoved, "M1/Page/A", src)
	src[0] = "b.xml"

	if op.SourceLocations[0] != "a.xml" {
		t.Error("NewOperation() must copy source locations")
	}
	if op.Module() != "M1" {
		t.Errorf("Module() = %q", op.Module())
	}
	if NewOperation(PageRemoved, "M1/Page/A", nil).SourceLocations != nil {
		t.Error("no sources should yield nil SourceLocations")
	}
}
