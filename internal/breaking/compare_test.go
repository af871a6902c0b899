package breaking

import (
	"context"
	"reflect"
	"testing"

	"mftfcheck/internal/registry"
)

// fixtureRegistries builds a before/after pair touching every kind.
func fixtureRegistries(t *testing.T) (*registry.Registry, *registry.Registry) {
	t.Helper()
	before := mustRegistry(t, map[string][]registry.Entity{
		"Magento_Catalog": {
			pageEntity("ProductPage", "main", "gallery"),
			entity(KindSection, "ProductSection", el("element", "name", "title", "selector", "h1")),
			entity(KindActionGroup, "OpenProduct", withChildren(el("arguments"), el("argument", "name", "sku"))),
			entity(KindData, "SimpleProduct", withText(el("data", "key", "sku"), "simple")),
			entity(KindMetadata, "CreateProduct", el("field", "key", "sku")),
		},
		"Magento_Checkout": {
			suiteEntity("CheckoutSuite", "a", "b"),
			entity(KindTest, "CheckoutTest", el("click", "stepKey", "pay")),
		},
		"Magento_Legacy": {pageEntity("OldPage")},
	})
	after := mustRegistry(t, map[string][]registry.Entity{
		"Magento_Catalog": {
			pageEntity("ProductPage", "main", "reviews"),
			entity(KindSection, "ProductSection", el("element", "name", "title", "selector", "h1.title")),
			entity(KindActionGroup, "OpenProduct", withChildren(el("arguments"), el("argument", "name", "store"))),
			entity(KindData, "SimpleProduct", withText(el("data", "key", "sku"), "simple-2")),
			entity(KindMetadata, "CreateProduct"),
		},
		"Magento_Checkout": {
			suiteEntity("CheckoutSuite", "b", "a"),
			entity(KindTest, "CheckoutTest", el("click", "stepKey", "pay"), el("see", "stepKey", "done")),
		},
		"Magento_Wishlist": {pageEntity("WishlistPage")},
	})
	return before, after
}

func compare(t *testing.T, opts CompareOptions, before, after *registry.Registry) *CompareResult {
	t.Helper()
	res, err := NewComparer(opts, nil).Compare(context.Background(), before, after)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	return res
}

func TestCompare_IdenticalSnapshotsAreEmpty(t *testing.T) {
	before, _ := fixtureRegistries(t)
	res := compare(t, DefaultCompareOptions(), before, before)

	if res.Report.Len() != 0 {
		t.Errorf("Compare(R, R) reported %d operations", res.Report.Len())
	}
	if res.SemverAdvice != "patch" {
		t.Errorf("SemverAdvice = %q, want patch", res.SemverAdvice)
	}
}

func TestCompare_Deterministic(t *testing.T) {
	before, after := fixtureRegistries(t)

	first := compare(t, DefaultCompareOptions(), before, after).Report.All()
	for i := 0; i < 20; i++ {
		again := compare(t, DefaultCompareOptions(), before, after).Report.All()
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs from first run", i)
		}
	}
}

func TestCompare_ParallelMatchesSequential(t *testing.T) {
	before, after := fixtureRegistries(t)

	parallel := compare(t, CompareOptions{Parallel: true}, before, after)
	sequential := compare(t, CompareOptions{Parallel: false}, before, after)

	if !reflect.DeepEqual(parallel.Report.All(), sequential.Report.All()) {
		t.Error("parallel and sequential runs produced different reports")
	}
}

func TestCompare_AddRemoveSymmetry(t *testing.T) {
	before, after := fixtureRegistries(t)

	forward := compare(t, DefaultCompareOptions(), before, after).Report
	backward := compare(t, DefaultCompareOptions(), after, before).Report

	targets := func(r *Report, kinds ...ChangeKind) map[string]bool {
		out := make(map[string]bool)
		for _, op := range r.All() {
			for _, k := range kinds {
				if op.Kind == k {
					out[op.Target] = true
				}
			}
		}
		return out
	}

	added := targets(forward, PageAdded, PageSectionAdded, TestActionAdded)
	removed := targets(backward, PageRemoved, PageSectionRemoved, TestActionRemoved)
	if !reflect.DeepEqual(added, removed) {
		t.Errorf("additions %v do not mirror removals %v", added, removed)
	}
}

func TestCompare_ExpectedOperations(t *testing.T) {
	before, after := fixtureRegistries(t)
	res := compare(t, DefaultCompareOptions(), before, after)

	var got []string
	for _, op := range res.Report.All() {
		got = append(got, op.Code+" "+op.Target)
	}
	want := []string{
		"M457 Magento_Catalog/Metadata/CreateProduct/sku",
		"M204 Magento_Catalog/ActionGroup/OpenProduct/sku",
		"M202 Magento_Catalog/ActionGroup/OpenProduct/store",
		"M304 Magento_Catalog/Page/ProductPage/gallery",
		"M303 Magento_Catalog/Page/ProductPage/reviews",
		"M354 Magento_Catalog/Section/ProductSection/title",
		"M255 Magento_Catalog/Data/SimpleProduct/sku",
		"M418 Magento_Checkout/Suite/CheckoutSuite/before",
		"M102 Magento_Checkout/Test/CheckoutTest/done",
		"M301 Magento_Legacy/Page/OldPage",
		"M300 Magento_Wishlist/Page/WishlistPage",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("operations:\n got  %v\n want %v", got, want)
	}

	if res.TotalBefore != 8 || res.TotalAfter != 8 {
		t.Errorf("totals = %d/%d, want 8/8", res.TotalBefore, res.TotalAfter)
	}
	if res.SemverAdvice != "major" {
		t.Errorf("SemverAdvice = %q, want major", res.SemverAdvice)
	}
}

func TestCompare_KindFilter(t *testing.T) {
	before, after := fixtureRegistries(t)
	res := compare(t, CompareOptions{Kinds: []string{KindSuite}}, before, after)

	if res.Report.Len() != 1 || res.Report.All()[0].Code != "M418" {
		t.Errorf("suite-only comparison = %v", res.Report.All())
	}
}

func TestCompare_NilRegistries(t *testing.T) {
	_, after := fixtureRegistries(t)
	res := compare(t, DefaultCompareOptions(), nil, after)

	for _, op := range res.Report.All() {
		if op.Severity != SeverityMinor && op.Severity != SeverityPatch {
			t.Errorf("comparing against nothing produced %s %s", op.Code, op.Severity)
		}
	}
	if res.TotalBefore != 0 {
		t.Errorf("TotalBefore = %d", res.TotalBefore)
	}
}

func TestCompare_CancelledContext(t *testing.T) {
	before, after := fixtureRegistries(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, parallel := range []bool{true, false} {
		_, err := NewComparer(CompareOptions{Parallel: parallel}, nil).Compare(ctx, before, after)
		if err == nil {
			t.Errorf("parallel=%v: Compare() with cancelled context should fail", parallel)
		}
	}
}

func TestMergeFragments_ModuleThenEntity(t *testing.T) {
	pages := NewReport()
	pages.Add(ContextMFTF, NewOperation(PageRemoved, "M2/Page/Alpha", nil))
	pages.Add(ContextMFTF, NewOperation(PageSectionAdded, "M1/Page/Zeta/form", nil))
	pages.Add(ContextMFTF, NewOperation(PageSectionRemoved, "M1/Page/Zeta/grid", nil))
	sections := NewReport()
	sections.Add(ContextMFTF, NewOperation(SectionRemoved, "M1/Section/Beta", nil))
	sections.Add(ContextMFTF, NewOperation(SectionAdded, "M1/Section/Zeta", nil))

	var got []string
	for _, op := range mergeFragments([]*Report{pages, nil, sections}).All() {
		got = append(got, op.Target)
	}
	want := []string{
		"M1/Section/Beta",
		"M1/Page/Zeta/form",
		"M1/Page/Zeta/grid",
		"M1/Section/Zeta",
		"M2/Page/Alpha",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("merged targets:\n got  %v\n want %v", got, want)
	}
}
