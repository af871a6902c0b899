package suppress

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mftfcheck/internal/breaking"
	ckerrors "mftfcheck/internal/errors"
)

const sample = `
[[suppress]]
code = "M301"
target = "Magento_Catalog/Page/*"
reason = "pages moved to Magento_CatalogUi"

[[suppress]]
target = "Magento_Legacy/**"

[[suppress]]
code = "M418"
expires = 2020-01-01T00:00:00Z
`

func testReport() *breaking.Report {
	r := breaking.NewReport()
	add := func(kind breaking.ChangeKind, target string) {
		r.Add(breaking.ContextMFTF, breaking.NewOperation(kind, target, nil))
	}
	add(breaking.PageRemoved, "Magento_Catalog/Page/ProductPage")
	add(breaking.PageRemoved, "Magento_Customer/Page/LoginPage")
	add(breaking.PageSectionRemoved, "Magento_Catalog/Page/ProductPage/gallery")
	add(breaking.SectionRemoved, "Magento_Legacy/Section/Old")
	add(breaking.SuiteBeforeAfterActionSequenceChanged, "Magento_Checkout/Suite/S/before")
	return r
}

func TestParseAndApply(t *testing.T) {
	list, err := Parse(sample)
	require.NoError(t, err)
	require.Equal(t, 3, list.Len())
	assert.Equal(t, "pages moved to Magento_CatalogUi", list.Rules()[0].Reason)

	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	res := list.Apply(testReport(), now)

	assert.Equal(t, 2, res.Suppressed)
	assert.Equal(t, []int{1, 1, 0}, res.PerRule)

	var targets []string
	for _, op := range res.Report.All() {
		targets = append(targets, op.Target)
	}
	assert.Equal(t, []string{
		"Magento_Customer/Page/LoginPage",
		"Magento_Catalog/Page/ProductPage/gallery",
		"Magento_Checkout/Suite/S/before",
	}, targets, "expired rules do not apply and order is kept")
}

func TestMatchTarget(t *testing.T) {
	tests := []struct {
		pattern, target string
		want            bool
	}{
		{"M1/Page/*", "M1/Page/Login", true},
		{"M1/Page/*", "M1/Page/Login/user", false},
		{"M1/**", "M1/Page/Login/user", true},
		{"M1/**", "M1", true},
		{"M1/**", "M2/Page/Login", false},
		{"*/Suite/**", "M9/Suite/S/before", true},
		{"*/Suite/**", "M9/Page/S", false},
		{"M1/Page/Login", "M1/Page/Login", true},
	}
	for _, tt := range tests {
		if got := matchTarget(tt.pattern, tt.target); got != tt.want {
			t.Errorf("matchTarget(%q, %q) = %v, want %v", tt.pattern, tt.target, got, tt.want)
		}
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"empty", Rule{Reason: "nothing to match"}},
		{"unknown code", Rule{Code: "M999"}},
		{"bad pattern", Rule{Target: "M1/[Page"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New([]Rule{tt.rule})
			require.Error(t, err)
			assert.Equal(t, ckerrors.ConfigInvalid, ckerrors.CodeOf(err))
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse(`[[suppress]`)
	require.Error(t, err)
	assert.Equal(t, ckerrors.ConfigInvalid, ckerrors.CodeOf(err))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	list, err := Load(filepath.Join(dir, "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, 0, list.Len())

	path := filepath.Join(dir, "suppress.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))
	list, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, list.Len())
}
