package testutil

import (
	"strings"
	"testing"
)

func TestNormalizeText(t *testing.T) {
	in := "\x1b[31mMAJOR\x1b[0m /tmp/fx/before/a.xml\r\nline\n\n\n"
	got := string(NormalizeText([]byte(in), "/tmp/fx"))
	want := "MAJOR <fixture>/before/a.xml\nline\n"
	if got != want {
		t.Errorf("NormalizeText() = %q, want %q", got, want)
	}

	if got := string(NormalizeText([]byte("x"), "")); got != "x\n" {
		t.Errorf("NormalizeText() = %q, want trailing newline", got)
	}
}

func TestStripANSI(t *testing.T) {
	if got := StripANSI("\x1b[1;33m~\x1b[0m ok"); got != "~ ok" {
		t.Errorf("StripANSI() = %q", got)
	}
}

func TestUnifiedDiff(t *testing.T) {
	diff := unifiedDiff("a\nb\nc\n", "a\nB\nc\n", "report.md.golden")

	for _, part := range []string{
		"--- report.md.golden (expected)",
		"+++ report.md.golden (got)",
		"-b\n",
		"+B\n",
	} {
		if !strings.Contains(diff, part) {
			t.Errorf("diff missing %q:\n%s", part, diff)
		}
	}
}

func TestAvailableFixtures(t *testing.T) {
	names := AvailableFixtures(t)
	found := false
	for _, n := range names {
		if n == "magento" {
			found = true
		}
	}
	if !found {
		t.Errorf("AvailableFixtures() = %v, want magento", names)
	}

	fx := LoadFixture(t, "magento")
	if !strings.HasSuffix(fx.ExpectedPath("report.md"), "report.md.golden") {
		t.Errorf("ExpectedPath() = %s", fx.ExpectedPath("report.md"))
	}
}
