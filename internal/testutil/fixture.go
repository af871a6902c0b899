// Package testutil provides testing utilities for golden tests over MFTF
// fixture corpora.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// FixtureContext holds information about a loaded fixture.
type FixtureContext struct {
	// Name is the fixture directory name (e.g., "magento")
	Name string

	// Root is the absolute path to the fixture directory
	Root string

	// BeforeDir and AfterDir are the two corpora being compared
	BeforeDir string
	AfterDir  string

	// ExpectedDir is the path to the expected/ directory
	ExpectedDir string
}

// LoadFixture loads a before/after corpus pair, failing the test on error.
func LoadFixture(t *testing.T, name string) *FixtureContext {
	t.Helper()

	root := getFixturesRoot(t)
	fixtureDir := filepath.Join(root, name)

	if _, err := os.Stat(fixtureDir); os.IsNotExist(err) {
		t.Fatalf("Fixture directory not found: %s", fixtureDir)
	}

	fc := &FixtureContext{
		Name:        name,
		Root:        fixtureDir,
		BeforeDir:   filepath.Join(fixtureDir, "before"),
		AfterDir:    filepath.Join(fixtureDir, "after"),
		ExpectedDir: filepath.Join(fixtureDir, "expected"),
	}
	for _, dir := range []string{fc.BeforeDir, fc.AfterDir} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			t.Fatalf("Fixture corpus not found: %s", dir)
		}
	}
	return fc
}

// ExpectedPath returns the path to a golden file within the fixture.
// The name should not include the .golden extension.
func (f *FixtureContext) ExpectedPath(name string) string {
	return filepath.Join(f.ExpectedDir, name+".golden")
}

// getFixturesRoot returns the absolute path to testdata/fixtures/.
func getFixturesRoot(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}

	// Navigate from internal/testutil to project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	fixturesRoot := filepath.Join(projectRoot, "testdata", "fixtures")

	if _, err := os.Stat(fixturesRoot); os.IsNotExist(err) {
		t.Fatalf("Fixtures root not found: %s", fixturesRoot)
	}

	return fixturesRoot
}

// AvailableFixtures returns the fixture names that hold both corpora.
func AvailableFixtures(t *testing.T) []string {
	t.Helper()

	root := getFixturesRoot(t)
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("Failed to read fixtures directory: %v", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || isHiddenDir(entry.Name()) {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, entry.Name(), "before")); err == nil {
			names = append(names, entry.Name())
		}
	}
	return names
}

func isHiddenDir(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
