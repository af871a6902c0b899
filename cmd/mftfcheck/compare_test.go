package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mftfcheck/internal/breaking"
	ckerrors "mftfcheck/internal/errors"
	"mftfcheck/internal/render"
	"mftfcheck/internal/slogutil"
	"mftfcheck/internal/snapshot"
	"mftfcheck/internal/storage"
	"mftfcheck/internal/testutil"
)

func fixtureRequest(t *testing.T) *compareRequest {
	t.Helper()
	fixture := testutil.LoadFixture(t, "magento")
	return &compareRequest{
		Before:   fixture.BeforeDir,
		After:    fixture.AfterDir,
		Format:   render.FormatJSON,
		FailOn:   "major",
		Parallel: true,
		Render:   render.Options{IncludeMinor: true},
		Now:      time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}
}

type jsonReport struct {
	SemverAdvice string `json:"semverAdvice"`
	Suppressed   int    `json:"suppressed"`
	Operations   []struct {
		Code   string `json:"code"`
		Target string `json:"target"`
	} `json:"operations"`
}

func runFixture(t *testing.T, req *compareRequest) (int, jsonReport) {
	t.Helper()
	var buf bytes.Buffer
	code, err := executeCompare(context.Background(), req, &buf, slogutil.NewDiscardLogger())
	require.NoError(t, err)

	var doc jsonReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	return code, doc
}

func codes(doc jsonReport) []string {
	var out []string
	for _, op := range doc.Operations {
		out = append(out, op.Code)
	}
	return out
}

func TestExecuteCompare_Fixture(t *testing.T) {
	code, doc := runFixture(t, fixtureRequest(t))

	assert.Equal(t, exitFailOn, code)
	assert.Equal(t, "major", doc.SemverAdvice)
	assert.Equal(t, []string{"M304", "M303", "M354", "M418", "M301"}, codes(doc))
	assert.Equal(t, "Magento_Checkout/Suite/CheckoutSuite/before", doc.Operations[3].Target)
	assert.Equal(t, "Magento_Wishlist/Page/WishlistPage", doc.Operations[4].Target)
}

func TestExecuteCompare_FailOn(t *testing.T) {
	tests := []struct {
		failOn string
		kinds  []string
		want   int
	}{
		{"major", nil, exitFailOn},
		{"never", nil, exitOK},
		{"patch", []string{"section"}, exitFailOn},
		{"minor", []string{"section"}, exitOK},
		{"major", []string{"section"}, exitOK},
	}
	for _, tt := range tests {
		t.Run(tt.failOn+"/"+strings.Join(tt.kinds, ","), func(t *testing.T) {
			req := fixtureRequest(t)
			req.FailOn = tt.failOn
			req.Kinds = tt.kinds
			code, _ := runFixture(t, req)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestExecuteCompare_Suppressions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppress.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[suppress]]
target = "Magento_Wishlist/**"
reason = "module retired"

[[suppress]]
code = "M304"

[[suppress]]
code = "M418"
target = "Magento_Checkout/Suite/*/before"
`), 0o644))

	req := fixtureRequest(t)
	req.Suppressions = path
	code, doc := runFixture(t, req)

	assert.Equal(t, exitOK, code, "no MAJOR operation left")
	assert.Equal(t, 3, doc.Suppressed)
	assert.Equal(t, []string{"M303", "M354"}, codes(doc))
	assert.Equal(t, "minor", doc.SemverAdvice)
}

func TestExecuteCompare_MissingSuppressionFile(t *testing.T) {
	req := fixtureRequest(t)
	req.Suppressions = filepath.Join(t.TempDir(), "none.toml")
	_, doc := runFixture(t, req)
	assert.Len(t, doc.Operations, 5)
}

func TestExecuteCompare_SnapshotSide(t *testing.T) {
	req := fixtureRequest(t)
	_, direct := runFixture(t, req)

	before, err := loadRegistry(context.Background(), req.Before, slogutil.NewDiscardLogger())
	require.NoError(t, err)
	snap := filepath.Join(t.TempDir(), "before.json.zst")
	require.NoError(t, snapshot.Save(snap, before, req.Before))

	req.Before = snap
	_, viaSnapshot := runFixture(t, req)
	assert.Equal(t, direct.Operations, viaSnapshot.Operations)
}

func TestExecuteCompare_Sequential(t *testing.T) {
	req := fixtureRequest(t)
	_, parallel := runFixture(t, req)
	req.Parallel = false
	_, sequential := runFixture(t, req)
	assert.Equal(t, parallel, sequential)
}

func TestExecuteCompare_RecordsHistory(t *testing.T) {
	req := fixtureRequest(t)
	req.HistoryPath = filepath.Join(t.TempDir(), "history.db")
	runFixture(t, req)

	db, err := storage.Open(req.HistoryPath, nil)
	require.NoError(t, err)
	defer db.Close()
	repo := storage.NewRunRepository(db)

	runs, err := repo.List(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "major", runs[0].SemverAdvice)
	assert.Equal(t, 3, runs[0].Major)
	assert.Equal(t, req.Before, runs[0].Before)

	ops, err := repo.Operations(runs[0].ID)
	require.NoError(t, err)
	assert.Len(t, ops, 5)
	assert.Equal(t, breaking.SuiteBeforeAfterActionSequenceChanged, ops[3].Kind)
}

func TestExecuteCompare_MissingCorpus(t *testing.T) {
	req := fixtureRequest(t)
	req.Before = filepath.Join(t.TempDir(), "missing")

	code, err := executeCompare(context.Background(), req, &bytes.Buffer{}, slogutil.NewDiscardLogger())
	require.Error(t, err)
	assert.Equal(t, exitFailure, code)
	assert.Equal(t, ckerrors.CorpusUnreadable, ckerrors.CodeOf(err))
}

func TestFailThreshold(t *testing.T) {
	sev, err := failThreshold("never")
	require.NoError(t, err)
	assert.Equal(t, breaking.Severity(""), sev)

	sev, err = failThreshold("Minor")
	require.NoError(t, err)
	assert.Equal(t, breaking.SeverityMinor, sev)

	_, err = failThreshold("sometimes")
	assert.Error(t, err)
}

func TestValidateKinds(t *testing.T) {
	assert.NoError(t, validateKinds(nil))
	assert.NoError(t, validateKinds([]string{"page", "suite"}))

	err := validateKinds([]string{"page", "widget"})
	require.Error(t, err)
	assert.Equal(t, ckerrors.ConfigInvalid, ckerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "widget")
}

func TestEnvVarName(t *testing.T) {
	assert.Equal(t, "MFTFCHECK_REPORT_FAILON", envVarName("report.failOn"))
	assert.Equal(t, "MFTFCHECK_HISTORY_PATH", envVarName("history.path"))
}

func TestRun_Codes(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	defer rootCmd.SetOut(nil)

	require.Equal(t, exitOK, run([]string{"codes", "--format", "json"}))

	var entries []codeEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	assert.Len(t, entries, len(breaking.AllChangeKinds()))

	found := false
	for _, e := range entries {
		if e.Code == "M418" {
			found = true
			assert.Equal(t, breaking.SeverityMajor, e.Severity)
		}
	}
	assert.True(t, found)
}

func TestRun_CompareExitStatus(t *testing.T) {
	fixture := testutil.LoadFixture(t, "magento")
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&bytes.Buffer{})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	root := t.TempDir()
	code := run([]string{"compare", fixture.BeforeDir, fixture.AfterDir,
		"--root", root, "--format", "markdown", "--fail-on", "major", "--quiet"})
	assert.Equal(t, exitFailOn, code)
	assert.Contains(t, buf.String(), "| MAJOR | M418 |")
}
