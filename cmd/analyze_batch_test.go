package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeBatch_CollisionsAndSummary(t *testing.T) {
	dir := isolate(t)
	writeInput(t, dir, filepath.Join("d1", "metrics.csv"), "col1,col2\nA,1\nB,2\nC,3\n")
	writeInput(t, dir, filepath.Join("d2", "metrics.csv"), "col1,col2\nA,4\nB,5\nC,6\n")
	outDir := filepath.Join(dir, "out")

	stdout, err := runCmd(t, "analyze-batch", filepath.Join(dir, "d*", "metrics.csv"), "--out-dir", outDir, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Wrote 2 text reports")

	for _, name := range []string{"metrics.txt", "metrics__2.txt"} {
		b, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err, name)
		assert.Contains(t, string(b), "Data Preview")
	}
}

func TestAnalyzeBatch_PartialFailure(t *testing.T) {
	dir := isolate(t)
	good := writeInput(t, dir, "good.csv", peopleCSV)
	bad := writeInput(t, dir, "bad.csv", "a,b\n1,2\n3\n")
	outDir := filepath.Join(dir, "out")

	stdout, err := runCmd(t, "analyze-batch", good, bad, "--out-dir", outDir, "--format", "json")
	assert.ErrorContains(t, err, "1 of 2 files failed")
	assert.True(t, strings.Contains(stdout, "✗"))
	_, statErr := os.Stat(filepath.Join(outDir, "good.json"))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(outDir, "bad.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestAnalyzeBatch_NoMatches(t *testing.T) {
	dir := isolate(t)
	_, err := runCmd(t, "analyze-batch", filepath.Join(dir, "*.csv"))
	assert.ErrorContains(t, err, "no input files matched")
}

func TestOutputNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sales.pdf"), nil, 0o644))
	got := outputNames([]string{"a/sales.csv", "b/users.csv", "c/users.tsv"}, dir, ".pdf")
	assert.Equal(t, []string{
		filepath.Join(dir, "sales__2.pdf"),
		filepath.Join(dir, "users.pdf"),
		filepath.Join(dir, "users__2.pdf"),
	}, got)
}
