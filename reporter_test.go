package marco

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bullptr/marco/parser"
	"github.com/bullptr/marco/types"
)

func result(file string, index int, name string, status types.TestStatus) *types.Result {
	return &types.Result{
		Test: &types.TestCase{
			SourceFile: file,
			Name:       name,
			OrderIndex: index,
			Line:       index + 1,
		},
		Status:   status,
		Duration: 5 * time.Millisecond,
	}
}

func TestSortResultsByFileThenOrder(t *testing.T) {
	results := []*types.Result{
		result("b.marco.md", 1, "b-second", types.TestStatusPass),
		result("a.marco.md", 2, "a-third", types.TestStatusPass),
		result("b.marco.md", 0, "b-first", types.TestStatusPass),
		result("a.marco.md", 0, "a-first", types.TestStatusPass),
	}

	SortResults(results)

	var names []string
	for _, r := range results {
		names = append(names, r.Test.Name)
	}
	assert.Equal(t, []string{"a-first", "a-third", "b-first", "b-second"}, names)
}

func TestSummarizeCounts(t *testing.T) {
	stats := Summarize([]*types.Result{
		result("a.marco.md", 0, "p1", types.TestStatusPass),
		result("a.marco.md", 1, "p2", types.TestStatusPass),
		result("a.marco.md", 2, "f", types.TestStatusFail),
		result("a.marco.md", 3, "e", types.TestStatusError),
	})

	assert.Equal(t, RunStats{Total: 4, Passed: 2, Failed: 1, Errored: 1}, stats)
	assert.False(t, stats.Clean())

	assert.True(t, Summarize(nil).Clean())
}

func TestReportDeterministicAcrossInputOrder(t *testing.T) {
	makeResults := func() []*types.Result {
		return []*types.Result{
			result("a.marco.md", 0, "first", types.TestStatusPass),
			result("a.marco.md", 1, "second", types.TestStatusFail),
			result("b.marco.md", 0, "third", types.TestStatusPass),
		}
	}

	forward := makeResults()

	backward := makeResults()
	backward[0], backward[2] = backward[2], backward[0]

	var out1, out2 bytes.Buffer
	newReporter(&out1).Report(forward, nil, time.Second)
	newReporter(&out2).Report(backward, nil, time.Second)

	assert.Equal(t, out1.String(), out2.String())
}

func TestReportShowsDiagnosticsForNonPassing(t *testing.T) {
	failed := result("a.marco.md", 0, "mismatch", types.TestStatusFail)
	failed.Diagnostic = "output did not match expected\n--- expected\n+++ actual\n"
	errored := result("a.marco.md", 1, "timed out", types.TestStatusError)
	errored.Diagnostic = "Timeout: test exceeded 1s"

	var out bytes.Buffer
	newReporter(&out).Report([]*types.Result{failed, errored}, nil, time.Second)
	s := out.String()

	assert.Contains(t, s, "mismatch (a.marco.md:1) [fail]")
	assert.Contains(t, s, "output did not match expected")
	assert.Contains(t, s, "timed out (a.marco.md:2) [error]")
	assert.Contains(t, s, "Timeout: test exceeded 1s")
	assert.Contains(t, s, "Results: 0 passed / 2 total, 1 failed, 1 errored")
}

func TestReportListsParseErrors(t *testing.T) {
	parseErrs := []*parser.ParseError{
		{File: "bad.marco.md", Line: 7, Msg: "test block has no Input section"},
	}

	var out bytes.Buffer
	newReporter(&out).Report(nil, parseErrs, time.Second)
	s := out.String()

	assert.Contains(t, s, "1 file(s) could not be parsed")
	assert.Contains(t, s, "bad.marco.md:7: test block has no Input section")
	assert.Contains(t, s, "1 files with parse errors")
}

func TestReportSummaryLineAllPassing(t *testing.T) {
	results := []*types.Result{
		result("a.marco.md", 0, "only", types.TestStatusPass),
	}

	var out bytes.Buffer
	newReporter(&out).Report(results, nil, 42*time.Millisecond)
	s := out.String()

	assert.Contains(t, s, "Results: 1 passed / 1 total")
	assert.NotContains(t, s, "failed")
	assert.NotContains(t, s, "errored")
}

func TestIndent(t *testing.T) {
	require.Equal(t, "  a\n  b\n", indent("a\nb\n", "  "))
	require.Equal(t, "  a\n", indent("a", "  "))
}
