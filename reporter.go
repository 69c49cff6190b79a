package marco

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/bullptr/marco/parser"
	"github.com/bullptr/marco/types"
)

// SortResults orders results by (source file, order index). Completion
// order is scheduler-determined and changes run to run; this is the
// deterministic order every report uses.
func SortResults(results []*types.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Test, results[j].Test
		if a.SourceFile != b.SourceFile {
			return a.SourceFile < b.SourceFile
		}
		return a.OrderIndex < b.OrderIndex
	})
}

// RunStats aggregates result counts for one run.
type RunStats struct {
	Total   int
	Passed  int
	Failed  int
	Errored int
}

// Summarize counts results by status.
func Summarize(results []*types.Result) RunStats {
	stats := RunStats{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case types.TestStatusPass:
			stats.Passed++
		case types.TestStatusFail:
			stats.Failed++
		case types.TestStatusError:
			stats.Errored++
		}
	}
	return stats
}

// Clean reports whether every test passed.
func (s RunStats) Clean() bool {
	return s.Failed == 0 && s.Errored == 0
}

// reporter renders results as human output. It is read-only over the
// result collection.
type reporter struct {
	out io.Writer
}

func newReporter(out io.Writer) *reporter {
	return &reporter{out: out}
}

// Report prints the summary table, failure and error details, and any
// parse errors. Results are re-sorted deterministically first.
func (rep *reporter) Report(results []*types.Result, parseErrs []*parser.ParseError, duration time.Duration) {
	SortResults(results)
	stats := Summarize(results)

	rep.printTable(results, stats, duration)
	rep.printFailures(results)
	rep.printParseErrors(parseErrs)

	fmt.Fprintf(rep.out, "\nResults: %d passed / %d total", stats.Passed, stats.Total)
	if stats.Failed > 0 {
		fmt.Fprintf(rep.out, ", %d failed", stats.Failed)
	}
	if stats.Errored > 0 {
		fmt.Fprintf(rep.out, ", %d errored", stats.Errored)
	}
	if len(parseErrs) > 0 {
		fmt.Fprintf(rep.out, ", %d files with parse errors", len(parseErrs))
	}
	fmt.Fprintln(rep.out)
}

func (rep *reporter) printTable(results []*types.Result, stats RunStats, duration time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(rep.out)
	t.SetTitle(fmt.Sprintf("Marco Test Results (%s)", formatDuration(duration)))

	t.AppendHeader(table.Row{"File", "Test", "Duration", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "File", AutoMerge: true, WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Test", WidthMax: 40, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
	})

	for _, r := range results {
		t.AppendRow(table.Row{
			r.Test.SourceFile,
			r.Test.Name,
			formatDuration(r.Duration),
			statusString(r.Status),
		})
	}

	t.AppendFooter(table.Row{"", "Total", formatDuration(duration), fmt.Sprintf("%d/%d", stats.Passed, stats.Total)})

	if stats.Clean() {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}
	t.Render()
}

func (rep *reporter) printFailures(results []*types.Result) {
	for _, r := range results {
		if r.Status == types.TestStatusPass {
			continue
		}

		mark := text.FgRed.Sprint("✘")
		fmt.Fprintf(rep.out, "\n%s %s (%s:%d) [%s]\n", mark, r.Test.Name, r.Test.SourceFile, r.Test.Line, r.Status)
		if r.Diagnostic != "" {
			fmt.Fprint(rep.out, indent(r.Diagnostic, "    "))
		}
	}
}

func (rep *reporter) printParseErrors(parseErrs []*parser.ParseError) {
	if len(parseErrs) == 0 {
		return
	}

	fmt.Fprintf(rep.out, "\n%s %d file(s) could not be parsed:\n", text.FgRed.Sprint("✘"), len(parseErrs))
	for _, perr := range parseErrs {
		fmt.Fprintf(rep.out, "    %s\n", perr.Error())
	}
}

func statusString(status types.TestStatus) string {
	switch status {
	case types.TestStatusPass:
		return text.FgGreen.Sprint("pass")
	case types.TestStatusFail:
		return text.FgRed.Sprint("fail")
	case types.TestStatusError:
		return text.FgHiRed.Sprint("error")
	}
	return string(status)
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n") + "\n"
}
