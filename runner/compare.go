package runner

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/bullptr/marco/types"
)

// Canonicalize applies the fixed comparison normalization: the run of
// trailing newlines (with any carriage returns belonging to them) is
// removed from the very end of the text. Internal whitespace is untouched.
// This rule is not configurable.
func Canonicalize(s string) string {
	for strings.HasSuffix(s, "\n") {
		s = strings.TrimSuffix(s, "\n")
		s = strings.TrimSuffix(s, "\r")
	}
	return s
}

// outputMatches compares canonicalized expected and actual output under
// the case's compare mode. JSON mode compares parsed values, so key order
// and formatting do not matter; when either side is not valid JSON it
// falls back to exact comparison.
func outputMatches(expected, actual string, mode types.CompareMode) bool {
	expected = Canonicalize(expected)
	actual = Canonicalize(actual)

	if mode == types.CompareJSON {
		var ev, av any
		if json.Unmarshal([]byte(expected), &ev) == nil && json.Unmarshal([]byte(actual), &av) == nil {
			return reflect.DeepEqual(ev, av)
		}
	}
	return expected == actual
}

// diffDiagnostic renders an expected-vs-actual unified diff for a failed
// comparison, with ANSI escapes stripped so runner coloring cannot mangle
// the report. The stderr tail is appended when non-empty.
func diffDiagnostic(expected, actual, stderr string) string {
	expected = Canonicalize(stripansi.Strip(expected))
	actual = Canonicalize(stripansi.Strip(actual))

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil || diff == "" {
		diff = fmt.Sprintf("expected:\n%s\nactual:\n%s\n", expected, actual)
	}

	var sb strings.Builder
	sb.WriteString("output did not match expected\n")
	sb.WriteString(diff)
	appendStderr(&sb, stderr)
	return sb.String()
}

func appendStderr(sb *strings.Builder, stderr string) {
	stderr = strings.TrimSpace(stripansi.Strip(stderr))
	if stderr == "" {
		return
	}
	sb.WriteString("stderr:\n")
	sb.WriteString(stderr)
	sb.WriteString("\n")
}
