package parser

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bullptr/marco/types"
)

const sampleFile = `---
name: echo-suite
runner: echo hello
---

Some prose describing the suite. It is ignored.

# Test: greets

## Input

` + "```" + `
hello
` + "```" + `

## Expected Output

` + "```" + `
hello
` + "```" + `

More prose between tests.

# Test: exit-only

## Input

` + "```" + `
anything
` + "```" + `
`

func mustParse(t *testing.T, src string, opts Options) *types.FileSpec {
	t.Helper()
	spec, err := Parse("suite.marco.md", []byte(src), opts)
	require.NoError(t, err)
	return spec
}

func TestParseFileWithHeaderAndTwoTests(t *testing.T) {
	spec := mustParse(t, sampleFile, Options{DefaultTimeout: time.Minute})

	require.NotNil(t, spec.Header)
	assert.Equal(t, "echo-suite", spec.Header.Name)
	require.NotNil(t, spec.Header.Runner)
	assert.Equal(t, "echo hello", spec.Header.Runner.Resolve())

	require.Len(t, spec.Cases, 2)

	first := spec.Cases[0]
	assert.Equal(t, "greets", first.Name)
	assert.Equal(t, "suite.marco.md", first.SourceFile)
	assert.Equal(t, "echo hello", first.Runner)
	assert.Equal(t, "hello", first.Input)
	require.NotNil(t, first.ExpectedOutput)
	assert.Equal(t, "hello", *first.ExpectedOutput)
	assert.Equal(t, 0, first.OrderIndex)
	assert.Equal(t, time.Minute, first.Timeout)

	second := spec.Cases[1]
	assert.Equal(t, "exit-only", second.Name)
	assert.Nil(t, second.ExpectedOutput, "missing Expected Output section means exit-status-only")
	assert.Equal(t, 1, second.OrderIndex)
}

func TestParseIsIdempotent(t *testing.T) {
	a := mustParse(t, sampleFile, Options{})
	b := mustParse(t, sampleFile, Options{})
	assert.Equal(t, a, b)
}

func TestParseRecoversBlockTextExactly(t *testing.T) {
	input := "line one\n\n  indented line\nlast"
	expected := "out 1\nout 2"
	src := fmt.Sprintf(
		"# Test: fidelity\n\n## Input\n\n```\n%s\n```\n\n## Expected Output\n\n```\n%s\n```\n",
		input, expected)

	spec := mustParse(t, src, Options{DefaultRunner: "cat"})
	require.Len(t, spec.Cases, 1)
	assert.Equal(t, input, spec.Cases[0].Input)
	require.NotNil(t, spec.Cases[0].ExpectedOutput)
	assert.Equal(t, expected, *spec.Cases[0].ExpectedOutput)
}

func TestParseTestLevelRunnerOverride(t *testing.T) {
	src := `---
runner: echo header-level
---

# Test: overridden

## Runner

` + "```" + `
false
` + "```" + `

## Input

` + "```" + `
ignored
` + "```" + `

# Test: inherited

## Input

` + "```" + `
x
` + "```" + `
`
	spec := mustParse(t, src, Options{})
	require.Len(t, spec.Cases, 2)
	assert.Equal(t, "false", spec.Cases[0].Runner, "test-level override wins")
	assert.Equal(t, "echo header-level", spec.Cases[1].Runner)
}

func TestParseRunnerPrecedence(t *testing.T) {
	noHeader := "# Test: t\n\n## Input\n\n```\nx\n```\n"

	spec := mustParse(t, noHeader, Options{DefaultRunner: "cat"})
	assert.Equal(t, "cat", spec.Cases[0].Runner, "CLI default is the lowest tier")

	_, err := Parse("suite.marco.md", []byte(noHeader), Options{})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Msg, "no runner")
}

func TestParseUnlabeledTestsGetPositionalNames(t *testing.T) {
	src := "# Test:\n\n## Input\n\n```\na\n```\n\n# Test:\n\n## Input\n\n```\nb\n```\n"
	spec := mustParse(t, src, Options{DefaultRunner: "cat"})
	require.Len(t, spec.Cases, 2)
	assert.Equal(t, "test-1", spec.Cases[0].Name)
	assert.Equal(t, "test-2", spec.Cases[1].Name)
}

func TestParseDuplicateNamesAreFatal(t *testing.T) {
	src := `# Test: same

## Input

` + "```" + `
a
` + "```" + `

# Test: same

## Input

` + "```" + `
b
` + "```" + `
`
	_, err := Parse("dup.marco.md", []byte(src), Options{DefaultRunner: "cat"})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "dup.marco.md", perr.File)
	assert.Contains(t, perr.Msg, `duplicate test name "same"`)
}

func TestParseHeaderAfterTestIsFatal(t *testing.T) {
	src := `# Test: early

## Input

` + "```" + `
a
` + "```" + `

---
runner: echo late
---
`
	_, err := Parse("late.marco.md", []byte(src), Options{DefaultRunner: "cat"})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Msg, "header block after a test block")
}

func TestParseDuplicateHeaderIsFatal(t *testing.T) {
	src := "---\nrunner: echo\n---\n\n---\nrunner: cat\n---\n\n# Test: t\n\n## Input\n\n```\nx\n```\n"
	_, err := Parse("two.marco.md", []byte(src), Options{})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Msg, "duplicate header")
}

func TestParseUnknownHeaderKeyIsFatal(t *testing.T) {
	src := "---\nrunner: echo\nflavor: spicy\n---\n\n# Test: t\n\n## Input\n\n```\nx\n```\n"
	_, err := Parse("odd.marco.md", []byte(src), Options{})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Msg, "invalid header")
}

func TestParseUnterminatedFenceIsFatal(t *testing.T) {
	src := "# Test: broken\n\n## Input\n\n```\nnever closed\n"
	_, err := Parse("broken.marco.md", []byte(src), Options{DefaultRunner: "cat"})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 5, perr.Line, "error points at the opening fence")
	assert.Contains(t, perr.Msg, "unterminated")
}

func TestParseMissingInputSectionIsFatal(t *testing.T) {
	src := "# Test: empty\n\njust prose\n\n# Test: next\n\n## Input\n\n```\nx\n```\n"
	_, err := Parse("noinput.marco.md", []byte(src), Options{DefaultRunner: "cat"})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Msg, `no "Input" section`)
}

func TestParseHeadingWithoutFenceIsFatal(t *testing.T) {
	src := "# Test: t\n\n## Input\n\n## Expected Output\n\n```\nx\n```\n"
	_, err := Parse("nofence.marco.md", []byte(src), Options{DefaultRunner: "cat"})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Msg, "expected a fenced code block")
}

func TestParseHeaderCompareAndTimeout(t *testing.T) {
	src := "---\nrunner: cat\ncompare: json\ntimeout: 5s\n---\n\n# Test: t\n\n## Input\n\n```\n{}\n```\n"
	spec := mustParse(t, src, Options{DefaultTimeout: time.Minute})
	require.Len(t, spec.Cases, 1)
	assert.Equal(t, types.CompareJSON, spec.Cases[0].Compare)
	assert.Equal(t, 5*time.Second, spec.Cases[0].Timeout)
}

func TestParseInvalidCompareModeIsFatal(t *testing.T) {
	src := "---\nrunner: cat\ncompare: fuzzy\n---\n\n# Test: t\n\n## Input\n\n```\nx\n```\n"
	_, err := Parse("cmp.marco.md", []byte(src), Options{})
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Msg, "compare must be")
}

func TestParseIgnoresProseFences(t *testing.T) {
	src := "Intro with an example:\n\n```\nnot a test\n```\n\n# Test: real\n\n## Input\n\n```\nx\n```\n"
	spec := mustParse(t, src, Options{DefaultRunner: "cat"})
	require.Len(t, spec.Cases, 1)
	assert.Equal(t, "real", spec.Cases[0].Name)
	assert.Equal(t, "x", spec.Cases[0].Input)
}

func TestParsePlatformRunnerHeader(t *testing.T) {
	src := "---\nrunner:\n  unix: cat\n  windows: powershell -Command cat\n---\n\n# Test: t\n\n## Input\n\n```\nx\n```\n"
	spec := mustParse(t, src, Options{})
	require.Len(t, spec.Cases, 1)
	assert.NotEmpty(t, spec.Cases[0].Runner)
}

func TestParseEmptyInputBlock(t *testing.T) {
	src := "# Test: empty-input\n\n## Input\n\n```\n```\n"
	spec := mustParse(t, src, Options{DefaultRunner: "cat"})
	require.Len(t, spec.Cases, 1)
	assert.Equal(t, "", spec.Cases[0].Input)
}

func TestParseLineAttribution(t *testing.T) {
	spec := mustParse(t, sampleFile, Options{DefaultTimeout: time.Minute})
	require.Len(t, spec.Cases, 2)
	lines := strings.Split(sampleFile, "\n")
	assert.Equal(t, "# Test: greets", lines[spec.Cases[0].Line-1])
	assert.Equal(t, "# Test: exit-only", lines[spec.Cases[1].Line-1])
}
