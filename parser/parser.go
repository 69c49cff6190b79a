// Package parser recovers test specifications from Markdown documents.
//
// A test file is ordinary Markdown. The parser only recognizes a small set
// of block-level constructs and ignores everything else as prose:
//
//   - a thematic break followed by a heading whose text is a YAML mapping
//     forms the file header (default runner, metadata);
//   - a heading starting with "Test:" opens a test case, followed by an
//     optional "Runner" section, a required "Input" section and an optional
//     "Expected Output" section, each a heading plus a fenced code block.
//
// Parsing is a pure function of the file contents; no side effects.
package parser

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/bullptr/marco/types"
)

// Section heading names recognized inside a test block.
const (
	testHeadingPrefix     = "Test:"
	runnerHeading         = "Runner"
	inputHeading          = "Input"
	expectedOutputHeading = "Expected Output"
)

// Options carries the already-resolved CLI configuration the parser needs
// to finish runner and timeout resolution at parse time.
type Options struct {
	// DefaultRunner is the CLI-level runner, the lowest precedence tier.
	DefaultRunner string
	// DefaultTimeout applies when the header does not set one.
	DefaultTimeout time.Duration
}

// ParseError describes a malformed test file. It is fatal to that file
// only; other files continue to be parsed and run.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

func errorf(file string, line int, format string, args ...any) *ParseError {
	return &ParseError{File: file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

var markdown = goldmark.New()

// Parse converts the raw text of one test file into a FileSpec. The
// returned error, if any, is a *ParseError.
func Parse(path string, src []byte, opts Options) (*types.FileSpec, error) {
	if err := checkFences(path, src); err != nil {
		return nil, err
	}

	doc := markdown.Parser().Parse(gmtext.NewReader(src))
	var nodes []ast.Node
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		nodes = append(nodes, n)
	}

	spec := &types.FileSpec{Path: path}
	seen := make(map[string]int) // name -> line of first definition

	for i := 0; i < len(nodes); i++ {
		switch n := nodes[i].(type) {
		case *ast.ThematicBreak:
			if i+1 >= len(nodes) {
				continue
			}
			heading, ok := nodes[i+1].(*ast.Heading)
			if !ok || !looksLikeHeader(src, heading) {
				continue
			}
			line := lineOf(src, heading)
			if spec.Header != nil {
				return nil, errorf(path, line, "duplicate header block; a file may declare at most one")
			}
			if len(spec.Cases) > 0 {
				return nil, errorf(path, line, "header block after a test block; headers must precede all tests")
			}
			header, err := decodeHeader(path, src, heading)
			if err != nil {
				return nil, err
			}
			spec.Header = header
			i++ // consume the heading

		case *ast.Heading:
			text := nodeText(src, n)
			if !strings.HasPrefix(text, testHeadingPrefix) {
				continue
			}
			label := strings.TrimSpace(strings.TrimPrefix(text, testHeadingPrefix))
			tc, consumed, err := parseTestBlock(path, src, nodes[i+1:], label, lineOf(src, n))
			if err != nil {
				return nil, err
			}
			i += consumed

			if err := finishCase(spec, tc, opts, seen); err != nil {
				return nil, err
			}
		}
	}

	return spec, nil
}

// finishCase assigns the case's name, resolves its runner, compare mode and
// timeout against the header and options, and appends it in document order.
func finishCase(spec *types.FileSpec, tc *partialCase, opts Options, seen map[string]int) error {
	idx := len(spec.Cases)

	name := tc.label
	if name == "" {
		name = fmt.Sprintf("test-%d", idx+1)
	}
	if prev, dup := seen[name]; dup {
		return errorf(spec.Path, tc.line, "duplicate test name %q (first defined at line %d)", name, prev)
	}
	seen[name] = tc.line

	runner := tc.runner
	if runner == "" && spec.Header != nil {
		runner = spec.Header.Runner.Resolve()
	}
	if runner == "" {
		runner = opts.DefaultRunner
	}
	if strings.TrimSpace(runner) == "" {
		return errorf(spec.Path, tc.line,
			"no runner for test %q; set one on the test, in the file header, or via --runner", name)
	}

	compare := types.CompareExact
	timeout := opts.DefaultTimeout
	if spec.Header != nil {
		if spec.Header.Compare != "" {
			compare = spec.Header.Compare
		}
		if spec.Header.Timeout.Std() > 0 {
			timeout = spec.Header.Timeout.Std()
		}
	}

	spec.Cases = append(spec.Cases, &types.TestCase{
		SourceFile:     spec.Path,
		Name:           name,
		Runner:         runner,
		Input:          tc.input,
		ExpectedOutput: tc.expected,
		Compare:        compare,
		Timeout:        timeout,
		OrderIndex:     idx,
		Line:           tc.line,
	})
	return nil
}

// partialCase holds the raw pieces of one test block before resolution.
type partialCase struct {
	label    string
	line     int
	runner   string
	input    string
	hasInput bool
	expected *string
}

// parseTestBlock scans the nodes following a "Test:" heading and collects
// the block's sections. It returns the number of nodes consumed. Prose
// between sections is ignored; the block ends at the next "Test:" heading,
// the next header block, or any unrecognized heading.
func parseTestBlock(path string, src []byte, rest []ast.Node, label string, line int) (*partialCase, int, error) {
	tc := &partialCase{label: label, line: line}

	i := 0
	for i < len(rest) {
		if _, isBreak := rest[i].(*ast.ThematicBreak); isBreak {
			// A thematic break ends the block; it may open a late header,
			// which the caller must see to reject.
			if tc.hasInput {
				return tc, i, nil
			}
			return nil, 0, errorf(path, line, "test %q has no %q section", label, inputHeading)
		}
		heading, ok := rest[i].(*ast.Heading)
		if !ok {
			i++ // prose or stray code fence, ignore
			continue
		}
		text := nodeText(src, heading)

		var section *string
		switch text {
		case runnerHeading:
			section = &tc.runner
		case inputHeading:
			if tc.hasInput {
				return nil, 0, errorf(path, lineOf(src, heading), "duplicate %q section in test %q", inputHeading, label)
			}
			tc.hasInput = true
			section = &tc.input
		case expectedOutputHeading:
			if tc.expected != nil {
				return nil, 0, errorf(path, lineOf(src, heading), "duplicate %q section in test %q", expectedOutputHeading, label)
			}
			tc.expected = new(string)
			section = tc.expected
		default:
			// Next test, or a prose heading: the block is over.
			if tc.hasInput {
				return tc, i, nil
			}
			return nil, 0, errorf(path, line, "test %q has no %q section", label, inputHeading)
		}

		if text == runnerHeading && tc.runner != "" {
			return nil, 0, errorf(path, lineOf(src, heading), "duplicate %q section in test %q", runnerHeading, label)
		}

		content, consumed, err := fenceAfter(path, src, rest[i+1:], text)
		if err != nil {
			return nil, 0, err
		}
		if text == runnerHeading {
			content = strings.TrimSpace(content)
			if content == "" {
				return nil, 0, errorf(path, lineOf(src, heading), "empty %q section in test %q", runnerHeading, label)
			}
		}
		*section = content
		i += 1 + consumed
	}

	if !tc.hasInput {
		return nil, 0, errorf(path, line, "test %q has no %q section", label, inputHeading)
	}
	return tc, i, nil
}

// fenceAfter finds the fenced code block belonging to a section heading,
// skipping intervening prose. It stops at the next heading.
func fenceAfter(path string, src []byte, rest []ast.Node, section string) (string, int, error) {
	for i := 0; i < len(rest); i++ {
		switch n := rest[i].(type) {
		case *ast.FencedCodeBlock:
			return nodeText(src, n), i + 1, nil
		case *ast.Heading:
			return "", 0, errorf(path, lineOf(src, n), "expected a fenced code block after %q heading", section)
		}
	}
	return "", 0, errorf(path, 0, "expected a fenced code block after %q heading", section)
}

// looksLikeHeader reports whether the heading's raw text decodes into a
// non-empty YAML mapping. Prose headings after a thematic break do not.
func looksLikeHeader(src []byte, heading *ast.Heading) bool {
	raw := rawLines(src, heading)
	if !strings.Contains(raw, ":") || strings.HasPrefix(raw, testHeadingPrefix) {
		return false
	}
	probe := make(map[string]any)
	if err := yaml.Unmarshal([]byte(raw), &probe); err != nil {
		return false
	}
	return len(probe) > 0
}

// decodeHeader strict-decodes the heading text into the fixed header
// field set; unknown keys and malformed values are parse errors.
func decodeHeader(path string, src []byte, heading *ast.Heading) (*types.Header, error) {
	raw := rawLines(src, heading)
	line := lineOf(src, heading)

	var header types.Header
	dec := yaml.NewDecoder(strings.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&header); err != nil {
		return nil, errorf(path, line, "invalid header: %v", err)
	}
	if !header.Compare.Valid() {
		return nil, errorf(path, line, "invalid header: compare must be %q or %q, got %q",
			types.CompareExact, types.CompareJSON, header.Compare)
	}
	return &header, nil
}

// nodeText joins a node's source lines. For fenced code blocks this is the
// literal fence content; the final newline before the closing fence is not
// part of the block's value.
func nodeText(src []byte, n ast.Node) string {
	raw := rawLines(src, n)
	if _, isFence := n.(*ast.FencedCodeBlock); isFence {
		return strings.TrimSuffix(raw, "\n")
	}
	return strings.TrimSpace(raw)
}

func rawLines(src []byte, n ast.Node) string {
	lines := n.Lines()
	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	return sb.String()
}

// lineOf returns the 1-based line of the node's first source segment.
func lineOf(src []byte, n ast.Node) int {
	lines := n.Lines()
	if lines.Len() == 0 {
		return 0
	}
	return bytes.Count(src[:lines.At(0).Start], []byte("\n")) + 1
}

// checkFences rejects files with an unterminated fenced code block.
// Markdown silently closes open fences at end of file, which would turn a
// forgotten closing fence into a swallowed document instead of an error.
func checkFences(path string, src []byte) error {
	var (
		open     bool
		openChar byte
		openLen  int
		openLine int
	)

	lines := strings.Split(string(src), "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if len(line)-len(trimmed) > 3 {
			continue // indented too far to be a fence
		}
		marker, n := fenceMarker(trimmed)
		if n < 3 {
			continue
		}
		if !open {
			open, openChar, openLen, openLine = true, marker, n, i+1
			continue
		}
		rest := strings.TrimRight(trimmed[n:], " ")
		if marker == openChar && n >= openLen && rest == "" {
			open = false
		}
	}

	if open {
		return errorf(path, openLine, "unterminated fenced code block (opened here, never closed)")
	}
	return nil
}

// fenceMarker returns the fence character and run length at the start of
// the line, or a zero length when the line does not begin with a fence.
func fenceMarker(line string) (byte, int) {
	if line == "" || (line[0] != '`' && line[0] != '~') {
		return 0, 0
	}
	c := line[0]
	n := 0
	for n < len(line) && line[n] == c {
		n++
	}
	return c, n
}
