package types

import (
	"fmt"
	"time"
)

// TestStatus represents the possible outcomes of a test execution
type TestStatus string

const (
	TestStatusPass  TestStatus = "pass"
	TestStatusFail  TestStatus = "fail"
	TestStatusError TestStatus = "error"
)

// TestCase is one executable check recovered from a test file. It is
// immutable once parsed; the scheduler and executor only read it.
type TestCase struct {
	SourceFile string // path of origin, for reporting and error attribution
	Name       string // unique within SourceFile
	Runner     string // resolved command template, never empty
	Input      string // fed to the runner's stdin, may be empty

	// ExpectedOutput is the literal text the captured output must match
	// after canonicalization. nil means the test only checks exit status.
	ExpectedOutput *string

	Compare    CompareMode
	Timeout    time.Duration
	OrderIndex int // position within SourceFile, for deterministic reporting
	Line       int // approximate line of the test heading
}

// ChecksOutput reports whether the case compares captured output rather
// than exit status alone.
func (tc *TestCase) ChecksOutput() bool {
	return tc.ExpectedOutput != nil
}

// ID returns a stable identifier combining file and name.
func (tc *TestCase) ID() string {
	return fmt.Sprintf("%s::%s", tc.SourceFile, tc.Name)
}

// FileSpec is the parse product of one test file: an optional header and
// the test cases in document order.
type FileSpec struct {
	Path   string
	Header *Header
	Cases  []*TestCase
}

// Result captures the outcome of a single test case. It is created exactly
// once per case by the execution engine and never mutated afterwards.
type Result struct {
	Test         *TestCase
	Status       TestStatus
	ActualOutput string
	ExitCode     int
	Duration     time.Duration
	Diagnostic   string // present when Status is fail or error
	TimedOut     bool
	Truncated    bool
}

// Passed reports whether the case met its expectation.
func (r *Result) Passed() bool {
	return r.Status == TestStatusPass
}
