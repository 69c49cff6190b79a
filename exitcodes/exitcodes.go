// Package exitcodes defines the standard exit codes used by marco.
package exitcodes

// Exit code constants used by marco
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when every test case passed
// * TestFailure (1): Used when one or more tests failed, errored, or failed to parse
// * RuntimeErr (2): Used for runtime errors such as panics or invalid configuration
// * NoTestFiles (3): Used when the input pattern matched no test files
const (
	Success     = 0 // All tests pass
	TestFailure = 1 // Test failures, errors or parse errors
	RuntimeErr  = 2 // Runtime or configuration errors
	NoTestFiles = 3 // No test files matched the input pattern
)
