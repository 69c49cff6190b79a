// Package runner executes test cases against their runner commands.
//
// The main components are:
//   - Executor: spawns one subprocess per test case, feeds it the case's
//     input, captures bounded output, enforces the timeout and produces the
//     case's single Result
//   - Scheduler: dispatches all test cases to the Executor across a bounded
//     worker pool and collects exactly one Result per case
//
// Comparison of captured output against expectations also lives here, so
// the Executor can classify outcomes without help from the reporter.
package runner
