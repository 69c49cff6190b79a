package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	shellwords "github.com/mattn/go-shellwords"

	"github.com/bullptr/marco/types"
)

// Executor is the execution engine: it turns one immutable TestCase into
// exactly one Result. All process lifecycle handling lives here; every
// exit path kills and reaps the child's whole process group, so a timeout
// or interrupt never leaves orphaned descendants behind.
type Executor struct {
	log            log.Logger
	maxOutputBytes int
}

// NewExecutor creates an execution engine. maxOutputBytes bounds captured
// output per stream; zero selects the default.
func NewExecutor(logger log.Logger, maxOutputBytes int) *Executor {
	if maxOutputBytes <= 0 {
		maxOutputBytes = DefaultMaxOutputBytes
	}
	return &Executor{
		log:            logger.New("component", "executor"),
		maxOutputBytes: maxOutputBytes,
	}
}

// Execute runs the test case and produces its Result. Engine-level
// problems (spawn failure, timeout, output overflow) yield an errored
// Result; only assertion mismatches yield a failed one. The two are never
// conflated.
func (e *Executor) Execute(ctx context.Context, tc *types.TestCase) *types.Result {
	words, err := shellwords.Parse(tc.Runner)
	if err != nil || len(words) == 0 {
		return errored(tc, 0, fmt.Sprintf("malformed runner command %q: %v", tc.Runner, err))
	}

	cmd := exec.Command(words[0], words[1:]...)
	cmd.Dir = filepath.Dir(tc.SourceFile)
	cmd.Stdin = strings.NewReader(tc.Input)
	setProcessGroup(cmd)

	stdout := newCapBuffer(e.maxOutputBytes)
	stderr := newCapBuffer(e.maxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	timeout := tc.Timeout
	if timeout <= 0 {
		timeout = DefaultTestTimeout
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return errored(tc, time.Since(start), fmt.Sprintf("failed to spawn runner %q: %v", tc.Runner, err))
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-timer.C:
		killProcessTree(cmd)
		<-done // reap
		r := errored(tc, time.Since(start), fmt.Sprintf("Timeout: test exceeded %v", timeout))
		r.TimedOut = true
		r.ActualOutput = stdout.String()
		return r
	case <-ctx.Done():
		killProcessTree(cmd)
		<-done // reap
		return errored(tc, time.Since(start), "run interrupted before the test finished")
	}
	duration := time.Since(start)

	if stdout.Truncated() || stderr.Truncated() {
		r := errored(tc, duration, fmt.Sprintf(
			"captured output exceeded the %d byte bound (stdout %d bytes, stderr %d bytes); output truncated",
			e.maxOutputBytes, stdout.TotalBytes(), stderr.TotalBytes()))
		r.Truncated = true
		r.ActualOutput = stdout.String()
		return r
	}

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return errored(tc, duration, fmt.Sprintf("failed waiting on runner: %v", waitErr))
		}
	}

	result := &types.Result{
		Test:         tc,
		Status:       types.TestStatusPass,
		ActualOutput: stdout.String(),
		ExitCode:     exitCode,
		Duration:     duration,
	}

	if tc.ChecksOutput() {
		if !outputMatches(*tc.ExpectedOutput, result.ActualOutput, tc.Compare) {
			result.Status = types.TestStatusFail
			result.Diagnostic = diffDiagnostic(*tc.ExpectedOutput, result.ActualOutput, stderr.String())
		}
		return result
	}

	if exitCode != 0 {
		result.Status = types.TestStatusFail
		var sb strings.Builder
		fmt.Fprintf(&sb, "runner exited with code %d\n", exitCode)
		appendStderr(&sb, stderr.String())
		result.Diagnostic = sb.String()
	}
	return result
}

func errored(tc *types.TestCase, duration time.Duration, diagnostic string) *types.Result {
	return &types.Result{
		Test:       tc,
		Status:     types.TestStatusError,
		Duration:   duration,
		Diagnostic: diagnostic,
	}
}
