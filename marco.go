// Package marco runs tests embedded in Markdown files. It discovers
// *.marco.md files, parses them into test cases, executes every case
// through a configurable runner command, and reports the outcomes.
package marco

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/bullptr/marco/discovery"
	"github.com/bullptr/marco/metrics"
	"github.com/bullptr/marco/parser"
	"github.com/bullptr/marco/runner"
	"github.com/bullptr/marco/types"
)

// Marco orchestrates one test run: discovery, parsing, scheduling and
// reporting.
type Marco struct {
	cfg     *Config
	version string
	log     log.Logger
	sched   *runner.Scheduler
	out     io.Writer
}

// New builds a runner service from a validated Config.
func New(cfg *Config, version string) (*Marco, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.Root()
	}

	exec := runner.NewExecutor(logger, cfg.MaxOutputBytes)
	sched := runner.NewScheduler(exec, cfg.Threads, logger)

	return &Marco{
		cfg:     cfg,
		version: version,
		log:     logger,
		sched:   sched,
		out:     os.Stdout,
	}, nil
}

// SetOutput redirects the human-readable report. Defaults to stdout.
func (m *Marco) SetOutput(out io.Writer) {
	m.out = out
}

// Run executes one full test run. It returns nil when every test
// passed and every file parsed, a TestFailureError when any test
// failed, errored or any file was malformed, and a NoTestFilesError
// when the input pattern matched nothing. Infrastructure problems
// (unreadable files, bad patterns) surface as RuntimeError.
func (m *Marco) Run(ctx context.Context) error {
	runID := uuid.New().String()
	start := time.Now()
	m.log.Info("Starting test run", "run_id", runID, "version", m.version, "input", m.cfg.Input, "threads", m.cfg.Threads)

	paths, err := discovery.Discover(m.cfg.Input)
	if err != nil {
		metrics.RecordError("discovery")
		return NewRuntimeError(fmt.Errorf("discovering test files: %w", err))
	}
	if len(paths) == 0 {
		fmt.Fprintf(m.out, "No test files found matching %q\n", m.cfg.Input)
		return NewNoTestFilesError(m.cfg.Input)
	}
	m.log.Info("Discovered test files", "count", len(paths))

	files, err := discovery.Load(ctx, paths)
	if err != nil {
		metrics.RecordError("load")
		return NewRuntimeError(fmt.Errorf("reading test files: %w", err))
	}

	cases, parseErrs := m.parseAll(files)
	m.log.Info("Collected tests", "tests", len(cases), "files", len(files), "malformed_files", len(parseErrs))

	results := m.sched.Run(ctx, cases)

	duration := time.Since(start)
	stats := Summarize(results)
	m.record(runID, results, stats, parseErrs, duration)

	newReporter(m.out).Report(results, parseErrs, duration)

	if ctx.Err() != nil {
		return NewRuntimeError(fmt.Errorf("run interrupted: %w", ctx.Err()))
	}
	if !stats.Clean() || len(parseErrs) > 0 {
		return NewTestFailureError(fmt.Sprintf(
			"%d of %d tests did not pass (%d malformed files)",
			stats.Failed+stats.Errored, stats.Total, len(parseErrs)))
	}
	return nil
}

// parseAll parses every loaded file. A malformed file is recorded and
// skipped; tests from the remaining files still run.
func (m *Marco) parseAll(files []discovery.File) ([]*types.TestCase, []*parser.ParseError) {
	opts := parser.Options{
		DefaultRunner:  m.cfg.Runner,
		DefaultTimeout: m.cfg.Timeout,
	}

	var cases []*types.TestCase
	var parseErrs []*parser.ParseError
	for _, f := range files {
		spec, err := parser.Parse(f.Path, f.Contents, opts)
		if err != nil {
			var perr *parser.ParseError
			if !errors.As(err, &perr) {
				perr = &parser.ParseError{File: f.Path, Msg: err.Error()}
			}
			m.log.Error("Failed to parse test file", "file", f.Path, "err", perr)
			metrics.RecordError("parse")
			parseErrs = append(parseErrs, perr)
			continue
		}
		cases = append(cases, spec.Cases...)
	}
	return cases, parseErrs
}

func (m *Marco) record(runID string, results []*types.Result, stats RunStats, parseErrs []*parser.ParseError, duration time.Duration) {
	for _, r := range results {
		metrics.RecordTest(runID, r.Test.SourceFile, r.Status)
	}

	outcome := "pass"
	if !stats.Clean() || len(parseErrs) > 0 {
		outcome = "fail"
	}
	metrics.RecordRun(runID, outcome, stats.Total, stats.Passed, stats.Failed+stats.Errored, duration)
}
