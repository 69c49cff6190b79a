// Package flags defines the marco CLI surface. Every flag carries a
// MARCO_* environment fallback; urfave/cli gives the flag > env > default
// precedence the configuration contract requires.
package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "MARCO"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Input = &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Value:   "**/*.marco.md",
		EnvVars: prefixEnvVars("INPUT"),
		Usage:   "Glob or literal file path for test collection",
	}
	Runner = &cli.StringFlag{
		Name:    "runner",
		Aliases: []string{"r"},
		EnvVars: prefixEnvVars("RUNNER"),
		Usage:   "Default command to run tests with; overridden by header and test-level runner fields",
	}
	Threads = &cli.IntFlag{
		Name:    "threads",
		Value:   0,
		EnvVars: prefixEnvVars("MAX_THREADS"),
		Usage:   "Maximum number of concurrent test workers (0 = detected CPU count)",
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   time.Minute,
		EnvVars: prefixEnvVars("TIMEOUT"),
		Usage:   "Per-test wall-clock timeout; a file header may override it",
	}
	Verbose = &cli.BoolFlag{
		Name:    "verbose",
		Value:   false,
		EnvVars: prefixEnvVars("VERBOSE"),
		Usage:   "Stream a line as each test starts and finishes",
	}
	MaxOutputBytes = &cli.IntFlag{
		Name:    "max-output-bytes",
		Value:   8 * 1024 * 1024,
		EnvVars: prefixEnvVars("MAX_OUTPUT_BYTES"),
		Usage:   "Bound on captured output per stream; tests exceeding it are errored",
	}
	MetricsEnabled = &cli.BoolFlag{
		Name:    "metrics.enabled",
		Value:   false,
		EnvVars: prefixEnvVars("METRICS_ENABLED"),
		Usage:   "Serve prometheus metrics while the run is in progress",
	}
	MetricsAddr = &cli.StringFlag{
		Name:    "metrics.addr",
		Value:   "127.0.0.1",
		EnvVars: prefixEnvVars("METRICS_ADDR"),
		Usage:   "Metrics listening address",
	}
	MetricsPort = &cli.IntFlag{
		Name:    "metrics.port",
		Value:   7300,
		EnvVars: prefixEnvVars("METRICS_PORT"),
		Usage:   "Metrics listening port",
	}
)

var Flags = []cli.Flag{
	Input,
	Runner,
	Threads,
	Timeout,
	Verbose,
	MaxOutputBytes,
	MetricsEnabled,
	MetricsAddr,
	MetricsPort,
}

// CheckRequired validates flag values that urfave/cli cannot express as
// types: negative counts and sizes are configuration errors that must
// abort the run before any test executes.
func CheckRequired(ctx *cli.Context) error {
	if ctx.Int(Threads.Name) < 0 {
		return fmt.Errorf("--threads must not be negative, got %d", ctx.Int(Threads.Name))
	}
	if ctx.Duration(Timeout.Name) <= 0 {
		return fmt.Errorf("--timeout must be positive, got %v", ctx.Duration(Timeout.Name))
	}
	if ctx.Int(MaxOutputBytes.Name) <= 0 {
		return fmt.Errorf("--max-output-bytes must be positive, got %d", ctx.Int(MaxOutputBytes.Name))
	}
	return nil
}
