package marco

import (
	"fmt"
	"runtime"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/bullptr/marco/flags"
)

// Config holds the application configuration, built once at startup and
// passed by reference into the scheduler and execution engine. Nothing in
// the core reads ambient global state.
type Config struct {
	Input          string        // Glob or literal path for test discovery
	Runner         string        // CLI-level default runner, lowest precedence tier
	Threads        int           // Effective worker count, always >= 1
	Timeout        time.Duration // Default per-test timeout
	Verbose        bool          // Stream per-test start/finish lines
	MaxOutputBytes int           // Captured output bound per stream

	MetricsEnabled bool
	MetricsAddr    string
	MetricsPort    int

	Log log.Logger
}

// NewConfig creates a new Config from the cli context. Invalid
// concurrency or timeout values are configuration errors fatal to the run
// before any test executes.
func NewConfig(ctx *cli.Context, logger log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, err
	}

	input := ctx.String(flags.Input.Name)
	if input == "" {
		input = flags.Input.Value
	}

	threads := ctx.Int(flags.Threads.Name)
	if threads == 0 {
		threads = runtime.NumCPU()
	}
	if threads < 1 {
		return nil, fmt.Errorf("effective thread count must be at least 1, got %d", threads)
	}

	return &Config{
		Input:          input,
		Runner:         ctx.String(flags.Runner.Name),
		Threads:        threads,
		Timeout:        ctx.Duration(flags.Timeout.Name),
		Verbose:        ctx.Bool(flags.Verbose.Name),
		MaxOutputBytes: ctx.Int(flags.MaxOutputBytes.Name),
		MetricsEnabled: ctx.Bool(flags.MetricsEnabled.Name),
		MetricsAddr:    ctx.String(flags.MetricsAddr.Name),
		MetricsPort:    ctx.Int(flags.MetricsPort.Name),
		Log:            logger,
	}, nil
}
