package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/bullptr/marco"
	"github.com/bullptr/marco/exitcodes"
	"github.com/bullptr/marco/flags"
	"github.com/bullptr/marco/metrics"
)

var (
	Version = "v0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "marco",
		Usage:   "Run tests embedded in Markdown files",
		Version: Version,
		Description: "marco discovers *.marco.md files, extracts the test cases " +
			"embedded in them, feeds each test's input to a runner command and " +
			"compares the output.\n\n" +
			"Exit codes:\n" +
			"   0  all tests passed\n" +
			"   1  at least one test failed or a file was malformed\n" +
			"   2  runtime error\n" +
			"   3  no test files found",
		Flags:  flags.Flags,
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "marco: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

func run(cliCtx *cli.Context) error {
	logger := setupLogger(cliCtx.Bool(flags.Verbose.Name))

	cfg, err := marco.NewConfig(cliCtx, logger)
	if err != nil {
		return marco.NewRuntimeError(fmt.Errorf("invalid configuration: %w", err))
	}

	if cfg.MetricsEnabled {
		srv, err := metrics.StartServer(logger, cfg.MetricsAddr, cfg.MetricsPort)
		if err != nil {
			return marco.NewRuntimeError(fmt.Errorf("starting metrics server: %w", err))
		}
		defer srv.Shutdown()
	}

	svc, err := marco.New(cfg, Version)
	if err != nil {
		return marco.NewRuntimeError(err)
	}
	return svc.Run(cliCtx.Context)
}

func setupLogger(verbose bool) log.Logger {
	level := log.LevelWarn
	if verbose {
		level = log.LevelInfo
	}
	color := term.IsTerminal(int(os.Stderr.Fd()))
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, color))
	log.SetDefault(logger)
	return logger
}

func exitCodeFor(err error) int {
	switch {
	case marco.IsNoTestFilesError(err):
		return exitcodes.NoTestFiles
	case marco.IsRuntimeError(err):
		return exitcodes.RuntimeErr
	case marco.IsTestFailureError(err):
		return exitcodes.TestFailure
	}
	return exitcodes.RuntimeErr
}
