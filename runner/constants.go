package runner

import "time"

const (
	// DefaultTestTimeout applies when neither the file header nor the CLI
	// sets a timeout.
	DefaultTestTimeout = time.Minute

	// DefaultMaxOutputBytes bounds captured stdout/stderr per stream so a
	// misbehaving test target cannot grow memory without limit.
	DefaultMaxOutputBytes = 8 * 1024 * 1024

	// MaxReasonableConcurrency is the level above which a warning is logged
	// to avoid resource exhaustion.
	MaxReasonableConcurrency = 32
)
