package types

import (
	"fmt"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// CompareMode selects how actual output is compared to expected output.
type CompareMode string

const (
	// CompareExact compares canonicalized output byte-for-byte. The empty
	// mode means exact.
	CompareExact CompareMode = "exact"
	// CompareJSON parses both sides as JSON and compares the values, so
	// formatting and key order do not matter.
	CompareJSON CompareMode = "json"
)

// Valid reports whether the mode is one of the recognized values.
func (m CompareMode) Valid() bool {
	switch m {
	case "", CompareExact, CompareJSON:
		return true
	}
	return false
}

// Header is the file-level metadata block. Its fields are a small fixed
// set validated at parse time; unknown keys are rejected by the parser.
type Header struct {
	Name    string      `yaml:"name,omitempty"`
	Author  string      `yaml:"author,omitempty"`
	Date    string      `yaml:"date,omitempty"`
	Runner  *RunnerSpec `yaml:"runner,omitempty"`
	Compare CompareMode `yaml:"compare,omitempty"`
	Timeout Duration    `yaml:"timeout,omitempty"`
}

// RunnerSpec is the runner field of a header: either a plain command
// string, or a mapping of platform names to commands with a default.
type RunnerSpec struct {
	Command string // set when the field was a plain scalar

	Windows string
	Unix    string
	Default string
}

type platformRunner struct {
	Windows string `yaml:"windows,omitempty"`
	Unix    string `yaml:"unix,omitempty"`
	Default string `yaml:"default,omitempty"`
}

// UnmarshalYAML accepts both forms of the runner field.
func (r *RunnerSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		return value.Decode(&r.Command)
	case yaml.MappingNode:
		var p platformRunner
		if err := value.Decode(&p); err != nil {
			return err
		}
		r.Windows, r.Unix, r.Default = p.Windows, p.Unix, p.Default
		return nil
	}
	return fmt.Errorf("runner must be a command string or a windows/unix/default mapping, got %s", value.Tag)
}

// ForPlatform resolves the command for the given GOOS, falling back to the
// default entry. An empty return means no command is declared for this
// platform and resolution moves to the next precedence tier.
func (r *RunnerSpec) ForPlatform(goos string) string {
	if r == nil {
		return ""
	}
	if r.Command != "" {
		return r.Command
	}
	if goos == "windows" && r.Windows != "" {
		return r.Windows
	}
	if goos != "windows" && r.Unix != "" {
		return r.Unix
	}
	return r.Default
}

// Resolve resolves the command for the running platform.
func (r *RunnerSpec) Resolve() string {
	return r.ForPlatform(runtime.GOOS)
}

// Duration wraps time.Duration with YAML decoding from strings like "30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("duration must not be negative, got %q", s)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
