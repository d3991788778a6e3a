// Package runner runs external commands behind an interface so callers can
// be tested without the binaries installed.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Result holds the outcome of a command that ran.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports a zero exit code.
func (r Result) Success() bool { return r.ExitCode == 0 }

// Opts holds optional parameters for a command.
type Opts struct {
	Dir string            // working directory
	Env map[string]string // overlay on the current environment
	// Stdout and Stderr, when set, also receive the output as it is
	// produced. Result still carries the full text.
	Stdout io.Writer
	Stderr io.Writer
}

// Runner runs external commands.
type Runner interface {
	// Run executes name with args. A process that exits non-zero is a
	// Result with ExitCode set, not an error. Errors are reserved for
	// failures to run at all: missing binary, canceled context, I/O.
	Run(ctx context.Context, name string, args []string, opts Opts) (Result, error)
}

// Exec is the os/exec implementation of Runner.
type Exec struct{}

// New returns the os/exec runner.
func New() *Exec { return &Exec{} }

// Run executes the command and captures stdout and stderr.
func (*Exec) Run(ctx context.Context, name string, args []string, opts Opts) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = tee(&stdout, opts.Stdout)
	cmd.Stderr = tee(&stderr, opts.Stderr)

	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = cmd.Environ()
		for k, v := range opts.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}
	return result, nil
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

// LookPath reports where name is found on PATH.
func LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Format renders a command line for logs and error messages. Arguments with
// spaces or quotes are quoted.
func Format(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\n\"'") {
			a = `"` + strings.ReplaceAll(a, `"`, `\"`) + `"`
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// ExitError reports a command that ran and exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// RunChecked runs the command through r and turns a non-zero exit into an
// *ExitError.
func RunChecked(ctx context.Context, r Runner, name string, args []string, opts Opts) (Result, error) {
	res, err := r.Run(ctx, name, args, opts)
	if err != nil {
		return res, fmt.Errorf("running %s: %w", Format(name, args...), err)
	}
	if !res.Success() {
		return res, &ExitError{Command: Format(name, args...), ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res, nil
}
