// Package devtest exercises generated templates in their dev containers: it
// brings the container up, then runs the template's setup and run commands,
// logging everything to logs/test-<id>.log.
package devtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/recap-org/tgen/internal/logging"
	"github.com/recap-org/tgen/internal/manifest"
	"github.com/recap-org/tgen/internal/runner"
)

// ErrFailed is returned when at least one template failed.
var ErrFailed = errors.New("template tests failed")

const rule = "================================================================================"

// Options configures a Tester.
type Options struct {
	OutDir string
	LogDir string
	// Out receives progress lines. Nil discards them.
	Out io.Writer
}

// Summary lists the tested templates.
type Summary struct {
	Passed []string
	Failed []string
}

// Tester runs devcontainer against generated templates.
type Tester struct {
	runner runner.Runner
	fs     billy.Filesystem
	opts   Options
}

// New returns a Tester that runs devcontainer through r.
func New(r runner.Runner, opts Options) *Tester {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Tester{runner: r, fs: osfs.New("/"), opts: opts}
}

// LogPath returns the log file of a template.
func (t *Tester) LogPath(id string) string {
	return filepath.Join(t.opts.LogDir, "test-"+id+".log")
}

// Test tests every template in specs. All templates are tested even when
// some fail; ErrFailed lists the failures.
func (t *Tester) Test(ctx context.Context, specs []manifest.TemplateSpec) (*Summary, error) {
	out := t.opts.Out
	summary := &Summary{}

	fmt.Fprintf(out, "Testing %d template(s)...\n", len(specs))
	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		fmt.Fprintf(out, "\n→ Testing %s\n", spec.ID)
		if err := t.test(ctx, spec); err != nil {
			fmt.Fprintf(out, "✗ %s: %v\n  See log: %s\n", spec.ID, err, t.LogPath(spec.ID))
			logging.FromContext(ctx).Error("template test failed", "template", spec.ID, "error", err)
			summary.Failed = append(summary.Failed, spec.ID)
			continue
		}
		fmt.Fprintf(out, "✓ %s passed\n", spec.ID)
		summary.Passed = append(summary.Passed, spec.ID)
	}

	fmt.Fprintln(out)
	if len(summary.Failed) > 0 {
		fmt.Fprintf(out, "✗ %d template(s) failed:\n", len(summary.Failed))
		for _, id := range summary.Failed {
			fmt.Fprintf(out, "  - %s\n", id)
		}
	} else {
		fmt.Fprintf(out, "✓ All %d template(s) passed!\n", len(summary.Passed))
	}
	fmt.Fprintf(out, "Logs are in: %s\n", t.opts.LogDir)

	if len(summary.Failed) > 0 {
		return summary, fmt.Errorf("%w: %s", ErrFailed, strings.Join(summary.Failed, ", "))
	}
	return summary, nil
}

func (t *Tester) test(ctx context.Context, spec manifest.TemplateSpec) (err error) {
	dir := filepath.Join(t.opts.OutDir, spec.ID)
	if info, statErr := t.fs.Stat(dir); statErr != nil || !info.IsDir() {
		return fmt.Errorf("template directory not found: %s", dir)
	}

	if err := t.fs.MkdirAll(t.opts.LogDir, 0755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}
	log, err := t.fs.Create(t.LogPath(spec.ID))
	if err != nil {
		return fmt.Errorf("creating log: %w", err)
	}
	defer func() {
		if cerr := log.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	fmt.Fprintf(log, "Test log for template: %s\n", spec.ID)

	steps := []struct {
		label string
		args  []string
	}{
		{"Building dev container", []string{"up", "--workspace-folder", dir}},
		{"Running setup: " + spec.Setup, []string{"exec", "--workspace-folder", dir, "bash", "-c", spec.Setup}},
		{"Running: " + spec.Run, []string{"exec", "--workspace-folder", dir, "bash", "-c", spec.Run}},
	}
	for _, step := range steps {
		fmt.Fprintf(t.opts.Out, "  %s\n", step.label)
		if err := t.logged(ctx, log, step.args); err != nil {
			return err
		}
	}
	return nil
}

// logged runs devcontainer with args, appending the command line, its
// combined output and its exit code to log.
func (t *Tester) logged(ctx context.Context, log io.Writer, args []string) error {
	line := runner.Format("devcontainer", args...)
	fmt.Fprintf(log, "\n%s\nCommand: %s\n%s\n\n", rule, line, rule)

	res, err := t.runner.Run(ctx, "devcontainer", args, runner.Opts{Stdout: log, Stderr: log})
	if err != nil {
		fmt.Fprintf(log, "\n\nError: %v\n", err)
		return fmt.Errorf("running %s: %w", line, err)
	}
	fmt.Fprintf(log, "\n\nExit code: %d\n", res.ExitCode)

	if !res.Success() {
		return &runner.ExitError{Command: line, ExitCode: res.ExitCode}
	}
	return nil
}
