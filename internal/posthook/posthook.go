// Package posthook runs the post-generation command of each template inside
// a container with the template's output mounted as the working directory.
package posthook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/recap-org/tgen/internal/logging"
	"github.com/recap-org/tgen/internal/manifest"
	"github.com/recap-org/tgen/internal/runner"
)

// ErrFailed is returned when at least one hook failed.
var ErrFailed = errors.New("post hooks failed")

// Options configures a Hooks runner.
type Options struct {
	OutDir string
	// Image is the container image; {language}, {release} and {id} are
	// substituted.
	Image string
	// Out receives progress lines. Nil discards them.
	Out io.Writer
}

// Summary lists the templates whose hooks ran.
type Summary struct {
	Succeeded []string
	Failed    []string
}

// Hooks runs post commands through docker.
type Hooks struct {
	runner runner.Runner
	opts   Options
}

// New returns a Hooks that runs docker through r.
func New(r runner.Runner, opts Options) *Hooks {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Hooks{runner: r, opts: opts}
}

// Image returns the image for a template.
func (h *Hooks) Image(release string, spec manifest.TemplateSpec) string {
	return strings.NewReplacer(
		"{language}", spec.Language,
		"{release}", release,
		"{id}", spec.ID,
	).Replace(h.opts.Image)
}

// Run runs the hook of every template in specs that declares one. All hooks
// run even when some fail; ErrFailed is returned if any did.
func (h *Hooks) Run(ctx context.Context, release string, specs []manifest.TemplateSpec) (*Summary, error) {
	out := h.opts.Out
	summary := &Summary{}

	var withHooks []manifest.TemplateSpec
	for _, spec := range specs {
		if spec.HasPost() {
			withHooks = append(withHooks, spec)
		}
	}
	if len(withHooks) == 0 {
		fmt.Fprintln(out, "No templates with post hooks found.")
		return summary, nil
	}

	fmt.Fprintf(out, "Found %d template(s) with post hooks\n\n", len(withHooks))
	for _, spec := range withHooks {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := h.run(ctx, release, spec); err != nil {
			fmt.Fprintf(out, "✗ Post hook failed for %s: %v\n\n", spec.ID, err)
			logging.FromContext(ctx).Error("post hook failed", "template", spec.ID, "error", err)
			summary.Failed = append(summary.Failed, spec.ID)
			continue
		}
		fmt.Fprintf(out, "✓ Post hook completed for %s\n\n", spec.ID)
		summary.Succeeded = append(summary.Succeeded, spec.ID)
	}

	fmt.Fprintln(out, "Post hooks summary:")
	fmt.Fprintf(out, "  ✓ Success: %d\n", len(summary.Succeeded))
	fmt.Fprintf(out, "  ✗ Failure: %d\n", len(summary.Failed))

	if len(summary.Failed) > 0 {
		return summary, fmt.Errorf("%w: %s", ErrFailed, strings.Join(summary.Failed, ", "))
	}
	return summary, nil
}

func (h *Hooks) run(ctx context.Context, release string, spec manifest.TemplateSpec) error {
	dir, err := filepath.Abs(filepath.Join(h.opts.OutDir, spec.ID))
	if err != nil {
		return err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("template directory not found: %s", dir)
	}

	image := h.Image(release, spec)
	fmt.Fprintf(h.opts.Out, "→ Running post hook for %s\n", spec.ID)
	fmt.Fprintf(h.opts.Out, "  Image: %s\n", image)
	fmt.Fprintf(h.opts.Out, "  Command: %s\n", spec.Post)

	args := []string{
		"run", "--rm",
		"-v", dir + ":/workspace",
		"-w", "/workspace",
		image,
		"sh", "-c", spec.Post,
	}
	res, err := runner.RunChecked(ctx, h.runner, "docker", args, runner.Opts{})
	if s := strings.TrimRight(res.Stdout, "\n"); s != "" {
		fmt.Fprintf(h.opts.Out, "  Output:\n%s\n", s)
	}
	return err
}
