// Package deploy publishes generated templates. Each template's output
// directory is synced into a fresh clone of its repository, and any change
// is committed and pushed.
package deploy

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/recap-org/tgen/internal/logging"
	"github.com/recap-org/tgen/internal/platform"
	"github.com/recap-org/tgen/internal/runner"
)

// Status is the outcome of deploying one template.
type Status int

const (
	StatusPushed Status = iota
	StatusUpToDate
)

func (s Status) String() string {
	switch s {
	case StatusPushed:
		return "pushed"
	case StatusUpToDate:
		return "up to date"
	default:
		return "unknown"
	}
}

// Outcome describes a deployed template.
type Outcome struct {
	ID      string
	RepoURL string
	Status  Status
	Message string // commit message, empty when up to date
}

// Options configures a Deployer.
type Options struct {
	// OutDir holds one generated directory per template id.
	OutDir string
	// ProjectRoot is the generator's own checkout, used for the commit
	// message.
	ProjectRoot string
	// RepoURL is the clone URL; "{id}" is replaced by the template id.
	RepoURL string
	// Branch is pushed to origin.
	Branch string
	// Out receives progress lines. Nil discards them.
	Out io.Writer
}

// Deployer syncs generated templates into their repositories.
type Deployer struct {
	runner runner.Runner
	fs     billy.Filesystem
	opts   Options
	now    func() time.Time
}

// New returns a Deployer that runs git through r.
func New(r runner.Runner, opts Options) *Deployer {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Branch == "" {
		opts.Branch = "main"
	}
	return &Deployer{runner: r, fs: osfs.New("/"), opts: opts, now: time.Now}
}

// RepoURL returns the repository URL for a template id.
func (d *Deployer) RepoURL(id string) string {
	return strings.ReplaceAll(d.opts.RepoURL, "{id}", id)
}

// Deploy deploys the templates in order and stops at the first failure.
// The outcomes of the templates deployed so far are returned either way.
func (d *Deployer) Deploy(ctx context.Context, ids []string) ([]Outcome, error) {
	message := fmt.Sprintf("Update from generator@%s on %s", d.commitSHA(ctx), d.now().Format("2006-01-02"))

	var outcomes []Outcome
	for _, id := range ids {
		outcome, err := d.deploy(ctx, id, message)
		if err != nil {
			fmt.Fprintf(d.opts.Out, "✗ Failed to deploy %s: %v\n", id, err)
			return outcomes, fmt.Errorf("deploying %s: %w", id, err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (d *Deployer) deploy(ctx context.Context, id, message string) (Outcome, error) {
	out := d.opts.Out
	logger := logging.FromContext(ctx).With("template", id)
	outcome := Outcome{ID: id, RepoURL: d.RepoURL(id)}

	src := filepath.Join(d.opts.OutDir, id)
	info, err := d.fs.Stat(src)
	if err != nil || !info.IsDir() {
		return outcome, fmt.Errorf("template has not been generated: %s is missing", src)
	}

	fmt.Fprintf(out, "\n→ Deploying %s to %s\n", id, outcome.RepoURL)

	tmp, err := os.MkdirTemp("", "deploy-"+id+"-")
	if err != nil {
		return outcome, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)
	repo := filepath.Join(tmp, id)

	fmt.Fprintln(out, "  Cloning repository...")
	if err := d.git(ctx, tmp, "clone", outcome.RepoURL, repo); err != nil {
		return outcome, err
	}

	fmt.Fprintf(out, "  Syncing files from %s...\n", src)
	if err := platform.ClearDir(d.fs, repo, ".git"); err != nil {
		return outcome, fmt.Errorf("clearing clone: %w", err)
	}
	if err := platform.CopyTree(d.fs, src, repo, nil); err != nil {
		return outcome, fmt.Errorf("syncing %s: %w", src, err)
	}

	res, err := runner.RunChecked(ctx, d.runner, "git", []string{"status", "--porcelain"}, runner.Opts{Dir: repo})
	if err != nil {
		return outcome, err
	}
	if strings.TrimSpace(res.Stdout) == "" {
		fmt.Fprintf(out, "✓ %s is up to date\n", id)
		outcome.Status = StatusUpToDate
		return outcome, nil
	}
	logger.Debug("changes detected", "status", res.Stdout)

	if err := d.git(ctx, repo, "add", "-A"); err != nil {
		return outcome, err
	}
	fmt.Fprintf(out, "  Committing: %s\n", message)
	if err := d.git(ctx, repo, "commit", "-m", message); err != nil {
		return outcome, err
	}
	fmt.Fprintf(out, "  Pushing to origin/%s...\n", d.opts.Branch)
	if err := d.git(ctx, repo, "push", "origin", d.opts.Branch); err != nil {
		return outcome, err
	}

	fmt.Fprintf(out, "✓ Deployed %s\n", id)
	logger.Info("deployed template", "repo", outcome.RepoURL)
	outcome.Status = StatusPushed
	outcome.Message = message
	return outcome, nil
}

func (d *Deployer) git(ctx context.Context, dir string, args ...string) error {
	_, err := runner.RunChecked(ctx, d.runner, "git", args, runner.Opts{Dir: dir})
	return err
}

// commitSHA returns the short HEAD of the project checkout, or "unknown".
func (d *Deployer) commitSHA(ctx context.Context) string {
	res, err := d.runner.Run(ctx, "git", []string{"rev-parse", "--short", "HEAD"}, runner.Opts{Dir: d.opts.ProjectRoot})
	if err != nil || !res.Success() {
		return "unknown"
	}
	if sha := strings.TrimSpace(res.Stdout); sha != "" {
		return sha
	}
	return "unknown"
}
