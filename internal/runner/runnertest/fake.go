// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"context"
	"io"
	"slices"
	"sync"

	"github.com/recap-org/tgen/internal/runner"
)

// Call records one invocation.
type Call struct {
	Name string
	Args []string
	Dir  string
	Env  map[string]string
}

// Line returns the call formatted as a command line.
func (c Call) Line() string { return runner.Format(c.Name, c.Args...) }

// HandlerFunc answers a call.
type HandlerFunc func(call Call) (runner.Result, error)

type rule struct {
	name string
	args []string // nil matches any arguments
	fn   HandlerFunc
}

// Fake is a runner.Runner that answers from rules registered with On and
// Handle. Calls with no matching rule succeed with empty output. Fake is
// safe for concurrent use.
type Fake struct {
	mu    sync.Mutex
	rules []rule
	calls []Call
}

// New returns an empty Fake.
func New() *Fake { return &Fake{} }

// On answers calls to name with exactly args with res.
func (f *Fake) On(name string, args []string, res runner.Result) {
	f.add(rule{name: name, args: args, fn: func(Call) (runner.Result, error) { return res, nil }})
}

// Handle answers every call to name with fn. Later registrations win over
// earlier ones.
func (f *Fake) Handle(name string, fn HandlerFunc) {
	f.add(rule{name: name, fn: fn})
}

func (f *Fake) add(r rule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, r)
}

// Run records the call and answers it.
func (f *Fake) Run(ctx context.Context, name string, args []string, opts runner.Opts) (runner.Result, error) {
	call := Call{Name: name, Args: slices.Clone(args), Dir: opts.Dir, Env: opts.Env}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	fn := f.match(name, args)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return runner.Result{}, err
	}
	if fn == nil {
		return runner.Result{}, nil
	}

	res, err := fn(call)
	if opts.Stdout != nil && res.Stdout != "" {
		_, _ = io.WriteString(opts.Stdout, res.Stdout)
	}
	if opts.Stderr != nil && res.Stderr != "" {
		_, _ = io.WriteString(opts.Stderr, res.Stderr)
	}
	return res, err
}

func (f *Fake) match(name string, args []string) HandlerFunc {
	for i := len(f.rules) - 1; i >= 0; i-- {
		r := f.rules[i]
		if r.name != name {
			continue
		}
		if r.args == nil || slices.Equal(r.args, args) {
			return r.fn
		}
	}
	return nil
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Lines returns the recorded calls as command lines.
func (f *Fake) Lines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.Line()
	}
	return lines
}
