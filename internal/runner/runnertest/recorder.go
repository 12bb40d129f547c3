// Package runnertest provides a recording [runner.Runner] for tests.
package runnertest

import (
	"context"
	"strings"
	"sync"

	"github.com/backmassage/splatmaster/internal/runner"
)

// Call is one recorded invocation.
type Call struct {
	Tool string
	Args []string
}

// Line renders the call as "tool arg1 arg2 ...".
func (c Call) Line() string {
	return strings.TrimSpace(c.Tool + " " + strings.Join(c.Args, " "))
}

// Handler decides the outcome of a call. Returning a non-zero exit code makes
// the Recorder return an *runner.ExitError.
type Handler func(c Call) (runner.Result, error)

// Recorder records every call in order and delegates outcomes to handlers
// registered per tool (and optionally per first argument).
type Recorder struct {
	mu       sync.Mutex
	calls    []Call
	handlers map[string]Handler
}

// New returns an empty Recorder where every call succeeds.
func New() *Recorder {
	return &Recorder{handlers: make(map[string]Handler)}
}

// On registers h for calls whose tool equals key, or whose "tool arg0"
// equals key. The more specific key wins.
func (r *Recorder) On(key string, h Handler) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[key] = h
	return r
}

// Fail makes calls matching key exit with code and stderr.
func (r *Recorder) Fail(key string, code int, stderr string) *Recorder {
	return r.On(key, func(Call) (runner.Result, error) {
		return runner.Result{ExitCode: code, Stderr: stderr}, nil
	})
}

// Run implements runner.Runner.
func (r *Recorder) Run(_ context.Context, tool string, args ...string) (runner.Result, error) {
	c := Call{Tool: tool, Args: append([]string(nil), args...)}

	r.mu.Lock()
	r.calls = append(r.calls, c)
	h := r.handlers[tool]
	if len(args) > 0 {
		if specific, ok := r.handlers[tool+" "+args[0]]; ok {
			h = specific
		}
	}
	r.mu.Unlock()

	if h == nil {
		return runner.Result{}, nil
	}
	res, err := h(c)
	if err != nil {
		return res, err
	}
	if res.ExitCode != 0 {
		return res, &runner.ExitError{Tool: tool, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res, nil
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Lines returns every recorded call rendered with [Call.Line].
func (r *Recorder) Lines() []string {
	var out []string
	for _, c := range r.Calls() {
		out = append(out, c.Line())
	}
	return out
}

// Count returns how many calls match key (tool, or "tool arg0").
func (r *Recorder) Count(key string) int {
	n := 0
	for _, c := range r.Calls() {
		if c.Tool == key || (len(c.Args) > 0 && c.Tool+" "+c.Args[0] == key) {
			n++
		}
	}
	return n
}
