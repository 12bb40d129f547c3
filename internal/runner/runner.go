// Package runner executes external tools synchronously and reports their
// exit status and captured output in a uniform [Result].
//
// Every pipeline stage goes through a [Runner], which lets tests substitute
// a recording fake for the real processes.
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

// Result holds the outcome of a single tool invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner invokes one external tool and blocks until it exits. A nil error
// means exit status 0; otherwise the error is an [*ExitError].
type Runner interface {
	Run(ctx context.Context, tool string, args ...string) (Result, error)
}

// ExitError reports a tool that failed to start (ExitCode -1) or exited
// non-zero.
type ExitError struct {
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode extracts the exit status from err: 0 for nil, the status of an
// [*ExitError], and -1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode
	}
	return -1
}

// ExecRunner runs tools with os/exec. When Tee is set, stdout and stderr
// are mirrored to it in real time in addition to being captured.
type ExecRunner struct {
	Tee io.Writer
}

// Run implements [Runner].
func (r *ExecRunner) Run(ctx context.Context, tool string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, tool, args...)

	var stdout, stderr bytes.Buffer
	if r.Tee != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.Tee)
		cmd.Stderr = io.MultiWriter(&stderr, r.Tee)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else {
		res.ExitCode = -1
	}
	return res, &ExitError{Tool: tool, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
}

// CommandLine renders tool and args as a single shell-like line for logs.
func CommandLine(tool string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quote(tool))
	for _, a := range args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\"'") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// Tail returns the last n non-empty lines of text.
func Tail(text string, n int) []string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
