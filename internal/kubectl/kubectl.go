// Package kubectl runs the cluster CLI and other helper programs with a
// deadline and captures what they print.
package kubectl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Exit codes reported for commands that never produced one.
const (
	ExitNotFound = 127
	ExitTimeout  = 124
)

// ErrFailed wraps the output of a command that exited non-zero.
var ErrFailed = errors.New("command failed")

// Result is the outcome of one command.
type Result struct {
	OK       bool    `json:"ok"`
	ExitCode int     `json:"exit_code"`
	Stdout   string  `json:"stdout"`
	Stderr   string  `json:"stderr"`
	Output   string  `json:"output"`
	Duration float64 `json:"duration_seconds"`
}

// Command is a program invocation.
type Command struct {
	Name    string
	Args    []string
	Stdin   string
	Timeout time.Duration
}

// Runner executes commands. Bin is the cluster CLI used by Run and JSON.
type Runner struct {
	Bin string
	Dir string

	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewRunner returns a runner for the given CLI binary ("kubectl" when empty)
// that starts commands in dir.
func NewRunner(bin, dir string) *Runner {
	if bin == "" {
		bin = "kubectl"
	}
	return &Runner{Bin: bin, Dir: dir, command: exec.CommandContext}
}

// Exec runs any program.
func (r *Runner) Exec(ctx context.Context, c Command) Result {
	started := time.Now()
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := r.command(ctx, c.Name, c.Args...)
	cmd.Dir = r.Dir
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	err := cmd.Run()
	res := Result{Duration: time.Since(started).Round(10 * time.Millisecond).Seconds()}

	switch {
	case errors.Is(err, exec.ErrNotFound):
		res.ExitCode = ExitNotFound
		res.Stderr = err.Error()
		res.Output = "executable not found: " + err.Error()
		return res
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.ExitCode = ExitTimeout
		res.Stderr = "timeout"
		res.Output = "command timed out"
		if c.Timeout > 0 {
			res.Output += " after " + c.Timeout.String()
		}
		return res
	}

	res.Stdout = strings.TrimRight(stdout.String(), " \t\r\n")
	res.Stderr = strings.TrimRight(stderr.String(), " \t\r\n")
	res.Output = joinOutput(res.Stdout, res.Stderr)

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.OK = true
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
		res.Output = joinOutput(res.Output, err.Error())
	}
	return res
}

func joinOutput(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n\n"))
}

// Run runs the cluster CLI.
func (r *Runner) Run(ctx context.Context, timeout time.Duration, args ...string) Result {
	return r.Exec(ctx, Command{Name: r.Bin, Args: args, Timeout: timeout})
}

// Apply pipes a manifest to "apply -f -".
func (r *Runner) Apply(ctx context.Context, timeout time.Duration, manifest string) Result {
	return r.Exec(ctx, Command{Name: r.Bin, Args: []string{"apply", "-f", "-"}, Stdin: manifest, Timeout: timeout})
}

// JSON runs the cluster CLI with "-o json" appended and decodes its output.
func (r *Runner) JSON(ctx context.Context, timeout time.Duration, into any, args ...string) error {
	res := r.Run(ctx, timeout, append(args, "-o", "json")...)
	if !res.OK {
		return fmt.Errorf("%w: %s", ErrFailed, res.Output)
	}
	if err := json.Unmarshal([]byte(res.Stdout), into); err != nil {
		out := res.Stdout
		if len(out) > 200 {
			out = out[:200]
		}
		return fmt.Errorf("invalid JSON from %s: %w: %s", r.Bin, err, out)
	}
	return nil
}
