// ABOUTME: Sequential task dispatcher for the periodic cron entry point.
// ABOUTME: Runs sibling executables in order; only the last status matters.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// DefaultTasks is the classic sibling layout the cron job expects.
var DefaultTasks = []string{"health_check", "push_logs_for_bot"}

// Runner invokes named tasks from a fixed directory, strictly in order.
// A failed task never stops the sequence; its error is handed to
// OnError (when set) and otherwise dropped. The run's result is the
// last task's result alone.
type Runner struct {
	Dir     string                       // directory the tasks live in
	Stdout  io.Writer                    // child stdout, defaults to os.Stdout
	Stderr  io.Writer                    // child stderr, defaults to os.Stderr
	OnError func(task string, err error) // called for every failing task but the last
}

// ExitError reports the exit status of the final task so the process
// can propagate it unchanged.
type ExitError struct {
	Task string
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("task %s: %v", e.Task, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// SelfDir resolves the directory containing the running executable,
// with symlinks resolved, so dispatch works from any working directory.
func SelfDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}
	return filepath.Dir(resolved), nil
}

// Run invokes each task with no arguments, waiting for each to exit
// before starting the next. The returned error is nil when the last
// task succeeded, or an *ExitError carrying its exit code; earlier
// failures only reach OnError.
func (r *Runner) Run(ctx context.Context, tasks []string) error {
	if len(tasks) == 0 {
		return fmt.Errorf("no tasks to run")
	}

	var last error
	lastTask := tasks[len(tasks)-1]
	for i, task := range tasks {
		err := r.runOne(ctx, task)
		if i == len(tasks)-1 {
			last = err
			break
		}
		if err != nil && r.OnError != nil {
			r.OnError(task, err)
		}
	}

	if last == nil {
		return nil
	}
	code := 1
	var ee *exec.ExitError
	if errors.As(last, &ee) {
		code = ee.ExitCode()
	}
	return &ExitError{Task: lastTask, Code: code, Err: last}
}

func (r *Runner) runOne(ctx context.Context, task string) error {
	stdout := r.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := r.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	cmd := exec.CommandContext(ctx, filepath.Join(r.Dir, task))
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}
