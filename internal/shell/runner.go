// Package shell executes user-approved commands through bash with output
// line streaming and process-group signalling, so an interrupt reaches the
// whole pipeline a command may have spawned.
package shell

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"goforge/internal/config"
	"goforge/internal/logging"
)

// Output streams.
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// Line is one line of command output tagged with its stream.
type Line struct {
	Stream string
	Text   string
}

// ExecResult is the outcome of a completed command. A non-zero exit code is
// a result, not an error; errors are reserved for failures to run at all.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

// Runner executes shell commands with a bounded output queue.
type Runner struct {
	queueSize int
	timeout   time.Duration
	workDir   string
}

// NewRunner creates a runner. workDir is the directory commands run in;
// empty means the process working directory.
func NewRunner(cfg config.ShellConfig, workDir string) *Runner {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1000
	}
	return &Runner{
		queueSize: queueSize,
		timeout:   cfg.Timeout,
		workDir:   workDir,
	}
}

// Execution is a running command. Lines carries tagged output lines until
// the command exits; Wait returns the final result.
type Execution struct {
	Lines <-chan Line

	cmd    *exec.Cmd
	cancel context.CancelFunc

	mu       sync.Mutex
	result   *ExecResult
	waitErr  error
	done     chan struct{}
	timedOut bool
}

// Start launches command through bash -c in its own process group. The
// returned Execution streams output; callers must Wait to reap the process.
func (r *Runner) Start(ctx context.Context, command string) (*Execution, error) {
	if strings.TrimSpace(command) == "" {
		return nil, errors.New("empty command")
	}

	var cancel context.CancelFunc
	if r.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	cmd.Dir = r.workDir
	// Own process group so Interrupt/Kill reach spawned children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, err
	}
	logging.Debug("command started", "pid", cmd.Process.Pid, "command", command)

	lines := make(chan Line, r.queueSize)
	ex := &Execution{
		Lines:  lines,
		cmd:    cmd,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	var wg sync.WaitGroup
	var outBuf, errBuf strings.Builder
	wg.Add(2)
	go scanInto(stdout, StreamStdout, lines, &outBuf, &wg)
	go scanInto(stderr, StreamStderr, lines, &errBuf, &wg)

	go func() {
		wg.Wait()
		waitErr := cmd.Wait()
		close(lines)
		cancel()

		ex.mu.Lock()
		ex.result = &ExecResult{
			ExitCode: exitCode(waitErr),
			Stdout:   outBuf.String(),
			Stderr:   errBuf.String(),
			TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
		}
		ex.waitErr = waitErr
		ex.mu.Unlock()
		close(ex.done)
	}()

	return ex, nil
}

func scanInto(r io.Reader, stream string, lines chan<- Line, buf *strings.Builder, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		text := scanner.Text()
		buf.WriteString(text)
		buf.WriteByte('\n')
		select {
		case lines <- Line{Stream: stream, Text: text}:
		default:
			// Queue full: drop the line for streaming consumers; the
			// buffered copy in the final result is complete.
		}
	}
}

// Wait blocks until the command exits and returns its result.
func (e *Execution) Wait() *ExecResult {
	<-e.done
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result
}

// Interrupt sends SIGINT to the command's process group, matching Ctrl-C
// behavior in a terminal.
func (e *Execution) Interrupt() {
	if e.cmd.Process != nil {
		_ = syscall.Kill(-e.cmd.Process.Pid, syscall.SIGINT)
	}
}

// Kill terminates the command's process group immediately.
func (e *Execution) Kill() {
	if e.cmd.Process != nil {
		_ = syscall.Kill(-e.cmd.Process.Pid, syscall.SIGKILL)
	}
	e.cancel()
}

// Run executes command to completion, draining the line stream. A non-zero
// exit code produces a result, not an error.
func (r *Runner) Run(ctx context.Context, command string) (*ExecResult, error) {
	execution, err := r.Start(ctx, command)
	if err != nil {
		return nil, err
	}
	for range execution.Lines {
	}
	return execution.Wait(), nil
}

func exitCode(waitErr error) int {
	if waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
