package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// stderrTailLimit bounds how much diagnostic output is kept for error messages.
const stderrTailLimit = 4096

// Command describes one external tool invocation.
type Command struct {
	Binary string
	Args   []string
	Dir    string
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Args, " ")
}

// Output captures what a finished command wrote.
type Output struct {
	Stdout []byte
	Stderr []byte
}

// Process is a started command whose standard input is still open. Callers
// must close Stdin before calling Wait.
type Process interface {
	Stdin() io.WriteCloser
	Wait() error
}

// Executor abstracts command execution for testability.
type Executor interface {
	// Run executes cmd to completion. Output is returned even when the command
	// exits non-zero because several tools report useful data on failure.
	Run(ctx context.Context, cmd Command) (Output, error)
	// Start launches cmd with a writable standard input.
	Start(ctx context.Context, cmd Command) (Process, error)
}

// CommandExecutor runs commands through os/exec.
type CommandExecutor struct{}

// Run implements Executor.
func (CommandExecutor) Run(ctx context.Context, c Command) (Output, error) {
	cmd := exec.CommandContext(ctx, c.Binary, c.Args...) //nolint:gosec
	cmd.Dir = c.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		return out, commandError(ctx, c, err, tail(stderr.Bytes()))
	}
	return out, nil
}

// Start implements Executor.
func (CommandExecutor) Start(ctx context.Context, c Command) (Process, error) {
	cmd := exec.CommandContext(ctx, c.Binary, c.Args...) //nolint:gosec
	cmd.Dir = c.Dir
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stderr := &tailBuffer{limit: stderrTailLimit}
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, Wrap(ErrExternalTool, c.Binary, "start", "", err)
	}
	return &process{ctx: ctx, spec: c, cmd: cmd, stdin: stdin, stderr: stderr}, nil
}

type process struct {
	ctx    context.Context
	spec   Command
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *tailBuffer
}

func (p *process) Stdin() io.WriteCloser { return p.stdin }

func (p *process) Wait() error {
	if err := p.cmd.Wait(); err != nil {
		return commandError(p.ctx, p.spec, err, p.stderr.String())
	}
	return nil
}

func commandError(ctx context.Context, c Command, err error, stderr string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Wrap(ErrTimeout, c.Binary, "run", "deadline exceeded", err)
	}
	msg := ""
	if stderr = strings.TrimSpace(stderr); stderr != "" {
		msg = lastLine(stderr)
	}
	return Wrap(ErrExternalTool, c.Binary, "run", msg, err)
}

func tail(b []byte) string {
	if len(b) > stderrTailLimit {
		b = b[len(b)-stderrTailLimit:]
	}
	return string(b)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[idx+1:])
	}
	return s
}

// tailBuffer keeps the most recent bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
