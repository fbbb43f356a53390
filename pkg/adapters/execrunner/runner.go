// Package execrunner runs external processes with os/exec.
package execrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/user/keyframes/pkg/ports"
)

// maxStderrBytes bounds how much stderr is retained per process.
const maxStderrBytes = 16 * 1024

const waitDelay = 2 * time.Second

// Runner implements ports.ProcessRunner using exec.CommandContext.
type Runner struct{}

// New creates a new Runner.
func New() *Runner {
	return &Runner{}
}

// Start launches the process described by spec.
func (r *Runner) Start(ctx context.Context, spec ports.ProcessSpec) (ports.Process, error) {
	if spec.Binary == "" {
		return nil, ErrEmptyBinary
	}

	cmd := exec.CommandContext(ctx, spec.Binary, spec.Args...)
	// Children that inherit the pipes must not keep Wait blocked after a kill.
	cmd.WaitDelay = waitDelay
	p := &process{cmd: cmd, stderr: &tailBuffer{limit: maxStderrBytes}}
	cmd.Stderr = p.stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	p.stdout = stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", spec.Binary, err)
	}
	return p, nil
}

// process implements ports.Process for an exec.Cmd.
type process struct {
	cmd    *exec.Cmd
	stdout io.Reader
	stderr *tailBuffer
}

func (p *process) Stdout() io.Reader { return p.stdout }

func (p *process) Stderr() string { return p.stderr.String() }

// Wait waits for the process to exit. A normal non-zero exit is reported through
// exitCode with a nil error.
func (p *process) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code >= 0 {
			return code, nil
		}
		// Killed by a signal, usually because the context was cancelled.
		return -1, err
	}
	return -1, err
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	b.buf.Write(p)
	if over := b.buf.Len() - b.limit; over > 0 {
		b.buf.Next(over)
	}
	return n, nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Ensure Runner implements ports.ProcessRunner
var _ ports.ProcessRunner = (*Runner)(nil)
