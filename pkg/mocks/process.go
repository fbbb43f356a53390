package mocks

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/user/keyframes/pkg/ports"
)

// ProcessScript describes how a fake process behaves.
type ProcessScript struct {
	// StartErr makes Start fail without launching anything.
	StartErr error
	// Stdout chunks are written in order, ChunkDelay apart.
	Stdout     []string
	ChunkDelay time.Duration
	// StdoutErr, when set, fails the next stdout read after the chunks.
	StdoutErr error
	Stderr     string
	// Delay is how long the process runs after writing stdout.
	Delay time.Duration
	// Hold, when set, keeps the process alive until it is closed.
	Hold <-chan struct{}
	// Effect runs just before a successful exit.
	Effect   func(spec ports.ProcessSpec)
	ExitCode int
}

// ProcessRunner is a mock implementation of ports.ProcessRunner.
// Script decides the behavior of each started process.
type ProcessRunner struct {
	Script func(spec ports.ProcessSpec) ProcessScript

	mu          sync.Mutex
	calls       []ports.ProcessSpec
	inFlight    int
	maxInFlight int
}

// Start launches a scripted fake process.
func (r *ProcessRunner) Start(ctx context.Context, spec ports.ProcessSpec) (ports.Process, error) {
	var script ProcessScript
	if r.Script != nil {
		script = r.Script(spec)
	}

	r.mu.Lock()
	r.calls = append(r.calls, spec)
	if script.StartErr != nil {
		r.mu.Unlock()
		return nil, script.StartErr
	}
	r.inFlight++
	if r.inFlight > r.maxInFlight {
		r.maxInFlight = r.inFlight
	}
	r.mu.Unlock()

	pr, pw := io.Pipe()
	p := &Process{
		stdout:   pr,
		stderr:   script.Stderr,
		done:     make(chan struct{}),
		exitCode: -1,
	}

	// Killing the process closes its stdout like a real pipe would
	go func() {
		select {
		case <-ctx.Done():
			pw.Close()
		case <-p.done:
		}
	}()

	go p.run(ctx, script, spec, pw, r)
	return p, nil
}

func (r *ProcessRunner) exited() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight--
}

// Calls returns every spec passed to Start.
func (r *ProcessRunner) Calls() []ports.ProcessSpec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.ProcessSpec(nil), r.calls...)
}

// CallsFor returns the specs started for binary.
func (r *ProcessRunner) CallsFor(binary string) []ports.ProcessSpec {
	var out []ports.ProcessSpec
	for _, c := range r.Calls() {
		if c.Binary == binary {
			out = append(out, c)
		}
	}
	return out
}

// MaxInFlight returns the highest number of processes alive at once.
func (r *ProcessRunner) MaxInFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxInFlight
}

// InFlight returns the number of processes currently alive.
func (r *ProcessRunner) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight
}

var _ ports.ProcessRunner = (*ProcessRunner)(nil)

// Process is a fake ports.Process driven by a ProcessScript.
type Process struct {
	stdout   *io.PipeReader
	stderr   string
	done     chan struct{}
	exitCode int
	err      error
}

func (p *Process) run(ctx context.Context, script ProcessScript, spec ports.ProcessSpec, pw *io.PipeWriter, r *ProcessRunner) {
	defer close(p.done)
	defer r.exited()
	defer pw.Close()

	sleep := func(d time.Duration) bool {
		if d <= 0 {
			return ctx.Err() == nil
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
			return true
		}
	}

	for i, chunk := range script.Stdout {
		if i > 0 && !sleep(script.ChunkDelay) {
			p.err = ctx.Err()
			return
		}
		if _, err := pw.Write([]byte(chunk)); err != nil {
			if ctx.Err() != nil {
				p.err = ctx.Err()
				return
			}
			break
		}
	}

	if script.StdoutErr != nil {
		pw.CloseWithError(script.StdoutErr)
	}

	if !sleep(script.Delay) {
		p.err = ctx.Err()
		return
	}

	if script.Hold != nil {
		select {
		case <-ctx.Done():
			p.err = ctx.Err()
			return
		case <-script.Hold:
		}
	}

	if script.Effect != nil {
		script.Effect(spec)
	}
	p.exitCode = script.ExitCode
}

func (p *Process) Stdout() io.Reader {
	return p.stdout
}

func (p *Process) Stderr() string {
	return p.stderr
}

func (p *Process) Wait() (int, error) {
	<-p.done
	return p.exitCode, p.err
}

var _ ports.Process = (*Process)(nil)

// WriteOutput returns a ProcessScript Effect that writes data to the
// last argument of the invocation, the way ffmpeg writes its output file.
func WriteOutput(fs ports.FileSystem, data []byte) func(spec ports.ProcessSpec) {
	return func(spec ports.ProcessSpec) {
		if len(spec.Args) == 0 {
			return
		}
		_ = fs.WriteFile(spec.Args[len(spec.Args)-1], data)
	}
}

// Prober is a mock implementation of ports.ContainerProber.
type Prober struct {
	ProbeFunc func(path string) (ports.ContainerInfo, error)
}

func (m *Prober) Probe(path string) (ports.ContainerInfo, error) {
	if m.ProbeFunc != nil {
		return m.ProbeFunc(path)
	}
	return ports.ContainerInfo{Format: "mp4", VideoCodec: "h264"}, nil
}

var _ ports.ContainerProber = (*Prober)(nil)
