// Package render implements the frame render stage: a bounded pool of
// ffmpeg processes, each rendering one still image at one timestamp.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/keyframes/pkg/pipeline"
	"github.com/user/keyframes/pkg/ports"
)

const (
	// DefaultQuality is the ffmpeg -q:v value for JPEG output (2 is near lossless).
	DefaultQuality = 2
	// DefaultTimeout bounds a single render process.
	DefaultTimeout = 60 * time.Second
)

// Options configures a Scheduler.
type Options struct {
	Binary     string
	Workers    int
	Timeout    time.Duration
	Quality    int
	Dimensions pipeline.Dimensions
}

// Job identifies what a Scheduler renders from and where it writes.
type Job struct {
	ID        string
	InputPath string
	Workspace string
}

// Callbacks receive the outcome of every submitted timestamp.
// They run on worker goroutines.
type Callbacks struct {
	OnRendered func(rec pipeline.FrameRecord)
	OnFailed   func(f pipeline.RenderFailure)
}

// Scheduler renders submitted timestamps with at most Workers processes
// alive at any time. Timestamps beyond the cap wait in an unbounded queue,
// so Submit never blocks the metadata stream.
type Scheduler struct {
	opts      Options
	job       Job
	callbacks Callbacks
	runner    ports.ProcessRunner
	fs        ports.FileSystem
	logger    ports.Logger

	mu      sync.Mutex
	pending []float64
	closed  bool
	wake    chan struct{}

	jobs chan float64
	wg   sync.WaitGroup
}

// NewScheduler creates a scheduler for one job. Call Start before Submit.
func NewScheduler(opts Options, job Job, runner ports.ProcessRunner, fs ports.FileSystem, callbacks Callbacks, logger ports.Logger) *Scheduler {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Quality <= 0 {
		opts.Quality = DefaultQuality
	}
	opts.Dimensions = opts.Dimensions.Normalize()
	if callbacks.OnRendered == nil {
		callbacks.OnRendered = func(pipeline.FrameRecord) {}
	}
	if callbacks.OnFailed == nil {
		callbacks.OnFailed = func(pipeline.RenderFailure) {}
	}
	return &Scheduler{
		opts:      opts,
		job:       job,
		callbacks: callbacks,
		runner:    runner,
		fs:        fs,
		logger:    logger.WithComponent("render"),
		wake:      make(chan struct{}, 1),
		jobs:      make(chan float64),
	}
}

// Workers returns the worker cap.
func (s *Scheduler) Workers() int {
	return s.opts.Workers
}

// Start launches the dispatcher and workers. Cancelling ctx kills running
// renders and drops queued timestamps without resolving them.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Debug("Render scheduler started with %d workers", s.opts.Workers)

	for w := 0; w < s.opts.Workers; w++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
	go s.dispatch(ctx)
}

// Submit queues a timestamp. It returns false after Close.
func (s *Scheduler) Submit(ts float64) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.pending = append(s.pending, ts)
	s.mu.Unlock()
	s.signal()
	return true
}

// Close stops accepting timestamps. Queued ones are still rendered.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()
}

// Wait blocks until every worker has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// dispatch moves queued timestamps to idle workers in submission order.
func (s *Scheduler) dispatch(ctx context.Context) {
	defer close(s.jobs)
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			select {
			case <-s.wake:
				continue
			case <-ctx.Done():
				return
			}
		}
		ts := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		select {
		case s.jobs <- ts:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) worker(ctx context.Context) {
	defer s.wg.Done()
	for ts := range s.jobs {
		if ctx.Err() != nil {
			return
		}
		s.renderOne(ctx, ts)
	}
}

// Args returns the ffmpeg arguments that render ts into output.
func (s *Scheduler) Args(ts float64, output string) []string {
	args := []string{
		"-ss", strconv.FormatFloat(ts, 'f', -1, 64),
		"-i", s.job.InputPath,
	}
	if filter := s.opts.Dimensions.ScaleFilter(); filter != "" {
		args = append(args, "-vf", filter)
	}
	return append(args,
		"-vframes", "1",
		"-q:v", strconv.Itoa(s.opts.Quality),
		output,
	)
}

func (s *Scheduler) renderOne(ctx context.Context, ts float64) {
	output := filepath.Join(s.job.Workspace, uuid.NewString()+".jpg")
	s.logger.Debug("Rendering %.3f s to %s", ts, output)

	data, err := s.run(ctx, ts, output)
	if ctx.Err() != nil {
		// The job was aborted; nobody is waiting for this frame.
		return
	}
	if err != nil {
		s.logger.Debug("Render at %.3f s failed: %s", ts, err.Error())
		s.callbacks.OnFailed(pipeline.RenderFailure{JobID: s.job.ID, Timestamp: ts, Err: err})
		return
	}

	s.logger.Debug("Rendered %.3f s (%d bytes)", ts, len(data))
	s.callbacks.OnRendered(pipeline.FrameRecord{
		JobID:     s.job.ID,
		Timestamp: ts,
		Image:     data,
		Path:      output,
	})
}

// run executes one render process and returns the produced image bytes.
func (s *Scheduler) run(ctx context.Context, ts float64, output string) ([]byte, error) {
	rctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	proc, err := s.runner.Start(rctx, ports.ProcessSpec{Binary: s.opts.Binary, Args: s.Args(ts, output)})
	if err != nil {
		return nil, &pipeline.ProcessError{Binary: s.opts.Binary, ExitCode: -1, Err: err}
	}

	_, _ = io.Copy(io.Discard, proc.Stdout())
	code, waitErr := proc.Wait()

	if errors.Is(rctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, &pipeline.ProcessError{
			Binary:   s.opts.Binary,
			ExitCode: code,
			Stderr:   proc.Stderr(),
			Err:      fmt.Errorf("render timed out after %s: %w", s.opts.Timeout, context.DeadlineExceeded),
		}
	}
	if waitErr != nil {
		return nil, &pipeline.ProcessError{Binary: s.opts.Binary, ExitCode: code, Stderr: proc.Stderr(), Err: waitErr}
	}
	if code != 0 {
		return nil, &pipeline.ProcessError{Binary: s.opts.Binary, ExitCode: code, Stderr: proc.Stderr()}
	}

	data, err := s.fs.ReadFile(output)
	if err != nil {
		return nil, &pipeline.ProcessError{Binary: s.opts.Binary, Err: fmt.Errorf("read rendered frame: %w", err)}
	}
	if len(data) == 0 {
		return nil, &pipeline.ProcessError{Binary: s.opts.Binary, Err: errors.New("rendered frame is empty")}
	}
	return data, nil
}
