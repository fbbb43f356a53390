// Package orchestrator wires the extraction stages into jobs.
//
// Extract validates and resolves the input, creates the job workspace and
// returns immediately. The metadata stream and the renders run in the
// background and report through the job's event stream.
package orchestrator

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/keyframes/pkg/events"
	"github.com/user/keyframes/pkg/pipeline"
	"github.com/user/keyframes/pkg/ports"
	"github.com/user/keyframes/pkg/stages/probe"
	"github.com/user/keyframes/pkg/stages/render"
	"github.com/user/keyframes/pkg/stages/resolve"
	"github.com/user/keyframes/pkg/tracker"
	"github.com/user/keyframes/pkg/workspace"
)

// Config contains all configuration for the extractor.
type Config struct {
	// WorkingDirectory holds persisted buffers and job workspaces.
	WorkingDirectory string

	// Binaries
	FFprobePath string
	FFmpegPath  string

	// Rendering
	Workers        int
	RenderTimeout  time.Duration
	Quality        int
	TimestampField string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		WorkingDirectory: "",
		FFprobePath:      "ffprobe",
		FFmpegPath:       "ffmpeg",
		Workers:          runtime.NumCPU(),
		RenderTimeout:    render.DefaultTimeout,
		Quality:          render.DefaultQuality,
		TimestampField:   probe.DefaultTimestampField,
	}
}

// Extractor starts keyframe extraction jobs. It holds no per-job state and
// may be shared by concurrent jobs.
type Extractor struct {
	cfg       Config
	fs        ports.FileSystem
	runner    ports.ProcessRunner
	prober    ports.ContainerProber
	logger    ports.Logger
	resolver  pipeline.Stage[pipeline.Input, pipeline.ResolveResult]
	workspace *workspace.Manager
}

// New creates an Extractor. prober may be nil.
func New(cfg Config, fs ports.FileSystem, runner ports.ProcessRunner, prober ports.ContainerProber, logger ports.Logger) *Extractor {
	def := DefaultConfig()
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = def.FFprobePath
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = def.FFmpegPath
	}
	if cfg.TimestampField == "" {
		cfg.TimestampField = def.TimestampField
	}
	return &Extractor{
		cfg:       cfg,
		fs:        fs,
		runner:    runner,
		prober:    prober,
		logger:    logger,
		resolver:  resolve.NewStage(cfg.WorkingDirectory, fs, logger),
		workspace: workspace.New(cfg.WorkingDirectory, fs, logger),
	}
}

// Config returns the effective configuration.
func (e *Extractor) Config() Config {
	return e.cfg
}

// Extract starts a job. It fails synchronously, before any subprocess is
// started, with a *pipeline.InputError for bad input or dimensions and a
// *pipeline.DirectoryError when the workspace cannot be created.
func (e *Extractor) Extract(ctx context.Context, input pipeline.Input, dims pipeline.Dimensions) (*Job, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	dims = dims.Normalize()

	resolved, err := e.resolver.Execute(ctx, input)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ws, err := e.workspace.Create(id)
	if err != nil {
		if resolved.Persisted {
			_ = e.fs.Remove(resolved.Path)
		}
		e.logger.Error("Job %s failed: %s", id, err.Error())
		return nil, err
	}

	e.logger.Info("Extracting keyframes from %s", resolved.Path)
	e.inspect(resolved.Path)

	j := &Job{
		id:        id,
		inputPath: resolved.Path,
		persisted: resolved.Persisted,
		workspace: ws,
		dims:      dims,
		tracker:   tracker.New(),
		bus:       events.NewBus(),
		done:      make(chan struct{}),
		started:   time.Now(),
		ext:       e,
		logger:    e.logger.WithComponent("job"),
	}

	// The primary stream must exist before start is published
	j.primary = j.bus.Attach()
	j.bus.Publish(events.Start(id))
	e.logger.Info("Job %s started", id)

	go j.run(ctx)
	return j, nil
}

// inspect logs what the container prober learns about the input.
func (e *Extractor) inspect(path string) {
	if e.prober == nil {
		return
	}
	info, err := e.prober.Probe(path)
	if err != nil {
		e.logger.Debug("Container inspection skipped: %s", err.Error())
		return
	}
	e.logger.Info("Container: %s, codec %s, %.1f s", info.Format, info.VideoCodec, info.DurationS)
}

// Job is one running extraction.
type Job struct {
	id        string
	inputPath string
	persisted bool
	workspace string
	dims      pipeline.Dimensions
	started   time.Time

	tracker *tracker.Tracker
	bus     *events.Bus
	primary *events.Subscription

	ext    *Extractor
	logger ports.Logger

	done     chan struct{}
	doneOnce sync.Once
	summary  pipeline.Summary
	err      error
}

// ID returns the job identifier.
func (j *Job) ID() string { return j.id }

// InputPath returns the resolved input path.
func (j *Job) InputPath() string { return j.inputPath }

// Workspace returns the job workspace directory.
func (j *Job) Workspace() string { return j.workspace }

// Dimensions returns the normalized render dimensions.
func (j *Job) Dimensions() pipeline.Dimensions { return j.dims }

// Events returns the primary event stream. It sees every event from start
// to the terminal event and is closed afterwards. Events are queued until
// the first call, and a job whose stream is never read holds no goroutine
// for it.
func (j *Job) Events() <-chan events.Event { return j.primary.C() }

// Subscribe returns an additional stream that sees events published from now on.
func (j *Job) Subscribe() <-chan events.Event { return j.bus.Subscribe() }

// Snapshot returns the current state and counters.
func (j *Job) Snapshot() tracker.Counts { return j.tracker.Snapshot() }

// Done is closed once the job has ended and its workspace is gone.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job ends or ctx is done. It returns the summary of a
// completed job or the error that failed it.
func (j *Job) Wait(ctx context.Context) (pipeline.Summary, error) {
	select {
	case <-j.done:
		return j.summary, j.err
	case <-ctx.Done():
		return pipeline.Summary{}, ctx.Err()
	}
}

func (j *Job) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	cfg := j.ext.cfg
	sched := render.NewScheduler(
		render.Options{
			Binary:     cfg.FFmpegPath,
			Workers:    cfg.Workers,
			Timeout:    cfg.RenderTimeout,
			Quality:    cfg.Quality,
			Dimensions: j.dims,
		},
		render.Job{ID: j.id, InputPath: j.inputPath, Workspace: j.workspace},
		j.ext.runner,
		j.ext.fs,
		render.Callbacks{OnRendered: j.onRendered, OnFailed: j.onFailed},
		j.ext.logger,
	)
	sched.Start(ctx)

	stream := probe.NewStage(j.ext.runner, cfg.FFprobePath, cfg.TimestampField, j.ext.logger)
	_, err := stream.Run(ctx, j.inputPath, func(ts float64) {
		if j.tracker.Identify() {
			sched.Submit(ts)
		}
	})
	sched.Close()

	if err != nil {
		j.tracker.Abort()
		cancel()
	} else {
		j.tracker.CloseStream()
	}

	// Teardown waits for every worker
	sched.Wait()

	counts := j.tracker.Snapshot()
	if counts.State == pipeline.StateCompleted {
		j.finish(counts)
		return
	}

	if err == nil {
		err = ctx.Err()
		if err == nil {
			err = errors.New("job ended with unresolved renders")
		}
		j.tracker.Abort()
	}
	j.fail(err)
}

func (j *Job) onRendered(rec pipeline.FrameRecord) {
	j.bus.Publish(events.Keyframe(rec))
	if _, err := j.tracker.Rendered(); err != nil {
		j.logger.Warn("Untracked render at %.3f s: %s", rec.Timestamp, err.Error())
	}
}

func (j *Job) onFailed(f pipeline.RenderFailure) {
	j.logger.Warn("Render at %.3f s failed: %s", f.Timestamp, f.Err.Error())
	j.bus.Publish(events.RenderFailed(f))
	if _, err := j.tracker.RenderFailed(); err != nil {
		j.logger.Warn("Untracked render at %.3f s: %s", f.Timestamp, err.Error())
	}
}

// teardown removes the workspace and any persisted input. Failures are
// logged by the workspace manager and never escalated.
func (j *Job) teardown() {
	_ = j.ext.workspace.Destroy(j.workspace)
	if j.persisted {
		if err := j.ext.fs.Remove(j.inputPath); err != nil {
			j.logger.Warn("Failed to remove input file %s: %s", j.inputPath, err.Error())
		}
	}
}

func (j *Job) finish(c tracker.Counts) {
	j.teardown()
	sum := pipeline.Summary{
		JobID:        j.id,
		TotalFrames:  c.Rendered,
		FailedFrames: c.Failed,
		Identified:   c.Identified,
		Duration:     time.Since(j.started),
	}
	j.ext.logger.Info("Job %s finished: %d frames, %d failed", j.id, sum.TotalFrames, sum.FailedFrames)
	j.end(sum, nil)
	j.bus.Publish(events.Finish(sum))
}

func (j *Job) fail(err error) {
	j.teardown()
	j.ext.logger.Error("Job %s failed: %s", j.id, err.Error())
	j.end(pipeline.Summary{}, err)
	j.bus.Publish(events.Failed(j.id, err))
}

func (j *Job) end(sum pipeline.Summary, err error) {
	j.doneOnce.Do(func() {
		j.summary = sum
		j.err = err
		close(j.done)
	})
}
