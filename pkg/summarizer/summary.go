// Package summarizer produces human-readable reports of extraction jobs.
package summarizer

import (
	"sort"
	"time"

	"github.com/user/keyframes/pkg/pipeline"
	"github.com/user/keyframes/pkg/ports"
)

// Summary contains everything reported about one job.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	Job      JobInfo
	Source   SourceInfo
	Frames   FrameStats
	Settings Settings
	Outputs  OutputInfo
}

// JobInfo identifies the job.
type JobInfo struct {
	ID       string
	Input    string
	Duration time.Duration
}

// SourceInfo is what container inspection reported. Zero values mean unknown.
type SourceInfo struct {
	Format    string
	Codec     string
	Width     int
	Height    int
	DurationS float64
}

// FrameStats contains the extraction counters.
type FrameStats struct {
	Identified int
	Rendered   int
	Failed     int
	TotalBytes int64
	Failures   []FailureInfo
}

// FailureInfo describes one failed render.
type FailureInfo struct {
	Timestamp float64
	Error     string
}

// Settings contains the render configuration.
type Settings struct {
	Workers        int
	Quality        int
	Width          int
	Height         int
	TimestampField string
	RenderTimeout  time.Duration
}

// OutputInfo lists files written by the run.
type OutputInfo struct {
	FramesDir    string
	ContactSheet string
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithJob sets the job identity and counters from a finished job's summary.
func (b *Builder) WithJob(input string, sum pipeline.Summary) *Builder {
	b.summary.Job = JobInfo{
		ID:       sum.JobID,
		Input:    input,
		Duration: sum.Duration,
	}
	b.summary.Frames.Identified = sum.Identified
	b.summary.Frames.Rendered = sum.TotalFrames
	b.summary.Frames.Failed = sum.FailedFrames
	return b
}

// WithSource sets container information.
func (b *Builder) WithSource(info ports.ContainerInfo) *Builder {
	b.summary.Source = SourceInfo{
		Format:    info.Format,
		Codec:     info.VideoCodec,
		Width:     info.Width,
		Height:    info.Height,
		DurationS: info.DurationS,
	}
	return b
}

// WithFrames adds the byte total of delivered frames.
func (b *Builder) WithFrames(frames []pipeline.FrameRecord) *Builder {
	var total int64
	for _, f := range frames {
		total += int64(len(f.Image))
	}
	b.summary.Frames.TotalBytes = total
	return b
}

// WithFailures records failed renders in chronological order.
func (b *Builder) WithFailures(failures []pipeline.RenderFailure) *Builder {
	infos := make([]FailureInfo, 0, len(failures))
	for _, f := range failures {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		infos = append(infos, FailureInfo{Timestamp: f.Timestamp, Error: msg})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Timestamp < infos[j].Timestamp })
	b.summary.Frames.Failures = infos
	return b
}

// WithSettings sets render settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithOutputs sets output locations.
func (b *Builder) WithOutputs(outputs OutputInfo) *Builder {
	b.summary.Outputs = outputs
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
