// Package tracker reconciles discovered keyframes against finished renders
// and decides, exactly once, when a job is complete.
package tracker

import (
	"errors"
	"sync"

	"github.com/user/keyframes/pkg/pipeline"
)

// ErrUnbalanced is returned when more renders resolve than were identified.
var ErrUnbalanced = errors.New("tracker: more renders resolved than identified")

// Counts is a consistent view of a job's progress.
type Counts struct {
	State      pipeline.State
	Identified int
	Rendered   int
	Failed     int
}

// Pending returns the number of identified frames that have not resolved yet.
func (c Counts) Pending() int {
	return c.Identified - c.Rendered - c.Failed
}

// Tracker holds the per-job counters and lifecycle state.
// A single mutex guards the state and all counters so that the completion
// predicate is always evaluated against one consistent view.
type Tracker struct {
	mu         sync.Mutex
	state      pipeline.State
	identified int
	rendered   int
	failed     int
}

// New creates a tracker in the Running state.
func New() *Tracker {
	return &Tracker{state: pipeline.StateRunning}
}

// Identify records a newly discovered keyframe.
// It returns false when the stream has already closed or the job ended.
func (t *Tracker) Identify() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != pipeline.StateRunning {
		return false
	}
	t.identified++
	return true
}

// Rendered records a successful render. It returns true if this call
// completed the job.
func (t *Tracker) Rendered() (bool, error) {
	return t.resolve(&t.rendered)
}

// RenderFailed records a render that resolved as a failure. It returns true
// if this call completed the job.
func (t *Tracker) RenderFailed() (bool, error) {
	return t.resolve(&t.failed)
}

func (t *Tracker) resolve(counter *int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Terminal() {
		return false, nil
	}
	if t.rendered+t.failed >= t.identified {
		return false, ErrUnbalanced
	}
	*counter++
	return t.completeLocked(), nil
}

// CloseStream marks the metadata stream as closed. It returns true if this
// call completed the job, which happens when nothing is pending.
func (t *Tracker) CloseStream() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != pipeline.StateRunning {
		return false
	}
	t.state = pipeline.StateStreamClosed
	return t.completeLocked()
}

// Abort moves the job to Failed. It returns true if this call made the
// transition, false if the job had already ended.
func (t *Tracker) Abort() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Terminal() {
		return false
	}
	t.state = pipeline.StateFailed
	return true
}

// Snapshot returns a copy of the current state and counters.
func (t *Tracker) Snapshot() Counts {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Counts{
		State:      t.state,
		Identified: t.identified,
		Rendered:   t.rendered,
		Failed:     t.failed,
	}
}

// completeLocked must be called with mu held.
func (t *Tracker) completeLocked() bool {
	if t.state != pipeline.StateStreamClosed {
		return false
	}
	if t.identified != t.rendered+t.failed {
		return false
	}
	t.state = pipeline.StateCompleted
	return true
}
