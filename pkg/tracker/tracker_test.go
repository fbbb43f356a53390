package tracker

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/keyframes/pkg/pipeline"
)

func TestTracker_CompletesAfterStreamClose(t *testing.T) {
	tr := New()

	require.True(t, tr.Identify())
	require.True(t, tr.Identify())

	done, err := tr.Rendered()
	require.NoError(t, err)
	assert.False(t, done, "stream still open")

	assert.False(t, tr.CloseStream(), "one render still pending")
	assert.Equal(t, pipeline.StateStreamClosed, tr.Snapshot().State)

	done, err = tr.Rendered()
	require.NoError(t, err)
	assert.True(t, done)

	c := tr.Snapshot()
	assert.Equal(t, pipeline.StateCompleted, c.State)
	assert.Equal(t, 2, c.Identified)
	assert.Equal(t, 2, c.Rendered)
	assert.Zero(t, c.Pending())
}

func TestTracker_CloseStreamWithNothingPending(t *testing.T) {
	tr := New()
	assert.True(t, tr.CloseStream(), "empty stream completes immediately")
	assert.False(t, tr.CloseStream(), "second close is a no-op")
}

func TestTracker_FailureCountsTowardCompletion(t *testing.T) {
	tr := New()
	tr.Identify()
	tr.Identify()

	_, err := tr.Rendered()
	require.NoError(t, err)
	tr.CloseStream()

	done, err := tr.RenderFailed()
	require.NoError(t, err)
	assert.True(t, done)

	c := tr.Snapshot()
	assert.Equal(t, 1, c.Rendered)
	assert.Equal(t, 1, c.Failed)
}

func TestTracker_Unbalanced(t *testing.T) {
	tr := New()

	_, err := tr.Rendered()
	assert.ErrorIs(t, err, ErrUnbalanced)

	tr.Identify()
	_, err = tr.RenderFailed()
	require.NoError(t, err)
	_, err = tr.RenderFailed()
	assert.ErrorIs(t, err, ErrUnbalanced)
}

func TestTracker_IdentifyAfterClose(t *testing.T) {
	tr := New()
	tr.Identify()
	tr.CloseStream()

	assert.False(t, tr.Identify())
	assert.Equal(t, 1, tr.Snapshot().Identified)
}

func TestTracker_Abort(t *testing.T) {
	tr := New()
	tr.Identify()

	assert.True(t, tr.Abort())
	assert.False(t, tr.Abort())
	assert.False(t, tr.Identify())
	assert.False(t, tr.CloseStream())

	done, err := tr.Rendered()
	require.NoError(t, err)
	assert.False(t, done, "renders after abort are ignored")
	assert.Equal(t, pipeline.StateFailed, tr.Snapshot().State)
	assert.Equal(t, 0, tr.Snapshot().Rendered)
}

func TestTracker_AbortAfterComplete(t *testing.T) {
	tr := New()
	tr.CloseStream()
	assert.False(t, tr.Abort())
	assert.Equal(t, pipeline.StateCompleted, tr.Snapshot().State)
}

// Many renders race against the stream close; exactly one caller may
// observe the terminal transition and rendered never exceeds identified.
func TestTracker_ConcurrentCompletionFiresOnce(t *testing.T) {
	const frames = 200

	for round := 0; round < 20; round++ {
		tr := New()
		var completions atomic.Int32
		var wg sync.WaitGroup
		var violations atomic.Int32

		observe := func() {
			c := tr.Snapshot()
			if c.Rendered+c.Failed > c.Identified {
				violations.Add(1)
			}
		}

		work := make(chan bool, frames)
		identified := make(chan struct{})
		go func() {
			defer close(identified)
			for i := 0; i < frames; i++ {
				tr.Identify()
				work <- i%7 == 0
				observe()
			}
			close(work)
		}()

		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for fail := range work {
					var done bool
					var err error
					if fail {
						done, err = tr.RenderFailed()
					} else {
						done, err = tr.Rendered()
					}
					if err != nil {
						violations.Add(1)
					}
					if done {
						completions.Add(1)
					}
					observe()
				}
			}()
		}

		// Close once every identification is in, racing with workers
		<-identified
		if tr.CloseStream() {
			completions.Add(1)
		}
		wg.Wait()

		require.Equal(t, int32(1), completions.Load(), "round %d", round)
		require.Zero(t, violations.Load())
		c := tr.Snapshot()
		assert.Equal(t, pipeline.StateCompleted, c.State)
		assert.Equal(t, frames, c.Rendered+c.Failed)
	}
}
