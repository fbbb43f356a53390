// Package events implements the per-job notification stream.
//
// A Bus has one producer and any number of subscribers. Every subscriber
// owns an unbounded mailbox, so publishing never blocks on a slow reader
// and no reader misses an event published after it subscribed. The stream
// ends with exactly one terminal event (finish or failed); anything
// published afterwards is dropped and every subscriber channel is closed
// once it has delivered the terminal event.
package events

import (
	"sync"

	"github.com/user/keyframes/pkg/pipeline"
)

// Type identifies the kind of event.
type Type int

const (
	TypeStart Type = iota
	TypeKeyframe
	TypeRenderFailed
	TypeFinish
	TypeFailed
)

func (t Type) String() string {
	switch t {
	case TypeStart:
		return "start"
	case TypeKeyframe:
		return "keyframe"
	case TypeRenderFailed:
		return "renderFailed"
	case TypeFinish:
		return "finish"
	case TypeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is one notification. Exactly one payload field is set, matching Type.
type Event struct {
	Type    Type
	JobID   string
	Frame   *pipeline.FrameRecord
	Failure *pipeline.RenderFailure
	Summary *pipeline.Summary
	Err     error
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == TypeFinish || e.Type == TypeFailed
}

// Start creates a start event.
func Start(jobID string) Event {
	return Event{Type: TypeStart, JobID: jobID}
}

// Keyframe creates a keyframe event.
func Keyframe(rec pipeline.FrameRecord) Event {
	return Event{Type: TypeKeyframe, JobID: rec.JobID, Frame: &rec}
}

// RenderFailed creates a renderFailed event.
func RenderFailed(f pipeline.RenderFailure) Event {
	return Event{Type: TypeRenderFailed, JobID: f.JobID, Failure: &f}
}

// Finish creates a finish event.
func Finish(sum pipeline.Summary) Event {
	return Event{Type: TypeFinish, JobID: sum.JobID, Summary: &sum}
}

// Failed creates a failed event.
func Failed(jobID string, err error) Event {
	return Event{Type: TypeFailed, JobID: jobID, Err: err}
}

// Bus fans events out to subscribers.
type Bus struct {
	mu     sync.Mutex
	subs   []*mailbox
	closed bool
}

// NewBus creates an open bus with no subscribers.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe returns a channel that receives every event published from
// now on. On a closed bus the channel is already closed.
func (b *Bus) Subscribe() <-chan Event {
	return b.Attach().C()
}

// Attach registers a subscription that queues every event published from
// now on. Its delivery goroutine starts on the first call to C, so a
// subscription that is never read holds no goroutine.
func (b *Bus) Attach() *Subscription {
	m := newMailbox()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		m.close()
	} else {
		b.subs = append(b.subs, m)
	}
	return &Subscription{bus: b, m: m}
}

func (b *Bus) detach(m *mailbox) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub == m {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Subscription is one subscriber's mailbox.
type Subscription struct {
	bus   *Bus
	m     *mailbox
	start sync.Once
}

// C returns the event channel, starting delivery on first use.
func (s *Subscription) C() <-chan Event {
	s.start.Do(func() { go s.m.run() })
	return s.m.out
}

// Cancel stops delivery and drops undelivered events. The channel is
// closed once a running delivery goroutine has exited. Safe to call more
// than once.
func (s *Subscription) Cancel() {
	s.bus.detach(s.m)
	s.m.cancel()
}

// Publish delivers ev to every subscriber. It returns false if the bus was
// already closed by a terminal event. Publishing a terminal event closes
// the bus.
func (b *Bus) Publish(ev Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	for _, m := range b.subs {
		m.push(ev)
	}
	if ev.Terminal() {
		b.closeLocked()
	}
	return true
}

// Close ends the stream without a terminal event. It is safe to call more than once.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closeLocked()
	}
}

// Closed reports whether the bus accepts no more events.
func (b *Bus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Bus) closeLocked() {
	b.closed = true
	for _, m := range b.subs {
		m.close()
	}
	b.subs = nil
}

// mailbox is an unbounded FIFO drained into out by its own goroutine.
type mailbox struct {
	mu       sync.Mutex
	queue    []Event
	closed   bool
	wake     chan struct{}
	out      chan Event
	stop     chan struct{}
	stopOnce sync.Once
}

func newMailbox() *mailbox {
	return &mailbox{
		wake: make(chan struct{}, 1),
		out:  make(chan Event),
		stop: make(chan struct{}),
	}
}

func (m *mailbox) push(ev Event) {
	m.mu.Lock()
	m.queue = append(m.queue, ev)
	m.mu.Unlock()
	m.signal()
}

func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.signal()
}

func (m *mailbox) cancel() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.queue = nil
		m.closed = true
		m.mu.Unlock()
		close(m.stop)
	})
}

func (m *mailbox) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *mailbox) run() {
	defer close(m.out)
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			closed := m.closed
			m.mu.Unlock()
			if closed {
				return
			}
			select {
			case <-m.wake:
			case <-m.stop:
				return
			}
			continue
		}
		ev := m.queue[0]
		m.queue[0] = Event{}
		m.queue = m.queue[1:]
		m.mu.Unlock()

		select {
		case m.out <- ev:
		case <-m.stop:
			return
		}
	}
}
