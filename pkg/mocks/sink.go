package mocks

import (
	"image"
	"sync"

	"github.com/user/keyframes/pkg/ports"
)

// SavedFrame is one frame recorded by FrameSink.
type SavedFrame struct {
	Seq       int
	Timestamp float64
	Data      []byte
}

// FrameSink is a mock implementation of ports.FrameSink.
type FrameSink struct {
	mu sync.RWMutex

	enabled bool

	Frames       []SavedFrame
	ContactSheet image.Image

	SaveFrameFunc func(seq int, timestamp float64, data []byte) error
}

// NewFrameSink creates a new mock FrameSink.
func NewFrameSink(enabled bool) *FrameSink {
	return &FrameSink{enabled: enabled}
}

func (m *FrameSink) Enabled() bool {
	return m.enabled
}

func (m *FrameSink) SaveFrame(seq int, timestamp float64, data []byte) error {
	if m.SaveFrameFunc != nil {
		return m.SaveFrameFunc(seq, timestamp, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames = append(m.Frames, SavedFrame{Seq: seq, Timestamp: timestamp, Data: data})
	return nil
}

func (m *FrameSink) SaveContactSheet(img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ContactSheet = img
	return nil
}

// SavedFrames returns a copy of the recorded frames.
func (m *FrameSink) SavedFrames() []SavedFrame {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]SavedFrame(nil), m.Frames...)
}

var _ ports.FrameSink = (*FrameSink)(nil)

// NullSink is a no-op implementation of ports.FrameSink.
type NullSink struct{}

func (m *NullSink) Enabled() bool                                      { return false }
func (m *NullSink) SaveFrame(seq int, timestamp float64, data []byte) error { return nil }
func (m *NullSink) SaveContactSheet(img image.Image) error             { return nil }

var _ ports.FrameSink = (*NullSink)(nil)
