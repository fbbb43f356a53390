package ports

import (
	"image"
)

// FrameSink persists extracted keyframes as they arrive.
type FrameSink interface {
	// Enabled returns true if the sink writes anything.
	Enabled() bool

	// SaveFrame saves one rendered keyframe.
	// seq is the 1-based delivery sequence number.
	SaveFrame(seq int, timestamp float64, data []byte) error

	// SaveContactSheet saves the composed contact sheet image.
	SaveContactSheet(img image.Image) error
}
