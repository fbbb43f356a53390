package pipeline

import (
	"fmt"
	"image/color"
	"time"
)

// =============================================================================
// Input Types
// =============================================================================

// InputKind discriminates the shape of an Input.
type InputKind int

const (
	// KindUnknown is the zero value and is never a valid input.
	KindUnknown InputKind = iota
	// KindPath is an existing file on disk.
	KindPath
	// KindBytes is an in-memory video that must be persisted before probing.
	KindBytes
)

// String returns the string representation of the kind.
func (k InputKind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Input is the caller's video: either a path or a raw byte buffer.
type Input struct {
	Kind  InputKind
	Path  string
	Bytes []byte
}

// PathInput returns an Input that reads an existing file.
func PathInput(path string) Input {
	return Input{Kind: KindPath, Path: path}
}

// BytesInput returns an Input backed by an in-memory buffer.
func BytesInput(data []byte) Input {
	return Input{Kind: KindBytes, Bytes: data}
}

// Describe returns a short description of the input shape for error messages.
func (in Input) Describe() string {
	switch in.Kind {
	case KindPath:
		return fmt.Sprintf("path %q", in.Path)
	case KindBytes:
		return fmt.Sprintf("buffer of %d bytes", len(in.Bytes))
	default:
		return fmt.Sprintf("input of kind %s", in.Kind)
	}
}

// ResolveResult is the output of the input resolution stage.
type ResolveResult struct {
	Path      string // Path consumed by every later stage
	Persisted bool   // True if Path was written from a buffer and is owned by the job
}

// =============================================================================
// Dimensions
// =============================================================================

// SourceSize is the dimension sentinel meaning "keep the source value".
const SourceSize = -1

// Dimensions are the optional render target size.
// Each axis is either a positive pixel count or SourceSize.
type Dimensions struct {
	Width  int
	Height int
}

// DefaultDimensions keeps the source size on both axes.
func DefaultDimensions() Dimensions {
	return Dimensions{Width: SourceSize, Height: SourceSize}
}

// Normalize maps an unset (zero) axis to SourceSize.
func (d Dimensions) Normalize() Dimensions {
	if d.Width == 0 {
		d.Width = SourceSize
	}
	if d.Height == 0 {
		d.Height = SourceSize
	}
	return d
}

// Validate rejects values below SourceSize.
func (d Dimensions) Validate() error {
	if d.Width < SourceSize {
		return NewInputError(fmt.Sprintf("width %d is less than -1, values must be >= -1", d.Width), nil)
	}
	if d.Height < SourceSize {
		return NewInputError(fmt.Sprintf("height %d is less than -1, values must be >= -1", d.Height), nil)
	}
	return nil
}

// IsSource reports whether both axes keep the source size.
func (d Dimensions) IsSource() bool {
	return d.Width == SourceSize && d.Height == SourceSize
}

// ScaleFilter returns the ffmpeg scale filter expression, or "" when no scaling applies.
// Unset axes keep the source size.
func (d Dimensions) ScaleFilter() string {
	d = d.Normalize()
	if d.IsSource() {
		return ""
	}
	return fmt.Sprintf("scale=%d:%d", d.Width, d.Height)
}

// =============================================================================
// Job State
// =============================================================================

// State is the lifecycle state of a job.
type State int

const (
	// StateRunning means the metadata stream is still open.
	StateRunning State = iota
	// StateStreamClosed means every timestamp has been identified.
	StateStreamClosed
	// StateCompleted means every identified timestamp has resolved. Terminal.
	StateCompleted
	// StateFailed means the job was aborted. Terminal.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStreamClosed:
		return "stream-closed"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// =============================================================================
// Frame Types
// =============================================================================

// FrameRecord is one rendered keyframe delivered to the caller.
type FrameRecord struct {
	JobID     string
	Timestamp float64 // Seconds from the start of the video
	Image     []byte  // JPEG image data
	Path      string  // Workspace file the image was read from; removed at teardown
}

// RenderFailure is a timestamp whose render resolved without an image.
type RenderFailure struct {
	JobID     string
	Timestamp float64
	Err       error
}

// Summary is the payload of the finish event.
type Summary struct {
	JobID        string
	TotalFrames  int // Frames rendered and delivered
	FailedFrames int // Renders that resolved as failures
	Identified   int // Intra frames reported by the metadata stream
	Duration     time.Duration
}

// =============================================================================
// Contact Sheet Types
// =============================================================================

// ContactSheetInput contains parameters for composing a contact sheet.
type ContactSheetInput struct {
	Frames      []FrameRecord
	Columns     int // Thumbnails per row (default: 4)
	ThumbWidth  int // Thumbnail width in pixels (default: 240)
	Gap         int // Gap between thumbnails (default: 8)
	Padding     int // Padding around the sheet (default: 16)
	LabelHeight int // Height reserved under each thumbnail for its timestamp (default: 20)
	Theme       ContactSheetTheme
}

// ContactSheetTheme defines contact sheet styling.
type ContactSheetTheme struct {
	BackgroundColor color.Color
	BorderColor     color.Color
	TextColor       color.Color
	FontPath        string
	FontSize        float64
}

// DefaultContactSheetTheme returns the default contact sheet theme.
func DefaultContactSheetTheme() ContactSheetTheme {
	return ContactSheetTheme{
		BackgroundColor: color.RGBA{R: 26, G: 26, B: 46, A: 255},
		BorderColor:     color.RGBA{R: 51, G: 51, B: 85, A: 255},
		TextColor:       color.White,
		FontSize:        12,
	}
}

// DefaultContactSheetInput returns ContactSheetInput with default values.
func DefaultContactSheetInput() ContactSheetInput {
	return ContactSheetInput{
		Columns:     4,
		ThumbWidth:  240,
		Gap:         8,
		Padding:     16,
		LabelHeight: 20,
		Theme:       DefaultContactSheetTheme(),
	}
}

// ContactSheetResult contains the composed sheet and its encoded form.
type ContactSheetResult struct {
	Width  int
	Height int
	Rows   int
	JPEG   []byte
}
