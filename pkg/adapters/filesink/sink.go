// Package filesink provides a file-based frame sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/keyframes/pkg/ports"
)

const contactSheetQuality = 90

// Sink saves keyframes and the contact sheet to files.
type Sink struct {
	framesDir    string
	contactSheet string
	fs           ports.FileSystem
	renderer     ports.Renderer
}

// New creates a new file sink. Frames go to framesDir and the contact sheet
// to contactSheet; an empty value disables that output.
func New(framesDir, contactSheet string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		framesDir:    framesDir,
		contactSheet: contactSheet,
		fs:           fs,
		renderer:     renderer,
	}
}

// Enabled returns true if any output is configured.
func (s *Sink) Enabled() bool {
	return s.framesDir != "" || s.contactSheet != ""
}

// FramePath returns the file a keyframe is written to.
func (s *Sink) FramePath(seq int, timestamp float64) string {
	return filepath.Join(s.framesDir, fmt.Sprintf("keyframe_%04d_%.3f.jpg", seq, timestamp))
}

// SaveFrame writes one keyframe JPEG as delivered by ffmpeg.
func (s *Sink) SaveFrame(seq int, timestamp float64, data []byte) error {
	if s.framesDir == "" {
		return nil
	}
	if err := s.fs.MkdirAll(s.framesDir); err != nil {
		return err
	}
	return s.fs.WriteFile(s.FramePath(seq, timestamp), data)
}

// SaveContactSheet encodes the sheet as JPEG and writes it.
func (s *Sink) SaveContactSheet(img image.Image) error {
	if s.contactSheet == "" {
		return nil
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatJPEG, contactSheetQuality)
	if err != nil {
		return fmt.Errorf("encode contact sheet: %w", err)
	}
	return s.fs.WriteFile(s.contactSheet, data)
}

// Ensure Sink implements ports.FrameSink
var _ ports.FrameSink = (*Sink)(nil)
