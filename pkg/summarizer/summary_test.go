package summarizer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/user/keyframes/pkg/mocks"
	"github.com/user/keyframes/pkg/pipeline"
	"github.com/user/keyframes/pkg/ports"
)

func TestBuilder(t *testing.T) {
	before := time.Now()

	s := NewBuilder().
		WithJob("/in.mp4", pipeline.Summary{JobID: "job", TotalFrames: 2, FailedFrames: 2, Identified: 4, Duration: time.Second}).
		WithSource(ports.ContainerInfo{Format: "mp4", VideoCodec: "hevc", Width: 640, Height: 360}).
		WithFrames([]pipeline.FrameRecord{{Image: make([]byte, 100)}, {Image: make([]byte, 50)}}).
		WithFailures([]pipeline.RenderFailure{
			{Timestamp: 9, Err: errors.New("late")},
			{Timestamp: 3, Err: errors.New("early")},
		}).
		WithSettings(Settings{Workers: 2}).
		WithOutputs(OutputInfo{FramesDir: "out"}).
		Build()

	if s.GeneratedAt.Before(before) {
		t.Error("expected GeneratedAt to be set")
	}
	if s.Job.ID != "job" || s.Job.Input != "/in.mp4" {
		t.Errorf("unexpected job %+v", s.Job)
	}
	if s.Frames.Identified != 4 || s.Frames.Rendered != 2 || s.Frames.Failed != 2 {
		t.Errorf("unexpected frame stats %+v", s.Frames)
	}
	if s.Frames.TotalBytes != 150 {
		t.Errorf("expected 150 bytes, got %d", s.Frames.TotalBytes)
	}
	if s.Frames.Failures[0].Error != "early" {
		t.Errorf("expected failures sorted by timestamp, got %+v", s.Frames.Failures)
	}
	if s.Source.Codec != "hevc" || s.Settings.Workers != 2 || s.Outputs.FramesDir != "out" {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestWriter_Write(t *testing.T) {
	fs := mocks.NewFileSystem()
	w := NewWriter(NewMarkdownFormatter(), fs)

	if err := w.Write("/reports/summary.md", sampleSummary()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, ok := fs.GetFile("/reports/summary.md")
	if !ok {
		t.Fatal("expected summary file")
	}
	if !strings.HasPrefix(string(data), "# Keyframe Extraction Summary") {
		t.Errorf("unexpected content %q", string(data[:40]))
	}
}

func TestWriter_CustomFormatter(t *testing.T) {
	fs := mocks.NewFileSystem()
	w := NewWriter(FormatFunc(func(s *Summary) string { return s.Job.ID }), fs)

	w.Write("/out.txt", &Summary{Job: JobInfo{ID: "abc"}})

	if data, _ := fs.GetFile("/out.txt"); string(data) != "abc" {
		t.Errorf("expected abc, got %q", data)
	}
}

func TestWriter_WriteError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFileFunc = func(path string, data []byte) error { return errors.New("read-only") }
	w := NewWriter(NewMarkdownFormatter(), fs)

	if err := w.Write("/out.md", sampleSummary()); err == nil || !strings.Contains(err.Error(), "read-only") {
		t.Errorf("expected wrapped write error, got %v", err)
	}
}
