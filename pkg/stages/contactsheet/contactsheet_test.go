package contactsheet

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/user/keyframes/pkg/adapters/ggrenderer"
	"github.com/user/keyframes/pkg/adapters/logger"
	"github.com/user/keyframes/pkg/mocks"
	"github.com/user/keyframes/pkg/pipeline"
	"github.com/user/keyframes/pkg/ports"
)

func jpegFrame(t *testing.T, r ports.Renderer, ts float64, w, h int) pipeline.FrameRecord {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(ts * 10), G: 100, B: 50, A: 255})
		}
	}
	data, err := r.EncodeImage(img, ports.FormatJPEG, 80)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}
	return pipeline.FrameRecord{JobID: "job", Timestamp: ts, Image: data}
}

func TestStage_ComposesGrid(t *testing.T) {
	r := ggrenderer.New()
	sink := mocks.NewFrameSink(true)
	stage := NewStage(r, sink, logger.NewNoop(), 2)

	input := pipeline.DefaultContactSheetInput()
	input.Columns = 2
	input.ThumbWidth = 160
	for _, ts := range []float64{5, 0, 2.5} {
		input.Frames = append(input.Frames, jpegFrame(t, r, ts, 320, 180))
	}

	result, err := stage.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	// 2 columns x 2 rows of 160x90 thumbnails with a 20px label row
	wantW := 2*16 + 2*160 + 8
	wantH := 2*16 + 2*(90+20) + 8
	if result.Width != wantW || result.Height != wantH {
		t.Errorf("expected %dx%d, got %dx%d", wantW, wantH, result.Width, result.Height)
	}
	if result.Rows != 2 {
		t.Errorf("expected 2 rows, got %d", result.Rows)
	}

	decoded, err := r.DecodeImage(result.JPEG, ports.FormatJPEG)
	if err != nil {
		t.Fatalf("result is not a JPEG: %v", err)
	}
	if decoded.Bounds().Dx() != wantW {
		t.Errorf("encoded width mismatch: %d", decoded.Bounds().Dx())
	}
	if sink.ContactSheet == nil {
		t.Error("expected contact sheet to be saved to sink")
	}
}

func TestStage_SortsChronologically(t *testing.T) {
	canvas := &mocks.Canvas{}
	renderer := &mocks.Renderer{
		CreateCanvasFunc: func(width, height int, bg color.Color) ports.Canvas { return canvas },
	}
	stage := NewStage(renderer, &mocks.NullSink{}, logger.NewNoop(), 4)

	input := pipeline.ContactSheetInput{Columns: 3}
	for _, ts := range []float64{62.5, 0, 2.5, 3600} {
		input.Frames = append(input.Frames, pipeline.FrameRecord{Timestamp: ts, Image: []byte("x")})
	}

	if _, err := stage.Execute(context.Background(), input); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := []string{"00:00:00.000", "00:00:02.500", "00:01:02.500", "01:00:00.000"}
	if len(canvas.Texts) != len(want) {
		t.Fatalf("expected %d labels, got %v", len(want), canvas.Texts)
	}
	for i := range want {
		if canvas.Texts[i] != want[i] {
			t.Errorf("label %d: expected %s, got %s", i, want[i], canvas.Texts[i])
		}
	}
	if len(canvas.Images) != 4 {
		t.Errorf("expected 4 thumbnails drawn, got %d", len(canvas.Images))
	}
	// Fourth thumbnail wraps to the second row
	if canvas.Images[3].X != canvas.Images[0].X || canvas.Images[3].Y <= canvas.Images[0].Y {
		t.Errorf("expected wrap to second row, got %+v", canvas.Images[3])
	}
}

func TestStage_NoFrames(t *testing.T) {
	stage := NewStage(&mocks.Renderer{}, nil, logger.NewNoop(), 1)
	_, err := stage.Execute(context.Background(), pipeline.ContactSheetInput{})
	if !errors.Is(err, ErrNoFrames) {
		t.Errorf("expected ErrNoFrames, got %v", err)
	}
}

func TestStage_DecodeError(t *testing.T) {
	renderer := &mocks.Renderer{
		DecodeImageFunc: func(data []byte, format ports.ImageFormat) (image.Image, error) {
			return nil, errors.New("bad jpeg")
		},
	}
	stage := NewStage(renderer, nil, logger.NewNoop(), 2)

	input := pipeline.ContactSheetInput{Frames: []pipeline.FrameRecord{{Timestamp: 1}}}
	if _, err := stage.Execute(context.Background(), input); err == nil {
		t.Error("expected decode error")
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		ts   float64
		want string
	}{
		{0, "00:00:00.000"},
		{2.5, "00:00:02.500"},
		{59.9996, "00:01:00.000"},
		{3723.042, "01:02:03.042"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.ts); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %s, want %s", tt.ts, got, tt.want)
		}
	}
}
