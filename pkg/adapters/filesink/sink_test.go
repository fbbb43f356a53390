package filesink

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/user/keyframes/pkg/mocks"
	"github.com/user/keyframes/pkg/ports"
)

// testFramesDir is a platform-independent frames directory for tests
var testFramesDir = filepath.Join("out", "frames")

func TestSink_Enabled(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{}

	if !New(testFramesDir, "", fs, renderer).Enabled() {
		t.Error("expected frames-only sink to be enabled")
	}
	if !New("", "sheet.jpg", fs, renderer).Enabled() {
		t.Error("expected sheet-only sink to be enabled")
	}
	if New("", "", fs, renderer).Enabled() {
		t.Error("expected sink without outputs to be disabled")
	}
}

func TestSink_SaveFrame(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testFramesDir, "", fs, &mocks.Renderer{})

	if err := sink.SaveFrame(3, 2.5, []byte("jpeg")); err != nil {
		t.Fatalf("SaveFrame failed: %v", err)
	}

	path := filepath.Join(testFramesDir, "keyframe_0003_2.500.jpg")
	data, ok := fs.GetFile(path)
	if !ok {
		t.Fatalf("expected file at %s, have %v", path, fs.GetAllFiles())
	}
	if string(data) != "jpeg" {
		t.Errorf("unexpected data %q", data)
	}
	if !fs.HasDir(testFramesDir) {
		t.Error("expected frames directory to be created")
	}
}

func TestSink_SaveFrameDisabled(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New("", "sheet.jpg", fs, &mocks.Renderer{})

	if err := sink.SaveFrame(1, 0, []byte("jpeg")); err != nil {
		t.Fatalf("SaveFrame failed: %v", err)
	}
	if len(fs.GetAllFiles()) != 0 {
		t.Error("expected no frame files")
	}
}

func TestSink_SaveContactSheet(t *testing.T) {
	fs := mocks.NewFileSystem()
	var gotQuality int
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			gotQuality = quality
			return []byte("sheet"), nil
		},
	}
	sink := New("", "sheet.jpg", fs, renderer)

	if err := sink.SaveContactSheet(image.NewRGBA(image.Rect(0, 0, 10, 10))); err != nil {
		t.Fatalf("SaveContactSheet failed: %v", err)
	}
	if data, _ := fs.GetFile("sheet.jpg"); string(data) != "sheet" {
		t.Errorf("unexpected sheet data %q", data)
	}
	if gotQuality != contactSheetQuality {
		t.Errorf("expected quality %d, got %d", contactSheetQuality, gotQuality)
	}
}

func TestSink_SaveContactSheetEncodeError(t *testing.T) {
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			return nil, errors.New("encode failed")
		},
	}
	sink := New("", "sheet.jpg", mocks.NewFileSystem(), renderer)

	if err := sink.SaveContactSheet(image.NewRGBA(image.Rect(0, 0, 1, 1))); err == nil {
		t.Error("expected encode error")
	}
}
