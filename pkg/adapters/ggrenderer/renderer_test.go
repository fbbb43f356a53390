package ggrenderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/user/keyframes/pkg/ports"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRenderer_CreateCanvas(t *testing.T) {
	r := New()

	img := r.CreateCanvas(320, 180, color.White).ToImage()
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 180 {
		t.Errorf("expected 320x180, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestRenderer_JPEGRoundTrip(t *testing.T) {
	r := New()

	data, err := r.EncodeImage(solid(64, 36, color.RGBA{R: 200, A: 255}), ports.FormatJPEG, 85)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}

	decoded, err := r.DecodeImage(data, ports.FormatJPEG)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 64 || b.Dy() != 36 {
		t.Errorf("expected 64x36, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestRenderer_DecodeFallsBackToPNG(t *testing.T) {
	r := New()

	data, err := r.EncodeImage(solid(10, 10, color.Black), ports.FormatPNG, 0)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}

	// Asking for JPEG still decodes PNG bytes
	if _, err := r.DecodeImage(data, ports.FormatJPEG); err != nil {
		t.Errorf("expected PNG data to decode, got %v", err)
	}
}

func TestRenderer_DecodeInvalid(t *testing.T) {
	r := New()

	if _, err := r.DecodeImage(nil, ports.FormatJPEG); err == nil {
		t.Error("expected error for empty data")
	}
	if _, err := r.DecodeImage([]byte("not an image"), ports.FormatJPEG); err == nil {
		t.Error("expected error for garbage data")
	}
}

func TestRenderer_EncodeUnsupported(t *testing.T) {
	r := New()

	if _, err := r.EncodeImage(solid(2, 2, color.White), ports.ImageFormat(99), 80); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestRenderer_ResizeImage(t *testing.T) {
	r := New()
	src := solid(1920, 1080, color.White)

	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"explicit", 240, 100, 240, 100},
		{"keep aspect", 240, 0, 240, 135},
		{"keep aspect negative", 320, -1, 320, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := r.ResizeImage(src, tt.width, tt.height).Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, b.Dx(), b.Dy())
			}
		})
	}
}

func TestCanvas_DrawRect(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(50, 50, color.White)

	canvas.DrawRect(10, 10, 20, 20, color.RGBA{B: 255, A: 255})

	r32, g32, b32, _ := canvas.ToImage().At(20, 20).RGBA()
	if r32 != 0 || g32 != 0 || b32>>8 != 255 {
		t.Errorf("expected blue pixel, got (%d, %d, %d)", r32>>8, g32>>8, b32>>8)
	}
}

func TestCanvas_DrawImage(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(40, 40, color.White)

	canvas.DrawImage(solid(10, 10, color.Black), 5, 5)

	img := canvas.ToImage()
	if r32, _, _, _ := img.At(8, 8).RGBA(); r32 != 0 {
		t.Errorf("expected black pixel inside thumbnail, got red=%d", r32>>8)
	}
	if r32, _, _, _ := img.At(30, 30).RGBA(); r32>>8 != 255 {
		t.Errorf("expected white background outside thumbnail, got red=%d", r32>>8)
	}
}

func TestCanvas_DrawTextAndStroke(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(200, 40, color.White)

	canvas.DrawRectStroke(1, 1, 198, 38, color.Black, 1)
	canvas.DrawText("12.345 s", 100, 20, ports.TextStyle{
		FontSize: 12,
		FontPath: "/nonexistent/font.ttf",
		Color:    color.Black,
		Align:    ports.AlignCenter,
	})

	if canvas.ToImage() == nil {
		t.Fatal("expected image")
	}
}
