package main

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/deepteams/libwebp"
)

func TestParsePreset(t *testing.T) {
	tests := []struct {
		in      string
		want    webp.Preset
		wantErr bool
	}{
		{"default", webp.PresetDefault, false},
		{"DEFAULT", webp.PresetDefault, false},
		{"picture", webp.PresetPicture, false},
		{"photo", webp.PresetPhoto, false},
		{"drawing", webp.PresetDrawing, false},
		{"icon", webp.PresetIcon, false},
		{"text", webp.PresetText, false},
		{"bogus", 0, true},
	}
	for _, tt := range tests {
		got, err := parsePreset(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parsePreset(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parsePreset(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("parsePreset(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDetectOutputFormat(t *testing.T) {
	tests := []struct {
		fmtFlag string
		output  string
		want    string
	}{
		{"", "", "png"},
		{"", "-", "png"},
		{"", "out.jpg", "jpeg"},
		{"", "out.JPEG", "jpeg"},
		{"", "out.gif", "gif"},
		{"", "out.png", "png"},
		{"jpeg", "out.png", "jpeg"},
		{"PNG", "out.jpg", "png"},
	}
	for _, tt := range tests {
		if got := detectOutputFormat(tt.fmtFlag, tt.output); got != tt.want {
			t.Errorf("detectOutputFormat(%q, %q) = %q, want %q", tt.fmtFlag, tt.output, got, tt.want)
		}
	}
}

func TestCanvasRectHelpers(t *testing.T) {
	canvas := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range canvas.Pix {
		canvas.Pix[i] = 0x55
	}
	r := image.Rect(2, 2, 6, 6)

	saved := saveCanvasRect(canvas, r)
	clearCanvasRect(canvas, r)
	if canvas.NRGBAAt(3, 3) != (color.NRGBA{}) {
		t.Error("clearCanvasRect left pixels behind")
	}
	if canvas.NRGBAAt(0, 0) != (color.NRGBA{0x55, 0x55, 0x55, 0x55}) {
		t.Error("clearCanvasRect touched pixels outside the rect")
	}

	restoreCanvasRect(canvas, r, saved)
	if canvas.NRGBAAt(3, 3) != (color.NRGBA{0x55, 0x55, 0x55, 0x55}) {
		t.Error("restoreCanvasRect did not restore pixels")
	}
}

func TestCanvasRectHelpers_OutOfBounds(t *testing.T) {
	canvas := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	r := image.Rect(-2, -2, 10, 10)
	saved := saveCanvasRect(canvas, r)
	clearCanvasRect(canvas, r)
	restoreCanvasRect(canvas, r, saved)

	if saveCanvasRect(canvas, image.Rect(20, 20, 30, 30)) != nil {
		t.Error("expected nil for fully out-of-bounds rect")
	}
}

func TestEncodeStatic_WritesWebP(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.webp")

	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	f, err := os.Create(src)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if err := encodeStatic(src, out, webp.DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data[:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		t.Errorf("bad output header: % x", data[:12])
	}
}

func TestEncodeGIFFrames_Animated(t *testing.T) {
	g := &gif.GIF{
		Config:    image.Config{Width: 8, Height: 8},
		LoopCount: 2,
	}
	pal := color.Palette{color.NRGBA{255, 0, 0, 255}, color.NRGBA{0, 0, 255, 255}}
	for i := 0; i < 2; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, 8, 8), pal)
		for p := range frame.Pix {
			frame.Pix[p] = uint8(i)
		}
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, 10) // 100ms
		g.Disposal = append(g.Disposal, gif.DisposalNone)
	}

	var buf bytes.Buffer
	if err := encodeGIFFrames(&buf, g, webp.DefaultOptions()); err != nil {
		t.Fatal(err)
	}

	feat, err := webp.GetFeatures(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if !feat.HasAnimation {
		t.Error("output is not animated")
	}
	if feat.FrameCount != 2 {
		t.Errorf("frame count = %d, want 2", feat.FrameCount)
	}
	if feat.LoopCount != 2 {
		t.Errorf("loop count = %d, want 2", feat.LoopCount)
	}
}
