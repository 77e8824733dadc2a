package webp

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

// addSeeds adds freshly encoded lossy, lossless and alpha files plus a few
// malformed headers to the corpus.
func addSeeds(f *testing.F) {
	f.Helper()
	seed := func(data []byte, err error) {
		if err == nil {
			f.Add(data)
		}
	}
	seed(EncodeBytes(solidImage(1, 1, color.NRGBA{255, 0, 0, 255}), &EncoderOptions{Lossless: true}))
	seed(EncodeBytes(gradientImage(16, 16), nil))
	seed(EncodeBytes(alphaGradientImage(8, 8), nil))
	seed(EncodeBytes(alphaGradientImage(8, 8), &EncoderOptions{Lossless: true}))

	f.Add([]byte{})
	f.Add([]byte("RIFF"))
	f.Add([]byte("RIFF\x00\x00\x00\x00WEBP"))
	f.Add([]byte("RIFF\xff\xff\xff\xffWEBPVP8 "))
}

// FuzzDecode checks that arbitrary input never crashes the decoder and that
// anything it accepts reports consistent dimensions.
func FuzzDecode(f *testing.F) {
	addSeeds(f)
	f.Fuzz(func(t *testing.T, data []byte) {
		img, err := Decode(bytes.NewReader(data))
		if err != nil {
			return
		}
		b := img.Bounds()
		if b.Dx() <= 0 || b.Dy() <= 0 || b.Dx() > MaxDimension || b.Dy() > MaxDimension {
			t.Errorf("accepted image with bounds %v", b)
		}
	})
}

func FuzzDecodeConfig(f *testing.F) {
	addSeeds(f)
	f.Fuzz(func(t *testing.T, data []byte) {
		cfg, err := DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return
		}
		if cfg.Width <= 0 || cfg.Height <= 0 {
			t.Errorf("accepted config %dx%d", cfg.Width, cfg.Height)
		}
	})
}

func FuzzGetFeatures(f *testing.F) {
	addSeeds(f)
	f.Fuzz(func(t *testing.T, data []byte) {
		feat, err := GetFeatures(bytes.NewReader(data))
		if err != nil {
			return
		}
		if feat.Width < 0 || feat.Height < 0 {
			t.Errorf("negative dimensions %dx%d", feat.Width, feat.Height)
		}
		switch feat.Format {
		case "lossy", "lossless", "extended", "unknown":
		default:
			t.Errorf("unexpected format %q", feat.Format)
		}
	})
}

// FuzzRoundtrip encodes fuzz-shaped pixel data losslessly and checks the
// decode reproduces it exactly.
func FuzzRoundtrip(f *testing.F) {
	f.Add(uint8(3), uint8(3), []byte{1, 2, 3})
	f.Add(uint8(16), uint8(1), []byte{0xff, 0x00})
	f.Fuzz(func(t *testing.T, w, h uint8, raw []byte) {
		if w == 0 || h == 0 {
			return
		}
		src := solidImage(int(w), int(h), color.NRGBA{A: 255})
		for i := 0; i < len(src.Pix) && i < len(raw); i++ {
			src.Pix[i] = raw[i]
		}
		data, err := EncodeBytes(src, &EncoderOptions{Lossless: true, Exact: true, Method: 0})
		if err != nil {
			t.Fatalf("encoding %dx%d: %v", w, h, err)
		}
		img, err := Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("decoding own output: %v", err)
		}
		if !bytes.Equal(img.(*image.NRGBA).Pix, src.Pix) {
			t.Error("lossless roundtrip changed pixels")
		}
	})
}
