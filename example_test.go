package webp_test

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/deepteams/libwebp"
	"github.com/deepteams/libwebp/animation"
)

func ExampleEncode() {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}

	var buf bytes.Buffer
	err := webp.Encode(&buf, img, &webp.EncoderOptions{
		Lossless: true,
		Quality:  75,
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	if buf.Len() > 0 {
		fmt.Println("ok")
	}
	// Output:
	// ok
}

func ExampleEncode_roundtrip() {
	original := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			original.SetNRGBA(x, y, color.NRGBA{R: 100, G: 150, B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	err := webp.Encode(&buf, original, &webp.EncoderOptions{Lossless: true})
	if err != nil {
		fmt.Println(err)
		return
	}

	decoded, err := webp.Decode(&buf)
	if err != nil {
		fmt.Println(err)
		return
	}

	// Lossless is exact.
	p := decoded.(*image.NRGBA).NRGBAAt(0, 0)
	fmt.Printf("R=%d G=%d B=%d A=%d\n", p.R, p.G, p.B, p.A)
	// Output:
	// R=100 G=150 B=200 A=255
}

func ExampleGetFeatures() {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	data, err := webp.EncodeBytes(img, &webp.EncoderOptions{Lossless: true})
	if err != nil {
		fmt.Println(err)
		return
	}

	feat, err := webp.GetFeatures(bytes.NewReader(data))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("size: %dx%d\n", feat.Width, feat.Height)
	fmt.Printf("format: %s\n", feat.Format)
	fmt.Printf("animation: %v\n", feat.HasAnimation)
	// Output:
	// size: 4x4
	// format: lossless
	// animation: false
}

func ExampleDecodePixels() {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	data, err := webp.EncodeBytes(img, &webp.EncoderOptions{Lossless: true, Exact: true})
	if err != nil {
		fmt.Println(err)
		return
	}

	pix, w, h, err := webp.DecodePixels(data, webp.ModeBGRA)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%dx%d, first pixel BGRA: %v\n", w, h, pix[:4])
	// Output:
	// 2x2, first pixel BGRA: [0 0 255 255]
}

func ExampleDefaultOptions() {
	opts := webp.DefaultOptions()
	fmt.Printf("quality: %.0f\n", opts.Quality)
	fmt.Printf("lossless: %v\n", opts.Lossless)
	fmt.Printf("method: %d\n", opts.Method)
	// Output:
	// quality: 75
	// lossless: false
	// method: 4
}

func ExampleOptionsForPreset() {
	opts := webp.OptionsForPreset(webp.PresetPhoto, 90)
	fmt.Printf("quality: %.0f\n", opts.Quality)
	fmt.Printf("preset: %d\n", opts.Preset)
	// Output:
	// quality: 90
	// preset: 2
}

// Encoding a short animation and writing it to a file.
func Example_animation() {
	frames := make([]image.Image, 3)
	for i := range frames {
		img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p] = uint8(i * 80)
			img.Pix[p+3] = 255
		}
		frames[i] = img
	}

	f, err := os.CreateTemp("", "anim-*.webp")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.Remove(f.Name())
	defer f.Close()

	// 10 frames per second, looping forever.
	if err := animation.EncodeImages(f, frames, 10, nil); err != nil {
		fmt.Println(err)
	}
}
