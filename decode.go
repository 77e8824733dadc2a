package webp

/*
#include <webp/decode.h>
*/
import "C"

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"unsafe"
)

// ColorMode selects the pixel layout produced by DecodePixels, mirroring
// libwebp's WEBP_CSP_MODE colorspaces.
type ColorMode int

const (
	ModeRGB ColorMode = iota
	ModeRGBA
	ModeBGR
	ModeBGRA
	ModeARGB
)

// BytesPerPixel returns the pixel width of the mode's memory layout.
func (m ColorMode) BytesPerPixel() int {
	switch m {
	case ModeRGB, ModeBGR:
		return 3
	case ModeRGBA, ModeBGRA, ModeARGB:
		return 4
	default:
		return 0
	}
}

// String returns the mode name as used in libwebp's documentation.
func (m ColorMode) String() string {
	switch m {
	case ModeRGB:
		return "RGB"
	case ModeRGBA:
		return "RGBA"
	case ModeBGR:
		return "BGR"
	case ModeBGRA:
		return "BGRA"
	case ModeARGB:
		return "ARGB"
	default:
		return fmt.Sprintf("ColorMode(%d)", int(m))
	}
}

// Decode reads a WebP image from r and returns it as an *image.NRGBA.
// For animated files only the first frame is returned; use the animation
// package for frame-by-frame access.
func Decode(r io.Reader) (image.Image, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("webp: reading data: %w", err)
	}
	return decodeBytes(data)
}

// DecodeConfig returns the color model and dimensions of a WebP image
// without decoding the entire image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	data, err := readAll(r)
	if err != nil {
		return image.Config{}, fmt.Errorf("webp: reading data: %w", err)
	}

	feat, err := getBitstreamFeatures(data)
	if err != nil {
		return image.Config{}, err
	}

	cm := color.NRGBAModel
	if !feat.HasAlpha {
		cm = color.YCbCrModel
	}
	return image.Config{
		ColorModel: cm,
		Width:      feat.Width,
		Height:     feat.Height,
	}, nil
}

// decodeBytes decodes a complete WebP file from a byte slice.
func decodeBytes(data []byte) (image.Image, error) {
	feat, err := getBitstreamFeatures(data)
	if err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, feat.Width, feat.Height))
	if feat.HasAnimation {
		// WebPDecodeRGBAInto refuses animated bitstreams; compose the first
		// frame through the demux-based decoder instead.
		if !decodeFirstFrame(data, img.Pix) {
			return nil, fmt.Errorf("webp: decoding first animation frame failed")
		}
		return img, nil
	}
	out := C.WebPDecodeRGBAInto(
		(*C.uint8_t)(unsafe.Pointer(&data[0])), C.size_t(len(data)),
		(*C.uint8_t)(unsafe.Pointer(&img.Pix[0])), C.size_t(len(img.Pix)),
		C.int(img.Stride),
	)
	if out == nil {
		return nil, fmt.Errorf("webp: decoding %s bitstream failed", formatName(feat))
	}
	return img, nil
}

// DecodePixels decodes a still WebP file into a raw pixel buffer with the
// requested layout. The returned slice is width*height*BytesPerPixel bytes,
// rows tightly packed. Animated files are rejected; use the animation
// package to access their frames.
func DecodePixels(data []byte, mode ColorMode) (pix []byte, width, height int, err error) {
	feat, err := getBitstreamFeatures(data)
	if err != nil {
		return nil, 0, 0, err
	}
	if feat.HasAnimation {
		return nil, 0, 0, fmt.Errorf("webp: animated file, decode frames with the animation package")
	}

	bpp := mode.BytesPerPixel()
	if bpp == 0 {
		return nil, 0, 0, fmt.Errorf("webp: unsupported color mode %d", int(mode))
	}
	width, height = feat.Width, feat.Height
	stride := width * bpp
	pix = make([]byte, height*stride)

	src := (*C.uint8_t)(unsafe.Pointer(&data[0]))
	dst := (*C.uint8_t)(unsafe.Pointer(&pix[0]))
	size := C.size_t(len(data))
	dstSize := C.size_t(len(pix))

	var out *C.uint8_t
	switch mode {
	case ModeRGB:
		out = C.WebPDecodeRGBInto(src, size, dst, dstSize, C.int(stride))
	case ModeRGBA:
		out = C.WebPDecodeRGBAInto(src, size, dst, dstSize, C.int(stride))
	case ModeBGR:
		out = C.WebPDecodeBGRInto(src, size, dst, dstSize, C.int(stride))
	case ModeBGRA:
		out = C.WebPDecodeBGRAInto(src, size, dst, dstSize, C.int(stride))
	case ModeARGB:
		out = C.WebPDecodeARGBInto(src, size, dst, dstSize, C.int(stride))
	}
	if out == nil {
		return nil, 0, 0, fmt.Errorf("webp: decoding to %s failed", mode)
	}
	return pix, width, height, nil
}

// formatName maps bitstream features to the user-facing format label.
func formatName(feat *bitstreamFeatures) string {
	switch feat.Format {
	case formatLossy:
		return "lossy"
	case formatLossless:
		return "lossless"
	default:
		return "undefined"
	}
}
