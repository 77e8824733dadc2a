package webp

import (
	"errors"
	"fmt"
	"image"
	"io"
)

func init() {
	image.RegisterFormat("webp", "RIFF????WEBP", Decode, DecodeConfig)
}

// Errors shared across the package.
var (
	ErrEmptyInput = errors.New("webp: empty input")
	ErrClosed     = errors.New("webp: picture is closed")
)

// Features describes a WebP file's properties.
type Features struct {
	Width        int
	Height       int
	HasAlpha     bool
	HasAnimation bool
	Format       string // "lossy", "lossless", "extended" or "unknown"
	LoopCount    int    // animation loop count (0 = infinite)
	FrameCount   int    // number of frames (1 for still images)
}

// readAll reads all data from r. If r implements Len() int (e.g.
// *bytes.Reader), a single exact-sized allocation is used instead of
// the repeated doublings that io.ReadAll performs.
func readAll(r io.Reader) ([]byte, error) {
	if lr, ok := r.(interface{ Len() int }); ok {
		n := lr.Len()
		if n > 0 {
			data := make([]byte, n)
			_, err := io.ReadFull(r, data)
			return data, err
		}
	}
	return io.ReadAll(r)
}

// GetFeatures reads WebP features without decoding pixel data. Bitstream
// properties come from WebPGetFeatures; frame and loop counts come from the
// demux API.
func GetFeatures(r io.Reader) (*Features, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("webp: reading data: %w", err)
	}

	feat, err := getBitstreamFeatures(data)
	if err != nil {
		return nil, err
	}

	f := &Features{
		Width:        feat.Width,
		Height:       feat.Height,
		HasAlpha:     feat.HasAlpha,
		HasAnimation: feat.HasAnimation,
		FrameCount:   1,
	}

	if info, ok := probeContainer(data); ok {
		if info.FrameCount > 0 {
			f.FrameCount = info.FrameCount
		}
		f.LoopCount = info.LoopCount
		if info.FormatFlags != 0 {
			f.Format = "extended"
		}
	}

	if f.Format == "" {
		switch feat.Format {
		case formatLossy:
			f.Format = "lossy"
		case formatLossless:
			f.Format = "lossless"
		default:
			f.Format = "unknown"
		}
	}

	return f, nil
}
