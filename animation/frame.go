// Package animation encodes and decodes animated WebP images through the
// WebPAnimEncoder and WebPAnimDecoder APIs of libwebp (libwebpmux and
// libwebpdemux). Frame blending, disposal and keyframe placement are handled
// entirely by the C library; this package exposes composed canvases and
// presentation timestamps.
//
// Besides the streaming Encoder/Decoder pair, the package offers
// frame-rate-based helpers (EncodeImages, DecodeImagesAtFPS) that map a flat
// slice of equally spaced images onto the container's variable timestamps.
package animation

import (
	"fmt"
	"image"
	"io"
	"time"
)

// Frame is a fully composed animation canvas and the time at which its
// display interval ends.
type Frame struct {
	Image     *image.NRGBA
	Timestamp time.Duration
}

// Duration returns how long the frame is displayed, given the end timestamp
// of the previous frame (zero for the first frame).
func (f Frame) Duration(prev time.Duration) time.Duration {
	return f.Timestamp - prev
}

// EncodeImages writes imgs as an animated WebP file in which every image is
// displayed for 1/fps seconds. All images must share the dimensions of the
// first one, which define the canvas. If opts is nil, DefaultEncodeOptions
// is used.
func EncodeImages(w io.Writer, imgs []image.Image, fps float64, opts *EncodeOptions) error {
	if len(imgs) == 0 {
		return ErrNoFrames
	}
	if fps <= 0 {
		return fmt.Errorf("animation: non-positive frame rate %v", fps)
	}

	b := imgs[0].Bounds()
	enc, err := NewEncoder(w, b.Dx(), b.Dy(), opts)
	if err != nil {
		return err
	}

	frameDur := time.Duration(float64(time.Second) / fps)
	for i, img := range imgs {
		if err := enc.AddFrame(img, frameDur); err != nil {
			enc.abort()
			return fmt.Errorf("animation: frame %d: %w", i, err)
		}
	}
	return enc.Close()
}

// DecodeImages decodes all frames of an animated WebP stream, preserving the
// container's native timestamps.
func DecodeImages(r io.Reader) ([]Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("animation: reading input: %w", err)
	}
	return DecodeAll(data)
}

// DecodeImagesAtFPS decodes an animated WebP stream and resamples it to a
// constant frame rate. A virtual clock advances in 1/fps steps; each decoded
// frame is emitted once per clock tick that falls inside its display
// interval, so frames shown longer than 1/fps repeat and frames shorter than
// that may be dropped.
func DecodeImagesAtFPS(r io.Reader, fps float64) ([]*image.NRGBA, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("animation: non-positive frame rate %v", fps)
	}
	frames, err := DecodeImages(r)
	if err != nil {
		return nil, err
	}

	step := time.Duration(float64(time.Second) / fps)
	var out []*image.NRGBA
	var tick time.Duration
	for _, f := range frames {
		for tick < f.Timestamp {
			out = append(out, f.Image)
			tick += step
		}
	}
	return out, nil
}
