package animation

/*
#include <stdlib.h>
#include <webp/demux.h>

// The input buffer is copied into C memory up front: WebPAnimDecoder keeps
// referencing it for its whole lifetime, which rules out handing it a Go
// pointer. WebPData is built on the C side for the same reason.
static WebPAnimDecoder* anim_decoder_new(const uint8_t* data, size_t size,
                                         const WebPAnimDecoderOptions* opts) {
	WebPData webp_data = {data, size};
	return WebPAnimDecoderNew(&webp_data, opts);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"
	"unsafe"
)

// DecodeOptions configures the Decoder, mapping to WebPAnimDecoderOptions.
type DecodeOptions struct {
	// UseThreads enables multi-threaded decoding inside libwebp.
	UseThreads bool
}

// AnimInfo describes an animated WebP file, mirroring WebPAnimInfo.
type AnimInfo struct {
	CanvasWidth     int
	CanvasHeight    int
	LoopCount       int // 0 = infinite
	FrameCount      int
	BackgroundColor color.NRGBA
}

// Decoder reconstructs the frames of an animated WebP file one canvas at a
// time through WebPAnimDecoder. Blending, disposal and keyframe handling all
// happen inside libwebp; Next returns the fully composed canvas.
type Decoder struct {
	dec   *C.WebPAnimDecoder
	cdata unsafe.Pointer // C copy of the input, freed by Close
	info  AnimInfo
}

// NewDecoder creates a Decoder for the given complete WebP file bytes.
// If opts is nil, single-threaded RGBA decoding is used.
// The returned Decoder must be closed to release its C-side resources.
func NewDecoder(data []byte, opts *DecodeOptions) (*Decoder, error) {
	if len(data) == 0 {
		return nil, errors.New("animation: empty input")
	}

	var cOpts C.WebPAnimDecoderOptions
	if C.WebPAnimDecoderOptionsInit(&cOpts) == 0 {
		return nil, errors.New("animation: initializing decoder options (version mismatch?)")
	}
	cOpts.color_mode = C.MODE_RGBA
	if opts != nil {
		cOpts.use_threads = cbool(opts.UseThreads)
	}

	cdata := C.CBytes(data)
	dec := C.anim_decoder_new((*C.uint8_t)(cdata), C.size_t(len(data)), &cOpts)
	if dec == nil {
		C.free(cdata)
		return nil, errors.New("animation: parsing animated WebP failed")
	}

	var cInfo C.WebPAnimInfo
	if C.WebPAnimDecoderGetInfo(dec, &cInfo) == 0 {
		C.WebPAnimDecoderDelete(dec)
		C.free(cdata)
		return nil, errors.New("animation: reading animation info failed")
	}

	return &Decoder{
		dec:   dec,
		cdata: cdata,
		info: AnimInfo{
			CanvasWidth:     int(cInfo.canvas_width),
			CanvasHeight:    int(cInfo.canvas_height),
			LoopCount:       int(cInfo.loop_count),
			FrameCount:      int(cInfo.frame_count),
			BackgroundColor: argbToNRGBA(uint32(cInfo.bgcolor)),
		},
	}, nil
}

// Info returns the animation's container-level properties.
func (d *Decoder) Info() AnimInfo {
	return d.info
}

// HasNext reports whether more frames are available.
func (d *Decoder) HasNext() bool {
	return d.dec != nil && C.WebPAnimDecoderHasMoreFrames(d.dec) != 0
}

// Next returns the next composed canvas and its presentation timestamp: the
// time at which the frame's display interval ends. The returned image is a
// copy and remains valid after further calls.
func (d *Decoder) Next() (*image.NRGBA, time.Duration, error) {
	if d.dec == nil {
		return nil, 0, ErrDecoderDone
	}
	if !d.HasNext() {
		return nil, 0, ErrNoFrames
	}

	var buf *C.uint8_t
	var timestamp C.int
	if C.WebPAnimDecoderGetNext(d.dec, &buf, &timestamp) == 0 {
		return nil, 0, fmt.Errorf("animation: decoding frame failed")
	}

	w, h := d.info.CanvasWidth, d.info.CanvasHeight
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	// buf points at the decoder's internal canvas (valid until the next
	// GetNext/Reset/Delete call), so the pixels are copied out here.
	copy(img.Pix, unsafe.Slice((*byte)(buf), w*h*4))

	return img, time.Duration(timestamp) * time.Millisecond, nil
}

// Reset rewinds the decoder to the first frame.
func (d *Decoder) Reset() {
	if d.dec != nil {
		C.WebPAnimDecoderReset(d.dec)
	}
}

// Close releases the decoder and its C-side input copy.
// It is safe to call Close more than once.
func (d *Decoder) Close() {
	if d.dec != nil {
		C.WebPAnimDecoderDelete(d.dec)
		d.dec = nil
	}
	if d.cdata != nil {
		C.free(d.cdata)
		d.cdata = nil
	}
}

// DecodeAll decodes every frame of an animated WebP file.
func DecodeAll(data []byte) ([]Frame, error) {
	dec, err := NewDecoder(data, nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	frames := make([]Frame, 0, dec.info.FrameCount)
	for dec.HasNext() {
		img, ts, err := dec.Next()
		if err != nil {
			return nil, err
		}
		frames = append(frames, Frame{Image: img, Timestamp: ts})
	}
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	return frames, nil
}
