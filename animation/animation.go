package animation

/*
#cgo LDFLAGS: -lwebpmux -lwebpdemux -lwebp

#include <stdlib.h>
#include <webp/encode.h>
#include <webp/mux.h>

static WebPPicture* calloc_picture(void) {
	return (WebPPicture*)calloc(1, sizeof(WebPPicture));
}

static void dealloc_picture(WebPPicture* pic) {
	free(pic);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"time"
	"unsafe"

	"github.com/deepteams/libwebp/internal/pool"
	"github.com/deepteams/libwebp/mux"
)

var (
	ErrNoFrames    = errors.New("animation: no frames")
	ErrCanvasSize  = errors.New("animation: invalid canvas dimensions")
	ErrFrameSize   = errors.New("animation: frame dimensions differ from canvas")
	ErrEncoderDone = errors.New("animation: encoder is closed")
	ErrDecoderDone = errors.New("animation: decoder is closed")
)

// maxDimension mirrors webp.MaxDimension for canvas validation.
const maxDimension = 16383

// EncodeOptions configures the Encoder. The container-level fields map to
// WebPAnimEncoderOptions; Lossless/Quality/Method form the per-frame
// WebPConfig passed to WebPAnimEncoderAdd.
type EncodeOptions struct {
	// LoopCount is the number of times to play the animation (0 = infinite).
	LoopCount int

	// BackgroundColor is the canvas background color.
	BackgroundColor color.NRGBA

	// MinimizeSize enables slower-but-smaller encoding. Disables keyframe
	// insertion. Maps to WebPAnimEncoderOptions::minimize_size.
	MinimizeSize bool

	// AllowMixed lets the encoder pick lossy or lossless per frame,
	// whichever is smaller. Maps to WebPAnimEncoderOptions::allow_mixed.
	AllowMixed bool

	// Kmin and Kmax bound the distance between consecutive keyframes.
	// Zero values let libwebp pick its defaults.
	Kmin int
	Kmax int

	// Lossless selects VP8L frame encoding (VP8 lossy when false).
	Lossless bool

	// Quality is the per-frame compression quality (0-100). For lossy
	// frames 0 is smallest and 100 closest to the source; for lossless it
	// trades encoding effort for size.
	Quality float32

	// Method controls per-frame encoding effort (0 fastest, 6 slowest
	// and best).
	Method int
}

// DefaultEncodeOptions returns the options NewEncoder uses when given a nil
// *EncodeOptions: an infinitely looping animation with lossy frames at
// quality 75, method 4. Fields in a hand-built EncodeOptions are passed to
// the codec as-is, so a zero Quality or Method means exactly that.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{Quality: 75, Method: 4}
}

// Encoder assembles an animated WebP file frame by frame through
// WebPAnimEncoder. Frames are committed with AddFrame at a running timestamp;
// Close performs the final assembly and writes the file to w.
type Encoder struct {
	w      io.Writer
	enc    *C.WebPAnimEncoder
	width  int
	height int
	opts   EncodeOptions

	elapsed    time.Duration // running presentation timestamp
	frameCount int
	closed     bool
}

// NewEncoder creates an animation encoder for a canvas of the given size.
// If opts is nil, DefaultEncodeOptions is used.
func NewEncoder(w io.Writer, canvasWidth, canvasHeight int, opts *EncodeOptions) (*Encoder, error) {
	if canvasWidth <= 0 || canvasHeight <= 0 ||
		canvasWidth > maxDimension || canvasHeight > maxDimension {
		return nil, ErrCanvasSize
	}

	e := &Encoder{
		w:      w,
		width:  canvasWidth,
		height: canvasHeight,
		opts:   DefaultEncodeOptions(),
	}
	if opts != nil {
		e.opts = *opts
	}

	var cOpts C.WebPAnimEncoderOptions
	if C.WebPAnimEncoderOptionsInit(&cOpts) == 0 {
		return nil, errors.New("animation: initializing encoder options (version mismatch?)")
	}
	cOpts.minimize_size = cbool(e.opts.MinimizeSize)
	cOpts.allow_mixed = cbool(e.opts.AllowMixed)
	if e.opts.Kmin > 0 {
		cOpts.kmin = C.int(e.opts.Kmin)
	}
	if e.opts.Kmax > 0 {
		cOpts.kmax = C.int(e.opts.Kmax)
	}
	cOpts.anim_params.loop_count = C.int(clampLoopCount(e.opts.LoopCount))
	cOpts.anim_params.bgcolor = C.uint32_t(nrgbaToARGB(e.opts.BackgroundColor))

	e.enc = C.WebPAnimEncoderNew(C.int(canvasWidth), C.int(canvasHeight), &cOpts)
	if e.enc == nil {
		return nil, errors.New("animation: creating encoder: out of memory")
	}
	return e, nil
}

// AddFrame appends img to the animation, displayed for the given duration.
// The image must match the canvas dimensions.
func (e *Encoder) AddFrame(img image.Image, duration time.Duration) error {
	if e.closed {
		return ErrEncoderDone
	}
	b := img.Bounds()
	if b.Dx() != e.width || b.Dy() != e.height {
		return fmt.Errorf("animation: frame is %dx%d, canvas is %dx%d: %w",
			b.Dx(), b.Dy(), e.width, e.height, ErrFrameSize)
	}

	pic := C.calloc_picture()
	if pic == nil {
		return errors.New("animation: allocating picture: out of memory")
	}
	defer C.dealloc_picture(pic)

	if C.WebPPictureInit(pic) == 0 {
		return errors.New("animation: initializing picture (version mismatch?)")
	}
	defer C.WebPPictureFree(pic)

	pic.use_argb = 1
	pic.width = C.int(e.width)
	pic.height = C.int(e.height)

	if err := importPixels(pic, img); err != nil {
		return err
	}

	cfg, err := e.frameConfig()
	if err != nil {
		return err
	}

	timestamp := C.int(e.elapsed / time.Millisecond)
	if C.WebPAnimEncoderAdd(e.enc, pic, timestamp, &cfg) == 0 {
		return fmt.Errorf("animation: adding frame %d: %s (%s)",
			e.frameCount,
			C.GoString(C.WebPAnimEncoderGetError(e.enc)),
			encodingErrorString(pic.error_code))
	}

	e.elapsed += duration
	e.frameCount++
	return nil
}

// frameConfig builds the per-frame WebPConfig from the encoder options.
func (e *Encoder) frameConfig() (C.WebPConfig, error) {
	var cfg C.WebPConfig
	if C.WebPConfigInit(&cfg) == 0 {
		return cfg, errors.New("animation: initializing frame config (version mismatch?)")
	}
	cfg.lossless = cbool(e.opts.Lossless)
	cfg.quality = C.float(e.opts.Quality)
	cfg.method = C.int(e.opts.Method)
	if C.WebPValidateConfig(&cfg) == 0 {
		return cfg, fmt.Errorf("animation: invalid frame config (quality %.1f, method %d)",
			e.opts.Quality, e.opts.Method)
	}
	return cfg, nil
}

// Close flushes the final frame, assembles the container, rewrites the ANIM
// parameters and writes the complete file to w. The encoder cannot be reused.
// Calling Close again returns nil.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	defer func() {
		C.WebPAnimEncoderDelete(e.enc)
		e.enc = nil
	}()

	if e.frameCount == 0 {
		return ErrNoFrames
	}

	// A final nil frame marks the last frame's end timestamp.
	if C.WebPAnimEncoderAdd(e.enc, nil, C.int(e.elapsed/time.Millisecond), nil) == 0 {
		return fmt.Errorf("animation: flushing final frame: %s",
			C.GoString(C.WebPAnimEncoderGetError(e.enc)))
	}

	var out C.WebPData
	if C.WebPAnimEncoderAssemble(e.enc, &out) == 0 {
		return fmt.Errorf("animation: assembling: %s",
			C.GoString(C.WebPAnimEncoderGetError(e.enc)))
	}
	data := C.GoBytes(unsafe.Pointer(out.bytes), C.int(out.size))
	C.WebPDataClear(&out)

	// The assembler already stores the ANIM parameters from the options;
	// rewrite them through the mux so the output always reflects the
	// requested loop count and background color exactly.
	data, err := mux.SetAnimationParams(data, mux.AnimationParams{
		BackgroundColor: nrgbaToARGB(e.opts.BackgroundColor),
		LoopCount:       clampLoopCount(e.opts.LoopCount),
	})
	if err != nil {
		return fmt.Errorf("animation: setting animation params: %w", err)
	}

	if _, err := e.w.Write(data); err != nil {
		return fmt.Errorf("animation: writing output: %w", err)
	}
	return nil
}

// abort discards the encoder without assembling or writing anything.
func (e *Encoder) abort() {
	if e.closed {
		return
	}
	e.closed = true
	C.WebPAnimEncoderDelete(e.enc)
	e.enc = nil
}

// importPixels copies img into the C-side ARGB buffer, staging non-NRGBA
// images through a pooled RGBA buffer.
func importPixels(pic *C.WebPPicture, img image.Image) error {
	width := int(pic.width)
	height := int(pic.height)

	if src, ok := img.(*image.NRGBA); ok && src.Rect.Min.X == 0 && src.Rect.Min.Y == 0 {
		if C.WebPPictureImportRGBA(pic, (*C.uint8_t)(unsafe.Pointer(&src.Pix[0])), C.int(src.Stride)) == 0 {
			return fmt.Errorf("animation: importing pixels: %s", encodingErrorString(pic.error_code))
		}
		return nil
	}

	stride := width * 4
	buf := pool.Get(height * stride)
	defer pool.Put(buf)

	staging := &image.NRGBA{Pix: buf, Stride: stride, Rect: image.Rect(0, 0, width, height)}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			staging.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}
	if C.WebPPictureImportRGBA(pic, (*C.uint8_t)(unsafe.Pointer(&staging.Pix[0])), C.int(staging.Stride)) == 0 {
		return fmt.Errorf("animation: importing pixels: %s", encodingErrorString(pic.error_code))
	}
	return nil
}

// clampLoopCount clamps a loop count to the container's 16-bit range.
func clampLoopCount(v int) int {
	if v < 0 {
		return 0
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return v
}

// cbool converts a Go bool to a C int flag.
func cbool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

// encodingErrorString names a WebPEncodingError (WebPPicture.error_code).
func encodingErrorString(code C.WebPEncodingError) string {
	switch code {
	case C.VP8_ENC_OK:
		return "ok"
	case C.VP8_ENC_ERROR_OUT_OF_MEMORY:
		return "out of memory"
	case C.VP8_ENC_ERROR_BITSTREAM_OUT_OF_MEMORY:
		return "bitstream out of memory"
	case C.VP8_ENC_ERROR_NULL_PARAMETER:
		return "null parameter"
	case C.VP8_ENC_ERROR_INVALID_CONFIGURATION:
		return "invalid configuration"
	case C.VP8_ENC_ERROR_BAD_DIMENSION:
		return "bad picture dimension"
	case C.VP8_ENC_ERROR_BAD_WRITE:
		return "error while flushing bytes"
	case C.VP8_ENC_ERROR_FILE_TOO_BIG:
		return "file is larger than 4G"
	case C.VP8_ENC_ERROR_USER_ABORT:
		return "user abort"
	default:
		return fmt.Sprintf("encoding error %d", int(code))
	}
}

// nrgbaToARGB converts color.NRGBA to the ARGB uint32 layout used by the
// ANIM chunk parameters.
func nrgbaToARGB(c color.NRGBA) uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// argbToNRGBA converts an ARGB uint32 to color.NRGBA.
func argbToNRGBA(argb uint32) color.NRGBA {
	return color.NRGBA{
		A: uint8(argb >> 24),
		R: uint8(argb >> 16),
		G: uint8(argb >> 8),
		B: uint8(argb),
	}
}
