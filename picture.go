package webp

/*
#include <stdlib.h>
#include <webp/encode.h>

// The WebPPicture struct is allocated in C memory so that the pixel buffers
// libwebp hangs off it never mix with Go-managed memory (cgo pointer-passing
// rules).
static WebPPicture* calloc_picture(void) {
	return (WebPPicture*)calloc(1, sizeof(WebPPicture));
}

static void dealloc_picture(WebPPicture* pic) {
	free(pic);
}

static WebPMemoryWriter* calloc_memory_writer(void) {
	WebPMemoryWriter* wrt = (WebPMemoryWriter*)calloc(1, sizeof(WebPMemoryWriter));
	if (wrt != NULL) {
		WebPMemoryWriterInit(wrt);
	}
	return wrt;
}

static void dealloc_memory_writer(WebPMemoryWriter* wrt) {
	if (wrt != NULL) {
		WebPMemoryWriterClear(wrt);
		free(wrt);
	}
}

static void set_memory_writer(WebPPicture* pic, WebPMemoryWriter* wrt) {
	pic->writer = WebPMemoryWrite;
	pic->custom_ptr = wrt;
}
*/
import "C"

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/deepteams/libwebp/internal/pool"
)

// Picture wraps a libwebp WebPPicture: an ARGB pixel holder that serves as
// the input to the encoder. The underlying C struct and its pixel buffers
// are freed by Close; the caller owns that lifetime.
type Picture struct {
	pic    *C.WebPPicture
	width  int
	height int
}

// NewPicture allocates a blank ARGB picture of the given dimensions.
func NewPicture(width, height int) (*Picture, error) {
	p, err := allocPicture(width, height)
	if err != nil {
		return nil, err
	}
	if C.WebPPictureAlloc(p.pic) == 0 {
		p.Close()
		return nil, fmt.Errorf("webp: allocating %dx%d picture: out of memory", width, height)
	}
	return p, nil
}

// NewPictureFromImage allocates a picture and imports the pixels of img.
// Any image.Image is accepted; *image.NRGBA and *image.RGBA with canonical
// bounds are imported directly, other types go through an RGBA staging copy.
func NewPictureFromImage(img image.Image) (*Picture, error) {
	b := img.Bounds()
	p, err := allocPicture(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	if err := p.importImage(img); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// allocPicture validates dimensions and sets up an empty C-side picture.
func allocPicture(width, height int) (*Picture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("webp: invalid picture dimensions %dx%d", width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("webp: picture dimension %dx%d exceeds maximum %d", width, height, MaxDimension)
	}

	pic := C.calloc_picture()
	if pic == nil {
		return nil, fmt.Errorf("webp: allocating picture: out of memory")
	}
	if C.WebPPictureInit(pic) == 0 {
		C.dealloc_picture(pic)
		return nil, fmt.Errorf("webp: initializing picture (version mismatch?)")
	}
	pic.use_argb = 1
	pic.width = C.int(width)
	pic.height = C.int(height)

	return &Picture{pic: pic, width: width, height: height}, nil
}

// Width returns the picture width in pixels.
func (p *Picture) Width() int { return p.width }

// Height returns the picture height in pixels.
func (p *Picture) Height() int { return p.height }

// importImage copies img's pixels into the C-side ARGB buffer using
// WebPPictureImportRGBA (or ImportRGB for stride-3 data).
func (p *Picture) importImage(img image.Image) error {
	switch src := img.(type) {
	case *image.NRGBA:
		if src.Rect.Min.X == 0 && src.Rect.Min.Y == 0 {
			return p.importRGBA(src.Pix, src.Stride)
		}
	case *image.RGBA:
		// RGBA is alpha-premultiplied; only a fully opaque image carries the
		// same bytes as its non-premultiplied form.
		if src.Rect.Min.X == 0 && src.Rect.Min.Y == 0 && src.Opaque() {
			return p.importRGBA(src.Pix, src.Stride)
		}
	}

	// Generic path: stage through a pooled RGBA buffer. libwebp copies the
	// pixels during import, so the staging buffer can go straight back.
	stride := p.width * 4
	buf := pool.Get(p.height * stride)
	defer pool.Put(buf)

	b := img.Bounds()
	staging := &image.NRGBA{Pix: buf, Stride: stride, Rect: image.Rect(0, 0, p.width, p.height)}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			staging.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}
	return p.importRGBA(staging.Pix, staging.Stride)
}

// importRGBA imports non-premultiplied RGBA bytes with the given stride.
func (p *Picture) importRGBA(pix []byte, stride int) error {
	if len(pix) == 0 {
		return ErrEmptyInput
	}
	if stride < p.width*4 || len(pix) < (p.height-1)*stride+p.width*4 {
		return fmt.Errorf("webp: pixel buffer too small for %dx%d picture (stride %d)", p.width, p.height, stride)
	}
	if C.WebPPictureImportRGBA(p.pic, (*C.uint8_t)(unsafe.Pointer(&pix[0])), C.int(stride)) == 0 {
		return fmt.Errorf("webp: importing RGBA pixels: %s", encodingErrorString(p.pic.error_code))
	}
	return nil
}

// ImportRGBA replaces the picture content with raw non-premultiplied RGBA
// bytes (4 bytes per pixel, rows stride bytes apart).
func (p *Picture) ImportRGBA(pix []byte, stride int) error {
	if p.pic == nil {
		return ErrClosed
	}
	return p.importRGBA(pix, stride)
}

// ImportRGB replaces the picture content with raw RGB bytes (3 bytes per
// pixel, rows stride bytes apart). The picture becomes fully opaque.
func (p *Picture) ImportRGB(pix []byte, stride int) error {
	if p.pic == nil {
		return ErrClosed
	}
	if len(pix) == 0 {
		return ErrEmptyInput
	}
	if stride < p.width*3 || len(pix) < (p.height-1)*stride+p.width*3 {
		return fmt.Errorf("webp: pixel buffer too small for %dx%d picture (stride %d)", p.width, p.height, stride)
	}
	if C.WebPPictureImportRGB(p.pic, (*C.uint8_t)(unsafe.Pointer(&pix[0])), C.int(stride)) == 0 {
		return fmt.Errorf("webp: importing RGB pixels: %s", encodingErrorString(p.pic.error_code))
	}
	return nil
}

// Encode compresses the picture and returns the complete WebP file bytes.
// If opts is nil, DefaultOptions() is used.
func (p *Picture) Encode(opts *EncoderOptions) ([]byte, error) {
	if p.pic == nil {
		return nil, ErrClosed
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}

	wrt := C.calloc_memory_writer()
	if wrt == nil {
		return nil, fmt.Errorf("webp: allocating memory writer: out of memory")
	}
	defer C.dealloc_memory_writer(wrt)
	C.set_memory_writer(p.pic, wrt)

	if C.WebPEncode(&cfg, p.pic) == 0 {
		return nil, fmt.Errorf("webp: encoding picture: %s", encodingErrorString(p.pic.error_code))
	}
	return C.GoBytes(unsafe.Pointer(wrt.mem), C.int(wrt.size)), nil
}

// Close releases the C-side picture and its pixel buffers.
// It is safe to call Close more than once.
func (p *Picture) Close() {
	if p.pic == nil {
		return
	}
	C.WebPPictureFree(p.pic)
	C.dealloc_picture(p.pic)
	p.pic = nil
}
