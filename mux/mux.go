// Package mux provides chunk-level metadata editing for WebP files through
// the libwebpmux C library.
//
// It reads, inserts, replaces and removes ICCP/EXIF/XMP chunks on complete
// WebP files (still or animated) and exposes the container's animation
// parameters. All RIFF assembly is performed by WebPMux; this package only
// marshals byte slices across the C boundary.
package mux

/*
#cgo LDFLAGS: -lwebpmux -lwebp

#include <stdlib.h>
#include <webp/mux.h>

// WebPData values are built on the C side so that no C-visible memory holds
// a Go pointer (cgo pointer-passing rules). copy_data=1 everywhere: the mux
// owns its copies and the Go slices may be collected freely afterwards.
static WebPMux* mux_create(const uint8_t* data, size_t size) {
	WebPData webp_data = {data, size};
	return WebPMuxCreate(&webp_data, 1);
}

static WebPMuxError mux_set_chunk(WebPMux* mux, const char* fourcc,
                                  const uint8_t* data, size_t size) {
	WebPData chunk = {data, size};
	return WebPMuxSetChunk(mux, fourcc, &chunk, 1);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"
)

// ChunkID identifies a metadata chunk by its RIFF FourCC.
type ChunkID string

const (
	ChunkICCP ChunkID = "ICCP"
	ChunkEXIF ChunkID = "EXIF"
	ChunkXMP  ChunkID = "XMP " // note the trailing space in the FourCC
)

// maxLoopCount is the maximum animation loop count (16-bit max).
// This matches the C libwebp MAX_LOOP_COUNT constant.
const maxLoopCount = 0xFFFF

var (
	ErrEmptyInput    = errors.New("mux: empty input")
	ErrChunkNotFound = errors.New("mux: chunk not found")
	ErrBadData       = errors.New("mux: malformed WebP data")
)

// AnimationParams mirrors WebPMuxAnimParams: the global ANIM chunk fields.
type AnimationParams struct {
	// BackgroundColor is the canvas background packed as ARGB (alpha in the
	// most significant byte), as stored in the ANIM chunk.
	BackgroundColor uint32

	// LoopCount is the number of times to play the animation (0 = infinite).
	LoopCount int
}

// muxErr maps a WebPMuxError to a Go error.
func muxErr(op string, code C.WebPMuxError) error {
	switch code {
	case C.WEBP_MUX_OK:
		return nil
	case C.WEBP_MUX_NOT_FOUND:
		return ErrChunkNotFound
	case C.WEBP_MUX_INVALID_ARGUMENT:
		return fmt.Errorf("mux: %s: invalid argument", op)
	case C.WEBP_MUX_BAD_DATA:
		return ErrBadData
	case C.WEBP_MUX_MEMORY_ERROR:
		return fmt.Errorf("mux: %s: out of memory", op)
	case C.WEBP_MUX_NOT_ENOUGH_DATA:
		return fmt.Errorf("mux: %s: not enough data", op)
	default:
		return fmt.Errorf("mux: %s: error %d", op, int(code))
	}
}

// create builds a WebPMux from complete file bytes. The caller must delete it.
func create(data []byte) (*C.WebPMux, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	m := C.mux_create((*C.uint8_t)(unsafe.Pointer(&data[0])), C.size_t(len(data)))
	if m == nil {
		return nil, ErrBadData
	}
	return m, nil
}

// assemble serializes the mux back into complete file bytes.
func assemble(m *C.WebPMux) ([]byte, error) {
	var out C.WebPData
	if err := muxErr("assemble", C.WebPMuxAssemble(m, &out)); err != nil {
		return nil, err
	}
	defer C.WebPDataClear(&out)
	return C.GoBytes(unsafe.Pointer(out.bytes), C.int(out.size)), nil
}

// GetChunk returns the payload of the given metadata chunk, or
// ErrChunkNotFound if the file carries no such chunk.
func GetChunk(data []byte, id ChunkID) ([]byte, error) {
	m, err := create(data)
	if err != nil {
		return nil, err
	}
	defer C.WebPMuxDelete(m)

	fourcc := C.CString(string(id))
	defer C.free(unsafe.Pointer(fourcc))

	var chunk C.WebPData
	if err := muxErr("get chunk", C.WebPMuxGetChunk(m, fourcc, &chunk)); err != nil {
		return nil, err
	}
	// chunk.bytes points into mux-owned memory; copy before the mux is freed.
	return C.GoBytes(unsafe.Pointer(chunk.bytes), C.int(chunk.size)), nil
}

// SetChunk inserts or replaces a metadata chunk and returns the new file bytes.
func SetChunk(data []byte, id ChunkID, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyInput
	}
	m, err := create(data)
	if err != nil {
		return nil, err
	}
	defer C.WebPMuxDelete(m)

	fourcc := C.CString(string(id))
	defer C.free(unsafe.Pointer(fourcc))

	code := C.mux_set_chunk(m, fourcc,
		(*C.uint8_t)(unsafe.Pointer(&payload[0])), C.size_t(len(payload)))
	if err := muxErr("set chunk", code); err != nil {
		return nil, err
	}
	return assemble(m)
}

// DeleteChunk removes a metadata chunk and returns the new file bytes.
// Returns ErrChunkNotFound if the file carries no such chunk.
func DeleteChunk(data []byte, id ChunkID) ([]byte, error) {
	m, err := create(data)
	if err != nil {
		return nil, err
	}
	defer C.WebPMuxDelete(m)

	fourcc := C.CString(string(id))
	defer C.free(unsafe.Pointer(fourcc))

	if err := muxErr("delete chunk", C.WebPMuxDeleteChunk(m, fourcc)); err != nil {
		return nil, err
	}
	return assemble(m)
}

// GetICCProfile returns the embedded ICC color profile.
func GetICCProfile(data []byte) ([]byte, error) { return GetChunk(data, ChunkICCP) }

// SetICCProfile embeds an ICC color profile, replacing any existing one.
func SetICCProfile(data, profile []byte) ([]byte, error) { return SetChunk(data, ChunkICCP, profile) }

// DeleteICCProfile removes the embedded ICC color profile.
func DeleteICCProfile(data []byte) ([]byte, error) { return DeleteChunk(data, ChunkICCP) }

// GetEXIF returns the embedded EXIF metadata.
func GetEXIF(data []byte) ([]byte, error) { return GetChunk(data, ChunkEXIF) }

// SetEXIF embeds EXIF metadata, replacing any existing chunk.
func SetEXIF(data, metadata []byte) ([]byte, error) { return SetChunk(data, ChunkEXIF, metadata) }

// DeleteEXIF removes the embedded EXIF metadata.
func DeleteEXIF(data []byte) ([]byte, error) { return DeleteChunk(data, ChunkEXIF) }

// GetXMP returns the embedded XMP metadata.
func GetXMP(data []byte) ([]byte, error) { return GetChunk(data, ChunkXMP) }

// SetXMP embeds XMP metadata, replacing any existing chunk.
func SetXMP(data, metadata []byte) ([]byte, error) { return SetChunk(data, ChunkXMP, metadata) }

// DeleteXMP removes the embedded XMP metadata.
func DeleteXMP(data []byte) ([]byte, error) { return DeleteChunk(data, ChunkXMP) }

// GetAnimationParams reads the ANIM chunk parameters of an animated file.
func GetAnimationParams(data []byte) (AnimationParams, error) {
	m, err := create(data)
	if err != nil {
		return AnimationParams{}, err
	}
	defer C.WebPMuxDelete(m)

	var params C.WebPMuxAnimParams
	if err := muxErr("get animation params", C.WebPMuxGetAnimationParams(m, &params)); err != nil {
		return AnimationParams{}, err
	}
	return AnimationParams{
		BackgroundColor: uint32(params.bgcolor),
		LoopCount:       int(params.loop_count),
	}, nil
}

// SetAnimationParams rewrites the ANIM chunk parameters and returns the new
// file bytes. The loop count is clamped to [0, 65535].
func SetAnimationParams(data []byte, p AnimationParams) ([]byte, error) {
	m, err := create(data)
	if err != nil {
		return nil, err
	}
	defer C.WebPMuxDelete(m)

	loop := p.LoopCount
	if loop < 0 {
		loop = 0
	}
	if loop > maxLoopCount {
		loop = maxLoopCount
	}
	params := C.WebPMuxAnimParams{
		bgcolor:    C.uint32_t(p.BackgroundColor),
		loop_count: C.int(loop),
	}
	if err := muxErr("set animation params", C.WebPMuxSetAnimationParams(m, &params)); err != nil {
		return nil, err
	}
	return assemble(m)
}
