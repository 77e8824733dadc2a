package webp

/*
#cgo LDFLAGS: -lwebpmux -lwebpdemux -lwebp

#include <stdlib.h>
#include <string.h>
#include <webp/decode.h>
#include <webp/encode.h>
#include <webp/demux.h>

// probe_container reads container-level properties (frame count, loop count,
// VP8X feature flags) through the demux API. WebPData is built on the C side
// so no Go pointer ends up stored in C-visible memory.
static int probe_container(const uint8_t* data, size_t size,
                           int* frame_count, int* loop_count,
                           uint32_t* format_flags) {
	WebPData webp_data = {data, size};
	WebPDemuxer* demux = WebPDemux(&webp_data);
	if (demux == NULL) {
		return 0;
	}
	*frame_count = (int)WebPDemuxGetI(demux, WEBP_FF_FRAME_COUNT);
	*loop_count = (int)WebPDemuxGetI(demux, WEBP_FF_LOOP_COUNT);
	*format_flags = WebPDemuxGetI(demux, WEBP_FF_FORMAT_FLAGS);
	WebPDemuxDelete(demux);
	return 1;
}

// decode_first_frame composes the first frame of an animated file into dst
// (canvas width*height*4 bytes of RGBA). The simple decode API rejects
// animated bitstreams, so this goes through WebPAnimDecoder.
static int decode_first_frame(const uint8_t* data, size_t size,
                              uint8_t* dst, size_t dst_size) {
	WebPData webp_data = {data, size};
	WebPAnimDecoderOptions opts;
	WebPAnimDecoder* dec;
	uint8_t* frame;
	int timestamp;
	if (!WebPAnimDecoderOptionsInit(&opts)) {
		return 0;
	}
	opts.color_mode = MODE_RGBA;
	dec = WebPAnimDecoderNew(&webp_data, &opts);
	if (dec == NULL) {
		return 0;
	}
	if (!WebPAnimDecoderGetNext(dec, &frame, &timestamp)) {
		WebPAnimDecoderDelete(dec);
		return 0;
	}
	memcpy(dst, frame, dst_size);
	WebPAnimDecoderDelete(dec);
	return 1;
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// buildConfig assembles a WebPConfig from EncoderOptions. The preset is
// applied first via WebPConfigPreset; explicitly-set fields then override the
// preset tuning. Sentinel (-1) fields are left at whatever value the preset
// chose. The result is checked with WebPValidateConfig.
func buildConfig(opts *EncoderOptions) (C.WebPConfig, error) {
	var cfg C.WebPConfig
	if C.WebPConfigPreset(&cfg, C.WebPPreset(opts.Preset), C.float(opts.Quality)) == 0 {
		return cfg, fmt.Errorf("webp: initializing encoder config (version mismatch?)")
	}

	if opts.Lossless {
		cfg.lossless = 1
	}
	cfg.method = C.int(opts.Method)
	cfg.target_size = C.int(opts.TargetSize)
	cfg.target_PSNR = C.float(opts.TargetPSNR)
	cfg.autofilter = cbool(opts.AutoFilter)
	cfg.partitions = C.int(opts.Partitions)
	cfg.exact = cbool(opts.Exact)
	cfg.use_sharp_yuv = cbool(opts.UseSharpYUV)
	cfg.filter_type = C.int(resolveFilterType(opts.FilterType))
	cfg.near_lossless = C.int(resolveNearLossless(opts.NearLossless))
	cfg.qmin = C.int(opts.QMin)
	cfg.qmax = C.int(resolveQMax(opts.QMax))
	cfg.alpha_compression = C.int(resolveAlphaCompression(opts.AlphaCompression))
	cfg.alpha_filtering = C.int(resolveAlphaFiltering(opts.AlphaFiltering))
	cfg.alpha_quality = C.int(resolveAlphaQuality(opts.AlphaQuality))

	// Preset-tuned fields: only override when explicitly set, so that e.g.
	// PresetText's segment count survives an untouched EncoderOptions field.
	if opts.SNSStrength >= 0 {
		cfg.sns_strength = C.int(opts.SNSStrength)
	}
	if opts.FilterStrength >= 0 {
		cfg.filter_strength = C.int(opts.FilterStrength)
	}
	if opts.FilterSharpness != 0 {
		cfg.filter_sharpness = C.int(opts.FilterSharpness)
	}
	if opts.Preprocessing != 0 {
		cfg.preprocessing = C.int(opts.Preprocessing)
	}
	if opts.Segments > 0 {
		cfg.segments = C.int(opts.Segments)
	}
	if opts.Pass > 0 {
		cfg.pass = C.int(opts.Pass)
	}

	if C.WebPValidateConfig(&cfg) == 0 {
		return cfg, fmt.Errorf("webp: WebPValidateConfig rejected encoder options")
	}
	return cfg, nil
}

// cbool converts a Go bool to a C int flag.
func cbool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

// bitstreamFormat values reported by WebPGetFeatures.
const (
	formatUndefined = 0
	formatLossy     = 1
	formatLossless  = 2
)

// bitstreamFeatures is the Go-side mirror of WebPBitstreamFeatures.
type bitstreamFeatures struct {
	Width        int
	Height       int
	HasAlpha     bool
	HasAnimation bool
	Format       int // formatUndefined, formatLossy or formatLossless
}

// getBitstreamFeatures runs WebPGetFeatures on a complete WebP file.
func getBitstreamFeatures(data []byte) (*bitstreamFeatures, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	var f C.WebPBitstreamFeatures
	status := C.WebPGetFeatures(
		(*C.uint8_t)(unsafe.Pointer(&data[0])), C.size_t(len(data)), &f,
	)
	if status != C.VP8_STATUS_OK {
		return nil, fmt.Errorf("webp: WebPGetFeatures: %s", vp8StatusString(status))
	}
	return &bitstreamFeatures{
		Width:        int(f.width),
		Height:       int(f.height),
		HasAlpha:     f.has_alpha != 0,
		HasAnimation: f.has_animation != 0,
		Format:       int(f.format),
	}, nil
}

// containerInfo holds demux-level container properties.
type containerInfo struct {
	FrameCount  int
	LoopCount   int
	FormatFlags uint32 // VP8X feature flags; 0 for simple (non-extended) files
}

// probeContainer reads frame count, loop count and VP8X flags without
// decoding pixel data. Returns ok=false if the demuxer rejects the data.
func probeContainer(data []byte) (containerInfo, bool) {
	if len(data) == 0 {
		return containerInfo{}, false
	}
	var frames, loops C.int
	var flags C.uint32_t
	ok := C.probe_container(
		(*C.uint8_t)(unsafe.Pointer(&data[0])), C.size_t(len(data)),
		&frames, &loops, &flags,
	)
	if ok == 0 {
		return containerInfo{}, false
	}
	return containerInfo{
		FrameCount:  int(frames),
		LoopCount:   int(loops),
		FormatFlags: uint32(flags),
	}, true
}

// decodeFirstFrame decodes the composed first frame of an animated file into
// pix, which must hold canvas width*height*4 bytes of RGBA.
func decodeFirstFrame(data, pix []byte) bool {
	ok := C.decode_first_frame(
		(*C.uint8_t)(unsafe.Pointer(&data[0])), C.size_t(len(data)),
		(*C.uint8_t)(unsafe.Pointer(&pix[0])), C.size_t(len(pix)),
	)
	return ok != 0
}

// vp8StatusString names a VP8StatusCode for error messages.
func vp8StatusString(status C.VP8StatusCode) string {
	switch status {
	case C.VP8_STATUS_OK:
		return "ok"
	case C.VP8_STATUS_OUT_OF_MEMORY:
		return "out of memory"
	case C.VP8_STATUS_INVALID_PARAM:
		return "invalid parameter"
	case C.VP8_STATUS_BITSTREAM_ERROR:
		return "bitstream error"
	case C.VP8_STATUS_UNSUPPORTED_FEATURE:
		return "unsupported feature"
	case C.VP8_STATUS_SUSPENDED:
		return "suspended"
	case C.VP8_STATUS_USER_ABORT:
		return "user abort"
	case C.VP8_STATUS_NOT_ENOUGH_DATA:
		return "not enough data"
	default:
		return fmt.Sprintf("status %d", int(status))
	}
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
	case C.VP8_ENC_ERROR_PARTITION0_OVERFLOW:
		return "partition 0 is too big to fit 512k"
	case C.VP8_ENC_ERROR_PARTITION_OVERFLOW:
		return "partition is too big to fit 16M"
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
