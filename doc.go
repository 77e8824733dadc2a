// Package webp provides cgo bindings for encoding and decoding WebP images
// with the libwebp C library.
//
// WebP is a modern image format developed by Google that provides superior
// lossless and lossy compression for images on the web. This package does not
// reimplement any codec logic: all pixel-format conversion, compression, and
// RIFF container packing is performed by libwebp. The Go layer mirrors the
// library's config/picture/encoder/decoder object model and marshals pixel
// data between image.Image and libwebp's raw buffer layout.
//
// Building requires the libwebp development headers (libwebp, libwebpmux and
// libwebpdemux) to be installed on the system.
//
// The package supports:
//   - Lossy encoding and decoding (VP8)
//   - Lossless encoding and decoding (VP8L)
//   - Alpha channel
//   - Extended format (VP8X) with ICC, EXIF, XMP metadata
//   - Animation (ANIM/ANMF) through the animation subpackage
//
// Basic usage for decoding:
//
//	img, err := webp.Decode(reader)
//
// Basic usage for encoding:
//
//	err := webp.Encode(writer, img, &webp.EncoderOptions{Quality: 80})
package webp
