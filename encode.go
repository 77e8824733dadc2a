package webp

import (
	"fmt"
	"image"
	"io"

	"github.com/deepteams/libwebp/mux"
)

// Encode writes the image img to w in WebP format.
// If opts is nil, DefaultOptions() is used.
// Returns an error if opts contains invalid parameter values.
//
// When opts carries ICC, EXIF or XMP payloads, the encoded bitstream is
// re-muxed into the VP8X extended format with the corresponding chunks.
func Encode(w io.Writer, img image.Image, opts *EncoderOptions) error {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := validateOptions(opts); err != nil {
		return err
	}

	imgW, imgH := img.Bounds().Dx(), img.Bounds().Dy()
	if imgW > MaxDimension || imgH > MaxDimension {
		return fmt.Errorf("webp: image dimension %dx%d exceeds maximum %d", imgW, imgH, MaxDimension)
	}

	pic, err := NewPictureFromImage(img)
	if err != nil {
		return err
	}
	defer pic.Close()

	data, err := pic.Encode(opts)
	if err != nil {
		return err
	}

	data, err = attachMetadata(data, opts)
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("webp: writing output: %w", err)
	}
	return nil
}

// attachMetadata muxes ICC/EXIF/XMP chunks into an encoded file. Returns the
// input unchanged when no metadata is set.
func attachMetadata(data []byte, opts *EncoderOptions) ([]byte, error) {
	if opts.ICC == nil && opts.EXIF == nil && opts.XMP == nil {
		return data, nil
	}
	var err error
	if opts.ICC != nil {
		if data, err = mux.SetICCProfile(data, opts.ICC); err != nil {
			return nil, fmt.Errorf("webp: embedding ICC profile: %w", err)
		}
	}
	if opts.EXIF != nil {
		if data, err = mux.SetEXIF(data, opts.EXIF); err != nil {
			return nil, fmt.Errorf("webp: embedding EXIF metadata: %w", err)
		}
	}
	if opts.XMP != nil {
		if data, err = mux.SetXMP(data, opts.XMP); err != nil {
			return nil, fmt.Errorf("webp: embedding XMP metadata: %w", err)
		}
	}
	return data, nil
}

// EncodeBytes is a convenience wrapper returning the encoded file as a byte
// slice instead of writing to an io.Writer.
func EncodeBytes(img image.Image, opts *EncoderOptions) ([]byte, error) {
	pic, err := NewPictureFromImage(img)
	if err != nil {
		return nil, err
	}
	defer pic.Close()

	if opts == nil {
		opts = DefaultOptions()
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	data, err := pic.Encode(opts)
	if err != nil {
		return nil, err
	}
	return attachMetadata(data, opts)
}
