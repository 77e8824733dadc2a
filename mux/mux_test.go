package mux_test

import (
	"bytes"
	"image"
	"testing"
	"time"

	"github.com/deepteams/libwebp"
	"github.com/deepteams/libwebp/animation"
	"github.com/deepteams/libwebp/mux"
)

// staticWebP returns a small encoded still image.
func staticWebP(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	data, err := webp.EncodeBytes(img, &webp.EncoderOptions{Lossless: true})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// animatedWebP returns a two frame animation.
func animatedWebP(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc, err := animation.NewEncoder(&buf, 8, 8, &animation.EncodeOptions{LoopCount: 3})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
		for p := 3; p < len(img.Pix); p += 4 {
			img.Pix[p] = 255
		}
		if err := enc.AddFrame(img, 100*time.Millisecond); err != nil {
			t.Fatal(err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSetGetChunk(t *testing.T) {
	base := staticWebP(t)

	for _, id := range []mux.ChunkID{mux.ChunkICCP, mux.ChunkEXIF, mux.ChunkXMP} {
		payload := []byte("payload for " + string(id))
		data, err := mux.SetChunk(base, id, payload)
		if err != nil {
			t.Fatalf("SetChunk(%q): %v", id, err)
		}
		got, err := mux.GetChunk(data, id)
		if err != nil {
			t.Fatalf("GetChunk(%q): %v", id, err)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("chunk %q payload mismatch", id)
		}
		// The base file must not carry the chunk.
		if _, err := mux.GetChunk(base, id); err == nil {
			t.Errorf("chunk %q unexpectedly present in base file", id)
		}
	}
}

func TestSetChunk_Replaces(t *testing.T) {
	data, err := mux.SetEXIF(staticWebP(t), []byte("first"))
	if err != nil {
		t.Fatal(err)
	}
	data, err = mux.SetEXIF(data, []byte("second"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := mux.GetEXIF(data)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("EXIF = %q, want %q", got, "second")
	}
}

func TestDeleteChunk(t *testing.T) {
	data, err := mux.SetXMP(staticWebP(t), []byte("<x/>"))
	if err != nil {
		t.Fatal(err)
	}
	data, err = mux.DeleteXMP(data)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mux.GetXMP(data); err != mux.ErrChunkNotFound {
		t.Errorf("GetXMP after delete = %v, want ErrChunkNotFound", err)
	}
	// The image itself survives the rewrite.
	if _, err := webp.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("decoding after delete: %v", err)
	}
}

func TestDeleteChunk_Missing(t *testing.T) {
	if _, err := mux.DeleteEXIF(staticWebP(t)); err == nil {
		t.Error("expected error deleting a chunk that is not present")
	}
}

func TestGetChunk_NotFound(t *testing.T) {
	if _, err := mux.GetICCProfile(staticWebP(t)); err != mux.ErrChunkNotFound {
		t.Errorf("err = %v, want ErrChunkNotFound", err)
	}
}

func TestChunk_DecodeStillWorks(t *testing.T) {
	data, err := mux.SetICCProfile(staticWebP(t), []byte("fake profile"))
	if err != nil {
		t.Fatal(err)
	}
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("width = %d, want 8", img.Bounds().Dx())
	}
	feat, err := webp.GetFeatures(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if feat.Format != "extended" {
		t.Errorf("format = %q, want extended", feat.Format)
	}
}

func TestEmptyInput(t *testing.T) {
	if _, err := mux.GetChunk(nil, mux.ChunkEXIF); err != mux.ErrEmptyInput {
		t.Errorf("GetChunk(nil) = %v, want ErrEmptyInput", err)
	}
	if _, err := mux.SetChunk(nil, mux.ChunkEXIF, []byte("x")); err != mux.ErrEmptyInput {
		t.Errorf("SetChunk(nil) = %v, want ErrEmptyInput", err)
	}
	if _, err := mux.DeleteChunk(nil, mux.ChunkEXIF); err != mux.ErrEmptyInput {
		t.Errorf("DeleteChunk(nil) = %v, want ErrEmptyInput", err)
	}
}

func TestInvalidInput(t *testing.T) {
	if _, err := mux.SetEXIF([]byte("not a webp"), []byte("x")); err == nil {
		t.Error("expected error for invalid input")
	}
}

func TestAnimationParams(t *testing.T) {
	data := animatedWebP(t)

	p, err := mux.GetAnimationParams(data)
	if err != nil {
		t.Fatal(err)
	}
	if p.LoopCount != 3 {
		t.Errorf("loop count = %d, want 3", p.LoopCount)
	}

	p.LoopCount = 12
	p.BackgroundColor = 0xFF102030
	data, err = mux.SetAnimationParams(data, p)
	if err != nil {
		t.Fatal(err)
	}

	got, err := mux.GetAnimationParams(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.LoopCount != 12 {
		t.Errorf("loop count = %d, want 12", got.LoopCount)
	}
	if got.BackgroundColor != 0xFF102030 {
		t.Errorf("background = %#x, want 0xFF102030", got.BackgroundColor)
	}
}

func TestAnimationParams_StillImage(t *testing.T) {
	if _, err := mux.GetAnimationParams(staticWebP(t)); err == nil {
		t.Error("expected error reading animation params from a still image")
	}
}

func TestAnimationParams_LoopClamped(t *testing.T) {
	data := animatedWebP(t)
	out, err := mux.SetAnimationParams(data, mux.AnimationParams{LoopCount: 1 << 20})
	if err != nil {
		t.Fatal(err)
	}
	got, err := mux.GetAnimationParams(out)
	if err != nil {
		t.Fatal(err)
	}
	if got.LoopCount != 0xFFFF {
		t.Errorf("loop count = %d, want 65535", got.LoopCount)
	}
}

func TestChunkOnAnimation(t *testing.T) {
	// Metadata chunks coexist with animation chunks.
	data, err := mux.SetXMP(animatedWebP(t), []byte("<meta/>"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := mux.GetXMP(data)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "<meta/>" {
		t.Errorf("XMP = %q", got)
	}
	frames, err := animation.DecodeAll(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 2 {
		t.Errorf("frame count = %d, want 2", len(frames))
	}
}
