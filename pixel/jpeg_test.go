package pixel

import (
	"errors"
	"testing"
)

func TestJPEGProbe(t *testing.T) {
	if err := JPEGProbe(encodeTestJPEG(t, 8, 8)); err != nil {
		t.Errorf("probe of valid JPEG failed: %v", err)
	}

	if err := JPEGProbe(opaqueBlob(64)); err == nil {
		t.Error("probe of opaque bytes should fail")
	}

	if err := JPEGProbe(nil); err == nil {
		t.Error("probe of empty input should fail")
	}
}

func TestJPEGBaselineDecoder_Decode(t *testing.T) {
	d := NewJPEGBaselineDecoder("1.2.840.10008.1.2.4.50")

	info := &PixelInfo{
		Rows:            8,
		Columns:         8,
		BitsAllocated:   8,
		SamplesPerPixel: 1,
		NumberOfFrames:  1,
	}

	decoded, err := d.Decode(encodeTestJPEG(t, 8, 8), info)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(decoded) != 64 {
		t.Errorf("expected 64 pixel bytes, got %d", len(decoded))
	}
}

func TestJPEGBaselineDecoder_DimensionMismatch(t *testing.T) {
	d := NewJPEGBaselineDecoder("1.2.840.10008.1.2.4.50")

	info := &PixelInfo{
		Rows:            16,
		Columns:         16,
		BitsAllocated:   8,
		SamplesPerPixel: 1,
		NumberOfFrames:  1,
	}

	_, err := d.Decode(encodeTestJPEG(t, 8, 8), info)
	if !errors.Is(err, ErrDecompressionFailed) {
		t.Errorf("expected ErrDecompressionFailed, got %v", err)
	}
}

func TestJPEGBaselineDecoder_EmptyInput(t *testing.T) {
	d := NewJPEGBaselineDecoder("1.2.840.10008.1.2.4.50")

	_, err := d.Decode(nil, &PixelInfo{NumberOfFrames: 1})
	if !errors.Is(err, ErrDecompressionFailed) {
		t.Errorf("expected ErrDecompressionFailed, got %v", err)
	}
}

func TestJPEGBaselineDecoder_DecodeEncapsulatedFrames(t *testing.T) {
	d := NewJPEGBaselineDecoder("1.2.840.10008.1.2.4.50")

	info := &PixelInfo{
		Rows:            8,
		Columns:         8,
		BitsAllocated:   8,
		SamplesPerPixel: 1,
		NumberOfFrames:  2,
	}

	fragments := [][]byte{
		encodeTestJPEG(t, 8, 8),
		encodeTestJPEG(t, 8, 8),
	}

	decoded, err := d.DecodeEncapsulatedFrames(fragments, info)
	if err != nil {
		t.Fatalf("DecodeEncapsulatedFrames failed: %v", err)
	}
	if len(decoded) != 128 {
		t.Errorf("expected 128 pixel bytes for 2 frames, got %d", len(decoded))
	}
}

func TestJPEGBaselineDecoder_DecodeEncapsulatedFrames_FrameShortfall(t *testing.T) {
	d := NewJPEGBaselineDecoder("1.2.840.10008.1.2.4.50")

	info := &PixelInfo{
		Rows:            8,
		Columns:         8,
		BitsAllocated:   8,
		SamplesPerPixel: 1,
		NumberOfFrames:  3,
	}

	fragments := [][]byte{
		encodeTestJPEG(t, 8, 8),
		encodeTestJPEG(t, 8, 8),
	}

	_, err := d.DecodeEncapsulatedFrames(fragments, info)
	if !errors.Is(err, ErrDecompressionFailed) {
		t.Errorf("expected ErrDecompressionFailed, got %v", err)
	}
	if !errors.Is(err, ErrFrameExtraction) {
		t.Errorf("expected wrapped ErrFrameExtraction, got %v", err)
	}
}

func TestGetDecoder_Registered(t *testing.T) {
	d, err := GetDecoder("1.2.840.10008.1.2.4.50")
	if err != nil {
		t.Fatalf("GetDecoder failed: %v", err)
	}
	if d.TransferSyntaxUID() != "1.2.840.10008.1.2.4.50" {
		t.Errorf("unexpected transfer syntax: %s", d.TransferSyntaxUID())
	}
}

func TestGetDecoder_Unknown(t *testing.T) {
	_, err := GetDecoder("1.2.3.4.5")
	if !errors.Is(err, ErrUnsupportedTransferSyntax) {
		t.Errorf("expected ErrUnsupportedTransferSyntax, got %v", err)
	}
}
