package pixel

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// JPEGProbe attempts a header-only decode of a JPEG stream. It is the
// Probe used by GroupFrames for JPEG transfer syntaxes: only the
// SOI/frame-header metadata is parsed, no pixel decoding happens.
func JPEGProbe(data []byte) error {
	_, err := jpeg.DecodeConfig(bytes.NewReader(data))
	return err
}

// JPEGBaselineDecoder implements JPEG Baseline decompression using stdlib image/jpeg.
//
// JPEG Baseline is specified in:
//   - Transfer Syntax 1.2.840.10008.1.2.4.50: JPEG Baseline (Process 1) - 8-bit lossy
//   - Transfer Syntax 1.2.840.10008.1.2.4.51: JPEG Baseline (Processes 2 & 4) - 8-bit and 12-bit lossy
//
// This decoder uses Go's standard library image/jpeg package, which
// supports 8-bit JPEG Baseline compression. For 12-bit JPEG (Process 4),
// this decoder may not work correctly.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_8.2.1
type JPEGBaselineDecoder struct {
	transferSyntaxUID string
}

// NewJPEGBaselineDecoder creates a new JPEG Baseline decoder for a specific transfer syntax.
func NewJPEGBaselineDecoder(transferSyntaxUID string) *JPEGBaselineDecoder {
	return &JPEGBaselineDecoder{
		transferSyntaxUID: transferSyntaxUID,
	}
}

// DecodeEncapsulatedFrames decompresses a fragmented multi-frame JPEG
// object into raw pixel bytes.
//
// Embedded JPEG frames can span multiple fragments and the fragment list
// carries no frame alignment, so the fragments are first regrouped into a
// 1:1 frame mapping via header probing, then each frame is decoded and
// the results concatenated in frame order.
func (d *JPEGBaselineDecoder) DecodeEncapsulatedFrames(fragments [][]byte, info *PixelInfo) ([]byte, error) {
	nrFrames := info.NumberOfFrames
	if nrFrames < 1 {
		nrFrames = 1
	}

	frames, err := GroupFrames(nrFrames, fragments, JPEGProbe)
	if err != nil {
		return nil, &DecompressionError{
			TransferSyntaxUID: d.transferSyntaxUID,
			Cause:             err,
		}
	}

	out := make([]byte, 0, CalculateExpectedSize(info))
	for i, frame := range frames {
		decoded, err := d.Decode(frame, info)
		if err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", i, err)
		}
		out = append(out, decoded...)
	}
	return out, nil
}

// Decode decompresses one JPEG Baseline encoded frame.
//
// The encapsulated data must be a complete JPEG stream. This decoder:
//  1. Decodes the JPEG stream using image/jpeg.Decode()
//  2. Converts the resulting image.Image to raw pixel bytes
//  3. Returns the decompressed pixel data in the expected format
//
// For grayscale images, returns 8-bit grayscale data.
// For RGB images, returns interleaved RGB data (RGBRGBRGB...).
func (d *JPEGBaselineDecoder) Decode(encapsulated []byte, info *PixelInfo) ([]byte, error) {
	if len(encapsulated) == 0 {
		return nil, &DecompressionError{
			TransferSyntaxUID: d.transferSyntaxUID,
			Cause:             fmt.Errorf("empty JPEG data"),
		}
	}

	img, err := jpeg.Decode(bytes.NewReader(encapsulated))
	if err != nil {
		return nil, &DecompressionError{
			TransferSyntaxUID: d.transferSyntaxUID,
			Cause:             fmt.Errorf("JPEG decode failed: %w", err),
		}
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width != int(info.Columns) || height != int(info.Rows) {
		return nil, &DecompressionError{
			TransferSyntaxUID: d.transferSyntaxUID,
			Cause: fmt.Errorf("image dimensions mismatch: got %dx%d, expected %dx%d",
				width, height, info.Columns, info.Rows),
		}
	}

	var pixelData []byte

	switch imgTyped := img.(type) {
	case *image.Gray:
		if info.SamplesPerPixel != 1 {
			return nil, &DecompressionError{
				TransferSyntaxUID: d.transferSyntaxUID,
				Cause:             fmt.Errorf("grayscale image but SamplesPerPixel=%d (expected 1)", info.SamplesPerPixel),
			}
		}
		pixelData = imgTyped.Pix

	case *image.YCbCr:
		if info.SamplesPerPixel != 3 {
			return nil, &DecompressionError{
				TransferSyntaxUID: d.transferSyntaxUID,
				Cause:             fmt.Errorf("color image but SamplesPerPixel=%d (expected 3)", info.SamplesPerPixel),
			}
		}
		pixelData = ycbcrToRGB(imgTyped)

	case *image.RGBA:
		if info.SamplesPerPixel != 3 {
			return nil, &DecompressionError{
				TransferSyntaxUID: d.transferSyntaxUID,
				Cause:             fmt.Errorf("color image but SamplesPerPixel=%d (expected 3)", info.SamplesPerPixel),
			}
		}
		pixelData = rgbaToRGB(imgTyped)

	case *image.NRGBA:
		if info.SamplesPerPixel != 3 {
			return nil, &DecompressionError{
				TransferSyntaxUID: d.transferSyntaxUID,
				Cause:             fmt.Errorf("color image but SamplesPerPixel=%d (expected 3)", info.SamplesPerPixel),
			}
		}
		pixelData = nrgbaToRGB(imgTyped)

	default:
		return nil, &DecompressionError{
			TransferSyntaxUID: d.transferSyntaxUID,
			Cause:             fmt.Errorf("unsupported image type: %T", img),
		}
	}

	// validate against the size of a single frame
	frameInfo := *info
	frameInfo.NumberOfFrames = 1
	expectedSize := CalculateExpectedSize(&frameInfo)
	if len(pixelData) != expectedSize {
		return nil, &DecompressionError{
			TransferSyntaxUID: d.transferSyntaxUID,
			Cause:             fmt.Errorf("decompressed size mismatch: got %d bytes, expected %d bytes", len(pixelData), expectedSize),
		}
	}

	return pixelData, nil
}

// TransferSyntaxUID returns the transfer syntax UID this decoder handles.
func (d *JPEGBaselineDecoder) TransferSyntaxUID() string {
	return d.transferSyntaxUID
}

// ycbcrToRGB converts an image.YCbCr to interleaved RGB bytes.
//
// JPEG images are often decoded as YCbCr, but DICOM expects RGB for
// 3-channel pixel data.
func ycbcrToRGB(img *image.YCbCr) []byte {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	rgb := make([]byte, width*height*3)
	idx := 0

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			yi := img.YOffset(x, y)
			ci := img.COffset(x, y)

			yy := int32(img.Y[yi])
			cb := int32(img.Cb[ci])
			cr := int32(img.Cr[ci])

			// JPEG color space conversion:
			// R = Y + 1.402 * (Cr - 128)
			// G = Y - 0.344136 * (Cb - 128) - 0.714136 * (Cr - 128)
			// B = Y + 1.772 * (Cb - 128)
			r := yy + (91881*(cr-128))>>16
			g := yy - (22554*(cb-128))>>16 - (46802*(cr-128))>>16
			b := yy + (116130*(cb-128))>>16

			rgb[idx] = clampUint8(r)
			rgb[idx+1] = clampUint8(g)
			rgb[idx+2] = clampUint8(b)
			idx += 3
		}
	}

	return rgb
}

// rgbaToRGB extracts RGB bytes from image.RGBA (discarding alpha channel).
func rgbaToRGB(img *image.RGBA) []byte {
	return stripAlpha(img.Pix, img.Bounds().Dx(), img.Bounds().Dy())
}

// nrgbaToRGB extracts RGB bytes from image.NRGBA (discarding alpha channel).
func nrgbaToRGB(img *image.NRGBA) []byte {
	return stripAlpha(img.Pix, img.Bounds().Dx(), img.Bounds().Dy())
}

func stripAlpha(pix []byte, width, height int) []byte {
	rgb := make([]byte, width*height*3)
	srcIdx := 0
	dstIdx := 0

	for i := 0; i < width*height; i++ {
		rgb[dstIdx] = pix[srcIdx]
		rgb[dstIdx+1] = pix[srcIdx+1]
		rgb[dstIdx+2] = pix[srcIdx+2]
		srcIdx += 4
		dstIdx += 3
	}

	return rgb
}

// clampUint8 clamps an int32 value to the uint8 range [0, 255].
func clampUint8(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func init() {
	// JPEG Baseline (Process 1) and (Processes 2 & 4)
	RegisterDecoder("1.2.840.10008.1.2.4.50", NewJPEGBaselineDecoder("1.2.840.10008.1.2.4.50"))
	RegisterDecoder("1.2.840.10008.1.2.4.51", NewJPEGBaselineDecoder("1.2.840.10008.1.2.4.51"))
}
