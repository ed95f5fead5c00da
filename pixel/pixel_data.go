package pixel

import (
	"fmt"
)

// EncapsulatedFrameDecoder is implemented by decoders that recover frame
// boundaries from the raw fragment list themselves (by probing fragment
// headers) instead of relying on the Basic Offset Table.
type EncapsulatedFrameDecoder interface {
	Decoder
	DecodeEncapsulatedFrames(fragments [][]byte, info *PixelInfo) ([]byte, error)
}

// DecodePixelData decompresses the body of an encapsulated PixelData
// element: it parses the Item/offset-table stream into fragments and runs
// them through the decoder registered for info.TransferSyntaxUID.
//
// Decoders that implement EncapsulatedFrameDecoder receive the raw
// fragment list and regroup it into frames themselves; the fragment-to-
// frame alignment of the source is not trusted. Other decoders get one
// concatenated fragment run per frame, derived from the Basic Offset
// Table (or the one-fragment-per-frame rule when the table is empty).
func DecodePixelData(data []byte, info *PixelInfo) ([]byte, error) {
	encap, err := ParseEncapsulatedPixelData(data)
	if err != nil {
		return nil, fmt.Errorf("parse encapsulated pixel data: %w", err)
	}

	decoder, err := GetDecoder(info.TransferSyntaxUID)
	if err != nil {
		return nil, err
	}

	if fd, ok := decoder.(EncapsulatedFrameDecoder); ok {
		return fd.DecodeEncapsulatedFrames(encap.FragmentData(), info)
	}

	nrFrames := info.NumberOfFrames
	if nrFrames < 1 {
		nrFrames = 1
	}

	out := make([]byte, 0, CalculateExpectedSize(info))
	for i := 0; i < nrFrames; i++ {
		fragments, err := encap.GetFrameFragments(i)
		if err != nil {
			return nil, err
		}
		decoded, err := decoder.Decode(ConcatenateFragments(fragments), info)
		if err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", i, err)
		}
		out = append(out, decoded...)
	}
	return out, nil
}
