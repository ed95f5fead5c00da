// Package pixel handles encapsulated DICOM pixel data: fragment stream
// parsing, frame boundary recovery and decompression of encoded frames.
package pixel

import (
	"encoding/binary"
	"fmt"
)

// DICOM Item Tags for encapsulated pixel data
const (
	// ItemTag is the tag for pixel data fragments (FFFE,E000)
	ItemTag uint16 = 0xE000
	// ItemDelimiterTag is the tag for item delimiters (FFFE,E00D)
	ItemDelimiterTag uint16 = 0xE00D
	// SequenceDelimiterTag is the tag for sequence delimiters (FFFE,E0DD)
	SequenceDelimiterTag uint16 = 0xE0DD
	// ItemTagGroup is the group for all item-related tags
	ItemTagGroup uint16 = 0xFFFE
)

// Fragment represents a single fragment of encapsulated pixel data.
type Fragment struct {
	// Data is the raw fragment data (without Item tag/length header)
	Data []byte
	// Offset is the byte offset of this fragment in the original encapsulated data
	Offset int
}

// BasicOffsetTable contains frame boundary offsets for multi-frame images.
//
// The Basic Offset Table is the first item in encapsulated pixel data and
// contains byte offsets to the first fragment of each frame, relative to
// the first byte following the table. It may legally be empty, in which
// case frame boundaries have to be recovered from the fragments themselves
// (see GroupFrames).
type BasicOffsetTable struct {
	Offsets []uint32
}

// EncapsulatedPixelData represents parsed encapsulated pixel data.
type EncapsulatedPixelData struct {
	BasicOffsetTable BasicOffsetTable
	Fragments        []Fragment
}

// ParseEncapsulatedPixelData parses DICOM encapsulated pixel data into fragments.
//
// Encapsulated pixel data format:
//   - Item (FFFE,E000) + Length: Basic Offset Table (may be empty)
//   - Item (FFFE,E000) + Length: Fragment 1 data
//   - Item (FFFE,E000) + Length: Fragment 2 data
//   - ...
//   - Sequence Delimiter (FFFE,E0DD) + Length: 0
func ParseEncapsulatedPixelData(data []byte) (*EncapsulatedPixelData, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("encapsulated pixel data too short: need at least 8 bytes, got %d", len(data))
	}

	result := &EncapsulatedPixelData{
		Fragments: make([]Fragment, 0),
	}

	cursor := 0
	for item := 0; cursor+8 <= len(data); item++ {
		element, body, next, err := readPixelItem(data, cursor)
		if err != nil {
			return nil, err
		}
		if element == SequenceDelimiterTag {
			break
		}

		// the first item is the Basic Offset Table, not a fragment
		if item == 0 {
			if len(body) > 0 {
				table, err := parseBasicOffsetTable(body)
				if err != nil {
					return nil, fmt.Errorf("parse basic offset table: %w", err)
				}
				result.BasicOffsetTable = *table
			}
		} else {
			result.Fragments = append(result.Fragments, Fragment{
				Data:   body,
				Offset: next - len(body),
			})
		}

		cursor = next
	}

	return result, nil
}

// readPixelItem decodes one Item header at offset, returning its element
// tag, body slice, and the offset of the following item.
func readPixelItem(data []byte, offset int) (element uint16, body []byte, next int, err error) {
	group := binary.LittleEndian.Uint16(data[offset : offset+2])
	element = binary.LittleEndian.Uint16(data[offset+2 : offset+4])
	length := binary.LittleEndian.Uint32(data[offset+4 : offset+8])

	if group != ItemTagGroup || (element != ItemTag && element != SequenceDelimiterTag) {
		return 0, nil, 0, fmt.Errorf("expected Item tag (FFFE,E000), got (%04X,%04X) at offset %d",
			group, element, offset)
	}

	start := offset + 8
	if start+int(length) > len(data) {
		return 0, nil, 0, fmt.Errorf("fragment length %d exceeds available data at offset %d", length, start)
	}

	return element, data[start : start+int(length)], start + int(length), nil
}

func parseBasicOffsetTable(data []byte) (*BasicOffsetTable, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("basic offset table length must be multiple of 4, got %d", len(data))
	}

	offsets := make([]uint32, len(data)/4)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint32(data[i*4 : (i+1)*4])
	}

	return &BasicOffsetTable{Offsets: offsets}, nil
}

// FragmentData returns the raw byte blobs of all fragments in order, the
// form consumed by GroupFrames.
func (e *EncapsulatedPixelData) FragmentData() [][]byte {
	blobs := make([][]byte, len(e.Fragments))
	for i, fragment := range e.Fragments {
		blobs[i] = fragment.Data
	}
	return blobs
}

// GetFrameFragments returns all fragments for a specific frame.
//
// If the Basic Offset Table is present, its offsets determine frame
// boundaries. If the table is empty, each fragment is assumed to be a
// complete frame; use GroupFrames when that assumption cannot be trusted.
func (e *EncapsulatedPixelData) GetFrameFragments(frameIndex int) ([]Fragment, error) {
	if len(e.BasicOffsetTable.Offsets) == 0 {
		if frameIndex >= len(e.Fragments) {
			return nil, fmt.Errorf("frame index %d out of range (have %d fragments)",
				frameIndex, len(e.Fragments))
		}
		return []Fragment{e.Fragments[frameIndex]}, nil
	}

	numFrames := len(e.BasicOffsetTable.Offsets)
	if frameIndex >= numFrames {
		return nil, fmt.Errorf("frame index %d out of range (have %d frames)", frameIndex, numFrames)
	}
	if len(e.Fragments) == 0 {
		return nil, fmt.Errorf("no fragments available for frame %d", frameIndex)
	}

	// table offsets are relative to the first fragment
	firstFragmentOffset := uint32(e.Fragments[0].Offset)
	frameOffset := e.BasicOffsetTable.Offsets[frameIndex]

	var endOffset uint32
	if frameIndex+1 < numFrames {
		endOffset = e.BasicOffsetTable.Offsets[frameIndex+1]
	} else {
		lastFragment := e.Fragments[len(e.Fragments)-1]
		endOffset = uint32(lastFragment.Offset-int(firstFragmentOffset)) + uint32(len(lastFragment.Data))
	}

	frameFragments := make([]Fragment, 0)
	for _, fragment := range e.Fragments {
		fragOffset := uint32(fragment.Offset - int(firstFragmentOffset))
		if fragOffset >= frameOffset && fragOffset < endOffset {
			frameFragments = append(frameFragments, fragment)
		}
	}

	if len(frameFragments) == 0 {
		return nil, fmt.Errorf("no fragments found for frame %d (offset %d to %d)",
			frameIndex, frameOffset, endOffset)
	}

	return frameFragments, nil
}

// ConcatenateFragments concatenates multiple fragments into a single byte slice.
func ConcatenateFragments(fragments []Fragment) []byte {
	totalSize := 0
	for _, fragment := range fragments {
		totalSize += len(fragment.Data)
	}

	result := make([]byte, 0, totalSize)
	for _, fragment := range fragments {
		result = append(result, fragment.Data...)
	}
	return result
}

// NumFrames returns the number of frames in the encapsulated pixel data.
//
// If the Basic Offset Table is present, it returns the number of offsets.
// Otherwise, it returns the number of fragments (assuming one fragment per frame).
func (e *EncapsulatedPixelData) NumFrames() int {
	if len(e.BasicOffsetTable.Offsets) > 0 {
		return len(e.BasicOffsetTable.Offsets)
	}
	return len(e.Fragments)
}
