package pixel

import (
	"fmt"
)

// Probe attempts a header-only parse of an encoded image. It returns nil
// when the blob begins a decodable image and an error otherwise. Probes
// must be total over arbitrary byte input.
type Probe func(data []byte) error

// GroupFrames partitions an ordered fragment list into nrFrames encoded
// frames.
//
// Encoded frames can span multiple fragments and the encapsulated stream
// carries no per-frame length, so the fragment-to-frame mapping is
// recovered by probing: a fragment whose header probes as a decodable
// image starts a new frame, anything else continues the previous one.
// The declared fragment count is deliberately not trusted.
//
// Every input byte ends up in exactly one output frame, in order. A probe
// failure on the very first fragment is a decoding failure, as is ending
// up with a number of frames different from nrFrames.
func GroupFrames(nrFrames int, fragments [][]byte, probe Probe) ([][]byte, error) {
	if nrFrames < 1 {
		return nil, fmt.Errorf("number of frames must be at least 1, got %d", nrFrames)
	}

	frames := make([][]byte, nrFrames)
	current := 0

	for _, fragment := range fragments {
		err := probe(fragment)
		switch {
		case err == nil:
			if current == nrFrames {
				// more frame starts than declared frames
				return nil, ErrFrameExtraction
			}
			frames[current] = append(frames[current], fragment...)
			current++
		case current > 0:
			// not the start of a new frame, continue the previous one
			frames[current-1] = append(frames[current-1], fragment...)
		default:
			return nil, fmt.Errorf("probe first fragment: %w", err)
		}
	}

	if current != nrFrames {
		return nil, ErrFrameExtraction
	}

	return frames, nil
}
