package pixel

import (
	"sync"
)

// Decoder defines the interface for decompressing pixel data from a specific transfer syntax.
//
// Implementations must be safe for concurrent use.
type Decoder interface {
	// Decode decompresses one encapsulated frame described by info.
	Decode(encapsulated []byte, info *PixelInfo) ([]byte, error)

	// TransferSyntaxUID returns the transfer syntax UID this decoder handles.
	TransferSyntaxUID() string
}

// PixelInfo contains metadata needed for pixel data decompression.
type PixelInfo struct {
	Rows                      uint16
	Columns                   uint16
	BitsAllocated             uint16
	BitsStored                uint16
	HighBit                   uint16
	PixelRepresentation       uint16
	SamplesPerPixel           uint16
	PhotometricInterpretation string
	PlanarConfiguration       uint16
	NumberOfFrames            int
	TransferSyntaxUID         string
}

var (
	decoderRegistry   = make(map[string]Decoder)
	decoderRegistryMu sync.RWMutex
)

// RegisterDecoder registers a decoder for a specific transfer syntax UID.
//
// If a decoder is already registered for the UID, it will be replaced.
// This function is safe for concurrent use.
func RegisterDecoder(transferSyntaxUID string, decoder Decoder) {
	decoderRegistryMu.Lock()
	defer decoderRegistryMu.Unlock()
	decoderRegistry[transferSyntaxUID] = decoder
}

// GetDecoder retrieves the decoder for a specific transfer syntax UID.
//
// Returns an error if no decoder is registered for the UID.
// This function is safe for concurrent use.
func GetDecoder(transferSyntaxUID string) (Decoder, error) {
	decoderRegistryMu.RLock()
	defer decoderRegistryMu.RUnlock()

	decoder, ok := decoderRegistry[transferSyntaxUID]
	if !ok {
		return nil, &TransferSyntaxError{UID: transferSyntaxUID}
	}
	return decoder, nil
}

// ListDecoders returns a list of all registered transfer syntax UIDs.
//
// This function is safe for concurrent use.
func ListDecoders() []string {
	decoderRegistryMu.RLock()
	defer decoderRegistryMu.RUnlock()

	uids := make([]string, 0, len(decoderRegistry))
	for uid := range decoderRegistry {
		uids = append(uids, uid)
	}
	return uids
}

// CalculateExpectedSize calculates the expected size in bytes for pixel data based on metadata.
//
// Formula: Rows × Columns × SamplesPerPixel × NumberOfFrames × ceil(BitsAllocated / 8)
func CalculateExpectedSize(info *PixelInfo) int {
	bytesPerSample := (int(info.BitsAllocated) + 7) / 8
	return int(info.Rows) * int(info.Columns) * int(info.SamplesPerPixel) * info.NumberOfFrames * bytesPerSample
}
