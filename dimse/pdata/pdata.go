// Package pdata adapts byte streams onto the P-DATA-TF PDU exchange of a
// DICOM association.
//
// The Writer splits an arbitrarily long byte sequence into correctly sized
// and framed P-DATA-TF PDUs no longer than the maximum PDU length
// negotiated during association establishment; the Reader reassembles the
// byte sequence from the incoming PDU stream, accepting PDUs up to the
// protocol cap pdu.MaxPDULength.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part08.html#sect_9.3.5
package pdata

import (
	"encoding/binary"
	"errors"

	"github.com/codeninja55/go-dimse/dimse/pdu"
)

// MinPDULength is the smallest maximum-PDU-length accepted by NewWriter.
// The 4-byte PDV item length and the 2-byte item prefix count against the
// PDU length, so at this minimum each PDU carries
// MaxSinglePDVData(18) = 12 payload bytes.
const MinPDULength uint32 = 18

var (
	// ErrConnectionClosed indicates the peer closed the transport in the
	// middle of the P-Data stream.
	ErrConnectionClosed = errors.New("connection closed by peer")

	// ErrUnexpectedPDU indicates a PDU other than P-DATA-TF arrived while
	// reading a P-Data stream.
	ErrUnexpectedPDU = errors.New("unexpected PDU type")

	// ErrPDULengthTooSmall indicates a maximum PDU length below MinPDULength.
	ErrPDULengthTooSmall = errors.New("maximum PDU length too small")

	// ErrWriterFinished indicates a write on a P-Data writer after Finish.
	ErrWriterFinished = errors.New("write on finished P-Data writer")
)

// MaxSinglePDVData returns the maximum number of payload bytes that fit in
// a single PDV carried in a single PDU with the given maximum PDU length.
// The PDU length field covers the 4-byte PDV item length and the 2-byte
// item prefix (context id and message control header), so the payload
// capacity is the PDU length minus 6.
func MaxSinglePDVData(maxPDULength uint32) uint32 {
	return maxPDULength - 4 - 2
}

// stampPDataHeader fills in the length fields and the message control
// header of a buffer whose first 12 bytes are the P-DATA-TF header
// skeleton and whose remaining bytes are PDV payload. Bytes 0, 1 and 10
// (PDU type, reserved byte and presentation context id) are fixed at
// construction and left untouched.
func stampPDataHeader(buf []byte, isLast bool) {
	dataLen := uint32(len(buf) - pdu.PDataHeaderSize)

	// full PDU length, excluding type and reserved byte
	binary.BigEndian.PutUint32(buf[2:6], dataLen+4+2)
	// PDV item length, including context id and control header
	binary.BigEndian.PutUint32(buf[6:10], dataLen+2)

	if isLast {
		buf[11] = pdu.MessageControlDatasetLast
	} else {
		buf[11] = pdu.MessageControlDataset
	}
}
