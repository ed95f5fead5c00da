package pdu

import (
	"io"
)

// ReleaseRQ represents an A-RELEASE-RQ PDU
type ReleaseRQ struct {
	// No fields, the body is four reserved bytes
}

// ReleaseRP represents an A-RELEASE-RP PDU
type ReleaseRP struct {
	// No fields, the body is four reserved bytes
}

// Type returns the PDU type
func (p *ReleaseRQ) Type() byte {
	return PDUTypeReleaseRQ
}

// Encode writes the PDU to the writer
func (p *ReleaseRQ) Encode(w io.Writer) error {
	return encodeReservedBody(w, PDUTypeReleaseRQ)
}

// Decode reads the PDU from the reader
func (p *ReleaseRQ) Decode(r io.Reader) error {
	_, err := io.CopyN(io.Discard, r, 4)
	return err
}

// Type returns the PDU type
func (p *ReleaseRP) Type() byte {
	return PDUTypeReleaseRP
}

// Encode writes the PDU to the writer
func (p *ReleaseRP) Encode(w io.Writer) error {
	return encodeReservedBody(w, PDUTypeReleaseRP)
}

// Decode reads the PDU from the reader
func (p *ReleaseRP) Decode(r io.Reader) error {
	_, err := io.CopyN(io.Discard, r, 4)
	return err
}

func encodeReservedBody(w io.Writer, pduType byte) error {
	if err := writePDUHeader(w, pduType, 4); err != nil {
		return err
	}
	_, err := w.Write(make([]byte, 4))
	return err
}
