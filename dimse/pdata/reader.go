package pdata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/codeninja55/go-dimse/dimse/pdu"
)

// readChunkSize is how much is requested from the transport per read while
// waiting for a complete PDU.
const readChunkSize = 8192

// Reader is a P-Data value reader.
//
// It yields the concatenated PDV payloads of incoming P-DATA-TF PDUs as a
// plain byte stream, pulling PDUs from the transport on demand and
// returning io.EOF once a PDV marked as the last fragment has been
// drained. The Reader is not safe for concurrent use.
type Reader struct {
	stream        io.Reader
	deliverQueue  bytes.Buffer
	wireBuffer    []byte
	chunk         []byte
	maxDataLength uint32

	presentationContextID uint8
	havePCID              bool
	contextDrift          int
	lastPDU               bool

	log *slog.Logger
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLogger sets the logger used for protocol tolerance warnings such as
// presentation context drift. Defaults to slog.Default().
func WithLogger(l *slog.Logger) ReaderOption {
	return func(r *Reader) {
		r.log = l
	}
}

// NewReader constructs a P-Data reader. maxDataLength is the negotiated
// maximum PDU length, used as the initial capacity of the wire buffer.
// PDUs are decoded in lenient mode, so their length is bounded only by
// pdu.MaxPDULength, not by maxDataLength.
func NewReader(stream io.Reader, maxDataLength uint32, opts ...ReaderOption) *Reader {
	r := &Reader{
		stream:        stream,
		wireBuffer:    make([]byte, 0, maxDataLength),
		maxDataLength: maxDataLength,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read fills p with reassembled P-Data bytes, fetching PDUs from the
// transport when the internal queue runs dry. Once the last PDV of the
// message has been delivered, Read returns io.EOF without touching the
// transport again.
func (r *Reader) Read(p []byte) (int, error) {
	for r.deliverQueue.Len() == 0 {
		if r.lastPDU {
			return 0, io.EOF
		}
		if err := r.fetchPDU(); err != nil {
			return 0, err
		}
	}
	return r.deliverQueue.Read(p)
}

// StopReceiving declares no intention to read further PDUs from the
// remote node. Subsequent reads drain the already-delivered bytes and
// then report io.EOF; no more transport reads are issued.
func (r *Reader) StopReceiving() {
	r.lastPDU = true
}

// PresentationContextID returns the context id adopted from the first PDV
// and whether one has been seen yet.
func (r *Reader) PresentationContextID() (uint8, bool) {
	return r.presentationContextID, r.havePCID
}

// ContextDrift reports how many PDVs arrived with a presentation context
// id different from the first one seen.
func (r *Reader) ContextDrift() int {
	return r.contextDrift
}

// fetchPDU pulls transport bytes until one complete PDU decodes, then
// folds its PDVs into the deliver queue.
func (r *Reader) fetchPDU() error {
	var msg pdu.PDU
	for {
		p, n, err := pdu.DecodePDU(r.wireBuffer, r.maxDataLength, false)
		if err != nil {
			return fmt.Errorf("decode PDU: %w", err)
		}
		if p != nil {
			// advance by exactly the decoded PDU size
			r.wireBuffer = r.wireBuffer[n:]
			msg = p
			break
		}

		if r.chunk == nil {
			r.chunk = make([]byte, readChunkSize)
		}
		n, rerr := r.stream.Read(r.chunk)
		if n > 0 {
			r.wireBuffer = append(r.wireBuffer, r.chunk[:n]...)
			continue
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return ErrConnectionClosed
			}
			return fmt.Errorf("read from transport: %w", rerr)
		}
	}

	data, ok := msg.(*pdu.DataTF)
	if !ok {
		return fmt.Errorf("%w: 0x%02X", ErrUnexpectedPDU, msg.Type())
	}

	for _, pdv := range data.Values {
		switch {
		case !r.havePCID:
			r.presentationContextID = pdv.PresentationContextID
			r.havePCID = true
		case pdv.PresentationContextID != r.presentationContextID:
			// tolerated: some peers re-use the stream with a different
			// context id for the same logical message
			r.contextDrift++
			r.log.Warn("received P-Data value of unexpected presentation context",
				"got", pdv.PresentationContextID,
				"want", r.presentationContextID)
		}
		r.deliverQueue.Write(pdv.Data)
		r.lastPDU = pdv.IsLastFragment()
	}

	return nil
}
