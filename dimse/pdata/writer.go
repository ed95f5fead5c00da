package pdata

import (
	"fmt"
	"io"

	"github.com/codeninja55/go-dimse/dimse/pdu"
)

// Writer is a P-Data value writer.
//
// Bytes written to it accumulate in an internal buffer holding at most one
// PDU; a full buffer is dispatched as a P-DATA-TF PDU with is-last unset,
// and Finish emits whatever remains as the final PDU with is-last set.
// PDUs are always filled completely before being emitted; a partially
// filled PDU only ever leaves through Finish.
//
// A Writer must be finished to terminate the logical message. Callers
// should defer Close and additionally call Finish explicitly on the
// success path, because an error from a deferred Close is usually
// discarded. The Writer is not safe for concurrent use.
type Writer struct {
	buffer     []byte
	stream     io.Writer
	maxDataLen uint32
	finished   bool
}

// NewWriter constructs a P-Data writer sending PDVs for the given
// presentation context. maxPDULength is the maximum value of the
// PDU-length property negotiated for the association and must be at least
// MinPDULength.
func NewWriter(stream io.Writer, presentationContextID uint8, maxPDULength uint32) (*Writer, error) {
	if maxPDULength < MinPDULength {
		return nil, fmt.Errorf("%w: %d < %d", ErrPDULengthTooSmall, maxPDULength, MinPDULength)
	}

	buffer := make([]byte, 0, maxPDULength)
	buffer = append(buffer,
		// PDU type and reserved byte
		pdu.PDUTypeData, 0x00,
		// full PDU length, unknown until dispatch
		0xFF, 0xFF, 0xFF, 0xFF,
		// PDV item length, unknown until dispatch
		0xFF, 0xFF, 0xFF, 0xFF,
		// presentation context id
		presentationContextID,
		// message control header, unknown until dispatch
		0xFF,
	)

	return &Writer{
		buffer:     buffer,
		stream:     stream,
		maxDataLen: MaxSinglePDVData(maxPDULength),
	}, nil
}

// Write appends p to the PDU under construction, dispatching a PDU each
// time the buffer fills. On success the whole slice is consumed; on a
// transport error the count of bytes accepted so far is returned with the
// error.
func (w *Writer) Write(p []byte) (int, error) {
	if w.finished {
		return 0, ErrWriterFinished
	}

	written := 0
	total := int(w.maxDataLen) + pdu.PDataHeaderSize
	for {
		free := total - len(w.buffer)
		if len(p) <= free {
			w.buffer = append(w.buffer, p...)
			return written + len(p), nil
		}

		w.buffer = append(w.buffer, p[:free]...)
		p = p[free:]
		written += free
		if err := w.dispatch(); err != nil {
			return written, err
		}
	}
}

// Finish stamps the buffered PDU as the last fragment of the message and
// sends it, leaving the writer empty. Calling Finish again is a no-op. A
// writer that never received any bytes still emits one empty-payload
// terminating PDU, so the receiver observes a well-formed (empty) message.
func (w *Writer) Finish() error {
	if w.finished {
		return nil
	}

	stampPDataHeader(w.buffer, true)
	if _, err := w.stream.Write(w.buffer); err != nil {
		return fmt.Errorf("write last P-DATA-TF PDU: %w", err)
	}

	w.buffer = w.buffer[:0]
	w.finished = true
	return nil
}

// Close finishes the writer. It exists so the final PDU is still emitted
// on early exits via defer; transport errors from a deferred Close are
// typically lost, which is why explicit Finish is recommended.
func (w *Writer) Close() error {
	return w.Finish()
}

// Flush is a no-op. A partially filled PDU is never emitted implicitly,
// since doing so would misrepresent the message boundary.
func (w *Writer) Flush() error {
	return nil
}

// dispatch sends the buffered PDU with is-last unset and resets the buffer
// to the bare header skeleton.
//
// Precondition: the buffer holds the full header and at least one payload
// byte.
func (w *Writer) dispatch() error {
	stampPDataHeader(w.buffer, false)
	if _, err := w.stream.Write(w.buffer); err != nil {
		return fmt.Errorf("write P-DATA-TF PDU: %w", err)
	}

	w.buffer = w.buffer[:pdu.PDataHeaderSize]
	return nil
}
