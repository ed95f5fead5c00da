package pdu

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// AssociateRQ represents an A-ASSOCIATE-RQ PDU
type AssociateRQ struct {
	ProtocolVersion      uint16
	CalledAETitle        [16]byte
	CallingAETitle       [16]byte
	ApplicationContext   string
	PresentationContexts []PresentationContextRQ
	UserInfo             UserInformation
}

// PresentationContextRQ represents a presentation context in A-ASSOCIATE-RQ
type PresentationContextRQ struct {
	ID               uint8
	AbstractSyntax   string
	TransferSyntaxes []string
}

// AssociateAC represents an A-ASSOCIATE-AC PDU
type AssociateAC struct {
	ProtocolVersion      uint16
	CalledAETitle        [16]byte
	CallingAETitle       [16]byte
	ApplicationContext   string
	PresentationContexts []PresentationContextAC
	UserInfo             UserInformation
}

// PresentationContextAC represents a presentation context in A-ASSOCIATE-AC
type PresentationContextAC struct {
	ID             uint8
	Result         uint8
	TransferSyntax string
}

// Presentation context results
const (
	PresentationContextAcceptance                   uint8 = 0
	PresentationContextUserRejection                uint8 = 1
	PresentationContextProviderRejection            uint8 = 2
	PresentationContextAbstractSyntaxNotSupported   uint8 = 3
	PresentationContextTransferSyntaxesNotSupported uint8 = 4
)

// AssociateRJ represents an A-ASSOCIATE-RJ PDU
type AssociateRJ struct {
	Result uint8
	Source uint8
	Reason uint8
}

// Rejection results
const (
	AssociateRJResultPermanent uint8 = 1
	AssociateRJResultTransient uint8 = 2
)

// Rejection sources
const (
	AssociateRJSourceServiceUser                 uint8 = 1
	AssociateRJSourceServiceProvider             uint8 = 2
	AssociateRJSourceServiceProviderACSE         uint8 = 2
	AssociateRJSourceServiceProviderPresentation uint8 = 3
)

// UserInformation contains user information items
type UserInformation struct {
	MaxPDULength           uint32
	ImplementationClassUID string
	ImplementationVersion  string
}

// Type returns the PDU type
func (p *AssociateRQ) Type() byte {
	return PDUTypeAssociateRQ
}

// Encode writes the PDU to the writer
func (p *AssociateRQ) Encode(w io.Writer) error {
	var buf bytes.Buffer

	if err := encodeAssociatePrefix(&buf, p.ProtocolVersion, p.CalledAETitle, p.CallingAETitle); err != nil {
		return err
	}
	if err := encodeItem(&buf, ItemTypeApplicationContext, []byte(p.ApplicationContext)); err != nil {
		return err
	}
	for _, pc := range p.PresentationContexts {
		if err := encodePresentationContextRQ(&buf, pc); err != nil {
			return err
		}
	}
	if err := encodeUserInformation(&buf, p.UserInfo); err != nil {
		return err
	}

	if err := writePDUHeader(w, PDUTypeAssociateRQ, uint32(buf.Len())); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Decode reads the PDU from the reader
func (p *AssociateRQ) Decode(r io.Reader) error {
	if err := decodeAssociatePrefix(r, &p.ProtocolVersion, &p.CalledAETitle, &p.CallingAETitle); err != nil {
		return err
	}

	for {
		itemType, itemData, err := readItem(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch itemType {
		case ItemTypeApplicationContext:
			p.ApplicationContext = string(itemData)
		case ItemTypePresentationContextRQ:
			pc, err := decodePresentationContextRQ(itemData)
			if err != nil {
				return err
			}
			p.PresentationContexts = append(p.PresentationContexts, pc)
		case ItemTypeUserInformation:
			ui, err := decodeUserInformation(itemData)
			if err != nil {
				return err
			}
			p.UserInfo = ui
		}
	}

	return nil
}

// Type returns the PDU type
func (p *AssociateAC) Type() byte {
	return PDUTypeAssociateAC
}

// Encode writes the PDU to the writer
func (p *AssociateAC) Encode(w io.Writer) error {
	var buf bytes.Buffer

	if err := encodeAssociatePrefix(&buf, p.ProtocolVersion, p.CalledAETitle, p.CallingAETitle); err != nil {
		return err
	}
	if err := encodeItem(&buf, ItemTypeApplicationContext, []byte(p.ApplicationContext)); err != nil {
		return err
	}
	for _, pc := range p.PresentationContexts {
		if err := encodePresentationContextAC(&buf, pc); err != nil {
			return err
		}
	}
	if err := encodeUserInformation(&buf, p.UserInfo); err != nil {
		return err
	}

	if err := writePDUHeader(w, PDUTypeAssociateAC, uint32(buf.Len())); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Decode reads the PDU from the reader
func (p *AssociateAC) Decode(r io.Reader) error {
	if err := decodeAssociatePrefix(r, &p.ProtocolVersion, &p.CalledAETitle, &p.CallingAETitle); err != nil {
		return err
	}

	for {
		itemType, itemData, err := readItem(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch itemType {
		case ItemTypeApplicationContext:
			p.ApplicationContext = string(itemData)
		case ItemTypePresentationContextAC:
			pc, err := decodePresentationContextAC(itemData)
			if err != nil {
				return err
			}
			p.PresentationContexts = append(p.PresentationContexts, pc)
		case ItemTypeUserInformation:
			ui, err := decodeUserInformation(itemData)
			if err != nil {
				return err
			}
			p.UserInfo = ui
		}
	}

	return nil
}

// Type returns the PDU type
func (p *AssociateRJ) Type() byte {
	return PDUTypeAssociateRJ
}

// Encode writes the PDU to the writer
func (p *AssociateRJ) Encode(w io.Writer) error {
	if err := writePDUHeader(w, PDUTypeAssociateRJ, 4); err != nil {
		return err
	}
	_, err := w.Write([]byte{0, p.Result, p.Source, p.Reason})
	return err
}

// Decode reads the PDU from the reader
func (p *AssociateRJ) Decode(r io.Reader) error {
	var body [4]byte
	if _, err := io.ReadFull(r, body[:]); err != nil {
		return fmt.Errorf("read A-ASSOCIATE-RJ body: %w", err)
	}
	p.Result = body[1]
	p.Source = body[2]
	p.Reason = body[3]
	return nil
}

// encodeAssociatePrefix writes the fixed-layout front of an
// A-ASSOCIATE-RQ/AC body: protocol version, both AE titles and the
// reserved regions between them.
func encodeAssociatePrefix(buf *bytes.Buffer, version uint16, called, calling [16]byte) error {
	var v [2]byte
	binary.BigEndian.PutUint16(v[:], version)
	buf.Write(v[:])
	buf.Write([]byte{0, 0})
	buf.Write(called[:])
	buf.Write(calling[:])
	buf.Write(make([]byte, 32))
	return nil
}

func decodeAssociatePrefix(r io.Reader, version *uint16, called, calling *[16]byte) error {
	var prefix [68]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return fmt.Errorf("read associate prefix: %w", err)
	}
	*version = binary.BigEndian.Uint16(prefix[0:2])
	copy(called[:], prefix[4:20])
	copy(calling[:], prefix[20:36])
	return nil
}
