package pdu

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Sub-item codecs shared by the association PDUs. Every item follows the
// same TLV layout: type byte, reserved byte, 16-bit big-endian length,
// then the item payload.

func encodeItem(w io.Writer, itemType byte, data []byte) error {
	if len(data) > 0xFFFF {
		return fmt.Errorf("item 0x%02X payload too long: %d bytes", itemType, len(data))
	}
	var header [4]byte
	header[0] = itemType
	binary.BigEndian.PutUint16(header[2:4], uint16(len(data)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readItem(r io.Reader) (byte, []byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		// a clean io.EOF here is the end of the item list; a partial
		// header surfaces as io.ErrUnexpectedEOF
		return 0, nil, err
	}

	length := binary.BigEndian.Uint16(header[2:4])
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return 0, nil, fmt.Errorf("read item 0x%02X payload: %w", header[0], err)
	}

	return header[0], data, nil
}

func encodePresentationContextRQ(w io.Writer, pc PresentationContextRQ) error {
	var buf bytes.Buffer

	// Context id followed by three reserved bytes
	buf.Write([]byte{pc.ID, 0, 0, 0})

	if err := encodeItem(&buf, ItemTypeAbstractSyntax, []byte(pc.AbstractSyntax)); err != nil {
		return err
	}
	for _, ts := range pc.TransferSyntaxes {
		if err := encodeItem(&buf, ItemTypeTransferSyntax, []byte(ts)); err != nil {
			return err
		}
	}

	return encodeItem(w, ItemTypePresentationContextRQ, buf.Bytes())
}

func decodePresentationContextRQ(data []byte) (PresentationContextRQ, error) {
	var pc PresentationContextRQ
	if len(data) < 4 {
		return pc, fmt.Errorf("presentation context item too short: %d bytes", len(data))
	}
	pc.ID = data[0]

	r := bytes.NewReader(data[4:])
	for {
		itemType, itemData, err := readItem(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return pc, err
		}

		switch itemType {
		case ItemTypeAbstractSyntax:
			pc.AbstractSyntax = string(itemData)
		case ItemTypeTransferSyntax:
			pc.TransferSyntaxes = append(pc.TransferSyntaxes, string(itemData))
		}
	}

	return pc, nil
}

func encodePresentationContextAC(w io.Writer, pc PresentationContextAC) error {
	var buf bytes.Buffer

	buf.Write([]byte{pc.ID, 0, pc.Result, 0})

	// Transfer syntax is only present on acceptance
	if pc.Result == PresentationContextAcceptance {
		if err := encodeItem(&buf, ItemTypeTransferSyntax, []byte(pc.TransferSyntax)); err != nil {
			return err
		}
	}

	return encodeItem(w, ItemTypePresentationContextAC, buf.Bytes())
}

func decodePresentationContextAC(data []byte) (PresentationContextAC, error) {
	var pc PresentationContextAC
	if len(data) < 4 {
		return pc, fmt.Errorf("presentation context item too short: %d bytes", len(data))
	}
	pc.ID = data[0]
	pc.Result = data[2]

	r := bytes.NewReader(data[4:])
	for {
		itemType, itemData, err := readItem(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return pc, err
		}

		if itemType == ItemTypeTransferSyntax {
			pc.TransferSyntax = string(itemData)
		}
	}

	return pc, nil
}

func encodeUserInformation(w io.Writer, ui UserInformation) error {
	var buf bytes.Buffer

	if ui.MaxPDULength > 0 {
		var length [4]byte
		binary.BigEndian.PutUint32(length[:], ui.MaxPDULength)
		if err := encodeItem(&buf, ItemTypeMaxLength, length[:]); err != nil {
			return err
		}
	}
	if ui.ImplementationClassUID != "" {
		if err := encodeItem(&buf, ItemTypeImplementationClassUID, []byte(ui.ImplementationClassUID)); err != nil {
			return err
		}
	}
	if ui.ImplementationVersion != "" {
		if err := encodeItem(&buf, ItemTypeImplementationVersion, []byte(ui.ImplementationVersion)); err != nil {
			return err
		}
	}

	return encodeItem(w, ItemTypeUserInformation, buf.Bytes())
}

func decodeUserInformation(data []byte) (UserInformation, error) {
	var ui UserInformation

	r := bytes.NewReader(data)
	for {
		itemType, itemData, err := readItem(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return ui, err
		}

		switch itemType {
		case ItemTypeMaxLength:
			if len(itemData) != 4 {
				return ui, fmt.Errorf("maximum length sub-item has %d bytes, want 4", len(itemData))
			}
			ui.MaxPDULength = binary.BigEndian.Uint32(itemData)
		case ItemTypeImplementationClassUID:
			ui.ImplementationClassUID = string(itemData)
		case ItemTypeImplementationVersion:
			ui.ImplementationVersion = string(itemData)
		}
	}

	return ui, nil
}
