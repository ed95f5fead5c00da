package pdu_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/codeninja55/go-dimse/dimse/pdu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAssociateRQ_EncodeDecode tests A-ASSOCIATE-RQ encoding and decoding
func TestAssociateRQ_EncodeDecode(t *testing.T) {
	original := &pdu.AssociateRQ{
		ProtocolVersion:    0x0001,
		CalledAETitle:      pdu.PadAETitle("CALLED_AE"),
		CallingAETitle:     pdu.PadAETitle("CALLING_AE"),
		ApplicationContext: "1.2.840.10008.3.1.1.1",
		PresentationContexts: []pdu.PresentationContextRQ{
			{
				ID:             1,
				AbstractSyntax: "1.2.840.10008.1.1",
				TransferSyntaxes: []string{
					"1.2.840.10008.1.2",
					"1.2.840.10008.1.2.1",
				},
			},
			{
				ID:             3,
				AbstractSyntax: "1.2.840.10008.5.1.4.1.1.2",
				TransferSyntaxes: []string{
					"1.2.840.10008.1.2",
				},
			},
		},
		UserInfo: pdu.UserInformation{
			MaxPDULength:           16384,
			ImplementationClassUID: "1.2.840.12345.1.1",
			ImplementationVersion:  "GO-DIMSE_1.0",
		},
	}

	var buf bytes.Buffer
	err := original.Encode(&buf)
	require.NoError(t, err)

	data := buf.Bytes()
	assert.Equal(t, pdu.PDUTypeAssociateRQ, data[0])

	decoded := &pdu.AssociateRQ{}
	err = decoded.Decode(bytes.NewReader(data[6:])) // skip PDU header
	require.NoError(t, err)

	assert.Equal(t, original.ProtocolVersion, decoded.ProtocolVersion)
	assert.Equal(t, original.CalledAETitle, decoded.CalledAETitle)
	assert.Equal(t, original.CallingAETitle, decoded.CallingAETitle)
	assert.Equal(t, original.ApplicationContext, decoded.ApplicationContext)
	assert.Len(t, decoded.PresentationContexts, len(original.PresentationContexts))
	assert.Equal(t, original.UserInfo.MaxPDULength, decoded.UserInfo.MaxPDULength)
}

// TestAssociateAC_EncodeDecode tests A-ASSOCIATE-AC encoding and decoding
func TestAssociateAC_EncodeDecode(t *testing.T) {
	original := &pdu.AssociateAC{
		ProtocolVersion:    0x0001,
		CalledAETitle:      pdu.PadAETitle("CALLED_AE"),
		CallingAETitle:     pdu.PadAETitle("CALLING_AE"),
		ApplicationContext: "1.2.840.10008.3.1.1.1",
		PresentationContexts: []pdu.PresentationContextAC{
			{
				ID:             1,
				Result:         pdu.PresentationContextAcceptance,
				TransferSyntax: "1.2.840.10008.1.2",
			},
			{
				ID:             3,
				Result:         pdu.PresentationContextAcceptance,
				TransferSyntax: "1.2.840.10008.1.2",
			},
		},
		UserInfo: pdu.UserInformation{
			MaxPDULength:           16384,
			ImplementationClassUID: "1.2.840.12345.1.1",
			ImplementationVersion:  "GO-DIMSE_1.0",
		},
	}

	var buf bytes.Buffer
	err := original.Encode(&buf)
	require.NoError(t, err)

	data := buf.Bytes()
	assert.Equal(t, pdu.PDUTypeAssociateAC, data[0])

	decoded := &pdu.AssociateAC{}
	err = decoded.Decode(bytes.NewReader(data[6:]))
	require.NoError(t, err)

	assert.Equal(t, original.ProtocolVersion, decoded.ProtocolVersion)
	assert.Len(t, decoded.PresentationContexts, len(original.PresentationContexts))
	for i, pc := range decoded.PresentationContexts {
		assert.Equal(t, original.PresentationContexts[i].ID, pc.ID)
		assert.Equal(t, original.PresentationContexts[i].Result, pc.Result)
		assert.Equal(t, original.PresentationContexts[i].TransferSyntax, pc.TransferSyntax)
	}
}

// TestAssociateRJ_EncodeDecode tests A-ASSOCIATE-RJ encoding and decoding
func TestAssociateRJ_EncodeDecode(t *testing.T) {
	original := &pdu.AssociateRJ{
		Result: 1,
		Source: 1,
		Reason: 2,
	}

	var buf bytes.Buffer
	err := original.Encode(&buf)
	require.NoError(t, err)

	data := buf.Bytes()
	assert.Equal(t, pdu.PDUTypeAssociateRJ, data[0])

	decoded := &pdu.AssociateRJ{}
	err = decoded.Decode(bytes.NewReader(data[6:]))
	require.NoError(t, err)

	assert.Equal(t, original.Result, decoded.Result)
	assert.Equal(t, original.Source, decoded.Source)
	assert.Equal(t, original.Reason, decoded.Reason)
}

// TestDataTF_EncodeDecode tests P-DATA-TF encoding and decoding
func TestDataTF_EncodeDecode(t *testing.T) {
	original := &pdu.DataTF{
		Values: []pdu.PresentationDataValue{
			{
				PresentationContextID: 1,
				MessageControlHeader:  pdu.MessageControlCommand,
				Data:                  []byte{1, 2, 3, 4, 5},
			},
			{
				PresentationContextID: 1,
				MessageControlHeader:  pdu.MessageControlCommand | pdu.MessageControlLastFragment,
				Data:                  []byte{6, 7, 8},
			},
		},
	}

	var buf bytes.Buffer
	err := original.Encode(&buf)
	require.NoError(t, err)

	data := buf.Bytes()
	assert.Equal(t, pdu.PDUTypeData, data[0])

	decoded := &pdu.DataTF{}
	err = decoded.Decode(bytes.NewReader(data[6:]))
	require.NoError(t, err)

	assert.Len(t, decoded.Values, len(original.Values))
	for i, pdv := range decoded.Values {
		assert.Equal(t, original.Values[i].PresentationContextID, pdv.PresentationContextID)
		assert.Equal(t, original.Values[i].MessageControlHeader, pdv.MessageControlHeader)
		assert.Equal(t, original.Values[i].Data, pdv.Data)
	}
}

// TestReadPDU tests reading various PDU types
func TestReadPDU(t *testing.T) {
	tests := []struct {
		name     string
		pdu      pdu.PDU
		expected byte
	}{
		{"AssociateRQ", &pdu.AssociateRQ{
			ProtocolVersion:    0x0001,
			CalledAETitle:      pdu.PadAETitle("CALLED"),
			CallingAETitle:     pdu.PadAETitle("CALLING"),
			ApplicationContext: "1.2.840.10008.3.1.1.1",
			UserInfo: pdu.UserInformation{
				MaxPDULength:           16384,
				ImplementationClassUID: "1.2.840.12345.1.1",
			},
		}, pdu.PDUTypeAssociateRQ},
		{"ReleaseRQ", &pdu.ReleaseRQ{}, pdu.PDUTypeReleaseRQ},
		{"ReleaseRP", &pdu.ReleaseRP{}, pdu.PDUTypeReleaseRP},
		{"Abort", &pdu.Abort{Source: 0, Reason: 2}, pdu.PDUTypeAbort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := tt.pdu.Encode(&buf)
			require.NoError(t, err)

			decoded, err := pdu.ReadPDU(&buf)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, decoded.Type())
		})
	}
}

// TestDecodePDU_Incremental tests incremental decoding over a growing buffer
func TestDecodePDU_Incremental(t *testing.T) {
	data := &pdu.DataTF{
		Values: []pdu.PresentationDataValue{{
			PresentationContextID: 5,
			MessageControlHeader:  pdu.MessageControlDatasetLast,
			Data:                  []byte{10, 20, 30, 40},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, data.Encode(&buf))
	encoded := buf.Bytes()

	// every strict prefix is incomplete and consumes nothing
	for i := 0; i < len(encoded); i++ {
		p, n, err := pdu.DecodePDU(encoded[:i], pdu.MinimumPDUSize, false)
		require.NoError(t, err, "prefix of %d bytes", i)
		assert.Nil(t, p, "prefix of %d bytes", i)
		assert.Zero(t, n, "prefix of %d bytes", i)
	}

	// the full buffer decodes and reports its exact size
	p, n, err := pdu.DecodePDU(encoded, pdu.MinimumPDUSize, false)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, len(encoded), n)

	decoded, ok := p.(*pdu.DataTF)
	require.True(t, ok)
	require.Len(t, decoded.Values, 1)
	assert.Equal(t, []byte{10, 20, 30, 40}, decoded.Values[0].Data)
}

// TestDecodePDU_TrailingBytes ensures trailing bytes of the next PDU are untouched
func TestDecodePDU_TrailingBytes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&pdu.ReleaseRQ{}).Encode(&buf))
	first := buf.Len()
	require.NoError(t, (&pdu.ReleaseRP{}).Encode(&buf))

	p, n, err := pdu.DecodePDU(buf.Bytes(), pdu.MinimumPDUSize, false)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, pdu.PDUTypeReleaseRQ, p.Type())
	assert.Equal(t, first, n)

	p, _, err = pdu.DecodePDU(buf.Bytes()[n:], pdu.MinimumPDUSize, false)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, pdu.PDUTypeReleaseRP, p.Type())
}

// TestDecodePDU_Strict tests the length cap in strict and lenient mode
func TestDecodePDU_Strict(t *testing.T) {
	oversized := make([]byte, 6+pdu.MinimumPDUSize+100)
	oversized[0] = pdu.PDUTypeAbort
	binary.BigEndian.PutUint32(oversized[2:6], pdu.MinimumPDUSize+100)

	_, _, err := pdu.DecodePDU(oversized, pdu.MinimumPDUSize, true)
	assert.Error(t, err)

	// lenient mode tolerates peers exceeding the negotiated maximum
	_, _, err = pdu.DecodePDU(oversized, pdu.MinimumPDUSize, false)
	assert.NoError(t, err)
}

// TestDecodePDU_UnknownType rejects unknown PDU type bytes
func TestDecodePDU_UnknownType(t *testing.T) {
	bogus := []byte{0x7F, 0x00, 0x00, 0x00, 0x00, 0x00}
	_, _, err := pdu.DecodePDU(bogus, pdu.MinimumPDUSize, false)
	assert.Error(t, err)
}

// TestPadTrimAETitle tests AE title padding and trimming
func TestPadTrimAETitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Short title", "TEST", "TEST"},
		{"Long title", "VERY_LONG_AE_TIT", "VERY_LONG_AE_TIT"},
		{"Max length", "1234567890123456", "1234567890123456"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			padded := pdu.PadAETitle(tt.input)
			trimmed := pdu.TrimAETitle(padded)
			assert.Equal(t, tt.expected, trimmed)

			for i := len(tt.input); i < 16; i++ {
				assert.Equal(t, byte(' '), padded[i])
			}
		})
	}
}

// TestDataTF_MessageControlHeader tests message control header helpers
func TestDataTF_MessageControlHeader(t *testing.T) {
	tests := []struct {
		name               string
		header             uint8
		expectCommand      bool
		expectLastFragment bool
	}{
		{"Command first", 0x01, true, false},
		{"Command last", 0x03, true, true},
		{"Dataset first", 0x00, false, false},
		{"Dataset last", 0x02, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pdv := pdu.PresentationDataValue{
				PresentationContextID: 1,
				MessageControlHeader:  tt.header,
				Data:                  []byte{1, 2, 3},
			}

			assert.Equal(t, tt.expectCommand, pdv.IsCommand())
			assert.Equal(t, tt.expectLastFragment, pdv.IsLastFragment())
		})
	}
}
