package spec

import (
	"bytes"
	"encoding/json"
)

// Alignment is the boundary that table sections end on, measured from the
// start of the tile.
const Alignment = 8

// EncodeTableJSON marshals v and pads it with spaces so that a section
// starting at offset ends on an 8-byte boundary. A nil v encodes to no bytes.
func EncodeTableJSON(v any, offset int) ([]byte, error) {
	if v == nil {
		return []byte{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(data, bytes.Repeat([]byte{' '}, padding(offset+len(data)))...), nil
}

// PadBody pads a binary body with zeros so that it ends on an 8-byte boundary.
func PadBody(body []byte, offset int) []byte {
	return append(body, make([]byte, padding(offset+len(body)))...)
}

func padding(length int) int {
	return (Alignment - length%Alignment) % Alignment
}

// Sections are the four table sections of a tile, in stream order.
type Sections struct {
	FeatureTableJSON   []byte
	FeatureTableBinary []byte
	BatchTableJSON     []byte
	BatchTableBinary   []byte
}

// EncodeSections builds the table sections for a tile whose header has the
// given length. Batch table JSON is omitted when batch is nil.
func EncodeSections(headerLength int, featureTable any, featureBody []byte, batch *BatchTable) (*Sections, error) {
	var s Sections
	var err error
	offset := headerLength

	s.FeatureTableJSON, err = EncodeTableJSON(featureTable, offset)
	if err != nil {
		return nil, err
	}
	offset += len(s.FeatureTableJSON)
	s.FeatureTableBinary = PadBody(bytes.Clone(featureBody), offset)
	offset += len(s.FeatureTableBinary)

	if batch != nil {
		if batch.JSON != nil {
			s.BatchTableJSON, err = EncodeTableJSON(batch.JSON, offset)
			if err != nil {
				return nil, err
			}
			offset += len(s.BatchTableJSON)
		}
		s.BatchTableBinary = PadBody(bytes.Clone(batch.Body), offset)
	}
	return &s, nil
}

// Fill sets the section lengths and the total byte length on header.
func (s *Sections) Fill(header *Header, headerLength, payloadLength int) {
	header.FeatureTableJSONByteLength = uint32(len(s.FeatureTableJSON))
	header.FeatureTableBinaryByteLength = uint32(len(s.FeatureTableBinary))
	header.BatchTableJSONByteLength = uint32(len(s.BatchTableJSON))
	header.BatchTableBinaryByteLength = uint32(len(s.BatchTableBinary))
	header.ByteLength = uint32(header.SectionsLength(headerLength)) + uint32(payloadLength)
}

// AppendTo appends the sections in stream order.
func (s *Sections) AppendTo(buffer []byte) []byte {
	buffer = append(buffer, s.FeatureTableJSON...)
	buffer = append(buffer, s.FeatureTableBinary...)
	buffer = append(buffer, s.BatchTableJSON...)
	return append(buffer, s.BatchTableBinary...)
}
