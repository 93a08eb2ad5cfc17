// Package b3dm provides API for decoding and encoding Batched 3D Model tiles:
// a header, feature and batch tables and an embedded binary glTF.
package b3dm

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/eak1mov/go-3dtiles/spec"
)

// FeatureTable holds the Batched 3D Model semantics.
type FeatureTable struct {
	BatchLength spec.PropertyValue         `json:"BATCH_LENGTH"`
	RTCCenter   *spec.GlobalCartesian3     `json:"RTC_CENTER,omitempty"`
	Extensions  map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras      json.RawMessage            `json:"extras,omitempty"`
}

type Tile struct {
	Header           spec.Header
	FeatureTable     FeatureTable
	FeatureTableBody []byte
	BatchTable       spec.BatchTable
	Glb              []byte
}

// HasBatchTable reports whether the tile declares batch table JSON.
func (t *Tile) HasBatchTable() bool {
	return t.BatchTable.JSON != nil
}

// BatchLength returns the number of distinguishable features in the model.
func (t *Tile) BatchLength() (uint32, error) {
	v, err := t.FeatureTable.BatchLength.ResolveScalar(t.FeatureTableBody, spec.ComponentTypeUnsignedInt)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// RTCCenter returns the relative-to-center offset, if declared.
func (t *Tile) RTCCenter() ([3]float64, bool, error) {
	if t.FeatureTable.RTCCenter == nil {
		return [3]float64{}, false, nil
	}
	v, err := t.FeatureTable.RTCCenter.ResolveVector(t.FeatureTableBody, spec.ComponentTypeFloat, 3)
	if err != nil {
		return [3]float64{}, false, err
	}
	return [3]float64{v[0], v[1], v[2]}, true, nil
}

// Decode reads one tile from r. It consumes exactly Header.ByteLength bytes.
func Decode(r io.Reader) (*Tile, error) {
	header, err := spec.DeserializeHeader(r, spec.MagicBatched)
	if err != nil {
		return nil, err
	}

	tile := Tile{Header: *header}
	sr := spec.NewReader(r)

	tile.FeatureTableBody, err = spec.ReadFeatureTable(sr,
		header.FeatureTableJSONByteLength, header.FeatureTableBinaryByteLength, &tile.FeatureTable)
	if err != nil {
		return nil, err
	}

	batchTable, err := spec.ReadBatchTable(sr,
		header.BatchTableJSONByteLength, header.BatchTableBinaryByteLength)
	if err != nil {
		return nil, err
	}
	tile.BatchTable = *batchTable

	tile.Glb, err = spec.ReadPayload(sr, header, spec.HeaderLength)
	if err != nil {
		return nil, err
	}
	return &tile, nil
}

func DecodeBytes(data []byte) (*Tile, error) {
	return Decode(bytes.NewReader(data))
}

// Encode serializes the tile. Section lengths in Header are recomputed and
// tables are padded to 8-byte boundaries.
func Encode(tile *Tile) ([]byte, error) {
	var batch *spec.BatchTable
	if tile.BatchTable.JSON != nil || len(tile.BatchTable.Body) > 0 {
		batch = &tile.BatchTable
	}
	sections, err := spec.EncodeSections(spec.HeaderLength, &tile.FeatureTable, tile.FeatureTableBody, batch)
	if err != nil {
		return nil, err
	}

	header := spec.Header{Magic: spec.MagicBatched, Version: spec.Version}
	sections.Fill(&header, spec.HeaderLength, len(tile.Glb))

	buffer := spec.SerializeHeader(&header)
	buffer = sections.AppendTo(buffer)
	return append(buffer, tile.Glb...), nil
}
