// Package pnts provides API for decoding and encoding Point Cloud tiles.
// Point data lives in the feature table binary body; there is no embedded
// scene payload.
package pnts

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/eak1mov/go-3dtiles/spec"
)

// FeatureTable holds the Point Cloud semantics.
type FeatureTable struct {
	PointsLength          spec.PropertyValue     `json:"POINTS_LENGTH"`
	RTCCenter             *spec.GlobalCartesian3 `json:"RTC_CENTER,omitempty"`
	QuantizedVolumeOffset *spec.GlobalCartesian3 `json:"QUANTIZED_VOLUME_OFFSET,omitempty"`
	QuantizedVolumeScale  *spec.GlobalCartesian3 `json:"QUANTIZED_VOLUME_SCALE,omitempty"`
	ConstantRGBA          *spec.GlobalCartesian4 `json:"CONSTANT_RGBA,omitempty"`
	BatchLength           *spec.PropertyValue    `json:"BATCH_LENGTH,omitempty"`

	Position          *spec.PropertyValue `json:"POSITION,omitempty"`
	PositionQuantized *spec.PropertyValue `json:"POSITION_QUANTIZED,omitempty"`
	RGBA              *spec.PropertyValue `json:"RGBA,omitempty"`
	RGB               *spec.PropertyValue `json:"RGB,omitempty"`
	RGB565            *spec.PropertyValue `json:"RGB565,omitempty"`
	Normal            *spec.PropertyValue `json:"NORMAL,omitempty"`
	NormalOct16P      *spec.PropertyValue `json:"NORMAL_OCT16P,omitempty"`
	BatchID           *spec.PropertyValue `json:"BATCH_ID,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

type Tile struct {
	Header           spec.Header
	FeatureTable     FeatureTable
	FeatureTableBody []byte
	BatchTable       spec.BatchTable
}

func (t *Tile) HasBatchTable() bool {
	return t.BatchTable.JSON != nil
}

func (t *Tile) PointsLength() (uint32, error) {
	v, err := t.FeatureTable.PointsLength.ResolveScalar(t.FeatureTableBody, spec.ComponentTypeUnsignedInt)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// Positions decodes point positions, see DecodePositions.
func (t *Tile) Positions() ([][3]float32, error) {
	return DecodePositions(&t.FeatureTable, t.FeatureTableBody)
}

// Points decodes all point attributes, see DecodePoints.
func (t *Tile) Points() (*Points, error) {
	return DecodePoints(&t.FeatureTable, t.FeatureTableBody)
}

// Decode reads one point cloud tile from r. Any bytes declared by
// byteLength after the tables are consumed and discarded.
func Decode(r io.Reader) (*Tile, error) {
	header, err := spec.DeserializeHeader(r, spec.MagicPoints)
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

	if _, err := spec.ReadPayload(sr, header, spec.HeaderLength); err != nil {
		return nil, err
	}
	return &tile, nil
}

func DecodeBytes(data []byte) (*Tile, error) {
	return Decode(bytes.NewReader(data))
}

func Encode(tile *Tile) ([]byte, error) {
	var batch *spec.BatchTable
	if tile.BatchTable.JSON != nil || len(tile.BatchTable.Body) > 0 {
		batch = &tile.BatchTable
	}
	sections, err := spec.EncodeSections(spec.HeaderLength, &tile.FeatureTable, tile.FeatureTableBody, batch)
	if err != nil {
		return nil, err
	}

	header := spec.Header{Magic: spec.MagicPoints, Version: spec.Version}
	sections.Fill(&header, spec.HeaderLength, 0)

	buffer := spec.SerializeHeader(&header)
	return sections.AppendTo(buffer), nil
}
