// Package i3dm provides API for decoding and encoding Instanced 3D Model tiles.
// The model is either embedded as binary glTF or referenced by URI,
// as selected by the header's gltfFormat field.
package i3dm

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/eak1mov/go-3dtiles/spec"
)

// FeatureTable holds the Instanced 3D Model semantics.
type FeatureTable struct {
	InstancesLength       spec.PropertyValue     `json:"INSTANCES_LENGTH"`
	RTCCenter             *spec.GlobalCartesian3 `json:"RTC_CENTER,omitempty"`
	QuantizedVolumeOffset *spec.GlobalCartesian3 `json:"QUANTIZED_VOLUME_OFFSET,omitempty"`
	QuantizedVolumeScale  *spec.GlobalCartesian3 `json:"QUANTIZED_VOLUME_SCALE,omitempty"`
	EastNorthUp           bool                   `json:"EAST_NORTH_UP,omitempty"`

	Position          *spec.PropertyValue `json:"POSITION,omitempty"`
	PositionQuantized *spec.PropertyValue `json:"POSITION_QUANTIZED,omitempty"`
	NormalUp          *spec.PropertyValue `json:"NORMAL_UP,omitempty"`
	NormalRight       *spec.PropertyValue `json:"NORMAL_RIGHT,omitempty"`
	NormalUpOct32P    *spec.PropertyValue `json:"NORMAL_UP_OCT32P,omitempty"`
	NormalRightOct32P *spec.PropertyValue `json:"NORMAL_RIGHT_OCT32P,omitempty"`
	Scale             *spec.PropertyValue `json:"SCALE,omitempty"`
	ScaleNonUniform   *spec.PropertyValue `json:"SCALE_NON_UNIFORM,omitempty"`
	BatchID           *spec.PropertyValue `json:"BATCH_ID,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// Tile is a decoded instanced model. Exactly one of Glb and URI is set,
// depending on Header.GltfFormat.
type Tile struct {
	Header           spec.InstancedHeader
	FeatureTable     FeatureTable
	FeatureTableBody []byte
	BatchTable       spec.BatchTable
	Glb              []byte
	URI              string
}

func (t *Tile) HasBatchTable() bool {
	return t.BatchTable.JSON != nil
}

func (t *Tile) InstancesLength() (uint32, error) {
	v, err := t.FeatureTable.InstancesLength.ResolveScalar(t.FeatureTableBody, spec.ComponentTypeUnsignedInt)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// Instances decodes the per-instance attributes.
func (t *Tile) Instances() (*Instances, error) {
	return DecodeInstances(&t.FeatureTable, t.FeatureTableBody)
}

func Decode(r io.Reader) (*Tile, error) {
	header, err := spec.DeserializeInstancedHeader(r)
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

	payload, err := spec.ReadPayload(sr, &header.Header, spec.InstancedHeaderLength)
	if err != nil {
		return nil, err
	}
	if header.GltfFormat == spec.GltfFormatURI {
		tile.URI = strings.TrimRight(string(payload), "\x00 ")
	} else {
		tile.Glb = payload
	}
	return &tile, nil
}

func DecodeBytes(data []byte) (*Tile, error) {
	return Decode(bytes.NewReader(data))
}

// Encode serializes the tile. When URI is set the model is written by
// reference (gltfFormat 0), otherwise Glb is embedded (gltfFormat 1).
func Encode(tile *Tile) ([]byte, error) {
	var batch *spec.BatchTable
	if tile.BatchTable.JSON != nil || len(tile.BatchTable.Body) > 0 {
		batch = &tile.BatchTable
	}
	sections, err := spec.EncodeSections(spec.InstancedHeaderLength, &tile.FeatureTable, tile.FeatureTableBody, batch)
	if err != nil {
		return nil, err
	}

	header := spec.InstancedHeader{
		Header:     spec.Header{Magic: spec.MagicInstanced, Version: spec.Version},
		GltfFormat: spec.GltfFormatBinary,
	}
	payload := tile.Glb
	if tile.URI != "" {
		header.GltfFormat = spec.GltfFormatURI
		payload = []byte(tile.URI)
	}
	sections.Fill(&header.Header, spec.InstancedHeaderLength, len(payload))

	buffer := spec.SerializeInstancedHeader(&header)
	buffer = sections.AppendTo(buffer)
	return append(buffer, payload...), nil
}
