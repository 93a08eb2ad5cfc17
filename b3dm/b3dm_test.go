package b3dm_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/eak1mov/go-3dtiles/b3dm"
	"github.com/eak1mov/go-3dtiles/spec"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func scenarioTile() []byte {
	header := spec.Header{
		Magic:                      spec.MagicBatched,
		Version:                    1,
		ByteLength:                 100,
		FeatureTableJSONByteLength: 20,
	}
	data := spec.SerializeHeader(&header)
	data = append(data, `{"BATCH_LENGTH":5}  `...)
	return append(data, bytes.Repeat([]byte{0xab}, 52)...)
}

func TestDecodeScenario(t *testing.T) {
	data := scenarioTile()
	require.Len(t, data, 100)

	reader := bytes.NewReader(append(data, "next tile"...))
	tile, err := b3dm.Decode(reader)
	require.Nil(t, err)
	require.Equal(t, len("next tile"), reader.Len())

	batchLength, err := tile.BatchLength()
	require.Nil(t, err)
	require.Equal(t, uint32(5), batchLength)
	require.False(t, tile.HasBatchTable())
	require.Len(t, tile.Glb, 52)

	_, ok, err := tile.RTCCenter()
	require.Nil(t, err)
	require.False(t, ok)
}

func TestDecodeNullBatchLength(t *testing.T) {
	featureJSON := `{"BATCH_LENGTH":null}   `
	header := spec.Header{
		Magic:                      spec.MagicBatched,
		Version:                    1,
		ByteLength:                 uint32(spec.HeaderLength + len(featureJSON)),
		FeatureTableJSONByteLength: uint32(len(featureJSON)),
	}
	data := append(spec.SerializeHeader(&header), featureJSON...)

	tile, err := b3dm.DecodeBytes(data)
	require.Nil(t, err)
	require.Equal(t, spec.KindUnknown, tile.FeatureTable.BatchLength.Kind)

	_, err = tile.BatchLength()
	require.Truef(t, errors.Is(err, spec.ErrInvalidProperty), "%v", err)
}

func TestDecodeErrors(t *testing.T) {
	t.Run("magic", func(t *testing.T) {
		header := spec.Header{Magic: spec.MagicPoints, Version: 1, ByteLength: spec.HeaderLength}
		_, err := b3dm.DecodeBytes(spec.SerializeHeader(&header))
		require.Truef(t, errors.Is(err, spec.ErrMagicMismatch), "%v", err)
	})

	t.Run("truncated payload", func(t *testing.T) {
		data := scenarioTile()
		_, err := b3dm.DecodeBytes(data[:90])
		require.Truef(t, errors.Is(err, spec.ErrTruncatedBody), "%v", err)
	})

	t.Run("byteLength too small", func(t *testing.T) {
		data := scenarioTile()
		data[8] = 40
		_, err := b3dm.DecodeBytes(data)
		require.Truef(t, errors.Is(err, spec.ErrInvalidHeader), "%v", err)
	})

	t.Run("malformed json", func(t *testing.T) {
		data := scenarioTile()
		copy(data[spec.HeaderLength:], `{"BATCH_LENGTH":}`)
		_, err := b3dm.DecodeBytes(data)
		require.Truef(t, errors.Is(err, spec.ErrMalformedJSON), "%v", err)
	})
}

func TestEncodeDecode(t *testing.T) {
	tile1 := b3dm.Tile{
		FeatureTable: b3dm.FeatureTable{
			BatchLength: spec.Scalar(2),
			RTCCenter:   spec.Cartesian3(100, 200, 300),
		},
		BatchTable: spec.BatchTable{
			JSON: &spec.BatchTableJSON{Properties: map[string]spec.BatchProperty{
				"height": {Values: []json.RawMessage{json.RawMessage("10"), json.RawMessage("20")}},
			}},
		},
		Glb: []byte("glTF fake payload"),
	}

	data, err := b3dm.Encode(&tile1)
	require.Nil(t, err)

	tile2, err := b3dm.DecodeBytes(data)
	require.Nil(t, err)
	require.Equal(t, uint32(len(data)), tile2.Header.ByteLength)
	require.Zero(t, (spec.HeaderLength+tile2.Header.FeatureTableJSONByteLength)%spec.Alignment)

	if diff := cmp.Diff(tile1.FeatureTable, tile2.FeatureTable); diff != "" {
		t.Errorf("feature table mismatch (-want +got):\n%s", diff)
	}
	if got, want := tile2.Glb, tile1.Glb; !cmp.Equal(got, want) {
		t.Errorf("Glb = %q, want = %q", got, want)
	}

	center, ok, err := tile2.RTCCenter()
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, [3]float64{100, 200, 300}, center)

	heights, err := tile2.BatchTable.Floats("height", 2)
	require.Nil(t, err)
	require.Equal(t, []float64{10, 20}, heights)
}
