package i3dm_test

import (
	"errors"
	"testing"

	"github.com/eak1mov/go-3dtiles/i3dm"
	"github.com/eak1mov/go-3dtiles/internal"
	"github.com/eak1mov/go-3dtiles/spec"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeModes(t *testing.T) {
	testCases := []struct {
		name   string
		tile   i3dm.Tile
		format spec.GltfFormat
	}{
		{
			name: "uri",
			tile: i3dm.Tile{
				FeatureTable: i3dm.FeatureTable{InstancesLength: spec.Scalar(1)},
				URI:          "models/tree.glb",
			},
			format: spec.GltfFormatURI,
		},
		{
			name: "embedded",
			tile: i3dm.Tile{
				FeatureTable: i3dm.FeatureTable{InstancesLength: spec.Scalar(1)},
				Glb:          []byte("glTF binary"),
			},
			format: spec.GltfFormatBinary,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.tile.FeatureTable.Position = ptr(spec.Reference(0))
			tc.tile.FeatureTableBody = internal.Float32s(1, 2, 3)

			data, err := i3dm.Encode(&tc.tile)
			require.Nil(t, err)

			tile, err := i3dm.DecodeBytes(data)
			require.Nil(t, err)
			require.Equal(t, tc.format, tile.Header.GltfFormat)
			require.Equal(t, uint32(len(data)), tile.Header.ByteLength)
			require.Equal(t, tc.tile.URI, tile.URI)
			require.Equal(t, len(tc.tile.Glb), len(tile.Glb))
			require.False(t, tile.HasBatchTable())
		})
	}
}

func TestDecodeURIPadding(t *testing.T) {
	tile := i3dm.Tile{
		FeatureTable:     i3dm.FeatureTable{InstancesLength: spec.Scalar(1), Position: ptr(spec.Reference(0))},
		FeatureTableBody: internal.Float32s(0, 0, 0),
		URI:              "tree.gltf\x00\x00  ",
	}
	data, err := i3dm.Encode(&tile)
	require.Nil(t, err)

	decoded, err := i3dm.DecodeBytes(data)
	require.Nil(t, err)
	require.Equal(t, "tree.gltf", decoded.URI)
}

func TestDecodeErrors(t *testing.T) {
	header := spec.Header{Magic: spec.MagicBatched, Version: 1, ByteLength: spec.HeaderLength}
	_, err := i3dm.DecodeBytes(spec.SerializeHeader(&header))
	require.Truef(t, errors.Is(err, spec.ErrMagicMismatch), "%v", err)

	data := spec.SerializeInstancedHeader(&spec.InstancedHeader{
		Header:     spec.Header{Magic: spec.MagicInstanced, Version: 1, ByteLength: 64},
		GltfFormat: spec.GltfFormatBinary,
	})
	_, err = i3dm.DecodeBytes(data)
	require.Truef(t, errors.Is(err, spec.ErrTruncatedBody), "%v", err)
}

func TestDecodeInstances(t *testing.T) {
	body := internal.Concat(
		internal.Float32s(1, 2, 3, 4, 5, 6), // POSITION, offset 0
		internal.Uint16s(7, 9),             // BATCH_ID, offset 24
		internal.Float32s(2, 0.5),          // SCALE, offset 28
	)
	ft := i3dm.FeatureTable{
		InstancesLength: spec.Scalar(2),
		RTCCenter:       spec.Cartesian3(10, 20, 30),
		Position:        ptr(spec.Reference(0)),
		BatchID:         ptr(spec.Reference(24)),
		Scale:           ptr(spec.Reference(28)),
		NormalUp:        ptr(spec.Array(0, 0, 1, 0, 0, 1)),
		EastNorthUp:     true,
	}

	got, err := i3dm.DecodeInstances(&ft, body)
	require.Nil(t, err)

	want := &i3dm.Instances{
		Positions:   [][3]float64{{1, 2, 3}, {4, 5, 6}},
		NormalUp:    [][3]float64{{0, 0, 1}, {0, 0, 1}},
		Scale:       []float64{2, 0.5},
		BatchIDs:    []uint32{7, 9},
		RTCCenter:   &[3]float64{10, 20, 30},
		EastNorthUp: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("instances mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeInstancesQuantized(t *testing.T) {
	body := internal.Concat(
		internal.Uint16s(0, 65535, 32768), // POSITION_QUANTIZED
		internal.Uint16s(32768, 65535),    // NORMAL_UP_OCT32P
	)
	ft := i3dm.FeatureTable{
		InstancesLength:       spec.Scalar(1),
		QuantizedVolumeOffset: spec.Cartesian3(-10, -10, -10),
		QuantizedVolumeScale:  spec.Cartesian3(20, 20, 20),
		PositionQuantized:     ptr(spec.Reference(0)),
		NormalUpOct32P:        ptr(spec.Reference(6)),
	}

	got, err := i3dm.DecodeInstances(&ft, body)
	require.Nil(t, err)

	approx := cmpopts.EquateApprox(0, 1e-3)
	if diff := cmp.Diff([][3]float64{{-10, 10, 0}}, got.Positions, approx); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][3]float64{{0, 1, 0}}, got.NormalUp, approx); diff != "" {
		t.Errorf("normals mismatch (-want +got):\n%s", diff)
	}

	ft.QuantizedVolumeScale = nil
	_, err = i3dm.DecodeInstances(&ft, body)
	require.Truef(t, errors.Is(err, spec.ErrInvalidProperty), "%v", err)
}

func TestDecodeInstancesTruncated(t *testing.T) {
	ft := i3dm.FeatureTable{
		InstancesLength: spec.Scalar(3),
		Position:        ptr(spec.Reference(0)),
	}
	_, err := i3dm.DecodeInstances(&ft, internal.Float32s(1, 2, 3, 4, 5, 6))
	require.Truef(t, errors.Is(err, spec.ErrTruncatedBody), "%v", err)
}

func ptr[T any](v T) *T {
	return &v
}
