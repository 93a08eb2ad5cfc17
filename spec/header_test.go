package spec_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/eak1mov/go-3dtiles/spec"
	"github.com/stretchr/testify/require"
)

func TestHeaderLength(t *testing.T) {
	require.Equal(t, spec.HeaderLength, binary.Size(spec.Header{}))
	require.Equal(t, spec.InstancedHeaderLength, binary.Size(spec.InstancedHeader{}))
}

func TestHeaderSerializer(t *testing.T) {
	for _, magic := range []spec.Magic{spec.MagicBatched, spec.MagicPoints, spec.MagicInstanced} {
		t.Run(magic.String(), func(t *testing.T) {
			header1 := spec.Header{
				Magic:                        magic,
				Version:                      spec.Version,
				ByteLength:                   1000,
				FeatureTableJSONByteLength:   20,
				FeatureTableBinaryByteLength: 36,
				BatchTableJSONByteLength:     8,
				BatchTableBinaryByteLength:   16,
			}
			headerData := spec.SerializeHeader(&header1)
			require.Len(t, headerData, spec.HeaderLength)

			header2, err := spec.DeserializeHeader(bytes.NewReader(headerData), magic)
			require.Nil(t, err)
			require.Equal(t, header1, *header2)
		})
	}
}

func TestInstancedHeaderSerializer(t *testing.T) {
	for _, format := range []spec.GltfFormat{spec.GltfFormatURI, spec.GltfFormatBinary} {
		header1 := spec.InstancedHeader{
			Header: spec.Header{
				Magic:      spec.MagicInstanced,
				Version:    spec.Version,
				ByteLength: spec.InstancedHeaderLength,
			},
			GltfFormat: format,
		}
		headerData := spec.SerializeInstancedHeader(&header1)
		require.Len(t, headerData, spec.InstancedHeaderLength)

		reader := bytes.NewReader(append(headerData, "rest"...))
		header2, err := spec.DeserializeInstancedHeader(reader)
		require.Nil(t, err)
		require.Equal(t, header1, *header2)
		require.Equal(t, 4, reader.Len())
	}
}

func TestHeaderErrors(t *testing.T) {
	valid := spec.SerializeHeader(&spec.Header{Magic: spec.MagicBatched, Version: spec.Version})

	t.Run("truncated", func(t *testing.T) {
		_, err := spec.DeserializeHeader(bytes.NewReader([]byte("b3dmfoobar")), spec.MagicBatched)
		require.Truef(t, errors.Is(err, spec.ErrInvalidHeader), "%v", err)
		require.Truef(t, errors.Is(err, io.ErrUnexpectedEOF), "%v", err)
	})

	t.Run("read failure", func(t *testing.T) {
		_, err := spec.DeserializeHeader(failingReader{}, spec.MagicBatched)
		require.Truef(t, errors.Is(err, spec.ErrIO), "%v", err)
		require.Falsef(t, errors.Is(err, spec.ErrInvalidHeader), "%v", err)
	})

	t.Run("exact length", func(t *testing.T) {
		reader := bytes.NewReader(append(bytes.Clone(valid), "next"...))
		_, err := spec.DeserializeHeader(reader, spec.MagicBatched)
		require.Nil(t, err)
		require.Equal(t, 4, reader.Len())
	})

	t.Run("magic", func(t *testing.T) {
		header, err := spec.DeserializeHeader(bytes.NewReader(valid), spec.MagicPoints)
		require.Truef(t, errors.Is(err, spec.ErrMagicMismatch), "%v", err)
		require.Nil(t, header)
	})

	t.Run("version", func(t *testing.T) {
		data := spec.SerializeHeader(&spec.Header{Magic: spec.MagicBatched, Version: 2})
		_, err := spec.DeserializeHeader(bytes.NewReader(data), spec.MagicBatched)
		require.Truef(t, errors.Is(err, spec.ErrUnsupportedVersion), "%v", err)
	})

	t.Run("gltfFormat", func(t *testing.T) {
		data := spec.SerializeInstancedHeader(&spec.InstancedHeader{
			Header:     spec.Header{Magic: spec.MagicInstanced, Version: spec.Version},
			GltfFormat: 7,
		})
		_, err := spec.DeserializeInstancedHeader(bytes.NewReader(data))
		require.Truef(t, errors.Is(err, spec.ErrInvalidHeader), "%v", err)
	})
}

func TestSectionsLength(t *testing.T) {
	header := spec.Header{
		FeatureTableJSONByteLength:   1,
		FeatureTableBinaryByteLength: 2,
		BatchTableJSONByteLength:     3,
		BatchTableBinaryByteLength:   4,
	}
	require.Equal(t, uint64(38), header.SectionsLength(spec.HeaderLength))
	require.Equal(t, uint64(42), header.SectionsLength(spec.InstancedHeaderLength))
}
