// Package internal holds fixture builders shared by package tests.
package internal

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func Float32s(values ...float32) []byte {
	data := make([]byte, 0, 4*len(values))
	for _, v := range values {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v))
	}
	return data
}

func Uint16s(values ...uint16) []byte {
	data := make([]byte, 0, 2*len(values))
	for _, v := range values {
		data = binary.LittleEndian.AppendUint16(data, v)
	}
	return data
}

func Uint32s(values ...uint32) []byte {
	data := make([]byte, 0, 4*len(values))
	for _, v := range values {
		data = binary.LittleEndian.AppendUint32(data, v)
	}
	return data
}

// Concat joins byte slices into a new slice.
func Concat(parts ...[]byte) []byte {
	var data []byte
	for _, part := range parts {
		data = append(data, part...)
	}
	return data
}

// WriteTree writes files, keyed by slash-separated relative path, under root.
func WriteTree(t testing.TB, root string, files map[string][]byte) {
	t.Helper()
	for name, data := range files {
		filePath := filepath.Join(root, filepath.FromSlash(name))
		require.Nil(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.Nil(t, os.WriteFile(filePath, data, 0644))
	}
}

// MinimalGlb returns a binary glTF holding only a JSON chunk with the given
// asset generator.
func MinimalGlb(generator string) []byte {
	chunk := []byte(`{"asset":{"version":"2.0","generator":"` + generator + `"}}`)
	for len(chunk)%4 != 0 {
		chunk = append(chunk, ' ')
	}
	data := []byte("glTF")
	data = binary.LittleEndian.AppendUint32(data, 2)
	data = binary.LittleEndian.AppendUint32(data, uint32(12+8+len(chunk)))
	data = binary.LittleEndian.AppendUint32(data, uint32(len(chunk)))
	data = append(data, "JSON"...)
	return append(data, chunk...)
}
