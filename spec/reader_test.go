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

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func bytesReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}

func TestReader(t *testing.T) {
	data := binary.LittleEndian.AppendUint32(nil, 0xdeadbeef)
	data = append(data, "abcdef"...)

	r := spec.NewReader(bytesReader(data))
	u, err := r.ReadUint32()
	require.Nil(t, err)
	require.Equal(t, uint32(0xdeadbeef), u)

	b, err := r.ReadBytes(5)
	require.Nil(t, err)
	require.Equal(t, []byte("abcde"), b)
	require.Equal(t, int64(9), r.Pos())

	_, err = r.ReadUint32()
	require.Truef(t, errors.Is(err, spec.ErrTruncatedBody), "%v", err)
	require.Truef(t, errors.Is(err, io.ErrUnexpectedEOF), "%v", err)
	require.Equal(t, int64(10), r.Pos())

	empty, err := r.ReadBytes(0)
	require.Nil(t, err)
	require.Empty(t, empty)

	_, err = spec.NewReader(failingReader{}).ReadUint32()
	require.Truef(t, errors.Is(err, spec.ErrIO), "%v", err)
}
