package spec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic is the 4-byte signature at the start of every binary tile.
type Magic [4]byte

var (
	MagicBatched   = Magic{'b', '3', 'd', 'm'}
	MagicInstanced = Magic{'i', '3', 'd', 'm'}
	MagicPoints    = Magic{'p', 'n', 't', 's'}
)

func (m Magic) String() string {
	return string(m[:])
}

const (
	Version = 1

	HeaderLength          = 28
	InstancedHeaderLength = 32
)

// GltfFormat tells what follows the tables of an instanced model.
type GltfFormat uint32

const (
	GltfFormatURI    GltfFormat = 0
	GltfFormatBinary GltfFormat = 1
)

// Header is the fixed header shared by b3dm, i3dm and pnts tiles.
type Header struct {
	Magic                        Magic
	Version                      uint32
	ByteLength                   uint32
	FeatureTableJSONByteLength   uint32
	FeatureTableBinaryByteLength uint32
	BatchTableJSONByteLength     uint32
	BatchTableBinaryByteLength   uint32
}

// InstancedHeader is the i3dm header: Header followed by the glTF format field.
type InstancedHeader struct {
	Header
	GltfFormat GltfFormat
}

// SectionsLength returns the length of the header plus all four table sections.
func (h *Header) SectionsLength(headerLength int) uint64 {
	return uint64(headerLength) +
		uint64(h.FeatureTableJSONByteLength) +
		uint64(h.FeatureTableBinaryByteLength) +
		uint64(h.BatchTableJSONByteLength) +
		uint64(h.BatchTableBinaryByteLength)
}

func SerializeHeader(header *Header) []byte {
	var buffer bytes.Buffer
	writer := bufio.NewWriter(&buffer)
	binary.Write(writer, binary.LittleEndian, header)
	writer.Flush()
	return buffer.Bytes()
}

func SerializeInstancedHeader(header *InstancedHeader) []byte {
	var buffer bytes.Buffer
	writer := bufio.NewWriter(&buffer)
	binary.Write(writer, binary.LittleEndian, header)
	writer.Flush()
	return buffer.Bytes()
}

// DeserializeHeader reads a header and checks it against the expected magic.
// The magic is checked before anything else is read.
func DeserializeHeader(r io.Reader, magic Magic) (*Header, error) {
	return deserializeHeader(NewReader(r), magic)
}

func deserializeHeader(r *Reader, magic Magic) (*Header, error) {
	data, err := r.ReadBytes(uint64(len(magic)))
	if err != nil {
		return nil, headerReadError(err)
	}
	got := Magic(data)
	if got != magic {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrMagicMismatch, got.String(), magic.String())
	}

	header := Header{Magic: got}
	for _, field := range []*uint32{
		&header.Version,
		&header.ByteLength,
		&header.FeatureTableJSONByteLength,
		&header.FeatureTableBinaryByteLength,
		&header.BatchTableJSONByteLength,
		&header.BatchTableBinaryByteLength,
	} {
		if *field, err = r.ReadUint32(); err != nil {
			return nil, headerReadError(err)
		}
	}
	if header.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, header.Version)
	}
	return &header, nil
}

func DeserializeInstancedHeader(r io.Reader) (*InstancedHeader, error) {
	reader := NewReader(r)
	header, err := deserializeHeader(reader, MagicInstanced)
	if err != nil {
		return nil, err
	}
	format, err := reader.ReadUint32()
	if err != nil {
		return nil, headerReadError(err)
	}
	if format != uint32(GltfFormatURI) && format != uint32(GltfFormatBinary) {
		return nil, fmt.Errorf("%w: gltfFormat %d", ErrInvalidHeader, format)
	}
	return &InstancedHeader{Header: *header, GltfFormat: GltfFormat(format)}, nil
}

// headerReadError marks truncation as an invalid header; I/O failures pass
// through.
func headerReadError(err error) error {
	if errors.Is(err, ErrTruncatedBody) {
		return fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	return err
}
