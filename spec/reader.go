package spec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Reader reads little-endian fields from a stream and tracks how many bytes
// have been consumed. Every read is exact: a stream ending early yields
// ErrTruncatedBody, any other failure yields ErrIO.
type Reader struct {
	r   io.Reader
	pos int64
	buf [4]byte
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Pos returns the number of bytes consumed so far.
func (r *Reader) Pos() int64 {
	return r.pos
}

func (r *Reader) readFull(p []byte) error {
	n, err := io.ReadFull(r.r, p)
	r.pos += int64(n)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: want %d bytes, got %d: %w", ErrTruncatedBody, len(p), n, io.ErrUnexpectedEOF)
	}
	return fmt.Errorf("%w: %w", ErrIO, err)
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.readFull(r.buf[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.buf[:4]), nil
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n uint64) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	// Large bodies are read in chunks: allocation grows only as data arrives.
	const chunk = 1 << 20
	if n <= chunk {
		p := make([]byte, n)
		if err := r.readFull(p); err != nil {
			return nil, err
		}
		return p, nil
	}
	p := make([]byte, 0, chunk)
	for remaining := n; remaining > 0; {
		step := min(remaining, chunk)
		start := len(p)
		p = append(p, make([]byte, step)...)
		if err := r.readFull(p[start:]); err != nil {
			return nil, err
		}
		remaining -= step
	}
	return p, nil
}
