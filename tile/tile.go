// Package tile provides common interfaces for tileset content storage.
// Content is addressed by URI: a slash-separated path relative to the root
// of the storage, e.g. "tileset.json" or "data/0/1.b3dm".
package tile

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	ErrNotFound   = errors.New("content not found")
	ErrInvalidURI = errors.New("invalid content uri")
)

// Source defines an interface for reading tileset documents and tile contents.
type Source interface {
	// ReadContent reads a single content by URI.
	// It returns an error wrapping ErrNotFound if the content does not exist.
	ReadContent(uri string) ([]byte, error)
}

// Writer defines an interface for writing contents to a tileset storage.
type Writer interface {
	// WriteContent writes a single content, replacing existing data.
	WriteContent(uri string, data []byte) error

	// Finalize completes the writing process: flushes buffers, writes indices.
	// It must be called before closing the Writer.
	Finalize() error
}

type Visitor interface {
	// VisitContents visits all contents in the storage, calling the visitor for each.
	// It returns an error if visiting fails.
	// Order of contents, upfront cpu and memory consumption are implementation-defined.
	VisitContents(visitor func(uri string, data []byte) error) error
}

// CleanURI normalizes a relative content URI. It rejects absolute paths,
// paths escaping the storage root and URIs with a scheme.
func CleanURI(uri string) (string, error) {
	if uri == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURI)
	}
	if strings.Contains(uri, "://") || strings.HasPrefix(uri, "data:") {
		return "", fmt.Errorf("%w: %q is not a relative path", ErrInvalidURI, uri)
	}
	if strings.HasPrefix(uri, "/") {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidURI, uri)
	}
	cleaned := path.Clean(uri)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q escapes the root", ErrInvalidURI, uri)
	}
	return cleaned, nil
}
