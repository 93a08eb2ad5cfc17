// Package dir provides API for reading and writing tileset contents stored as
// individual files under a root directory, e.g. "root/tileset.json" and
// "root/data/0.b3dm".
package dir

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/eak1mov/go-3dtiles/tile"
)

func contentPath(rootDir, uri string) (string, error) {
	cleaned, err := tile.CleanURI(uri)
	if err != nil {
		return "", err
	}
	return filepath.Join(rootDir, filepath.FromSlash(cleaned)), nil
}

// Reader implements tile.Source and tile.Visitor interfaces for a directory.
type Reader struct {
	rootDir string
}

// NewReader creates a new Reader for the given root directory.
func NewReader(rootDir string) (*Reader, error) {
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", rootDir)
	}
	return &Reader{rootDir}, nil
}

func (r *Reader) ReadContent(uri string) ([]byte, error) {
	filePath, err := contentPath(r.rootDir, uri)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", tile.ErrNotFound, uri)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// VisitContents visits regular files in lexical order of their paths.
func (r *Reader) VisitContents(visitor func(string, []byte) error) error {
	return filepath.WalkDir(r.rootDir, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(r.rootDir, filePath)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}

		return visitor(filepath.ToSlash(relPath), data)
	})
}

// Writer implements tile.Writer interface for a directory.
type Writer struct {
	rootDir string
	logger  *slog.Logger
	count   int
}

type writerConfig struct {
	Logger *slog.Logger
}

type WriterOption func(*writerConfig)

func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// NewWriter creates a new Writer for the given root directory, creating it
// if needed.
func NewWriter(rootDir string, opts ...WriterOption) (*Writer, error) {
	config := writerConfig{
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, err
	}
	return &Writer{rootDir: rootDir, logger: config.Logger}, nil
}

func (w *Writer) WriteContent(uri string, data []byte) error {
	filePath, err := contentPath(w.rootDir, uri)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}

	w.count++
	return os.WriteFile(filePath, data, 0644)
}

func (w *Writer) Finalize() error {
	w.logger.Debug("tiles3d: directory written", "root", w.rootDir, "contents", w.count)
	return nil
}
