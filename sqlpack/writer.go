package sqlpack

import (
	"database/sql"
	"errors"
	"log/slog"

	"github.com/eak1mov/go-3dtiles/tile"
)

// Writer implements tile.Writer interface for packages.
type Writer struct {
	db          *sql.DB
	stmt        *sql.Stmt
	compression Compression
	logger      *slog.Logger
}

type writerConfig struct {
	Compression Compression
	Logger      *slog.Logger
}

type WriterOption func(*writerConfig)

// WithCompression sets the compression of stored contents.
func WithCompression(compression Compression) WriterOption {
	return func(c *writerConfig) { c.Compression = compression }
}

func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// NewWriter creates a new Writer for writing to a package file.
// It applies given options and initializes database for writing contents.
//
// The returned Writer must be closed after use to release database resources.
func NewWriter(filePath string, opts ...WriterOption) (*Writer, error) {
	config := writerConfig{
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	var err error
	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	_, err = db.Exec("CREATE TABLE IF NOT EXISTS media (key TEXT PRIMARY KEY, content BLOB)")
	if err != nil {
		return nil, err
	}

	stmt, err := db.Prepare("INSERT OR REPLACE INTO media (key, content) VALUES (?, ?)")
	if err != nil {
		return nil, err
	}

	return &Writer{db, stmt, config.Compression, config.Logger}, nil
}

func (w *Writer) Close() error {
	return errors.Join(w.stmt.Close(), w.db.Close())
}

func (w *Writer) WriteContent(uri string, data []byte) error {
	key, err := tile.CleanURI(uri)
	if err != nil {
		return err
	}

	data, err = compress(data, w.compression)
	if err != nil {
		return err
	}

	_, err = w.stmt.Exec(key, data)
	return err
}

func (w *Writer) Finalize() error {
	w.logger.Debug("tiles3d: compacting package")
	_, err := w.db.Exec("VACUUM")
	w.logger.Debug("tiles3d: done!")
	return err
}
