// Package sqlpack provides API for reading and writing 3D Tiles packages:
// single SQLite files holding every tileset document and tile content in a
// table media(key TEXT PRIMARY KEY, content BLOB), keyed by relative URI.
// Contents may be stored gzip-compressed; readers inflate them transparently.
//
// Note: User must properly initialize the sqlite3 library generic driver
// (e.g. import _ "github.com/mattn/go-sqlite3") before using this package.
package sqlpack

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/eak1mov/go-3dtiles/tile"
)

// Reader implements tile.Source and tile.Visitor interfaces for packages.
type Reader struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// NewReader creates a new Reader for the given package file path.
//
// The returned Reader must be closed after use to release database resources.
func NewReader(filePath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", filePath))
	if err != nil {
		return nil, err
	}

	stmt, err := db.Prepare("SELECT content FROM media WHERE key = ?")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Reader{db: db, stmt: stmt}, nil
}

func (r *Reader) Close() error {
	return errors.Join(r.stmt.Close(), r.db.Close())
}

func (r *Reader) ReadContent(uri string) ([]byte, error) {
	key, err := tile.CleanURI(uri)
	if err != nil {
		return nil, err
	}

	var data []byte
	if err := r.stmt.QueryRow(key).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", tile.ErrNotFound, uri)
		}
		return nil, err
	}

	return decompress(data)
}

// VisitContents visits contents in key order.
func (r *Reader) VisitContents(visitor func(string, []byte) error) error {
	rows, err := r.db.Query("SELECT key, content FROM media ORDER BY key")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var data []byte

		if err := rows.Scan(&key, &data); err != nil {
			return err
		}

		data, err := decompress(data)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}

		if err := visitor(key, data); err != nil {
			return err
		}
	}

	return rows.Err()
}
