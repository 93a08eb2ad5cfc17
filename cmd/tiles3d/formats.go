package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/eak1mov/go-3dtiles/dir"
	"github.com/eak1mov/go-3dtiles/sqlpack"
	"github.com/eak1mov/go-3dtiles/tile"
)

const defaultTilesetURI = "tileset.json"

type storage interface {
	tile.Source
	tile.Visitor
}

func deduceFormat(format, filePath string) string {
	if format == "" && strings.HasSuffix(filePath, ".3dtiles") {
		return "3dtiles"
	}
	return format
}

// openStorage opens a tileset directory or package. A path to a file inside
// a directory opens its parent directory and names the file as the tileset
// document.
func openStorage(format, inputPath string) (storage, string, error) {
	switch deduceFormat(format, inputPath) {
	case "3dtiles":
		reader, err := sqlpack.NewReader(inputPath)
		return reader, defaultTilesetURI, err
	case "dir", "":
		info, err := os.Stat(inputPath)
		if err != nil {
			return nil, "", err
		}
		if !info.IsDir() {
			reader, err := dir.NewReader(filepath.Dir(inputPath))
			return reader, filepath.Base(inputPath), err
		}
		reader, err := dir.NewReader(inputPath)
		return reader, defaultTilesetURI, err
	}
	return nil, "", fmt.Errorf("invalid input format: %q", format)
}

func closeStorage(s any) {
	if closer, ok := s.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Println(err)
		}
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
