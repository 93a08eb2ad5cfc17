// Package content dispatches tile content to the decoder for its format.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/eak1mov/go-3dtiles/b3dm"
	"github.com/eak1mov/go-3dtiles/i3dm"
	"github.com/eak1mov/go-3dtiles/pnts"
	"github.com/eak1mov/go-3dtiles/spec"
)

var ErrUnknownFormat = errors.New("unknown content format")

type Format string

const (
	FormatUnknown   Format = ""
	FormatBatched   Format = "b3dm"
	FormatInstanced Format = "i3dm"
	FormatPoints    Format = "pnts"
	FormatGlb       Format = "glb"
	FormatTileset   Format = "json"
)

var glbMagic = spec.Magic{'g', 'l', 'T', 'F'}

// Sniff detects the format from the leading bytes of data.
func Sniff(data []byte) (Format, error) {
	if len(data) >= 4 {
		switch spec.Magic(data[:4]) {
		case spec.MagicBatched:
			return FormatBatched, nil
		case spec.MagicInstanced:
			return FormatInstanced, nil
		case spec.MagicPoints:
			return FormatPoints, nil
		case glbMagic:
			return FormatGlb, nil
		}
	}
	if trimmed := bytes.TrimLeft(data, " \t\r\n"); len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatTileset, nil
	}
	prefix := data[:min(len(data), 4)]
	return FormatUnknown, fmt.Errorf("%w: leading bytes %q", ErrUnknownFormat, prefix)
}

// FormatFromURI guesses the format from the file extension of uri.
func FormatFromURI(uri string) Format {
	switch strings.ToLower(path.Ext(uri)) {
	case ".b3dm":
		return FormatBatched
	case ".i3dm":
		return FormatInstanced
	case ".pnts":
		return FormatPoints
	case ".glb":
		return FormatGlb
	case ".json":
		return FormatTileset
	}
	return FormatUnknown
}

// Payload is the scene part of a tile. For batched models and embedded
// instanced models Glb holds the binary glTF bytes; for instanced models
// referencing an external model URI holds the reference; point clouds
// carry no scene and yield decoded Points instead.
type Payload struct {
	Format Format
	Glb    []byte
	URI    string
	Points *pnts.Points
}

// ExtractScenePayload decodes data as the given format and returns its scene
// payload. The payload bytes are returned without interpretation.
func ExtractScenePayload(data []byte, format Format) (*Payload, error) {
	switch format {
	case FormatBatched:
		tile, err := b3dm.DecodeBytes(data)
		if err != nil {
			return nil, err
		}
		return &Payload{Format: format, Glb: tile.Glb}, nil
	case FormatInstanced:
		tile, err := i3dm.DecodeBytes(data)
		if err != nil {
			return nil, err
		}
		if tile.Header.GltfFormat == spec.GltfFormatURI {
			return &Payload{Format: format, URI: tile.URI}, nil
		}
		return &Payload{Format: format, Glb: tile.Glb}, nil
	case FormatPoints:
		tile, err := pnts.DecodeBytes(data)
		if err != nil {
			return nil, err
		}
		points, err := tile.Points()
		if err != nil {
			return nil, err
		}
		return &Payload{Format: format, Points: points}, nil
	case FormatGlb:
		return &Payload{Format: format, Glb: data}, nil
	}
	return nil, fmt.Errorf("%w: %q has no scene payload", ErrUnknownFormat, format)
}

// Content is a fully decoded tile. Exactly one tile field is set.
type Content struct {
	Format    Format
	Batched   *b3dm.Tile
	Instanced *i3dm.Tile
	Points    *pnts.Tile
	Glb       []byte
}

// Decode sniffs the format of data and decodes it.
func Decode(data []byte) (*Content, error) {
	format, err := Sniff(data)
	if err != nil {
		return nil, err
	}

	c := Content{Format: format}
	switch format {
	case FormatBatched:
		c.Batched, err = b3dm.DecodeBytes(data)
	case FormatInstanced:
		c.Instanced, err = i3dm.DecodeBytes(data)
	case FormatPoints:
		c.Points, err = pnts.DecodeBytes(data)
	case FormatGlb:
		c.Glb = data
	default:
		return nil, fmt.Errorf("%w: %q is not tile content", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
