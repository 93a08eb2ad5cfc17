// Package tileset provides the 3D Tiles tileset model: JSON decoding, tree
// traversal with refine inheritance and transform composition, and content
// resolution across nested tileset documents.
package tileset

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTileset   = errors.New("invalid tileset")
	ErrMalformedTileset = errors.New("malformed tileset json")
	ErrMissingContent   = errors.New("no tile with content")
	ErrUnsupportedURI   = errors.New("unsupported content uri")
)

type Tileset struct {
	Asset              Asset                      `json:"asset"`
	Properties         map[string]PropertyRange   `json:"properties,omitempty"`
	GeometricError     float64                    `json:"geometricError"`
	Root               Tile                       `json:"root"`
	ExtensionsUsed     []string                   `json:"extensionsUsed,omitempty"`
	ExtensionsRequired []string                   `json:"extensionsRequired,omitempty"`
	Extensions         map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras             json.RawMessage            `json:"extras,omitempty"`
}

type Asset struct {
	Version        string                     `json:"version"`
	TilesetVersion string                     `json:"tilesetVersion,omitempty"`
	Extensions     map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras         json.RawMessage            `json:"extras,omitempty"`
}

// PropertyRange is the value range of a batch table property over the tileset.
type PropertyRange struct {
	Minimum float64 `json:"minimum"`
	Maximum float64 `json:"maximum"`
}

type Tile struct {
	BoundingVolume      BoundingVolume             `json:"boundingVolume"`
	ViewerRequestVolume *BoundingVolume            `json:"viewerRequestVolume,omitempty"`
	GeometricError      float64                    `json:"geometricError"`
	Refine              Refine                     `json:"refine,omitempty"`
	Transform           []float64                  `json:"transform,omitempty"`
	Content             *Content                   `json:"content,omitempty"`
	Children            []Tile                     `json:"children,omitempty"`
	Extensions          map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras              json.RawMessage            `json:"extras,omitempty"`
}

// Content references the payload of a tile: a binary tile or a nested
// tileset document.
type Content struct {
	URI            string                     `json:"uri"`
	BoundingVolume *BoundingVolume            `json:"boundingVolume,omitempty"`
	Extensions     map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras         json.RawMessage            `json:"extras,omitempty"`
}

// UnmarshalJSON accepts the legacy "url" field when "uri" is absent.
func (c *Content) UnmarshalJSON(data []byte) error {
	type content Content
	var v struct {
		content
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.URI == "" {
		v.URI = v.URL
	}
	*c = Content(v.content)
	return nil
}

// Refine is the refinement strategy of a tile.
// The empty value means the tile inherits the strategy of its parent.
type Refine string

const (
	RefineAdd     Refine = "ADD"
	RefineReplace Refine = "REPLACE"
)

// ParseRefine parses a refinement strategy, ignoring case and surrounding
// spaces. It returns the empty Refine for unknown values.
func ParseRefine(value string) Refine {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "ADD":
		return RefineAdd
	case "REPLACE":
		return RefineReplace
	}
	return ""
}

// UnmarshalJSON leaves the strategy empty (inherited) for a JSON null.
func (r *Refine) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	refine := ParseRefine(value)
	if refine == "" {
		return fmt.Errorf("%w: refine %q", ErrInvalidTileset, value)
	}
	*r = refine
	return nil
}

// Parse decodes a tileset document.
func Parse(data []byte) (*Tileset, error) {
	var ts Tileset
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTileset, err)
	}
	return &ts, nil
}

func Marshal(ts *Tileset) ([]byte, error) {
	return json.Marshal(ts)
}

// HasContent reports whether the tile carries content.
func (t *Tile) HasContent() bool {
	return t.Content != nil && t.Content.URI != ""
}

// FirstContent returns the first tile carrying content in depth-first
// pre-order, left to right over children, or nil.
func FirstContent(t *Tile) *Tile {
	if t.HasContent() {
		return t
	}
	for i := range t.Children {
		if found := FirstContent(&t.Children[i]); found != nil {
			return found
		}
	}
	return nil
}

// Validate checks structural constraints the decoder does not enforce:
// asset version, bounding volume shapes, transform sizes.
func (ts *Tileset) Validate() error {
	if ts.Asset.Version == "" {
		return fmt.Errorf("%w: missing asset.version", ErrInvalidTileset)
	}
	var errs []error
	var validate func(t *Tile, path string)
	validate = func(t *Tile, path string) {
		if err := t.BoundingVolume.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s.boundingVolume: %w", path, err))
		}
		if t.ViewerRequestVolume != nil {
			if err := t.ViewerRequestVolume.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("%s.viewerRequestVolume: %w", path, err))
			}
		}
		if t.Content != nil && t.Content.BoundingVolume != nil {
			if err := t.Content.BoundingVolume.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("%s.content.boundingVolume: %w", path, err))
			}
		}
		if t.Transform != nil && len(t.Transform) != 16 {
			errs = append(errs, fmt.Errorf("%w: %s.transform has %d elements", ErrInvalidTileset, path, len(t.Transform)))
		}
		if t.GeometricError < 0 {
			errs = append(errs, fmt.Errorf("%w: %s.geometricError is negative", ErrInvalidTileset, path))
		}
		for i := range t.Children {
			validate(&t.Children[i], fmt.Sprintf("%s.children[%d]", path, i))
		}
	}
	validate(&ts.Root, "root")
	return errors.Join(errs...)
}
