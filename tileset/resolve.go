package tileset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/eak1mov/go-3dtiles/tile"
)

// ContentRef is a resolved tile content.
type ContentRef struct {
	// URI of the content, relative to the root of the source.
	URI string

	// Tile carrying the content.
	Tile *Tile

	// RootBoundingVolume is the root bounding volume of the tileset
	// document that declares the content.
	RootBoundingVolume BoundingVolume

	// TilesetURI is the document that declares the content, and Depth is
	// its nesting level: 0 for the top-level document.
	TilesetURI string
	Depth      int
}

// Resolver follows content references of tileset documents read from a
// tile.Source, descending into nested tilesets.
type Resolver struct {
	source   tile.Source
	logger   *slog.Logger
	maxDepth int
}

type resolverConfig struct {
	Logger   *slog.Logger
	MaxDepth int
}

type ResolverOption func(*resolverConfig)

func WithLogger(logger *slog.Logger) ResolverOption {
	return func(c *resolverConfig) { c.Logger = logger }
}

// WithMaxDepth limits how deep nested tilesets are followed; 0 means no limit.
// Nested documents beyond the limit are skipped.
func WithMaxDepth(depth int) ResolverOption {
	return func(c *resolverConfig) { c.MaxDepth = depth }
}

func NewResolver(source tile.Source, opts ...ResolverOption) *Resolver {
	config := resolverConfig{
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Resolver{source: source, logger: config.Logger, maxDepth: config.MaxDepth}
}

// Load reads and parses the tileset document at uri.
func (r *Resolver) Load(uri string) (*Tileset, error) {
	data, err := r.source.ReadContent(uri)
	if err != nil {
		return nil, err
	}
	ts, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}
	return ts, nil
}

// ResolveNextContent returns the first tile content reachable from the
// tileset document at tilesetURI, searching depth-first in pre-order, left
// to right over children. Root content is returned without descending.
// Content with a .json extension is a nested tileset: it is loaded and
// searched in place; when it has no content, the search continues with the
// next tile. Each document is searched once: references back to a document
// on the current nesting path (cycles) and repeated references to an already
// searched document are skipped.
//
// It returns ErrMissingContent when no reachable tile carries content.
func (r *Resolver) ResolveNextContent(ctx context.Context, tilesetURI string) (*ContentRef, error) {
	var found *ContentRef
	err := r.VisitContents(ctx, tilesetURI, func(ref *ContentRef) error {
		found = ref
		return errStopVisit
	})
	if err != nil && !errors.Is(err, errStopVisit) {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingContent, tilesetURI)
	}
	return found, nil
}

var errStopVisit = errors.New("stop visit")

// VisitContents calls visitor for every tile content reachable from the
// tileset document at tilesetURI, in the order ResolveNextContent searches.
// Nested tileset documents are followed, not visited.
func (r *Resolver) VisitContents(ctx context.Context, tilesetURI string, visitor func(ref *ContentRef) error) error {
	uri, err := tile.CleanURI(tilesetURI)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedURI, err)
	}
	v := traversal{
		Resolver:  r,
		ctx:       ctx,
		visited:   make(map[string]bool),
		ancestors: make(map[string]bool),
		visitor:   visitor,
	}
	return v.document(uri, 0)
}

type traversal struct {
	*Resolver
	ctx context.Context

	// visited holds every document loaded so far, ancestors only the
	// documents on the current nesting path.
	visited   map[string]bool
	ancestors map[string]bool
	visitor   func(ref *ContentRef) error
}

func (v *traversal) document(uri string, depth int) error {
	if err := v.ctx.Err(); err != nil {
		return err
	}
	v.visited[uri] = true
	v.ancestors[uri] = true
	defer delete(v.ancestors, uri)

	ts, err := v.Load(uri)
	if err != nil {
		return err
	}
	v.logger.Debug("tiles3d: tileset loaded", "uri", uri, "depth", depth)

	return v.tile(ts, &ts.Root, uri, depth)
}

func (v *traversal) tile(ts *Tileset, t *Tile, docURI string, depth int) error {
	if t.HasContent() {
		if err := v.content(ts, t, docURI, depth); err != nil {
			return err
		}
	}
	for i := range t.Children {
		if err := v.tile(ts, &t.Children[i], docURI, depth); err != nil {
			return err
		}
	}
	return nil
}

func (v *traversal) content(ts *Tileset, t *Tile, docURI string, depth int) error {
	uri, err := ResolveURI(docURI, t.Content.URI)
	if err != nil {
		return err
	}

	if !IsTilesetURI(uri) {
		return v.visitor(&ContentRef{
			URI:                uri,
			Tile:               t,
			RootBoundingVolume: ts.Root.BoundingVolume,
			TilesetURI:         docURI,
			Depth:              depth,
		})
	}

	if v.ancestors[uri] {
		v.logger.Warn("tiles3d: skipping cyclic tileset reference", "uri", uri, "from", docURI)
		return nil
	}
	if v.visited[uri] {
		v.logger.Debug("tiles3d: skipping already visited tileset", "uri", uri, "from", docURI)
		return nil
	}
	if v.maxDepth > 0 && depth+1 > v.maxDepth {
		v.logger.Warn("tiles3d: skipping nested tileset beyond max depth", "uri", uri, "depth", depth+1)
		return nil
	}
	return v.document(uri, depth+1)
}

// ResolveURI resolves a content URI against the directory of the tileset
// document that declares it. Query and fragment are dropped. URIs with a
// scheme and URIs escaping the source root are rejected.
func ResolveURI(tilesetURI, contentURI string) (string, error) {
	u, err := url.Parse(contentURI)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrUnsupportedURI, contentURI, err)
	}
	if u.Scheme != "" || u.Host != "" {
		return "", fmt.Errorf("%w: %q is not a relative reference", ErrUnsupportedURI, contentURI)
	}
	if u.Path == "" || strings.HasPrefix(u.Path, "/") {
		return "", fmt.Errorf("%w: %q is not a relative path", ErrUnsupportedURI, contentURI)
	}
	resolved, err := tile.CleanURI(path.Join(path.Dir(tilesetURI), u.Path))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedURI, err)
	}
	return resolved, nil
}

// IsTilesetURI reports whether uri references a nested tileset document.
func IsTilesetURI(uri string) bool {
	return strings.EqualFold(path.Ext(uri), ".json")
}
