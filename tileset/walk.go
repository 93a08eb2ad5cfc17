package tileset

import (
	"errors"
	"fmt"

	dmat "github.com/flywave/go3d/float64/mat4"
	dvec3 "github.com/flywave/go3d/float64/vec3"
	dvec4 "github.com/flywave/go3d/float64/vec4"
)

// SkipChildren is returned by a WalkFunc to skip the children of the
// visited tile.
var SkipChildren = errors.New("skip children")

// Visit describes a tile reached by Walk.
type Visit struct {
	Tile   *Tile
	Parent *Tile
	Depth  int

	// Refine is the effective refinement: the tile's own value, or the
	// nearest ancestor's when the tile declares none.
	Refine Refine

	// World is the product of all transforms from the root down to and
	// including this tile.
	World dmat.T
}

type WalkFunc func(v *Visit) error

// Walk visits the tiles of ts depth-first in pre-order, left to right over
// children. Nested tileset documents are not followed.
func Walk(ts *Tileset, fn WalkFunc) error {
	err := walk(&ts.Root, nil, 0, "", &dmat.Ident, fn)
	if errors.Is(err, SkipChildren) {
		return nil
	}
	return err
}

func walk(t, parent *Tile, depth int, refine Refine, parentWorld *dmat.T, fn WalkFunc) error {
	local, err := t.Matrix()
	if err != nil {
		return err
	}
	visit := Visit{Tile: t, Parent: parent, Depth: depth, Refine: refine}
	if t.Refine != "" {
		visit.Refine = t.Refine
	}
	visit.World.AssignMul(parentWorld, &local)

	if err := fn(&visit); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for i := range t.Children {
		if err := walk(&t.Children[i], t, depth+1, visit.Refine, &visit.World, fn); err != nil {
			return err
		}
	}
	return nil
}

// Matrix returns the tile transform; identity when the tile has none.
// Transform elements are in column-major order.
func (t *Tile) Matrix() (dmat.T, error) {
	if t.Transform == nil {
		return dmat.Ident, nil
	}
	if len(t.Transform) != 16 {
		return dmat.T{}, fmt.Errorf("%w: transform has %d elements", ErrInvalidTileset, len(t.Transform))
	}
	a := t.Transform
	return dmat.T{
		dvec4.T{a[0], a[1], a[2], a[3]},
		dvec4.T{a[4], a[5], a[6], a[7]},
		dvec4.T{a[8], a[9], a[10], a[11]},
		dvec4.T{a[12], a[13], a[14], a[15]},
	}, nil
}

// TransformPoint applies the world transform of a visit to a point.
func (v *Visit) TransformPoint(p [3]float64) [3]float64 {
	point := dvec3.T(p)
	return [3]float64(v.World.MulVec3(&point))
}
