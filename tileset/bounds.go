package tileset

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// BoundingVolume is a box, a geographic region or a sphere.
//
// Box is a center followed by three half-axis vectors (12 numbers).
// Region is west, south, east, north in radians, then minimum and maximum
// height in meters (6 numbers). Sphere is a center and a radius (4 numbers).
type BoundingVolume struct {
	Box        []float64                  `json:"box,omitempty"`
	Region     []float64                  `json:"region,omitempty"`
	Sphere     []float64                  `json:"sphere,omitempty"`
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// Validate checks that exactly one shape is set and that it has the right
// number of elements.
func (b *BoundingVolume) Validate() error {
	shapes := 0
	for _, shape := range []struct {
		name   string
		values []float64
		size   int
	}{
		{"box", b.Box, 12},
		{"region", b.Region, 6},
		{"sphere", b.Sphere, 4},
	} {
		if shape.values == nil {
			continue
		}
		shapes++
		if len(shape.values) != shape.size {
			return fmt.Errorf("%w: %s has %d elements, want %d", ErrInvalidTileset, shape.name, len(shape.values), shape.size)
		}
	}
	if shapes != 1 {
		return fmt.Errorf("%w: bounding volume has %d shapes", ErrInvalidTileset, shapes)
	}
	return nil
}

// RegionBound returns the region as a lon/lat bound in degrees.
func (b *BoundingVolume) RegionBound() (orb.Bound, bool) {
	if len(b.Region) != 6 {
		return orb.Bound{}, false
	}
	toDegrees := func(v float64) float64 { return v * 180 / math.Pi }
	return orb.Bound{
		Min: orb.Point{toDegrees(b.Region[0]), toDegrees(b.Region[1])},
		Max: orb.Point{toDegrees(b.Region[2]), toDegrees(b.Region[3])},
	}, true
}

// HeightRange returns the minimum and maximum heights of a region.
func (b *BoundingVolume) HeightRange() (float64, float64, bool) {
	if len(b.Region) != 6 {
		return 0, 0, false
	}
	return b.Region[4], b.Region[5], true
}

func (b *BoundingVolume) String() string {
	switch {
	case b.Box != nil:
		return fmt.Sprintf("box%v", b.Box)
	case b.Region != nil:
		if bound, ok := b.RegionBound(); ok {
			return fmt.Sprintf("region[%.6f,%.6f .. %.6f,%.6f deg, h %v..%v]",
				bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat(), b.Region[4], b.Region[5])
		}
		return fmt.Sprintf("region%v", b.Region)
	case b.Sphere != nil:
		return fmt.Sprintf("sphere%v", b.Sphere)
	}
	return "none"
}
