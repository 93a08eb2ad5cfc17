package pnts

import (
	"encoding/binary"
	"fmt"
	"math"

	dvec3 "github.com/flywave/go3d/float64/vec3"

	"github.com/eak1mov/go-3dtiles/spec"
)

// DecodePositions reads POINTS_LENGTH float32 (x, y, z) triples starting at
// the declared POSITION byte offset, or at offset 0 when POSITION is absent.
// Quantized positions are dequantized when no POSITION is declared.
func DecodePositions(ft *FeatureTable, body []byte) ([][3]float32, error) {
	n, err := pointsLength(ft, body)
	if err != nil {
		return nil, err
	}

	if ft.Position == nil && ft.PositionQuantized != nil {
		quantized, err := dequantizePositions(ft, body, n)
		if err != nil {
			return nil, err
		}
		positions := make([][3]float32, n)
		for i, p := range quantized {
			positions[i] = [3]float32{float32(p[0]), float32(p[1]), float32(p[2])}
		}
		return positions, nil
	}

	offset := uint32(0)
	if ft.Position != nil {
		if ft.Position.Kind != spec.KindReference {
			return nil, fmt.Errorf("%w: POSITION must reference the binary body, got %v", spec.ErrInvalidProperty, ft.Position.Kind)
		}
		offset = ft.Position.Reference.ByteOffset
	}

	const stride = 12
	end := uint64(offset) + uint64(n)*stride
	if uint64(len(body)) < end {
		return nil, fmt.Errorf("%w: %d positions at offset %d need %d bytes, body has %d",
			spec.ErrTruncatedBody, n, offset, end, len(body))
	}

	positions := make([][3]float32, n)
	for i := range positions {
		p := body[uint64(offset)+uint64(i)*stride:]
		positions[i] = [3]float32{
			math.Float32frombits(binary.LittleEndian.Uint32(p[0:])),
			math.Float32frombits(binary.LittleEndian.Uint32(p[4:])),
			math.Float32frombits(binary.LittleEndian.Uint32(p[8:])),
		}
	}
	return positions, nil
}

// Points holds decoded point attributes. Per-point attributes are nil when
// the feature table does not declare them.
type Points struct {
	Positions     [][3]float32
	Colors        [][4]uint8
	ConstantColor *[4]uint8
	Normals       [][3]float32
	BatchIDs      []uint32
	BatchLength   uint32
	RTCCenter     *[3]float64
}

// DecodePoints decodes positions and every optional attribute the feature
// table declares, each at its own byte offset and component type.
// Color precedence is RGBA, RGB, RGB565; normal precedence is NORMAL,
// NORMAL_OCT16P.
func DecodePoints(ft *FeatureTable, body []byte) (*Points, error) {
	positions, err := DecodePositions(ft, body)
	if err != nil {
		return nil, err
	}
	n := len(positions)
	points := Points{Positions: positions}

	switch {
	case ft.RGBA != nil:
		values, err := ft.RGBA.ResolveArray(body, spec.ComponentTypeUnsignedByte, n, 4)
		if err != nil {
			return nil, fmt.Errorf("RGBA: %w", err)
		}
		points.Colors = make([][4]uint8, n)
		for i := range points.Colors {
			points.Colors[i] = [4]uint8{uint8(values[4*i]), uint8(values[4*i+1]), uint8(values[4*i+2]), uint8(values[4*i+3])}
		}
	case ft.RGB != nil:
		values, err := ft.RGB.ResolveArray(body, spec.ComponentTypeUnsignedByte, n, 3)
		if err != nil {
			return nil, fmt.Errorf("RGB: %w", err)
		}
		points.Colors = make([][4]uint8, n)
		for i := range points.Colors {
			points.Colors[i] = [4]uint8{uint8(values[3*i]), uint8(values[3*i+1]), uint8(values[3*i+2]), 255}
		}
	case ft.RGB565 != nil:
		values, err := ft.RGB565.ResolveArray(body, spec.ComponentTypeUnsignedShort, n, 1)
		if err != nil {
			return nil, fmt.Errorf("RGB565: %w", err)
		}
		points.Colors = make([][4]uint8, n)
		for i, v := range values {
			points.Colors[i] = ExpandRGB565(uint16(v))
		}
	}

	if ft.ConstantRGBA != nil {
		v, err := ft.ConstantRGBA.ResolveVector(body, spec.ComponentTypeUnsignedByte, 4)
		if err != nil {
			return nil, fmt.Errorf("CONSTANT_RGBA: %w", err)
		}
		points.ConstantColor = &[4]uint8{uint8(v[0]), uint8(v[1]), uint8(v[2]), uint8(v[3])}
	}

	switch {
	case ft.Normal != nil:
		values, err := ft.Normal.ResolveArray(body, spec.ComponentTypeFloat, n, 3)
		if err != nil {
			return nil, fmt.Errorf("NORMAL: %w", err)
		}
		points.Normals = make([][3]float32, n)
		for i := range points.Normals {
			points.Normals[i] = [3]float32{float32(values[3*i]), float32(values[3*i+1]), float32(values[3*i+2])}
		}
	case ft.NormalOct16P != nil:
		values, err := ft.NormalOct16P.ResolveArray(body, spec.ComponentTypeUnsignedByte, n, 2)
		if err != nil {
			return nil, fmt.Errorf("NORMAL_OCT16P: %w", err)
		}
		points.Normals = make([][3]float32, n)
		for i := range points.Normals {
			v := spec.OctDecode(values[2*i], values[2*i+1], 255)
			points.Normals[i] = [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
		}
	}

	if ft.BatchID != nil {
		points.BatchIDs, err = batchIDs(ft.BatchID, body, n)
		if err != nil {
			return nil, fmt.Errorf("BATCH_ID: %w", err)
		}
	}
	if ft.BatchLength != nil {
		v, err := ft.BatchLength.ResolveScalar(body, spec.ComponentTypeUnsignedInt)
		if err != nil {
			return nil, fmt.Errorf("BATCH_LENGTH: %w", err)
		}
		points.BatchLength = uint32(v)
	}

	if ft.RTCCenter != nil {
		v, err := ft.RTCCenter.ResolveVector(body, spec.ComponentTypeFloat, 3)
		if err != nil {
			return nil, fmt.Errorf("RTC_CENTER: %w", err)
		}
		points.RTCCenter = &[3]float64{v[0], v[1], v[2]}
	}

	return &points, nil
}

// WorldPositions returns positions with the RTC center applied.
func (p *Points) WorldPositions() []dvec3.T {
	var center dvec3.T
	if p.RTCCenter != nil {
		center = dvec3.T(*p.RTCCenter)
	}
	result := make([]dvec3.T, len(p.Positions))
	for i, pos := range p.Positions {
		v := dvec3.T{float64(pos[0]), float64(pos[1]), float64(pos[2])}
		result[i] = dvec3.Add(&v, &center)
	}
	return result
}

// Bounds returns the axis-aligned box of WorldPositions.
func (p *Points) Bounds() dvec3.Box {
	box := dvec3.MinBox
	for _, v := range p.WorldPositions() {
		box.Extend(&v)
	}
	return box
}

// ExpandRGB565 converts a packed 5-6-5 color into opaque 8-bit RGBA.
func ExpandRGB565(v uint16) [4]uint8 {
	r := uint8(v>>11) & 0x1f
	g := uint8(v>>5) & 0x3f
	b := uint8(v) & 0x1f
	return [4]uint8{r<<3 | r>>2, g<<2 | g>>4, b<<3 | b>>2, 255}
}

func pointsLength(ft *FeatureTable, body []byte) (int, error) {
	v, err := ft.PointsLength.ResolveScalar(body, spec.ComponentTypeUnsignedInt)
	if err != nil {
		return 0, fmt.Errorf("POINTS_LENGTH: %w", err)
	}
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: POINTS_LENGTH %v", spec.ErrInvalidProperty, v)
	}
	return int(v), nil
}

func dequantizePositions(ft *FeatureTable, body []byte, n int) ([][3]float64, error) {
	if ft.QuantizedVolumeOffset == nil || ft.QuantizedVolumeScale == nil {
		return nil, fmt.Errorf("%w: POSITION_QUANTIZED requires QUANTIZED_VOLUME_OFFSET and QUANTIZED_VOLUME_SCALE", spec.ErrInvalidProperty)
	}
	offset, err := ft.QuantizedVolumeOffset.ResolveVector(body, spec.ComponentTypeFloat, 3)
	if err != nil {
		return nil, fmt.Errorf("QUANTIZED_VOLUME_OFFSET: %w", err)
	}
	scale, err := ft.QuantizedVolumeScale.ResolveVector(body, spec.ComponentTypeFloat, 3)
	if err != nil {
		return nil, fmt.Errorf("QUANTIZED_VOLUME_SCALE: %w", err)
	}
	values, err := ft.PositionQuantized.ResolveArray(body, spec.ComponentTypeUnsignedShort, n, 3)
	if err != nil {
		return nil, fmt.Errorf("POSITION_QUANTIZED: %w", err)
	}

	positions := make([][3]float64, n)
	for i := range positions {
		q := [3]float64{values[3*i], values[3*i+1], values[3*i+2]}
		positions[i] = spec.Dequantize(q, [3]float64(offset), [3]float64(scale))
	}
	return positions, nil
}

func batchIDs(v *spec.PropertyValue, body []byte, n int) ([]uint32, error) {
	if v.Reference != nil {
		switch v.Reference.ComponentType {
		case "", spec.ComponentTypeUnsignedByte, spec.ComponentTypeUnsignedShort, spec.ComponentTypeUnsignedInt:
		default:
			return nil, fmt.Errorf("%w: component type %q", spec.ErrInvalidProperty, v.Reference.ComponentType)
		}
	}
	values, err := v.ResolveArray(body, spec.ComponentTypeUnsignedShort, n, 1)
	if err != nil {
		return nil, err
	}
	ids := make([]uint32, n)
	for i, id := range values {
		ids[i] = uint32(id)
	}
	return ids, nil
}
