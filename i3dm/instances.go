package i3dm

import (
	"fmt"

	"github.com/eak1mov/go-3dtiles/spec"
)

// Instances holds decoded per-instance attributes. Optional attributes are
// nil when the feature table does not declare them.
type Instances struct {
	Positions       [][3]float64
	NormalUp        [][3]float64
	NormalRight     [][3]float64
	Scale           []float64
	ScaleNonUniform [][3]float64
	BatchIDs        []uint32
	RTCCenter       *[3]float64
	EastNorthUp     bool
}

// DecodeInstances decodes instance attributes from the feature table body,
// honoring the byte offset and component type of every reference.
func DecodeInstances(ft *FeatureTable, body []byte) (*Instances, error) {
	length, err := ft.InstancesLength.ResolveScalar(body, spec.ComponentTypeUnsignedInt)
	if err != nil {
		return nil, fmt.Errorf("INSTANCES_LENGTH: %w", err)
	}
	n := int(length)
	instances := Instances{EastNorthUp: ft.EastNorthUp}

	switch {
	case ft.Position != nil:
		values, err := ft.Position.ResolveArray(body, spec.ComponentTypeFloat, n, 3)
		if err != nil {
			return nil, fmt.Errorf("POSITION: %w", err)
		}
		instances.Positions = triples(values)
	case ft.PositionQuantized != nil:
		instances.Positions, err = dequantize(ft, body, n)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: neither POSITION nor POSITION_QUANTIZED declared", spec.ErrInvalidProperty)
	}

	instances.NormalUp, err = normals(body, n, ft.NormalUp, ft.NormalUpOct32P)
	if err != nil {
		return nil, fmt.Errorf("NORMAL_UP: %w", err)
	}
	instances.NormalRight, err = normals(body, n, ft.NormalRight, ft.NormalRightOct32P)
	if err != nil {
		return nil, fmt.Errorf("NORMAL_RIGHT: %w", err)
	}

	if ft.Scale != nil {
		instances.Scale, err = ft.Scale.ResolveArray(body, spec.ComponentTypeFloat, n, 1)
		if err != nil {
			return nil, fmt.Errorf("SCALE: %w", err)
		}
	}
	if ft.ScaleNonUniform != nil {
		values, err := ft.ScaleNonUniform.ResolveArray(body, spec.ComponentTypeFloat, n, 3)
		if err != nil {
			return nil, fmt.Errorf("SCALE_NON_UNIFORM: %w", err)
		}
		instances.ScaleNonUniform = triples(values)
	}

	if ft.BatchID != nil {
		values, err := ft.BatchID.ResolveArray(body, spec.ComponentTypeUnsignedShort, n, 1)
		if err != nil {
			return nil, fmt.Errorf("BATCH_ID: %w", err)
		}
		instances.BatchIDs = make([]uint32, n)
		for i, v := range values {
			instances.BatchIDs[i] = uint32(v)
		}
	}

	if ft.RTCCenter != nil {
		v, err := ft.RTCCenter.ResolveVector(body, spec.ComponentTypeFloat, 3)
		if err != nil {
			return nil, fmt.Errorf("RTC_CENTER: %w", err)
		}
		instances.RTCCenter = &[3]float64{v[0], v[1], v[2]}
	}

	return &instances, nil
}

func dequantize(ft *FeatureTable, body []byte, n int) ([][3]float64, error) {
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

	positions := triples(values)
	for i, q := range positions {
		positions[i] = spec.Dequantize(q, [3]float64(offset), [3]float64(scale))
	}
	return positions, nil
}

func normals(body []byte, n int, plain, oct *spec.PropertyValue) ([][3]float64, error) {
	if plain != nil {
		values, err := plain.ResolveArray(body, spec.ComponentTypeFloat, n, 3)
		if err != nil {
			return nil, err
		}
		return triples(values), nil
	}
	if oct != nil {
		values, err := oct.ResolveArray(body, spec.ComponentTypeUnsignedShort, n, 2)
		if err != nil {
			return nil, err
		}
		result := make([][3]float64, n)
		for i := range result {
			result[i] = spec.OctDecode(values[2*i], values[2*i+1], 65535)
		}
		return result, nil
	}
	return nil, nil
}

func triples(values []float64) [][3]float64 {
	result := make([][3]float64, len(values)/3)
	for i := range result {
		result[i] = [3]float64{values[3*i], values[3*i+1], values[3*i+2]}
	}
	return result
}
