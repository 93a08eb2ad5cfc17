package spec

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var ErrInvalidProperty = errors.New("invalid property value")

// ComponentType is the numeric type of values stored in a binary body.
type ComponentType string

const (
	ComponentTypeByte          ComponentType = "BYTE"
	ComponentTypeUnsignedByte  ComponentType = "UNSIGNED_BYTE"
	ComponentTypeShort         ComponentType = "SHORT"
	ComponentTypeUnsignedShort ComponentType = "UNSIGNED_SHORT"
	ComponentTypeInt           ComponentType = "INT"
	ComponentTypeUnsignedInt   ComponentType = "UNSIGNED_INT"
	ComponentTypeFloat         ComponentType = "FLOAT"
	ComponentTypeDouble        ComponentType = "DOUBLE"
)

// Size returns the size of one component in bytes, or 0 for unknown types.
func (c ComponentType) Size() int {
	switch c {
	case ComponentTypeByte, ComponentTypeUnsignedByte:
		return 1
	case ComponentTypeShort, ComponentTypeUnsignedShort:
		return 2
	case ComponentTypeInt, ComponentTypeUnsignedInt, ComponentTypeFloat:
		return 4
	case ComponentTypeDouble:
		return 8
	}
	return 0
}

// ElementType is the number of components per element.
type ElementType string

const (
	ElementTypeScalar ElementType = "SCALAR"
	ElementTypeVec2   ElementType = "VEC2"
	ElementTypeVec3   ElementType = "VEC3"
	ElementTypeVec4   ElementType = "VEC4"
)

func (t ElementType) Arity() int {
	switch t {
	case ElementTypeScalar:
		return 1
	case ElementTypeVec2:
		return 2
	case ElementTypeVec3:
		return 3
	case ElementTypeVec4:
		return 4
	}
	return 0
}

// BinaryBodyReference points into the binary body of a table.
// ComponentType and Type are optional for feature table semantics,
// which have fixed or default component types.
type BinaryBodyReference struct {
	ByteOffset    uint32        `json:"byteOffset"`
	ComponentType ComponentType `json:"componentType,omitempty"`
	Type          ElementType   `json:"type,omitempty"`
}

type PropertyKind uint8

const (
	KindUnknown PropertyKind = iota
	KindScalar
	KindArray
	KindCartesian3
	KindCartesian4
	KindReference
)

func (k PropertyKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	case KindCartesian3:
		return "cartesian3"
	case KindCartesian4:
		return "cartesian4"
	case KindReference:
		return "reference"
	}
	return "unknown"
}

// PropertyValue holds one feature table property. Exactly one of Scalar,
// Array or Reference is meaningful, as selected by Kind.
//
// JSON is decoded by shape, in this order: an object is a binary body
// reference, a number is a scalar, an array is an inline array. A JSON null
// leaves the value unset (KindUnknown).
type PropertyValue struct {
	Kind      PropertyKind
	Scalar    float64
	Array     []float64
	Reference *BinaryBodyReference
}

func Scalar(v float64) PropertyValue {
	return PropertyValue{Kind: KindScalar, Scalar: v}
}

func Array(v ...float64) PropertyValue {
	return PropertyValue{Kind: KindArray, Array: v}
}

func Reference(offset uint32) PropertyValue {
	return PropertyValue{Kind: KindReference, Reference: &BinaryBodyReference{ByteOffset: offset}}
}

func (v *PropertyValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty value", ErrInvalidProperty)
	}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '{':
		var ref BinaryBodyReference
		if err := json.Unmarshal(data, &ref); err != nil {
			return err
		}
		*v = PropertyValue{Kind: KindReference, Reference: &ref}
	case '[':
		var values []float64
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		*v = PropertyValue{Kind: KindArray, Array: values}
	default:
		var value float64
		if err := json.Unmarshal(data, &value); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidProperty, data)
		}
		*v = PropertyValue{Kind: KindScalar, Scalar: value}
	}
	return nil
}

func (v PropertyValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindScalar:
		return json.Marshal(v.Scalar)
	case KindArray, KindCartesian3, KindCartesian4:
		return json.Marshal(v.Array)
	case KindReference:
		return json.Marshal(v.Reference)
	}
	return nil, fmt.Errorf("%w: kind %v", ErrInvalidProperty, v.Kind)
}

// GlobalCartesian3 is a tile-wide property holding a 3-component vector,
// e.g. RTC_CENTER. An inline array of length 3 decodes to KindCartesian3.
type GlobalCartesian3 struct {
	PropertyValue
}

func (v *GlobalCartesian3) UnmarshalJSON(data []byte) error {
	if err := v.PropertyValue.UnmarshalJSON(data); err != nil {
		return err
	}
	if v.Kind == KindArray && len(v.Array) == 3 {
		v.Kind = KindCartesian3
	}
	return nil
}

// GlobalCartesian4 is a tile-wide property holding a 4-component vector,
// e.g. CONSTANT_RGBA.
type GlobalCartesian4 struct {
	PropertyValue
}

func (v *GlobalCartesian4) UnmarshalJSON(data []byte) error {
	if err := v.PropertyValue.UnmarshalJSON(data); err != nil {
		return err
	}
	if v.Kind == KindArray && len(v.Array) == 4 {
		v.Kind = KindCartesian4
	}
	return nil
}

// Cartesian3 returns a cartesian3 global value.
func Cartesian3(x, y, z float64) *GlobalCartesian3 {
	return &GlobalCartesian3{PropertyValue{Kind: KindCartesian3, Array: []float64{x, y, z}}}
}

// Cartesian4 returns a cartesian4 global value.
func Cartesian4(x, y, z, w float64) *GlobalCartesian4 {
	return &GlobalCartesian4{PropertyValue{Kind: KindCartesian4, Array: []float64{x, y, z, w}}}
}

// ResolveScalar returns a tile-wide scalar, reading it from body when the
// value is a reference. defaultType is used when the reference has no
// component type.
func (v *PropertyValue) ResolveScalar(body []byte, defaultType ComponentType) (float64, error) {
	switch v.Kind {
	case KindScalar:
		return v.Scalar, nil
	case KindReference:
		values, err := ReadComponents(body, v.Reference.ByteOffset, v.componentType(defaultType), 1, 1)
		if err != nil {
			return 0, err
		}
		return values[0], nil
	}
	return 0, fmt.Errorf("%w: want scalar, got %v", ErrInvalidProperty, v.Kind)
}

// ResolveVector returns a tile-wide vector of the given arity.
func (v *PropertyValue) ResolveVector(body []byte, defaultType ComponentType, arity int) ([]float64, error) {
	switch v.Kind {
	case KindArray, KindCartesian3, KindCartesian4:
		if len(v.Array) != arity {
			return nil, fmt.Errorf("%w: want %d components, got %d", ErrInvalidProperty, arity, len(v.Array))
		}
		return v.Array, nil
	case KindReference:
		return ReadComponents(body, v.Reference.ByteOffset, v.componentType(defaultType), 1, arity)
	}
	return nil, fmt.Errorf("%w: want vector, got %v", ErrInvalidProperty, v.Kind)
}

// ResolveArray returns count elements of the given arity for a per-feature
// property, from the inline array or from body.
func (v *PropertyValue) ResolveArray(body []byte, defaultType ComponentType, count, arity int) ([]float64, error) {
	switch v.Kind {
	case KindArray, KindCartesian3, KindCartesian4:
		if len(v.Array) != count*arity {
			return nil, fmt.Errorf("%w: want %d values, got %d", ErrInvalidProperty, count*arity, len(v.Array))
		}
		return v.Array, nil
	case KindReference:
		return ReadComponents(body, v.Reference.ByteOffset, v.componentType(defaultType), count, arity)
	}
	return nil, fmt.Errorf("%w: want array, got %v", ErrInvalidProperty, v.Kind)
}

func (v *PropertyValue) componentType(defaultType ComponentType) ComponentType {
	if v.Reference != nil && v.Reference.ComponentType != "" {
		return v.Reference.ComponentType
	}
	return defaultType
}

// ReadComponents decodes count elements of arity components each, starting
// at offset in body.
func ReadComponents(body []byte, offset uint32, componentType ComponentType, count, arity int) ([]float64, error) {
	size := componentType.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: component type %q", ErrInvalidProperty, componentType)
	}
	if count < 0 || arity <= 0 {
		return nil, fmt.Errorf("%w: count %d, arity %d", ErrInvalidProperty, count, arity)
	}
	n := count * arity
	end := uint64(offset) + uint64(n)*uint64(size)
	if end > uint64(len(body)) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, body has %d", ErrTruncatedBody, end-uint64(offset), offset, len(body))
	}

	data := body[offset:end]
	values := make([]float64, n)
	for i := range values {
		p := data[i*size:]
		switch componentType {
		case ComponentTypeByte:
			values[i] = float64(int8(p[0]))
		case ComponentTypeUnsignedByte:
			values[i] = float64(p[0])
		case ComponentTypeShort:
			values[i] = float64(int16(binary.LittleEndian.Uint16(p)))
		case ComponentTypeUnsignedShort:
			values[i] = float64(binary.LittleEndian.Uint16(p))
		case ComponentTypeInt:
			values[i] = float64(int32(binary.LittleEndian.Uint32(p)))
		case ComponentTypeUnsignedInt:
			values[i] = float64(binary.LittleEndian.Uint32(p))
		case ComponentTypeFloat:
			values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(p)))
		case ComponentTypeDouble:
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(p))
		}
	}
	return values, nil
}
