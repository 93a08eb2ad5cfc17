package spec_test

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/eak1mov/go-3dtiles/spec"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestPropertyValueUnmarshal(t *testing.T) {
	testCases := []struct {
		input string
		want  spec.PropertyValue
	}{
		{`5`, spec.Scalar(5)},
		{` -1.25 `, spec.Scalar(-1.25)},
		{`[1, 2, 3, 4, 5]`, spec.Array(1, 2, 3, 4, 5)},
		{`[1, 2, 3]`, spec.Array(1, 2, 3)},
		{`{"byteOffset": 12}`, spec.Reference(12)},
		{
			`{"byteOffset": 4, "componentType": "UNSIGNED_INT", "type": "VEC2"}`,
			spec.PropertyValue{Kind: spec.KindReference, Reference: &spec.BinaryBodyReference{
				ByteOffset: 4, ComponentType: spec.ComponentTypeUnsignedInt, Type: spec.ElementTypeVec2,
			}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			var got spec.PropertyValue
			require.Nil(t, json.Unmarshal([]byte(tc.input), &got))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("null", func(t *testing.T) {
		var got spec.PropertyValue
		require.Nil(t, json.Unmarshal([]byte(`null`), &got))
		require.Equal(t, spec.KindUnknown, got.Kind)
		_, err := got.ResolveScalar(nil, spec.ComponentTypeUnsignedInt)
		require.Truef(t, errors.Is(err, spec.ErrInvalidProperty), "%v", err)
	})

	for _, input := range []string{`"text"`, `true`} {
		var got spec.PropertyValue
		err := json.Unmarshal([]byte(input), &got)
		require.Truef(t, errors.Is(err, spec.ErrInvalidProperty), "%s: %v", input, err)
	}
}

func TestGlobalCartesian(t *testing.T) {
	var c3 spec.GlobalCartesian3
	require.Nil(t, json.Unmarshal([]byte(`[1,2,3]`), &c3))
	require.Equal(t, spec.KindCartesian3, c3.Kind)

	require.Nil(t, json.Unmarshal([]byte(`[1,2]`), &c3))
	require.Equal(t, spec.KindArray, c3.Kind)

	require.Nil(t, json.Unmarshal([]byte(`{"byteOffset":0}`), &c3))
	require.Equal(t, spec.KindReference, c3.Kind)

	var c4 spec.GlobalCartesian4
	require.Nil(t, json.Unmarshal([]byte(`[255,0,0,128]`), &c4))
	require.Equal(t, spec.KindCartesian4, c4.Kind)
	require.Equal(t, []float64{255, 0, 0, 128}, c4.Array)
}

func TestPropertyValueMarshal(t *testing.T) {
	values := []spec.PropertyValue{
		spec.Scalar(3),
		spec.Array(1, 2),
		spec.Cartesian3(1, 2, 3).PropertyValue,
		spec.Reference(16),
	}
	for _, value := range values {
		data, err := json.Marshal(value)
		require.Nil(t, err)
		var got spec.PropertyValue
		require.Nil(t, json.Unmarshal(data, &got))
		if value.Kind == spec.KindCartesian3 {
			value.Kind = spec.KindArray
		}
		if diff := cmp.Diff(value, got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", data, diff)
		}
	}

	_, err := json.Marshal(spec.PropertyValue{})
	require.NotNil(t, err)
}

func TestComponentType(t *testing.T) {
	sizes := map[spec.ComponentType]int{
		spec.ComponentTypeByte:          1,
		spec.ComponentTypeUnsignedByte:  1,
		spec.ComponentTypeShort:         2,
		spec.ComponentTypeUnsignedShort: 2,
		spec.ComponentTypeInt:           4,
		spec.ComponentTypeUnsignedInt:   4,
		spec.ComponentTypeFloat:         4,
		spec.ComponentTypeDouble:        8,
		"HALF":                          0,
	}
	for componentType, want := range sizes {
		if got := componentType.Size(); got != want {
			t.Errorf("%v.Size() = %v, want = %v", componentType, got, want)
		}
	}
	require.Equal(t, 3, spec.ElementTypeVec3.Arity())
	require.Equal(t, 0, spec.ElementType("MAT4").Arity())
}

func TestReadComponents(t *testing.T) {
	body := []byte{0xff, 0xfe, 0xff}
	body = binary.LittleEndian.AppendUint64(body, math.Float64bits(2.5))

	got, err := spec.ReadComponents(body, 0, spec.ComponentTypeByte, 1, 1)
	require.Nil(t, err)
	require.Equal(t, []float64{-1}, got)

	got, err = spec.ReadComponents(body, 0, spec.ComponentTypeUnsignedByte, 3, 1)
	require.Nil(t, err)
	require.Equal(t, []float64{255, 254, 255}, got)

	got, err = spec.ReadComponents(body, 1, spec.ComponentTypeShort, 1, 1)
	require.Nil(t, err)
	require.Equal(t, []float64{-2}, got)

	got, err = spec.ReadComponents(body, 3, spec.ComponentTypeDouble, 1, 1)
	require.Nil(t, err)
	require.Equal(t, []float64{2.5}, got)

	_, err = spec.ReadComponents(body, 4, spec.ComponentTypeDouble, 1, 1)
	require.Truef(t, errors.Is(err, spec.ErrTruncatedBody), "%v", err)

	_, err = spec.ReadComponents(body, 0, "HALF", 1, 1)
	require.Truef(t, errors.Is(err, spec.ErrInvalidProperty), "%v", err)
}

func TestResolve(t *testing.T) {
	body := binary.LittleEndian.AppendUint32(nil, 42)

	value := spec.Scalar(7)
	got, err := value.ResolveScalar(body, spec.ComponentTypeUnsignedInt)
	require.Nil(t, err)
	require.Equal(t, 7.0, got)

	value = spec.Reference(0)
	got, err = value.ResolveScalar(body, spec.ComponentTypeUnsignedInt)
	require.Nil(t, err)
	require.Equal(t, 42.0, got)

	value = spec.Array(1, 2)
	_, err = value.ResolveScalar(body, spec.ComponentTypeUnsignedInt)
	require.Truef(t, errors.Is(err, spec.ErrInvalidProperty), "%v", err)

	vector, err := spec.Cartesian3(1, 2, 3).ResolveVector(nil, spec.ComponentTypeFloat, 3)
	require.Nil(t, err)
	require.Equal(t, []float64{1, 2, 3}, vector)

	_, err = spec.Cartesian3(1, 2, 3).ResolveVector(nil, spec.ComponentTypeFloat, 4)
	require.Truef(t, errors.Is(err, spec.ErrInvalidProperty), "%v", err)

	value = spec.Array(1, 2, 3, 4)
	values, err := value.ResolveArray(nil, spec.ComponentTypeFloat, 2, 2)
	require.Nil(t, err)
	require.Equal(t, []float64{1, 2, 3, 4}, values)
}
