package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// ReadFeatureTable reads the feature table JSON into semantics and returns the
// binary body. Exactly jsonLength+binaryLength bytes are consumed.
func ReadFeatureTable(r *Reader, jsonLength, binaryLength uint32, semantics any) ([]byte, error) {
	data, err := r.ReadBytes(uint64(jsonLength))
	if err != nil {
		return nil, err
	}
	if err := decodeTableJSON(data, semantics); err != nil {
		return nil, fmt.Errorf("feature table: %w", err)
	}
	return r.ReadBytes(uint64(binaryLength))
}

// BatchTable holds per-feature application properties.
// JSON is nil when the tile declares no batch table JSON; Body is always the
// full declared binary body.
type BatchTable struct {
	JSON *BatchTableJSON
	Body []byte
}

// ReadBatchTable reads the batch table. The binary body is consumed even
// when jsonLength is 0.
func ReadBatchTable(r *Reader, jsonLength, binaryLength uint32) (*BatchTable, error) {
	data, err := r.ReadBytes(uint64(jsonLength))
	if err != nil {
		return nil, err
	}
	var table BatchTable
	if jsonLength > 0 {
		table.JSON = &BatchTableJSON{}
		if err := decodeTableJSON(data, table.JSON); err != nil {
			return nil, fmt.Errorf("batch table: %w", err)
		}
	}
	table.Body, err = r.ReadBytes(uint64(binaryLength))
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func decodeTableJSON(data []byte, v any) error {
	data = bytes.TrimRight(data, " \x00")
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	return nil
}

// BatchProperty is a named batch table property: either inline JSON values,
// one per feature, or a reference into the batch table body.
type BatchProperty struct {
	Values    []json.RawMessage
	Reference *BinaryBodyReference
}

func (p *BatchProperty) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var ref BinaryBodyReference
		if err := json.Unmarshal(data, &ref); err != nil {
			return err
		}
		*p = BatchProperty{Reference: &ref}
		return nil
	}
	var values []json.RawMessage
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProperty, err)
	}
	*p = BatchProperty{Values: values}
	return nil
}

func (p BatchProperty) MarshalJSON() ([]byte, error) {
	if p.Reference != nil {
		return json.Marshal(p.Reference)
	}
	if p.Values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.Values)
}

// BatchTableJSON is the decoded batch table JSON header.
type BatchTableJSON struct {
	Properties map[string]BatchProperty
	Extensions map[string]json.RawMessage
	Extras     json.RawMessage
}

func (t *BatchTableJSON) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*t = BatchTableJSON{Properties: make(map[string]BatchProperty, len(fields))}
	for name, raw := range fields {
		switch name {
		case "extensions":
			if err := json.Unmarshal(raw, &t.Extensions); err != nil {
				return err
			}
		case "extras":
			t.Extras = raw
		default:
			var property BatchProperty
			if err := json.Unmarshal(raw, &property); err != nil {
				return fmt.Errorf("property %q: %w", name, err)
			}
			t.Properties[name] = property
		}
	}
	return nil
}

func (t BatchTableJSON) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(t.Properties)+2)
	for name, property := range t.Properties {
		fields[name] = property
	}
	if t.Extensions != nil {
		fields["extensions"] = t.Extensions
	}
	if t.Extras != nil {
		fields["extras"] = t.Extras
	}
	return json.Marshal(fields)
}

// Names returns property names in sorted order.
func (t *BatchTableJSON) Names() []string {
	names := make([]string, 0, len(t.Properties))
	for name := range t.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Floats decodes a numeric property for count features. Inline values must
// be JSON numbers; references must declare componentType and type.
func (t *BatchTable) Floats(name string, count int) ([]float64, error) {
	if t.JSON == nil {
		return nil, fmt.Errorf("%w: no batch table", ErrInvalidProperty)
	}
	property, ok := t.JSON.Properties[name]
	if !ok {
		return nil, fmt.Errorf("%w: property %q not found", ErrInvalidProperty, name)
	}

	if ref := property.Reference; ref != nil {
		arity := ref.Type.Arity()
		if arity == 0 {
			return nil, fmt.Errorf("%w: property %q has type %q", ErrInvalidProperty, name, ref.Type)
		}
		return ReadComponents(t.Body, ref.ByteOffset, ref.ComponentType, count, arity)
	}

	if len(property.Values) != count {
		return nil, fmt.Errorf("%w: property %q has %d values, want %d", ErrInvalidProperty, name, len(property.Values), count)
	}
	values := make([]float64, count)
	for i, raw := range property.Values {
		if err := json.Unmarshal(raw, &values[i]); err != nil {
			return nil, fmt.Errorf("%w: property %q[%d]: %w", ErrInvalidProperty, name, i, err)
		}
	}
	return values, nil
}

// ReadPayload reads the trailer that follows the four table sections:
// byteLength minus the header and sections, read exactly.
func ReadPayload(r *Reader, header *Header, headerLength int) ([]byte, error) {
	sections := header.SectionsLength(headerLength)
	if uint64(header.ByteLength) < sections {
		return nil, fmt.Errorf("%w: byteLength %d is less than sections length %d", ErrInvalidHeader, header.ByteLength, sections)
	}
	return r.ReadBytes(uint64(header.ByteLength) - sections)
}
