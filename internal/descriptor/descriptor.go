// Package descriptor defines the type descriptor that reflected metadata is
// materialized into, and the marker function that call sites use to ask for
// one.
package descriptor

import (
	"errors"
	"fmt"

	"github.com/tsmeta/tsmeta/internal/literal"
)

// Descriptor describes the shape of a single resolved type.
//
// Which optional fields are set depends on the type: ObjectFlags and
// Properties for classes and interfaces, Types for unions and intersections,
// Value for string and number literal types. The conditions are independent,
// so a descriptor may carry several of them.
type Descriptor struct {
	// Flags is the checker's TypeFlags bitset, copied verbatim.
	Flags uint32 `json:"flags"`

	ObjectFlags *uint32    `json:"objectFlags,omitzero"`
	Properties  []Property `json:"properties,omitzero"`

	Types []Descriptor `json:"types,omitzero"`

	// Value is a string or a float64.
	Value any `json:"value,omitzero"`

	// Circular marks a placeholder emitted in place of a type that is
	// already being described further up the tree.
	Circular bool `json:"circular,omitzero"`
}

// Property describes one declared member of a class or interface.
type Property struct {
	Name     string     `json:"name"`
	Value    Descriptor `json:"value"`
	Optional bool       `json:"optional"`
}

// ErrInvalid is returned by Validate for a descriptor that breaks the
// schema's shape rules.
var ErrInvalid = errors.New("invalid descriptor")

// Validate checks the structural rules of the schema recursively.
func (d *Descriptor) Validate() error {
	if d.ObjectFlags == nil && d.Properties != nil {
		return fmt.Errorf("%w: properties without objectFlags", ErrInvalid)
	}
	if d.ObjectFlags != nil && d.Properties == nil {
		return fmt.Errorf("%w: objectFlags without properties", ErrInvalid)
	}
	switch d.Value.(type) {
	case nil, string, float64:
	default:
		return fmt.Errorf("%w: value of type %T", ErrInvalid, d.Value)
	}
	if d.Circular && (d.Properties != nil || d.Types != nil) {
		return fmt.Errorf("%w: circular placeholder with members", ErrInvalid)
	}
	for i := range d.Properties {
		if err := d.Properties[i].Value.Validate(); err != nil {
			return fmt.Errorf("property %q: %w", d.Properties[i].Name, err)
		}
	}
	for i := range d.Types {
		if err := d.Types[i].Validate(); err != nil {
			return fmt.Errorf("types[%d]: %w", i, err)
		}
	}
	return nil
}

// Literal converts the descriptor into the object literal that replaces a
// marker call. Entries appear in the order flags, objectFlags, properties,
// types, value, circular.
func (d *Descriptor) Literal() literal.Expr {
	o := literal.Obj(literal.Entry{Key: "flags", Value: literal.Int(int64(d.Flags))})

	if d.ObjectFlags != nil {
		o.Set("objectFlags", literal.Int(int64(*d.ObjectFlags)))
	}
	if d.Properties != nil {
		props := make([]literal.Expr, 0, len(d.Properties))
		for i := range d.Properties {
			p := &d.Properties[i]
			props = append(props, literal.Obj(
				literal.Entry{Key: "name", Value: literal.Str(p.Name)},
				literal.Entry{Key: "value", Value: p.Value.Literal()},
				literal.Entry{Key: "optional", Value: literal.Boolean(p.Optional)},
			))
		}
		o.Set("properties", literal.Arr(props...))
	}
	if d.Types != nil {
		types := make([]literal.Expr, 0, len(d.Types))
		for i := range d.Types {
			types = append(types, d.Types[i].Literal())
		}
		o.Set("types", literal.Arr(types...))
	}
	switch v := d.Value.(type) {
	case string:
		o.Set("value", literal.Str(v))
	case float64:
		o.Set("value", literal.Num(v))
	}
	if d.Circular {
		o.Set("circular", literal.Boolean(true))
	}
	return o
}
