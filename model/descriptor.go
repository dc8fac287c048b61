// Package model is the Type Model: a tagged-variant representation of the
// schema a Parser binds parsed values against. A Descriptor is never built
// recursively by the core; it is handed in fully resolved by a schema
// builder (see the schema and schema/jsonimport packages) or assembled by
// hand with the constructors below (Primitive, Optional, List, Tuple, Set,
// Mapping, Union, Class).
package model

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind discriminates the shape of a Descriptor. Descriptor intentionally
// uses one flat struct with a Kind tag rather than an interface hierarchy:
// there is a fixed, closed set of shapes and no caller ever needs to add a
// new one, so a switch over Kind reads better than dynamic dispatch.
type Kind int

const (
	KindInvalid Kind = iota
	KindPrimitive
	KindOptional
	KindList
	KindTuple
	KindSet
	KindMapping
	KindUnion
	KindClass
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindOptional:
		return "optional"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindSet:
		return "set"
	case KindMapping:
		return "mapping"
	case KindUnion:
		return "union"
	case KindClass:
		return "class"
	}
	return "invalid"
}

// PrimitiveKind enumerates the scalar leaves of the Type Model.
type PrimitiveKind int

const (
	PrimInvalid PrimitiveKind = iota
	PrimString
	PrimInteger
	PrimReal
	PrimBool
	PrimNull
	PrimAny
)

func (p PrimitiveKind) String() string {
	switch p {
	case PrimString:
		return "string"
	case PrimInteger:
		return "integer"
	case PrimReal:
		return "real"
	case PrimBool:
		return "bool"
	case PrimNull:
		return "null"
	case PrimAny:
		return "any"
	}
	return "invalid"
}

// Field is one declared member of a Class, in declaration order.
type Field struct {
	Name     string
	Type     *Descriptor
	Required bool
	Default  any // only meaningful when Required is false
	HasDefault bool
}

// Descriptor is one node of the Type Model. Which fields are meaningful
// depends on Kind; see the Kind constants above.
type Descriptor struct {
	Kind Kind

	// KindPrimitive
	Primitive PrimitiveKind

	// KindOptional, KindList, KindSet: the element type.
	Elem *Descriptor

	// KindTuple: the fixed-arity element types.
	Elems []*Descriptor

	// KindMapping
	Key   *Descriptor
	Value *Descriptor

	// KindUnion: ordered variants, first-admissible-wins unless all variants
	// are KindClass with disjoint required field sets (§4.5).
	Variants []*Descriptor

	// KindClass
	Name       string
	Fields     []Field
	Docstring  string
	ReflectType reflect.Type // optional: set by the reflection schema builder

	fieldIndex map[string]int // built lazily by FieldByName
}

// Primitive returns a primitive Descriptor of the given kind.
func Primitive(kind PrimitiveKind) *Descriptor {
	return &Descriptor{Kind: KindPrimitive, Primitive: kind}
}

// Optional wraps inner so it additionally admits null/omission.
func Optional(inner *Descriptor) *Descriptor {
	return &Descriptor{Kind: KindOptional, Elem: inner}
}

// List describes a homogeneous, variable-length sequence of elem.
func List(elem *Descriptor) *Descriptor {
	return &Descriptor{Kind: KindList, Elem: elem}
}

// Tuple describes a fixed-arity, heterogeneous sequence.
func Tuple(elems ...*Descriptor) *Descriptor {
	return &Descriptor{Kind: KindTuple, Elems: elems}
}

// Set describes a List-shaped wire value that is de-duplicated on bind.
func Set(elem *Descriptor) *Descriptor {
	return &Descriptor{Kind: KindSet, Elem: elem}
}

// Mapping describes a homogeneous string-ish-keyed dictionary.
func Mapping(key, value *Descriptor) *Descriptor {
	return &Descriptor{Kind: KindMapping, Key: key, Value: value}
}

// Union describes an ordered set of admissible alternatives.
func Union(variants ...*Descriptor) *Descriptor {
	return &Descriptor{Kind: KindUnion, Variants: variants}
}

// Class describes a nominal record type with an ordered field list.
func Class(name string, fields []Field, docstring string) *Descriptor {
	return &Descriptor{Kind: KindClass, Name: name, Fields: fields, Docstring: docstring}
}

// FieldByName looks up a declared field, building and caching an index map
// on first use. Returns false if no such field was declared.
func (d *Descriptor) FieldByName(name string) (Field, bool) {
	if d.Kind != KindClass {
		return Field{}, false
	}
	if d.fieldIndex == nil {
		d.fieldIndex = make(map[string]int, len(d.Fields))
		for i, f := range d.Fields {
			d.fieldIndex[f.Name] = i
		}
	}
	i, ok := d.fieldIndex[name]
	if !ok {
		return Field{}, false
	}
	return d.Fields[i], true
}

// RequiredFields returns the names of a Class's required fields, in
// declaration order. Used by union field-set disambiguation (§4.5).
func (d *Descriptor) RequiredFields() []string {
	if d.Kind != KindClass {
		return nil
	}
	out := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Validate walks the descriptor graph checking the invariants from §3:
// no dangling names (handled by construction, since Descriptors are always
// fully resolved pointers, never names), no duplicate Class field names, no
// Union with fewer than two variants, and no cyclic Class reachable from
// itself without passing through an Optional or List/Set/Mapping hop.
func Validate(d *Descriptor) error {
	return validate(d, nil, make(map[*Descriptor]bool))
}

func validate(d *Descriptor, path []*Descriptor, visitedOK map[*Descriptor]bool) error {
	if d == nil {
		return fmt.Errorf("tagparse: nil descriptor in schema")
	}
	for _, anc := range path {
		if anc == d {
			return fmt.Errorf("tagparse: cyclic descriptor %s not broken by Optional/List/Set/Mapping", describePath(path, d))
		}
	}
	if visitedOK[d] {
		return nil
	}
	// Mark before descending, not after: a self-reference reached again
	// through a cycle-breaking hop (Optional/List/Set/Mapping, which resets
	// path) must already be marked so the recursion terminates instead of
	// re-walking the same subtree forever.
	visitedOK[d] = true

	switch d.Kind {
	case KindPrimitive:
		if d.Primitive == PrimInvalid {
			return fmt.Errorf("tagparse: invalid primitive descriptor")
		}
	case KindOptional:
		// An Optional breaks cycles: don't extend path through it.
		if err := validate(d.Elem, nil, visitedOK); err != nil {
			return err
		}
	case KindList, KindSet:
		// Containers also break cycles (the host's zero/nil collection
		// terminates recursive construction), matching §9's note that
		// self-reference must route through Optional or List.
		if err := validate(d.Elem, nil, visitedOK); err != nil {
			return err
		}
	case KindTuple:
		for _, e := range d.Elems {
			if err := validate(e, append(path, d), visitedOK); err != nil {
				return err
			}
		}
	case KindMapping:
		if err := validate(d.Key, nil, visitedOK); err != nil {
			return err
		}
		if err := validate(d.Value, nil, visitedOK); err != nil {
			return err
		}
	case KindUnion:
		if len(d.Variants) < 2 {
			return fmt.Errorf("tagparse: union %s has fewer than 2 variants", describePath(path, d))
		}
		for _, v := range d.Variants {
			if err := validate(v, append(path, d), visitedOK); err != nil {
				return err
			}
		}
	case KindClass:
		seen := make(map[string]bool, len(d.Fields))
		for _, f := range d.Fields {
			if seen[f.Name] {
				return fmt.Errorf("tagparse: class %s declares field %q twice", d.Name, f.Name)
			}
			seen[f.Name] = true
			if err := validate(f.Type, append(path, d), visitedOK); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("tagparse: descriptor with unknown kind %d", d.Kind)
	}

	return nil
}

func describePath(path []*Descriptor, d *Descriptor) string {
	names := make([]string, 0, len(path)+1)
	for _, p := range path {
		if p.Kind == KindClass {
			names = append(names, p.Name)
		}
	}
	if d.Kind == KindClass {
		names = append(names, d.Name)
	}
	return strings.Join(names, "->")
}

// FormatType returns the canonical textual form of d, used in error messages
// and by the template helper (§4.1).
func FormatType(d *Descriptor) string {
	if d == nil {
		return "<nil>"
	}
	switch d.Kind {
	case KindPrimitive:
		return d.Primitive.String()
	case KindOptional:
		return "Optional[" + FormatType(d.Elem) + "]"
	case KindList:
		return "List[" + FormatType(d.Elem) + "]"
	case KindTuple:
		parts := make([]string, len(d.Elems))
		for i, e := range d.Elems {
			parts[i] = FormatType(e)
		}
		return "Tuple[" + strings.Join(parts, ", ") + "]"
	case KindSet:
		return "Set[" + FormatType(d.Elem) + "]"
	case KindMapping:
		return "Mapping[" + FormatType(d.Key) + ", " + FormatType(d.Value) + "]"
	case KindUnion:
		parts := make([]string, len(d.Variants))
		for i, v := range d.Variants {
			parts[i] = FormatType(v)
		}
		return "Union[" + strings.Join(parts, ", ") + "]"
	case KindClass:
		parts := make([]string, len(d.Fields))
		for i, f := range d.Fields {
			parts[i] = f.Name + ": " + FormatType(f.Type)
		}
		return d.Name + "{" + strings.Join(parts, ", ") + "}"
	}
	return "<invalid>"
}

// TypeDescription returns FormatType(d) plus the class docstring, if any.
func TypeDescription(d *Descriptor) string {
	s := FormatType(d)
	if d != nil && d.Kind == KindClass && d.Docstring != "" {
		return s + " -- " + d.Docstring
	}
	return s
}
