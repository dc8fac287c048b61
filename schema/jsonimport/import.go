// Package jsonimport is the JSON Schema-based builder of §10.2: an
// alternative to the reflect-based schema package for hosts that already
// carry a JSON Schema document (generated, hand-written, or inferred from
// sample documents) rather than a Go struct. It translates
// *jsonschema.Schema into the Type Model.
package jsonimport

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/tagparse/tagparse/model"
)

// Import translates a JSON Schema document into a Descriptor plus an
// Instantiator that materializes plain maps for object schemas (there is no
// Go struct behind a JSON-Schema-only class, so InstantiatePartial/
// UpdatePartial never claim a hook and Instantiate always returns
// map[string]any — callers that need a concrete struct should use the
// reflect-based schema package instead, or wrap the result themselves).
//
// name is used as the root Class's declared name when s itself carries no
// Title.
func Import(name string, s *jsonschema.Schema) (*model.Descriptor, *Instantiator, error) {
	defs := s.Defs
	d, err := importSchema(name, s, defs)
	if err != nil {
		return nil, nil, err
	}
	if err := model.Validate(d); err != nil {
		return nil, nil, err
	}
	return d, &Instantiator{}, nil
}

func importSchema(name string, s *jsonschema.Schema, defs map[string]*jsonschema.Schema) (*model.Descriptor, error) {
	if s == nil {
		return model.Primitive(model.PrimAny), nil
	}

	if s.Ref != "" {
		refName := refDefName(s.Ref)
		sub, ok := defs[refName]
		if !ok {
			return nil, fmt.Errorf("jsonimport: unresolved $ref %q", s.Ref)
		}
		return importSchema(refName, sub, defs)
	}

	if len(s.AnyOf) > 0 {
		return importUnion(name, s.AnyOf, defs)
	}
	if len(s.OneOf) > 0 {
		return importUnion(name, s.OneOf, defs)
	}

	if len(s.Enum) > 0 {
		// A JSON Schema enum has no direct Type Model counterpart; the
		// closest faithful mapping is a string primitive, since every enum
		// value in practice round-trips through the Value Lexer's STRING/
		// BAREWORD/NUMBER tokens and the binder's string coercions accept
		// all of them.
		return model.Primitive(model.PrimString), nil
	}

	typ := s.Type
	if typ == "" && len(s.Types) == 1 {
		typ = s.Types[0]
	}

	switch typ {
	case "string":
		return model.Primitive(model.PrimString), nil
	case "integer":
		return model.Primitive(model.PrimInteger), nil
	case "number":
		return model.Primitive(model.PrimReal), nil
	case "boolean":
		return model.Primitive(model.PrimBool), nil
	case "null":
		return model.Primitive(model.PrimNull), nil
	case "array":
		if s.Items == nil {
			return model.List(model.Primitive(model.PrimAny)), nil
		}
		elem, err := importSchema(name+"Item", s.Items, defs)
		if err != nil {
			return nil, err
		}
		return model.List(elem), nil
	case "object", "":
		return importObject(name, s, defs)
	}

	return model.Primitive(model.PrimAny), nil
}

func importObject(name string, s *jsonschema.Schema, defs map[string]*jsonschema.Schema) (*model.Descriptor, error) {
	if s.Title != "" {
		name = s.Title
	}

	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}

	order := s.PropertyOrder
	if len(order) == 0 {
		for k := range s.Properties {
			order = append(order, k)
		}
	}

	fields := make([]model.Field, 0, len(order))
	for _, key := range order {
		sub, ok := s.Properties[key]
		if !ok {
			continue
		}
		fd, err := importSchema(name+"_"+key, sub, defs)
		if err != nil {
			return nil, err
		}
		f := model.Field{Name: key, Type: fd, Required: required[key]}
		if !f.Required {
			f.HasDefault = true
			f.Default = nil
		}
		fields = append(fields, f)
	}

	return model.Class(name, fields, s.Description), nil
}

func importUnion(name string, alternatives []*jsonschema.Schema, defs map[string]*jsonschema.Schema) (*model.Descriptor, error) {
	variants := make([]*model.Descriptor, 0, len(alternatives))
	for i, alt := range alternatives {
		vd, err := importSchema(fmt.Sprintf("%s_%d", name, i), alt, defs)
		if err != nil {
			return nil, err
		}
		variants = append(variants, vd)
	}
	if len(variants) < 2 {
		return variants[0], nil
	}
	return model.Union(variants...), nil
}

// refDefName extracts the trailing component of a "#/$defs/Name"-style
// local reference; external references are not supported, matching the
// core's closed-world assumption that every descriptor is fully resolved
// at construction (§3).
func refDefName(ref string) string {
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] == '/' {
			return ref[i+1:]
		}
	}
	return ref
}
