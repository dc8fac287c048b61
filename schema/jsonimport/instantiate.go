package jsonimport

import (
	"fmt"

	"github.com/tagparse/tagparse/model"
)

// Instantiator materializes plain map[string]any values for classes Import
// derived from a JSON Schema document. There is no backing Go struct to
// reflect into, so unlike schema.Instantiator it never claims a partial hook
// — the Type Binder builds a class's map as soon as every required field is
// bound, and builds it again from the current fields on each later bind. The
// map is handed to the caller, who is free to decode it further (e.g. via encoding/json's
// own map-to-struct path, or a second pass through schema.Instantiator).
type Instantiator struct{}

// Describe is not meaningful for a JSON-Schema-derived root: Import returns
// the single Descriptor it built directly rather than registering it under a
// shared name, so Describe always fails. A Union built over JSON Schema
// alternatives resolves its variants structurally during import instead.
func (Instantiator) Describe(name string) (*model.Descriptor, error) {
	return nil, fmt.Errorf("jsonimport: Describe is unsupported; use the Descriptor returned by Import directly")
}

// Instantiate returns fields unchanged as a map, applying nothing further:
// the Type Binder has already applied declared defaults and coerced every
// value to its bound shape.
func (Instantiator) Instantiate(class *model.Descriptor, fields map[string]any) (any, error) {
	return fields, nil
}

// InstantiatePartial always reports ok=false: a plain map has no means of
// observing partial growth, so the Type Binder calls Instantiate instead
// once every required field is bound.
func (Instantiator) InstantiatePartial(class *model.Descriptor, fields map[string]any) (any, bool) {
	return nil, false
}

// UpdatePartial always reports handled=false for the same reason.
func (Instantiator) UpdatePartial(obj any, fields map[string]any) bool {
	return false
}
