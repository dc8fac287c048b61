package model

// Instantiator is the narrow interface the core consumes to cross from its
// own Value/Descriptor world into the host's object model (§4.1, §6). The
// core never constructs host objects directly.
//
// Describe resolves a nominal class name against the schema the Instantiator
// was built from.
//
// Instantiate builds a final host object from a fully-bound field map. The
// Type Binder has already put each declared default into the map for an
// omitted field that has one; an omitted field without a default is simply
// absent from the map.
//
// InstantiatePartial and UpdatePartial expose the two optional capability
// hooks from §6: a host class may supply a partial-construction hook,
// discovered once by the Instantiator implementation and cached, and an
// update hook invoked on an already-instantiated object as more fields
// arrive. InstantiatePartial reports ok=false when the class has no partial
// hook; the Type Binder then calls Instantiate as soon as every required
// field is bound, without waiting for the enclosing value to close.
// UpdatePartial reports handled=false when the class has no update hook;
// the binder then drops the object it cached for that node and
// materializes it again from the current fields.
type Instantiator interface {
	Describe(name string) (*Descriptor, error)
	Instantiate(class *Descriptor, fields map[string]any) (any, error)
	InstantiatePartial(class *Descriptor, fields map[string]any) (obj any, ok bool)
	UpdatePartial(obj any, fields map[string]any) (handled bool)
}
