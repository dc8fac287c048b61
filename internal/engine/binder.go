package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tagparse/tagparse/model"
)

// MissingFieldsError reports that a Class could not yet be materialized
// because one or more required fields are absent from the value tree, or
// present but not (yet) bindable to their declared type. The
// Streaming Facade treats this as "hold and retry" during feed and as a
// hard failure, under KindMissingRequiredField, during validate (§4.5, §7).
type MissingFieldsError struct {
	Class  string
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("tagparse: class %s missing required field(s): %s", e.Class, strings.Join(e.Fields, ", "))
}

// Binder is the Type Binder of §4.5. It is re-entrant: the Streaming Facade
// calls Bind again every time the value tree grows, and the Binder caches
// the host object produced for each class-shaped value node (keyed by the
// node's own pointer, which the Recovery Parser mutates in place rather
// than replacing) so that repeat calls route through the Instantiator's
// update hook first; a node whose update is declined is re-instantiated
// from its current fields.
type Binder struct {
	inst model.Instantiator
	objs map[*model.Value]any

	Warnings []Record
}

// NewBinder returns a Binder that crosses into the host object model
// through inst.
func NewBinder(inst model.Instantiator) *Binder {
	return &Binder{inst: inst, objs: make(map[*model.Value]any)}
}

// TakeWarnings drains and returns the binding-time warnings recorded since
// the last call (unknown-field and singleton-to-list notices; lexical/
// syntactic warnings come from the Lexer and Recovery Parser instead).
func (b *Binder) TakeWarnings() []Record {
	w := b.Warnings
	b.Warnings = nil
	return w
}

func (b *Binder) warn(kind Kind, offset int, format string, args ...any) {
	b.Warnings = append(b.Warnings, newRecord(kind, offset, format, args...))
}

// Bind maps v against d, producing a host value (or, for Class, a host
// object built through the Instantiator). A returned *MissingFieldsError is
// not fatal on its own — see the type's doc comment.
func (b *Binder) Bind(v *model.Value, d *model.Descriptor) (any, error) {
	return b.bind(v, d)
}

func (b *Binder) bind(v *model.Value, d *model.Descriptor) (any, error) {
	switch d.Kind {
	case model.KindPrimitive:
		return b.bindPrimitive(v, d)
	case model.KindOptional:
		if v == nil || v.Kind == model.VNull {
			return nil, nil
		}
		return b.bind(v, d.Elem)
	case model.KindList:
		return b.bindList(v, d)
	case model.KindTuple:
		return b.bindTuple(v, d)
	case model.KindSet:
		return b.bindSet(v, d)
	case model.KindMapping:
		return b.bindMapping(v, d)
	case model.KindUnion:
		return b.bindUnion(v, d)
	case model.KindClass:
		return b.bindClass(v, d)
	}
	return nil, fmt.Errorf("tagparse: descriptor with unknown kind in binder")
}

func (b *Binder) bindPrimitive(v *model.Value, d *model.Descriptor) (any, error) {
	if v == nil {
		return nil, newRecord(KindIncompatiblePrimitive, 0, "missing value for %s", d.Primitive)
	}
	switch d.Primitive {
	case model.PrimString:
		switch v.Kind {
		case model.VString:
			return v.Str, nil
		case model.VInt:
			return strconv.FormatInt(v.Int, 10), nil
		case model.VReal:
			return strconv.FormatFloat(v.Real, 'g', -1, 64), nil
		case model.VBool:
			return strconv.FormatBool(v.Bool), nil
		}
	case model.PrimInteger:
		switch v.Kind {
		case model.VInt:
			return v.Int, nil
		case model.VReal:
			// §9 open question: a nonzero fractional part is rejected
			// rather than truncated.
			if v.Real == math.Trunc(v.Real) {
				return int64(v.Real), nil
			}
			return nil, newRecord(KindIncompatiblePrimitive, 0, "real %v has a nonzero fractional part, cannot bind to integer", v.Real)
		case model.VString:
			if iv, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64); err == nil {
				return iv, nil
			}
		}
	case model.PrimReal:
		switch v.Kind {
		case model.VInt:
			return float64(v.Int), nil
		case model.VReal:
			return v.Real, nil
		case model.VString:
			if fv, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err == nil {
				return fv, nil
			}
		}
	case model.PrimBool:
		switch v.Kind {
		case model.VBool:
			return v.Bool, nil
		case model.VString:
			switch strings.ToLower(v.Str) {
			case "true":
				return true, nil
			case "false":
				return false, nil
			}
		}
	case model.PrimNull:
		if v.Kind == model.VNull {
			return nil, nil
		}
	case model.PrimAny:
		return v, nil
	}
	return nil, newRecord(KindIncompatiblePrimitive, 0, "cannot coerce %s to %s", v.Kind, d.Primitive)
}

func (b *Binder) bindList(v *model.Value, d *model.Descriptor) (any, error) {
	if v == nil {
		return []any{}, nil
	}
	if v.Kind != model.VArray {
		// Singleton-to-list coercion.
		elem, err := b.bind(v, d.Elem)
		if err != nil {
			return nil, err
		}
		b.warn(KindSingletonToList, 0, "single value wrapped into a one-element list")
		return []any{elem}, nil
	}
	out := make([]any, 0, len(v.Elems))
	for _, e := range v.Elems {
		bv, err := b.bind(e, d.Elem)
		if err != nil {
			return nil, err
		}
		out = append(out, bv)
	}
	return out, nil
}

func (b *Binder) bindTuple(v *model.Value, d *model.Descriptor) (any, error) {
	if v == nil || v.Kind != model.VArray {
		return nil, newRecord(KindArityMismatch, 0, "tuple requires an array value")
	}
	if len(v.Elems) != len(d.Elems) {
		return nil, newRecord(KindArityMismatch, 0, "tuple %s expects %d elements, got %d", model.FormatType(d), len(d.Elems), len(v.Elems))
	}
	out := make([]any, len(d.Elems))
	for i, elemType := range d.Elems {
		bv, err := b.bind(v.Elems[i], elemType)
		if err != nil {
			return nil, err
		}
		out[i] = bv
	}
	return out, nil
}

func (b *Binder) bindSet(v *model.Value, d *model.Descriptor) (any, error) {
	raw, err := b.bindList(v, &model.Descriptor{Kind: model.KindList, Elem: d.Elem})
	if err != nil {
		return nil, err
	}
	elems := raw.([]any)
	out := make([]any, 0, len(elems))
	for _, e := range elems {
		dup := false
		if comparableScalar(e) {
			for _, o := range out {
				if comparableScalar(o) && o == e {
					dup = true
					break
				}
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	return out, nil
}

// comparableScalar reports whether v is one of the primitive Go types the
// binder itself produces (string/int64/float64/bool/nil); composite values
// built from nested containers or host objects are never safe to compare
// with == and are kept as-is without deduplication.
func comparableScalar(v any) bool {
	switch v.(type) {
	case string, int64, float64, bool, nil:
		return true
	}
	return false
}

func (b *Binder) bindMapping(v *model.Value, d *model.Descriptor) (any, error) {
	out := map[string]any{}
	if v == nil {
		return out, nil
	}
	if v.Kind != model.VObject {
		return nil, newRecord(KindIncompatiblePrimitive, 0, "mapping requires an object value")
	}
	for _, p := range v.Pairs {
		kv, err := b.bind(model.NewString(p.Key), d.Key)
		if err != nil {
			return nil, err
		}
		ks, ok := kv.(string)
		if !ok {
			ks = p.Key
		}
		vv, err := b.bind(p.Value, d.Value)
		if err != nil {
			return nil, err
		}
		out[ks] = vv
	}
	return out, nil
}

// bindUnion tries declaration order, except that a union whose variants are
// all Classes with pairwise-disjoint required-field sets is disambiguated
// by field-set matching instead (§3, §4.5): the first variant whose
// required fields are all present in the object wins.
func (b *Binder) bindUnion(v *model.Value, d *model.Descriptor) (any, error) {
	if v != nil && v.Kind == model.VObject && allClassVariants(d.Variants) && disjointRequiredFields(d.Variants) {
		for _, variant := range d.Variants {
			req := variant.RequiredFields()
			if len(req) == 0 {
				continue
			}
			allPresent := true
			for _, rf := range req {
				if _, ok := v.Get(rf); !ok {
					allPresent = false
					break
				}
			}
			if allPresent {
				return b.bind(v, variant)
			}
		}
	}

	var lastErr error
	for _, variant := range d.Variants {
		out, err := b.bind(v, variant)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return nil, newRecord(KindNoAdmissibleUnionVariant, 0, "no admissible union variant among %s (last: %v)", model.FormatType(d), lastErr)
}

func allClassVariants(variants []*model.Descriptor) bool {
	for _, v := range variants {
		if v.Kind != model.KindClass {
			return false
		}
	}
	return true
}

func disjointRequiredFields(variants []*model.Descriptor) bool {
	seen := map[string]bool{}
	for _, variant := range variants {
		for _, rf := range variant.RequiredFields() {
			if seen[rf] {
				return false
			}
			seen[rf] = true
		}
	}
	return true
}

// bindClass requires a VObject; missing required fields (with no default)
// are reported via MissingFieldsError, unknown fields are ignored but
// warned about, and the result is produced through the Instantiator —
// InstantiatePartial on every bump until a host object exists for this
// node, Instantiate once every required field is bound and no hook claimed
// it, and UpdatePartial thereafter to push further growth into the cached
// object. When UpdatePartial declines and every required field is bound,
// the cached object is dropped and the node is materialized afresh from
// the current fields.
func (b *Binder) bindClass(v *model.Value, d *model.Descriptor) (any, error) {
	if v != nil && v.Kind == model.VObject {
		known := make(map[string]bool, len(d.Fields))
		for _, f := range d.Fields {
			known[f.Name] = true
		}
		for _, p := range v.Pairs {
			if !known[p.Key] {
				b.warn(KindUnknownField, 0, "class %s: unknown field %q ignored", d.Name, p.Key)
			}
		}
	}

	fields := map[string]any{}
	var missingRequired []string

	for _, f := range d.Fields {
		var fv *model.Value
		present := false
		if v != nil && v.Kind == model.VObject {
			fv, present = v.Get(f.Name)
		}
		if !present {
			switch {
			case f.Required:
				missingRequired = append(missingRequired, f.Name)
			case f.HasDefault:
				fields[f.Name] = f.Default
			}
			continue
		}
		bv, err := b.bind(fv, f.Type)
		if err != nil {
			if f.Required {
				missingRequired = append(missingRequired, f.Name)
			}
			continue
		}
		fields[f.Name] = bv
	}

	if existing, ok := b.objs[v]; ok {
		if b.inst.UpdatePartial(existing, fields) || len(missingRequired) > 0 {
			return existing, nil
		}
		// No update hook claimed the growth: rebuild from the current
		// fields below so later-arriving fields are not lost.
		delete(b.objs, v)
	}

	if obj, ok := b.inst.InstantiatePartial(d, fields); ok {
		if v != nil {
			b.objs[v] = obj
		}
		return obj, nil
	}

	if len(missingRequired) > 0 {
		return nil, &MissingFieldsError{Class: d.Name, Fields: missingRequired}
	}

	obj, err := b.inst.Instantiate(d, fields)
	if err != nil {
		return nil, err
	}
	if v != nil {
		b.objs[v] = obj
	}
	return obj, nil
}
