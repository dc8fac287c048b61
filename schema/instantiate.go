package schema

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/tagparse/tagparse/model"
)

// hookInfo records which of the two optional capability hooks (§6, §9) a
// type presents, detected once by method name and cached like everything
// else this package learns about a reflect.Type.
type hookInfo struct {
	fromPartial bool
	update      bool
}

var (
	hookMu    sync.RWMutex
	hookCache = make(map[reflect.Type]hookInfo)
)

func hooksFor(t reflect.Type) hookInfo {
	hookMu.RLock()
	h, ok := hookCache[t]
	hookMu.RUnlock()
	if ok {
		return h
	}

	ptr := reflect.PtrTo(t)
	_, hasFromPartial := ptr.MethodByName("FromPartial")
	_, hasUpdate := ptr.MethodByName("Update")
	h = hookInfo{fromPartial: hasFromPartial, update: hasUpdate}

	hookMu.Lock()
	hookCache[t] = h
	hookMu.Unlock()
	return h
}

// Instantiator implements model.Instantiator over the reflection-derived
// Descriptors this package builds. It holds no per-build state of its own;
// everything it needs (field indexes, hook presence, the name registry) is
// already cached at package scope and shared across every call rather than
// rebuilt per call.
type Instantiator struct{}

// Describe resolves a nominal class name against every struct type this
// package has ever been asked to Build, across the whole process.
func (Instantiator) Describe(name string) (*model.Descriptor, error) {
	classMu.RLock()
	d, ok := classByName[name]
	classMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("schema: unknown class %q", name)
	}
	return d, nil
}

// Instantiate builds a new *T (T = class.ReflectType), populates it from
// fields by the Go field index recorded when the Descriptor was built, and
// returns the populated T value.
func (Instantiator) Instantiate(class *model.Descriptor, fields map[string]any) (any, error) {
	obj, err := newAndFill(class, fields)
	if err != nil {
		return nil, err
	}
	return obj.Elem().Interface(), nil
}

// InstantiatePartial reports ok=false when class's Go type presents no
// FromPartial hook; otherwise it allocates a zero *T, fills in whatever
// fields are present, and calls FromPartial(fields) on it so the host type
// can customize its own partial materialization.
func (Instantiator) InstantiatePartial(class *model.Descriptor, fields map[string]any) (any, bool) {
	if class.ReflectType == nil || !hooksFor(class.ReflectType).fromPartial {
		return nil, false
	}
	obj, err := newAndFill(class, fields)
	if err != nil {
		return nil, false
	}
	method := obj.MethodByName("FromPartial")
	out := method.Call([]reflect.Value{reflect.ValueOf(fields)})
	if len(out) == 0 {
		return obj.Interface(), true
	}
	return out[0].Interface(), true
}

// UpdatePartial reports handled=false when obj's type presents no Update
// hook; otherwise it invokes Update(fields) on the already-instantiated
// object, letting streaming subscribers observe incremental growth.
func (Instantiator) UpdatePartial(obj any, fields map[string]any) bool {
	rv := reflect.ValueOf(obj)
	if !rv.IsValid() {
		return false
	}
	if rv.Kind() == reflect.Ptr && !hooksFor(rv.Type().Elem()).update {
		return false
	}
	method := rv.MethodByName("Update")
	if !method.IsValid() {
		return false
	}
	method.Call([]reflect.Value{reflect.ValueOf(fields)})
	return true
}

func newAndFill(class *model.Descriptor, fields map[string]any) (reflect.Value, error) {
	if class.ReflectType == nil {
		return reflect.Value{}, fmt.Errorf("schema: class %s has no backing Go type", class.Name)
	}

	fieldMu.RLock()
	idx := fieldIndexes[class.ReflectType]
	fieldMu.RUnlock()

	rv := reflect.New(class.ReflectType)
	elem := rv.Elem()
	for _, f := range class.Fields {
		val, present := fields[f.Name]
		if !present {
			continue
		}
		i, ok := idx[f.Name]
		if !ok {
			continue
		}
		if err := assign(elem.Field(i), val); err != nil {
			return reflect.Value{}, fmt.Errorf("schema: field %s.%s: %w", class.Name, f.Name, err)
		}
	}
	return rv, nil
}

// assign converts a Binder-produced value (string/int64/float64/bool/nil/
// []any/map[string]any, or an already-concrete host object returned by a
// nested Instantiate call) into dst, growing slices/maps/pointers/arrays as
// needed via reflection.
func assign(dst reflect.Value, v any) error {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)

	switch dst.Kind() {
	case reflect.Interface:
		dst.Set(rv)
		return nil

	case reflect.Ptr:
		if rv.Type().AssignableTo(dst.Type()) {
			dst.Set(rv)
			return nil
		}
		inner := reflect.New(dst.Type().Elem())
		if err := assign(inner.Elem(), v); err != nil {
			return err
		}
		dst.Set(inner)
		return nil

	case reflect.Slice:
		elems, ok := v.([]any)
		if !ok {
			return fmt.Errorf("expected a list, got %T", v)
		}
		out := reflect.MakeSlice(dst.Type(), len(elems), len(elems))
		for i, e := range elems {
			if err := assign(out.Index(i), e); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil

	case reflect.Array:
		elems, ok := v.([]any)
		if !ok || len(elems) != dst.Len() {
			return fmt.Errorf("expected an array of length %d, got %T", dst.Len(), v)
		}
		for i, e := range elems {
			if err := assign(dst.Index(i), e); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		pairs, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("expected a mapping, got %T", v)
		}
		out := reflect.MakeMapWithSize(dst.Type(), len(pairs))
		for k, e := range pairs {
			kv := reflect.New(dst.Type().Key()).Elem()
			if err := assign(kv, k); err != nil {
				return err
			}
			vv := reflect.New(dst.Type().Elem()).Elem()
			if err := assign(vv, e); err != nil {
				return err
			}
			out.SetMapIndex(kv, vv)
		}
		dst.Set(out)
		return nil

	default:
		if rv.Type().AssignableTo(dst.Type()) {
			dst.Set(rv)
			return nil
		}
		if rv.Type().ConvertibleTo(dst.Type()) {
			dst.Set(rv.Convert(dst.Type()))
			return nil
		}
		return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
	}
}
