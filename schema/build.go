// Package schema is the reflection-based schema builder of §10.1: it
// translates Go struct types into the Type Model (package model) via a
// struct tag ("tagparse"), a per-type cache guarded by a RWMutex so
// repeated Build calls for the same type are free, and a private-field
// skip rule.
package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/tagparse/tagparse/model"
)

var (
	descMu   sync.RWMutex
	descByGo = make(map[reflect.Type]*model.Descriptor)

	fieldMu      sync.RWMutex
	fieldIndexes = make(map[reflect.Type]map[string]int)

	classMu    sync.RWMutex
	classByName = make(map[string]*model.Descriptor)
)

// Documented is an optional capability a struct type can implement to
// supply a Class docstring, detected by method presence exactly like the
// core's own from_partial/update hooks (§9).
type Documented interface {
	TagparseDoc() string
}

// Build constructs a Descriptor for t (typically a struct, or a pointer/
// slice/map/array of one) and an Instantiator able to build host values of
// that shape. Results are cached per reflect.Type, so calling Build twice
// for the same type is cheap and yields structurally-equal (and, for the
// class itself, pointer-identical) Descriptors.
func Build(t reflect.Type) (*model.Descriptor, *Instantiator, error) {
	d, err := describeType(t)
	if err != nil {
		return nil, nil, err
	}
	if err := model.Validate(d); err != nil {
		return nil, nil, err
	}
	return d, &Instantiator{}, nil
}

// BuildUnion constructs a Union root over the given variant types. Go has
// no way to enumerate the implementations of an interface via reflection,
// so unlike struct fields (discovered automatically) a union's variants
// must be named explicitly by its caller.
func BuildUnion(types ...reflect.Type) (*model.Descriptor, *Instantiator, error) {
	variants := make([]*model.Descriptor, len(types))
	for i, t := range types {
		d, err := describeType(t)
		if err != nil {
			return nil, nil, err
		}
		variants[i] = d
	}
	root := model.Union(variants...)
	if err := model.Validate(root); err != nil {
		return nil, nil, err
	}
	return root, &Instantiator{}, nil
}

func describeType(t reflect.Type) (*model.Descriptor, error) {
	descMu.RLock()
	if d, ok := descByGo[t]; ok {
		descMu.RUnlock()
		return d, nil
	}
	descMu.RUnlock()

	switch t.Kind() {
	case reflect.Ptr:
		elem, err := describeType(t.Elem())
		if err != nil {
			return nil, err
		}
		d := model.Optional(elem)
		cacheDesc(t, d)
		return d, nil

	case reflect.Struct:
		return describeStruct(t)

	case reflect.Slice:
		elem, err := describeType(t.Elem())
		if err != nil {
			return nil, err
		}
		d := model.List(elem)
		cacheDesc(t, d)
		return d, nil

	case reflect.Array:
		elem, err := describeType(t.Elem())
		if err != nil {
			return nil, err
		}
		elems := make([]*model.Descriptor, t.Len())
		for i := range elems {
			elems[i] = elem
		}
		d := model.Tuple(elems...)
		cacheDesc(t, d)
		return d, nil

	case reflect.Map:
		key, err := describeType(t.Key())
		if err != nil {
			return nil, err
		}
		val, err := describeType(t.Elem())
		if err != nil {
			return nil, err
		}
		d := model.Mapping(key, val)
		cacheDesc(t, d)
		return d, nil

	case reflect.String:
		return model.Primitive(model.PrimString), nil
	case reflect.Bool:
		return model.Primitive(model.PrimBool), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return model.Primitive(model.PrimInteger), nil
	case reflect.Float32, reflect.Float64:
		return model.Primitive(model.PrimReal), nil
	case reflect.Interface:
		return model.Primitive(model.PrimAny), nil
	}

	return nil, fmt.Errorf("schema: unsupported type %s", t)
}

// describeStruct builds a Class descriptor. The placeholder is cached
// before fields are visited so a type reachable from one of its own fields
// (through a pointer or slice hop, which the Type Model requires anyway —
// §9) resolves to the same Descriptor instead of recursing forever.
func describeStruct(t reflect.Type) (*model.Descriptor, error) {
	d := &model.Descriptor{Kind: model.KindClass, Name: t.Name(), ReflectType: t}
	cacheDesc(t, d)

	idx := make(map[string]int)
	var fields []model.Field

	n := t.NumField()
	for i := 0; i < n; i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" && !sf.Anonymous {
			continue // unexported field
		}

		tag := sf.Tag.Get("tagparse")
		if tag == "-" {
			continue
		}

		name := sf.Name
		omitempty := false
		asSet := false
		if tag != "" {
			parts := strings.Split(tag, ",")
			if parts[0] != "" {
				name = parts[0]
			}
			for _, flag := range parts[1:] {
				switch flag {
				case "omitempty":
					omitempty = true
				case "set":
					asSet = true
				default:
					return nil, fmt.Errorf("schema: unsupported flag %q in tag %q of %s.%s", flag, tag, t, sf.Name)
				}
			}
		}

		var ft *model.Descriptor
		var err error
		if asSet {
			if sf.Type.Kind() != reflect.Slice {
				return nil, fmt.Errorf("schema: %s.%s tagged \"set\" must be a slice", t, sf.Name)
			}
			elem, eerr := describeType(sf.Type.Elem())
			if eerr != nil {
				return nil, eerr
			}
			ft = model.Set(elem)
		} else {
			ft, err = describeType(sf.Type)
			if err != nil {
				return nil, err
			}
		}

		field := model.Field{Name: name, Type: ft, Required: !omitempty}
		if omitempty {
			field.HasDefault = true
			field.Default = reflect.Zero(sf.Type).Interface()
		}

		idx[name] = i
		fields = append(fields, field)
	}

	d.Fields = fields
	if doc, ok := reflect.New(t).Interface().(Documented); ok {
		d.Docstring = doc.TagparseDoc()
	}

	fieldMu.Lock()
	fieldIndexes[t] = idx
	fieldMu.Unlock()

	classMu.Lock()
	classByName[d.Name] = d
	classMu.Unlock()

	return d, nil
}

func cacheDesc(t reflect.Type, d *model.Descriptor) {
	descMu.Lock()
	descByGo[t] = d
	descMu.Unlock()
}
