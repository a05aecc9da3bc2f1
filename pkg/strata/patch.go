package strata

import (
	"fmt"
	"reflect"
	"sort"
)

// Patch is a partial state value: field names (for struct state) or keys
// (for map state) mapped to the values that overwrite them. Anything not
// named in the patch is preserved unchanged. A nil value sets the field to
// its zero value.
type Patch map[string]any

// Keys returns the patched field names in sorted order.
func (p Patch) Keys() []string {
	if len(p) == 0 {
		return nil
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// mergeValue produces a new value with patch shallow-merged over current.
// The result is always a fresh value: struct state is copied by value, map
// state is cloned before keys are written, so values handed out by earlier
// Get calls are never mutated.
//
// Panics on structural misuse: state that is neither struct nor map, a patch
// field the state type lacks, or a patch value not assignable to the field.
func mergeValue[T any](current T, patch Patch) T {
	if len(patch) == 0 {
		return current
	}

	rv := reflect.ValueOf(&current).Elem()

	switch rv.Kind() {
	case reflect.Struct:
		mergeStruct(rv, patch)
	case reflect.Map:
		mergeMap(rv, patch)
	default:
		panic(fmt.Sprintf("strata: cannot patch state of kind %s (want struct or map)", rv.Kind()))
	}

	return current
}

func mergeStruct(rv reflect.Value, patch Patch) {
	for name, val := range patch {
		field := rv.FieldByName(name)
		if !field.IsValid() {
			panic(fmt.Sprintf("strata: patch field %q does not exist on %s", name, rv.Type()))
		}
		if !field.CanSet() {
			panic(fmt.Sprintf("strata: patch field %q on %s is unexported", name, rv.Type()))
		}
		field.Set(coerce(val, field.Type(), name))
	}
}

func mergeMap(rv reflect.Value, patch Patch) {
	mt := rv.Type()
	if mt.Key().Kind() != reflect.String {
		panic(fmt.Sprintf("strata: cannot patch map state with %s keys (want string)", mt.Key()))
	}

	// Clone before writing: callers holding the previous value must not
	// observe the merge.
	merged := reflect.MakeMapWithSize(mt, rv.Len()+len(patch))
	iter := rv.MapRange()
	for iter.Next() {
		merged.SetMapIndex(iter.Key(), iter.Value())
	}

	for name, val := range patch {
		key := reflect.ValueOf(name).Convert(mt.Key())
		merged.SetMapIndex(key, coerce(val, mt.Elem(), name))
	}

	rv.Set(merged)
}

// coerce adapts a patch value to the destination type. Nil becomes the zero
// value; assignable values pass through; numeric values convert between
// numeric kinds (so Patch{"Count": 1} patches an int64 field).
func coerce(val any, dst reflect.Type, name string) reflect.Value {
	if val == nil {
		return reflect.Zero(dst)
	}

	pv := reflect.ValueOf(val)
	if pv.Type().AssignableTo(dst) {
		return pv
	}
	if isNumericKind(pv.Kind()) && isNumericKind(dst.Kind()) {
		return pv.Convert(dst)
	}

	panic(fmt.Sprintf("strata: patch field %q: %s is not assignable to %s", name, pv.Type(), dst))
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
