package dyncall

import (
	"reflect"

	"github.com/wnxd/memhook/memory"
)

// coerce converts a caller-supplied argument into the frame type the
// native side expects for tag.
func coerce(tag Type, typ reflect.Type, arg any) (reflect.Value, error) {
	if tag == Type_Pointer {
		addr, ok := memory.AsAddress(arg)
		if !ok {
			return reflect.Value{}, ErrArgumentInvalid
		}
		return reflect.ValueOf(addr), nil
	}
	v := reflect.ValueOf(arg)
	if !v.IsValid() {
		return reflect.Value{}, ErrArgumentInvalid
	}
	if v.Type() == typ {
		return v, nil
	}
	switch tag {
	case Type_Bool, Type_String:
		// Exact kind required, no silent conversions.
		return reflect.Value{}, ErrArgumentInvalid
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return v.Convert(typ), nil
	}
	return reflect.Value{}, ErrArgumentInvalid
}
