package memory

import (
	"reflect"
	"unsafe"
)

// AsAddress extracts a raw address from anything pointer-like: a Pointer,
// an unsafe.Pointer, or any integer value. nil extracts as the null
// address.
func AsAddress(v any) (uintptr, bool) {
	switch x := v.(type) {
	case nil:
		return 0, true
	case Pointer:
		return x.Address(), true
	case uintptr:
		return x, true
	case unsafe.Pointer:
		return uintptr(x), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uintptr(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uintptr(rv.Uint()), true
	}
	return 0, false
}
