package hook

import (
	"reflect"

	"github.com/wnxd/memhook/dyncall"
	"github.com/wnxd/memhook/memory"
)

// decodeWord reinterprets one dispatched machine word per its declared
// tag.
func decodeWord(tag dyncall.Type, w uint64) any {
	switch tag {
	case dyncall.Type_Bool:
		return w != 0
	case dyncall.Type_Char:
		return int8(w)
	case dyncall.Type_UChar:
		return uint8(w)
	case dyncall.Type_Short:
		return int16(w)
	case dyncall.Type_UShort:
		return uint16(w)
	case dyncall.Type_Int:
		return int32(w)
	case dyncall.Type_UInt:
		return uint32(w)
	case dyncall.Type_Long:
		return int(w)
	case dyncall.Type_ULong:
		return uint(w)
	case dyncall.Type_LongLong:
		return int64(w)
	case dyncall.Type_ULongLong:
		return uint64(w)
	case dyncall.Type_String:
		s, err := memory.ToPointer(uintptr(w)).ReadString(0)
		if err != nil {
			return ""
		}
		return s
	}
	return memory.ToPointer(uintptr(w))
}

// encodeWord packs a dispatch result back into the machine word handed
// to the hooked function's caller.
func encodeWord(tag dyncall.Type, v any) uintptr {
	if v == nil {
		return 0
	}
	switch tag {
	case dyncall.Type_Bool:
		if b, ok := v.(bool); ok && b {
			return 1
		}
		return 0
	case dyncall.Type_Pointer, dyncall.Type_String:
		addr, _ := memory.AsAddress(v)
		return addr
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uintptr(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uintptr(rv.Uint())
	}
	return 0
}
