package dyncall

import "reflect"

// Type discriminates how a value crosses the native call boundary.
type Type int

const (
	Type_Void Type = iota
	Type_Bool
	Type_Char
	Type_UChar
	Type_Short
	Type_UShort
	Type_Int
	Type_UInt
	Type_Long
	Type_ULong
	Type_LongLong
	Type_ULongLong
	Type_Float
	Type_Double
	Type_Pointer
	Type_String
)

type Calling int

const (
	Calling_Default Calling = iota
	Calling_Cdecl
	Calling_Stdcall
	Calling_Thiscall
	Calling_Fastcall
)

var sigChars = [...]byte{
	Type_Void:      'v',
	Type_Bool:      'B',
	Type_Char:      'c',
	Type_UChar:     'C',
	Type_Short:     's',
	Type_UShort:    'S',
	Type_Int:       'i',
	Type_UInt:      'I',
	Type_Long:      'j',
	Type_ULong:     'J',
	Type_LongLong:  'l',
	Type_ULongLong: 'L',
	Type_Float:     'f',
	Type_Double:    'd',
	Type_Pointer:   'p',
	Type_String:    'Z',
}

// Char returns the signature character of t, or 0 for an unknown tag.
func (t Type) Char() byte {
	if t < Type_Void || int(t) >= len(sigChars) {
		return 0
	}
	return sigChars[t]
}

// goType maps t onto the Go type the marshaling frame exchanges with the
// native side. long is treated as a machine word.
func (t Type) goType() (reflect.Type, error) {
	switch t {
	case Type_Bool:
		return reflect.TypeOf(false), nil
	case Type_Char:
		return reflect.TypeOf(int8(0)), nil
	case Type_UChar:
		return reflect.TypeOf(uint8(0)), nil
	case Type_Short:
		return reflect.TypeOf(int16(0)), nil
	case Type_UShort:
		return reflect.TypeOf(uint16(0)), nil
	case Type_Int:
		return reflect.TypeOf(int32(0)), nil
	case Type_UInt:
		return reflect.TypeOf(uint32(0)), nil
	case Type_Long:
		return reflect.TypeOf(int(0)), nil
	case Type_ULong:
		return reflect.TypeOf(uint(0)), nil
	case Type_LongLong:
		return reflect.TypeOf(int64(0)), nil
	case Type_ULongLong:
		return reflect.TypeOf(uint64(0)), nil
	case Type_Float:
		return reflect.TypeOf(float32(0)), nil
	case Type_Double:
		return reflect.TypeOf(float64(0)), nil
	case Type_Pointer:
		return reflect.TypeOf(uintptr(0)), nil
	case Type_String:
		return reflect.TypeOf(""), nil
	}
	return nil, ErrTypeUnsupported
}
