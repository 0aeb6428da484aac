// Package encoding marshals Go values to and from raw memory reached
// through an io.ReaderAt / io.WriterAt view. Only flat values are
// supported: primitives, uintptr-sized words and arrays/structs composed
// of them. Such values share their byte layout with the memory they
// describe, so the codec validates the layout once per type and then
// moves bytes verbatim.
package encoding

import (
	"errors"
	"io"
	"reflect"
	"sync"
	"unsafe"

	"github.com/modern-go/reflect2"
)

type layout struct {
	size int
	err  error
}

var layouts sync.Map

// Decode reads the flat representation of val from r at off. val must be
// a non-nil pointer.
func Decode(r io.ReaderAt, off int64, val any) error {
	if reflect2.TypeOf(val).Kind() != reflect.Pointer {
		return errors.ErrUnsupported
	}
	typ, ptr, err := flatValue(val)
	if err != nil {
		return err
	}
	lay, err := layoutOf(typ)
	if err != nil {
		return err
	}
	_, err = r.ReadAt(unsafe.Slice((*byte)(ptr), lay.size), off)
	return err
}

// Encode writes the flat representation of val to w at off. val may be a
// value or a pointer to one.
func Encode(w io.WriterAt, off int64, val any) error {
	typ, ptr, err := flatValue(val)
	if err != nil {
		return err
	}
	lay, err := layoutOf(typ)
	if err != nil {
		return err
	}
	_, err = w.WriteAt(unsafe.Slice((*byte)(ptr), lay.size), off)
	return err
}

// SizeOf reports the flat size of val's type.
func SizeOf(val any) (int, error) {
	typ, _, err := flatValue(val)
	if err != nil {
		return 0, err
	}
	lay, err := layoutOf(typ)
	if err != nil {
		return 0, err
	}
	return lay.size, nil
}

func flatValue(val any) (reflect2.Type, unsafe.Pointer, error) {
	ptr := reflect2.PtrOf(val)
	if ptr == nil {
		return nil, nil, errors.ErrUnsupported
	}
	typ := reflect2.TypeOf(val)
	if typ.Kind() == reflect.Pointer {
		// The interface data word already is the *T.
		typ = typ.(reflect2.PtrType).Elem()
	}
	return typ, ptr, nil
}

func layoutOf(typ reflect2.Type) (*layout, error) {
	key := typ.RType()
	if v, ok := layouts.Load(key); ok {
		lay := v.(*layout)
		return lay, lay.err
	}
	lay := &layout{err: checkFlat(typ.Type1())}
	lay.size = int(typ.Type1().Size())
	layouts.Store(key, lay)
	return lay, lay.err
}

func checkFlat(typ reflect.Type) error {
	switch typ.Kind() {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int, reflect.Uint, reflect.Uintptr, reflect.UnsafePointer,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return nil
	case reflect.Array:
		return checkFlat(typ.Elem())
	case reflect.Struct:
		for i := 0; i < typ.NumField(); i++ {
			if err := checkFlat(typ.Field(i).Type); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.ErrUnsupported
}
