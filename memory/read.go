package memory

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

type Primitive interface {
	~bool | constraints.Integer | constraints.Float
}

// Read reads a primitive value at p+offset.
func Read[T Primitive](p Pointer, offset uintptr) (T, error) {
	var zero T
	if !p.IsValid() {
		return zero, ErrPointerInvalid
	}
	return *(*T)(unsafe.Pointer(p.Address() + offset)), nil
}

// Write stores a primitive value at p+offset.
func Write[T Primitive](p Pointer, offset uintptr, val T) error {
	if !p.IsValid() {
		return ErrPointerInvalid
	}
	*(*T)(unsafe.Pointer(p.Address() + offset)) = val
	return nil
}

func Align[I constraints.Integer](a, b I) I {
	return (a + b - 1) &^ (b - 1)
}
