package dyncall

import (
	"slices"
	"strings"

	"github.com/wnxd/memhook/memory"
)

// Function describes a native callable: address, calling convention and
// wire types. Immutable once constructed.
type Function struct {
	addr    uintptr
	calling Calling
	args    []Type
	ret     Type
}

func NewFunction(p memory.Pointer, calling Calling, args []Type, ret Type) *Function {
	return &Function{
		addr:    p.Address(),
		calling: calling,
		args:    slices.Clone(args),
		ret:     ret,
	}
}

// VirtualFunction builds a descriptor for the index-th virtual table
// entry of the object p points at.
func VirtualFunction(p memory.Pointer, index int, calling Calling, args []Type, ret Type) (*Function, error) {
	entry, err := p.VirtualEntry(index)
	if err != nil {
		return nil, err
	}
	return NewFunction(entry, calling, args, ret), nil
}

func (fn *Function) IsValid() bool {
	return fn.addr != 0
}

func (fn *Function) Address() uintptr {
	return fn.addr
}

func (fn *Function) Pointer() memory.Pointer {
	return memory.ToPointer(fn.addr)
}

func (fn *Function) Calling() Calling {
	return fn.calling
}

func (fn *Function) Args() []Type {
	return slices.Clone(fn.args)
}

func (fn *Function) Return() Type {
	return fn.ret
}

// Signature renders the wire signature, one character per argument,
// a ')' separator, then the return character.
func (fn *Function) Signature() string {
	var sb strings.Builder
	sb.Grow(len(fn.args) + 2)
	for _, t := range fn.args {
		sb.WriteByte(t.Char())
	}
	sb.WriteByte(')')
	sb.WriteByte(fn.ret.Char())
	return sb.String()
}

func (fn *Function) withAddress(addr uintptr) *Function {
	return &Function{addr: addr, calling: fn.calling, args: fn.args, ret: fn.ret}
}
