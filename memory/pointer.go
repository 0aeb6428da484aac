package memory

import (
	"bytes"
	"slices"
	"unsafe"

	"github.com/wnxd/memhook/encoding"
)

// Wildcard is the pattern byte that matches any memory byte in Search.
const Wildcard = 0x2A

// PointerSize is the machine word size in bytes.
const PointerSize = int(unsafe.Sizeof(uintptr(0)))

// Pointer names a raw in-process address. It never owns the memory it
// points at; all accesses beyond the validity check are unchecked.
type Pointer struct {
	addr uintptr
}

func ToPointer(addr uintptr) Pointer {
	return Pointer{addr}
}

func ToPointerUnsafe(ptr unsafe.Pointer) Pointer {
	return Pointer{uintptr(ptr)}
}

func (p Pointer) IsValid() bool {
	return p.addr != 0
}

func (p Pointer) Address() uintptr {
	return p.addr
}

func (p Pointer) Add(offset uintptr) Pointer {
	return Pointer{p.addr + offset}
}

func (p Pointer) Sub(offset uintptr) Pointer {
	return Pointer{p.addr - offset}
}

// Bytes returns a view of size bytes at addr+offset. The caller-supplied
// size is trusted.
func (p Pointer) Bytes(offset uintptr, size int) ([]byte, error) {
	if !p.IsValid() {
		return nil, ErrPointerInvalid
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p.addr+offset)), size), nil
}

func (p Pointer) ReadString(offset uintptr) (string, error) {
	if !p.IsValid() {
		return "", ErrPointerInvalid
	}
	var data []byte
	const chunk = 0x10
	for begin := p.addr + offset; ; begin += chunk {
		buf := unsafe.Slice((*byte)(unsafe.Pointer(begin)), chunk)
		i := slices.Index(buf, 0)
		if i == -1 {
			data = append(data, buf...)
		} else {
			data = append(data, buf[:i]...)
			break
		}
	}
	return string(data), nil
}

// WriteString copies s plus a NUL terminator to addr+offset. The caller
// guarantees the destination capacity.
func (p Pointer) WriteString(s string, offset uintptr) error {
	if !p.IsValid() {
		return ErrPointerInvalid
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(p.addr+offset)), len(s)+1)
	copy(dst, s)
	dst[len(s)] = 0
	return nil
}

// ReadStringPtr reads the char* stored at addr+offset and returns the
// string it points at.
func (p Pointer) ReadStringPtr(offset uintptr) (string, error) {
	sp, err := p.Deref(offset)
	if err != nil {
		return "", err
	}
	return sp.ReadString(0)
}

// WriteStringPtr copies s through the char* stored at addr+offset.
func (p Pointer) WriteStringPtr(s string, offset uintptr) error {
	sp, err := p.Deref(offset)
	if err != nil {
		return err
	}
	return sp.WriteString(s, 0)
}

// Deref reads a machine word at addr+offset and wraps it as a Pointer.
func (p Pointer) Deref(offset uintptr) (Pointer, error) {
	if !p.IsValid() {
		return Pointer{}, ErrPointerInvalid
	}
	return Pointer{*(*uintptr)(unsafe.Pointer(p.addr + offset))}, nil
}

// StorePointer writes other's address as a machine word at addr+offset.
func (p Pointer) StorePointer(other Pointer, offset uintptr) error {
	if !p.IsValid() {
		return ErrPointerInvalid
	}
	*(*uintptr)(unsafe.Pointer(p.addr + offset)) = other.addr
	return nil
}

func (p Pointer) Compare(other Pointer, size int) (int, error) {
	if !p.IsValid() || !other.IsValid() {
		return 0, ErrPointerInvalid
	}
	a := unsafe.Slice((*byte)(unsafe.Pointer(p.addr)), size)
	b := unsafe.Slice((*byte)(unsafe.Pointer(other.addr)), size)
	return bytes.Compare(a, b), nil
}

// Overlaps reports whether [p, p+size) and [other, other+size) intersect.
func (p Pointer) Overlaps(other Pointer, size int) bool {
	if p.addr <= other.addr {
		return p.addr+uintptr(size) > other.addr
	}
	return other.addr+uintptr(size) > p.addr
}

// Search scans size bytes beginning at p for the first window matching
// pattern. A Wildcard byte in the pattern matches any memory byte.
func (p Pointer) Search(pattern []byte, size int) (Pointer, error) {
	if !p.IsValid() {
		return Pointer{}, ErrPointerInvalid
	}
	if size < len(pattern) {
		return Pointer{}, ErrRangeTooSmall
	}
	mem := unsafe.Slice((*byte)(unsafe.Pointer(p.addr)), size)
	end := size - len(pattern)
	for off := 0; off <= end; off++ {
		i := 0
		for ; i < len(pattern); i++ {
			if pattern[i] == Wildcard {
				continue
			}
			if mem[off+i] != pattern[i] {
				break
			}
		}
		if i == len(pattern) {
			return Pointer{p.addr + uintptr(off)}, nil
		}
	}
	return Pointer{}, nil
}

// CopyTo copies size bytes from p to dst. The ranges must not overlap.
func (p Pointer) CopyTo(dst Pointer, size int) error {
	if !p.IsValid() || !dst.IsValid() {
		return ErrPointerInvalid
	}
	if p.Overlaps(dst, size) {
		return ErrOverlap
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(p.addr)), size)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(dst.addr)), size), src)
	return nil
}

// MoveTo relocates size bytes from p to dst, tolerating overlap.
func (p Pointer) MoveTo(dst Pointer, size int) error {
	if !p.IsValid() || !dst.IsValid() {
		return ErrPointerInvalid
	}
	// copy is memmove under the hood, overlap is fine.
	src := unsafe.Slice((*byte)(unsafe.Pointer(p.addr)), size)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(dst.addr)), size), src)
	return nil
}

// VirtualEntry reads the vtable pointer at p and returns its index-th
// entry. A null vtable pointer yields a null Pointer.
func (p Pointer) VirtualEntry(index int) (Pointer, error) {
	if !p.IsValid() {
		return Pointer{}, ErrPointerInvalid
	}
	vtable := *(*uintptr)(unsafe.Pointer(p.addr))
	if vtable == 0 {
		return Pointer{}, nil
	}
	entry := *(*uintptr)(unsafe.Pointer(vtable + uintptr(index*PointerSize)))
	return Pointer{entry}, nil
}

func (p Pointer) ReadAt(b []byte, off int64) (int, error) {
	if !p.IsValid() {
		return 0, ErrPointerInvalid
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(p.addr+uintptr(off))), len(b))
	return copy(b, src), nil
}

func (p Pointer) WriteAt(b []byte, off int64) (int, error) {
	if !p.IsValid() {
		return 0, ErrPointerInvalid
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(p.addr+uintptr(off))), len(b))
	return copy(dst, b), nil
}

// ReadObject decodes the memory at addr+offset into val, which must be a
// pointer to a primitive, array or flat struct.
func (p Pointer) ReadObject(val any, offset uintptr) error {
	if !p.IsValid() {
		return ErrPointerInvalid
	}
	return encoding.Decode(p, int64(offset), val)
}

// WriteObject encodes val into the memory at addr+offset.
func (p Pointer) WriteObject(val any, offset uintptr) error {
	if !p.IsValid() {
		return ErrPointerInvalid
	}
	return encoding.Encode(p, int64(offset), val)
}
