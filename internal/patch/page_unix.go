//go:build unix

package patch

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/wnxd/memhook/memory"
)

func allocExec(size int) ([]byte, error) {
	size = memory.Align(size, unix.Getpagesize())
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC, unix.MAP_ANON|unix.MAP_PRIVATE)
}

func freeExec(page []byte) error {
	return unix.Munmap(page)
}

// writeCode flips the containing pages writable around the store and
// leaves them executable.
func writeCode(target uintptr, data []byte) error {
	pageSize := uintptr(unix.Getpagesize())
	start := target &^ (pageSize - 1)
	end := memory.Align(target+uintptr(len(data)), pageSize)
	region := unsafe.Slice((*byte)(unsafe.Pointer(start)), end-start)
	if err := unix.Mprotect(region, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC); err != nil {
		return err
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(target)), len(data)), data)
	return unix.Mprotect(region, unix.PROT_READ|unix.PROT_EXEC)
}
