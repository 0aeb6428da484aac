package patch

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func allocExec(size int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_EXECUTE_READWRITE)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

func freeExec(page []byte) error {
	return windows.VirtualFree(uintptr(unsafe.Pointer(unsafe.SliceData(page))), 0, windows.MEM_RELEASE)
}

func writeCode(target uintptr, data []byte) error {
	var old uint32
	if err := windows.VirtualProtect(target, uintptr(len(data)), windows.PAGE_EXECUTE_READWRITE, &old); err != nil {
		return err
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(target)), len(data)), data)
	return windows.VirtualProtect(target, uintptr(len(data)), old, &old)
}
