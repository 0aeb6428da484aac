// Package patch installs code redirects and relocates displaced
// prologues into callable trampolines. Everything architecture or OS
// specific in the hooking path lives here.
package patch

import (
	"errors"
	"slices"
	"unsafe"
)

var (
	ErrRelative        = errors.New("relative instruction in relocated range")
	ErrArchUnsupported = errors.New("architecture unsupported")
)

// prologueWindow bounds how far Install decodes into the target.
const prologueWindow = 32

// Patch is one installed redirect: the saved entry bytes and the
// executable trampoline page holding the relocated prologue.
type Patch struct {
	target uintptr
	saved  []byte
	page   []byte
}

// Install redirects target to dispatcher and returns the patch whose
// trampoline reaches the original code.
func Install(target, dispatcher uintptr) (*Patch, error) {
	code := unsafe.Slice((*byte)(unsafe.Pointer(target)), prologueWindow)
	n, err := relocationSize(code)
	if err != nil {
		return nil, err
	}
	jumpBack := buildRedirect(target + uintptr(n))
	page, err := allocExec(n + len(jumpBack))
	if err != nil {
		return nil, err
	}
	copy(page, code[:n])
	copy(page[n:], jumpBack)
	saved := slices.Clone(code[:redirectSize])
	if err := writeCode(target, buildRedirect(dispatcher)); err != nil {
		freeExec(page)
		return nil, err
	}
	return &Patch{target: target, saved: saved, page: page}, nil
}

func (p *Patch) Trampoline() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(p.page)))
}

// Restore puts the original entry bytes back and releases the
// trampoline page.
func (p *Patch) Restore() error {
	if p.page == nil {
		return nil
	}
	if err := writeCode(p.target, p.saved); err != nil {
		return err
	}
	page := p.page
	p.page = nil
	return freeExec(page)
}
