package patch

import (
	"encoding/binary"

	"golang.org/x/arch/x86/x86asm"
)

// redirectSize covers jmp [rip+0] plus the absolute destination.
const redirectSize = 14

func buildRedirect(to uintptr) []byte {
	b := make([]byte, redirectSize)
	b[0], b[1] = 0xFF, 0x25
	binary.LittleEndian.PutUint64(b[6:], uint64(to))
	return b
}

// relocationSize decodes whole instructions until the redirect fits.
// Instructions that reference the program counter cannot be moved.
func relocationSize(code []byte) (int, error) {
	n := 0
	for n < redirectSize {
		inst, err := x86asm.Decode(code[n:], 64)
		if err != nil {
			return 0, err
		}
		if pcRelative(inst) {
			return 0, ErrRelative
		}
		n += inst.Len
	}
	return n, nil
}

func pcRelative(inst x86asm.Inst) bool {
	for _, arg := range inst.Args {
		switch a := arg.(type) {
		case x86asm.Rel:
			return true
		case x86asm.Mem:
			if a.Base == x86asm.RIP {
				return true
			}
		}
	}
	return false
}
