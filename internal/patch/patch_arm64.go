package patch

import (
	"encoding/binary"

	"golang.org/x/arch/arm64/arm64asm"
)

// redirectSize covers LDR X16, #8 ; BR X16 ; .quad destination.
const redirectSize = 16

func buildRedirect(to uintptr) []byte {
	b := make([]byte, redirectSize)
	binary.LittleEndian.PutUint32(b, 0x58000050)
	binary.LittleEndian.PutUint32(b[4:], 0xD61F0200)
	binary.LittleEndian.PutUint64(b[8:], uint64(to))
	return b
}

// relocationSize checks the four displaced instructions. Anything that
// encodes a PC-relative operand cannot be moved.
func relocationSize(code []byte) (int, error) {
	for off := 0; off < redirectSize; off += 4 {
		inst, err := arm64asm.Decode(code[off:])
		if err != nil {
			return 0, err
		}
		if pcRelative(inst) {
			return 0, ErrRelative
		}
	}
	return redirectSize, nil
}

func pcRelative(inst arm64asm.Inst) bool {
	for _, arg := range inst.Args {
		if _, ok := arg.(arm64asm.PCRel); ok {
			return true
		}
	}
	switch inst.Op {
	case arm64asm.ADR, arm64asm.ADRP, arm64asm.B, arm64asm.BL,
		arm64asm.CBZ, arm64asm.CBNZ, arm64asm.TBZ, arm64asm.TBNZ:
		return true
	}
	return false
}
