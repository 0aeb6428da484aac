package patch

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func put(ops ...uint32) []byte {
	b := make([]byte, len(ops)*4)
	for i, op := range ops {
		binary.LittleEndian.PutUint32(b[i*4:], op)
	}
	return b
}

func TestRelocationSizeStraightline(t *testing.T) {
	// stp x29, x30, [sp, #-16]! ; mov x29, sp ; nop ; nop
	code := put(0xA9BF7BFD, 0x910003FD, 0xD503201F, 0xD503201F, 0xD503201F, 0xD503201F, 0xD503201F, 0xD503201F)
	n, err := relocationSize(code)
	require.NoError(t, err)
	assert.Equal(t, redirectSize, n)
}

func TestRelocationSizeRejectsRelative(t *testing.T) {
	// b #0 inside the displaced window.
	code := put(0xD503201F, 0x14000000, 0xD503201F, 0xD503201F, 0xD503201F, 0xD503201F)
	_, err := relocationSize(code)
	assert.ErrorIs(t, err, ErrRelative)

	// adrp x0, #0
	code = put(0x90000000, 0xD503201F, 0xD503201F, 0xD503201F, 0xD503201F, 0xD503201F)
	_, err = relocationSize(code)
	assert.ErrorIs(t, err, ErrRelative)
}

func TestBuildRedirect(t *testing.T) {
	b := buildRedirect(0x1122334455667788)
	require.Len(t, b, redirectSize)
	assert.Equal(t, uint32(0x58000050), binary.LittleEndian.Uint32(b))
	assert.Equal(t, uint32(0xD61F0200), binary.LittleEndian.Uint32(b[4:]))
	assert.Equal(t, uint64(0x1122334455667788), binary.LittleEndian.Uint64(b[8:]))
}
