package patch

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelocationSizeWholeInstructions(t *testing.T) {
	// push rbp ; mov rbp, rsp ; sub rsp, 0x20 ; then padding.
	code := append([]byte{0x55, 0x48, 0x89, 0xE5, 0x48, 0x83, 0xEC, 0x20}, make([]byte, prologueWindow)...)
	for i := 8; i < len(code); i++ {
		code[i] = 0x90
	}
	n, err := relocationSize(code)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, redirectSize)

	// A nop sled relocates to exactly the redirect size.
	sled := make([]byte, prologueWindow)
	for i := range sled {
		sled[i] = 0x90
	}
	n, err = relocationSize(sled)
	require.NoError(t, err)
	assert.Equal(t, redirectSize, n)
}

func TestRelocationSizeRejectsRelative(t *testing.T) {
	// jmp rel32 in the displaced window.
	code := make([]byte, prologueWindow)
	code[0] = 0xE9
	_, err := relocationSize(code)
	assert.ErrorIs(t, err, ErrRelative)

	// lea rax, [rip+0] is position dependent too.
	code = make([]byte, prologueWindow)
	copy(code, []byte{0x48, 0x8D, 0x05, 0x00, 0x00, 0x00, 0x00})
	for i := 7; i < len(code); i++ {
		code[i] = 0x90
	}
	_, err = relocationSize(code)
	assert.ErrorIs(t, err, ErrRelative)
}

func TestBuildRedirect(t *testing.T) {
	b := buildRedirect(0x1122334455667788)
	require.Len(t, b, redirectSize)
	assert.Equal(t, []byte{0xFF, 0x25, 0x00, 0x00, 0x00, 0x00}, b[:6])
	assert.Equal(t, uint64(0x1122334455667788), binary.LittleEndian.Uint64(b[6:]))
}
