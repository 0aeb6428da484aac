package hook_test

import (
	"testing"

	"github.com/ebitengine/purego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wnxd/memhook/dyncall"
	"github.com/wnxd/memhook/hook"
	"github.com/wnxd/memhook/memory"
)

type stubPatch struct {
	tramp    uintptr
	restored bool
}

func (p *stubPatch) Trampoline() uintptr { return p.tramp }

func (p *stubPatch) Restore() error {
	p.restored = true
	return nil
}

// stubPatcher leaves the target untouched and hands the target itself
// back as the trampoline, so dispatch tests run without patching code.
type stubPatcher struct {
	installs int
	last     *stubPatch
}

func (p *stubPatcher) Install(target, dispatcher uintptr) (hook.Patch, error) {
	p.installs++
	p.last = &stubPatch{tramp: target}
	return p.last, nil
}

func newManager(t *testing.T) (*dyncall.Engine, *hook.Manager, *stubPatcher) {
	t.Helper()
	engine := dyncall.NewEngine()
	patcher := &stubPatcher{}
	return engine, hook.NewManager(engine, hook.WithPatcher(patcher)), patcher
}

func incFunction(t *testing.T, calls *int) *dyncall.Function {
	t.Helper()
	addr := purego.NewCallback(func(a uintptr) uintptr {
		*calls++
		return a + 1
	})
	return dyncall.NewFunction(memory.ToPointer(addr), dyncall.Calling_Cdecl, []dyncall.Type{dyncall.Type_Int}, dyncall.Type_Int)
}

func TestAddFindHook(t *testing.T) {
	_, m, patcher := newManager(t)
	var calls int
	fn := incFunction(t, &calls)

	cb := hook.Callback(func(*hook.Context) hook.Result { return hook.Result_Next })
	tok, err := m.AddHook(fn, hook.Phase_Pre, cb)
	require.NoError(t, err)
	assert.NotNil(t, tok)
	assert.Equal(t, 1, patcher.installs)

	h := m.FindHook(fn.Address())
	require.NotNil(t, h)
	assert.Equal(t, "i)i", h.Signature())
	assert.Equal(t, fn.Address(), h.Trampoline())

	// Same address reuses the record.
	_, err = m.AddHook(fn, hook.Phase_Post, cb)
	require.NoError(t, err)
	assert.Equal(t, 1, patcher.installs)

	assert.Nil(t, m.FindHook(0xDEAD))

	_, err = m.AddHook(dyncall.NewFunction(memory.Pointer{}, dyncall.Calling_Cdecl, nil, dyncall.Type_Void), hook.Phase_Pre, cb)
	assert.ErrorIs(t, err, memory.ErrPointerInvalid)
}

func TestDispatchOrder(t *testing.T) {
	_, m, _ := newManager(t)
	var order []string
	addr := purego.NewCallback(func(a uintptr) uintptr {
		order = append(order, "original")
		return a + 1
	})
	fn := dyncall.NewFunction(memory.ToPointer(addr), dyncall.Calling_Cdecl, []dyncall.Type{dyncall.Type_Int}, dyncall.Type_Int)

	_, err := m.AddHook(fn, hook.Phase_Pre, func(*hook.Context) hook.Result {
		order = append(order, "pre")
		return hook.Result_Next
	})
	require.NoError(t, err)
	_, err = m.AddHook(fn, hook.Phase_Post, func(ctx *hook.Context) hook.Result {
		order = append(order, "post")
		return hook.Result_Next
	})
	require.NoError(t, err)

	ret, err := m.Dispatch(m.FindHook(fn.Address()), []any{int32(1)})
	require.NoError(t, err)
	assert.Equal(t, int32(2), ret)
	assert.Equal(t, []string{"pre", "original", "post"}, order)
}

func TestDispatchShortCircuit(t *testing.T) {
	_, m, _ := newManager(t)
	var calls int
	fn := incFunction(t, &calls)

	_, err := m.AddHook(fn, hook.Phase_Pre, func(ctx *hook.Context) hook.Result {
		ctx.SetReturn(int32(7))
		return hook.Result_Done
	})
	require.NoError(t, err)
	postRan := false
	_, err = m.AddHook(fn, hook.Phase_Post, func(*hook.Context) hook.Result {
		postRan = true
		return hook.Result_Next
	})
	require.NoError(t, err)

	ret, err := m.Dispatch(m.FindHook(fn.Address()), []any{int32(1)})
	require.NoError(t, err)
	assert.Equal(t, int32(7), ret)
	assert.Zero(t, calls)
	assert.True(t, postRan)
}

func TestInvokeTrampolineFlow(t *testing.T) {
	engine, m, _ := newManager(t)
	var calls int
	fn := incFunction(t, &calls)

	_, err := engine.InvokeTrampoline(fn, 5)
	assert.ErrorIs(t, err, dyncall.ErrNotHooked)

	_, err = m.AddHook(fn, hook.Phase_Pre, func(*hook.Context) hook.Result { return hook.Result_Next })
	require.NoError(t, err)

	ret, err := engine.InvokeTrampoline(fn, 5)
	require.NoError(t, err)
	assert.Equal(t, int32(6), ret)
	assert.Equal(t, 1, calls)
}

func TestCallbackDedupe(t *testing.T) {
	_, m, _ := newManager(t)
	var calls int
	fn := incFunction(t, &calls)

	ran := 0
	cb := hook.Callback(func(*hook.Context) hook.Result {
		ran++
		return hook.Result_Next
	})
	_, err := m.AddHook(fn, hook.Phase_Pre, cb)
	require.NoError(t, err)
	_, err = m.AddHook(fn, hook.Phase_Pre, cb)
	require.NoError(t, err)

	_, err = m.Dispatch(m.FindHook(fn.Address()), []any{int32(0)})
	require.NoError(t, err)
	assert.Equal(t, 1, ran)
}

func TestRemoveHook(t *testing.T) {
	_, m, _ := newManager(t)
	var calls int
	fn := incFunction(t, &calls)

	ran := 0
	cb := hook.Callback(func(*hook.Context) hook.Result {
		ran++
		return hook.Result_Next
	})
	// Removing from an unhooked address is a no-op.
	m.RemoveHook(fn.Address(), hook.Phase_Pre, cb)

	_, err := m.AddHook(fn, hook.Phase_Pre, cb)
	require.NoError(t, err)
	m.RemoveHook(fn.Address(), hook.Phase_Pre, cb)
	m.RemoveHook(fn.Address(), hook.Phase_Pre, cb)

	_, err = m.Dispatch(m.FindHook(fn.Address()), []any{int32(0)})
	require.NoError(t, err)
	assert.Zero(t, ran)

	// The emptied record persists until an explicit Unhook.
	assert.NotNil(t, m.FindHook(fn.Address()))
}

func TestUnhook(t *testing.T) {
	_, m, patcher := newManager(t)
	var calls int
	fn := incFunction(t, &calls)

	_, err := m.AddHook(fn, hook.Phase_Pre, func(*hook.Context) hook.Result { return hook.Result_Next })
	require.NoError(t, err)
	require.NoError(t, m.Unhook(fn.Address()))
	assert.True(t, patcher.last.restored)
	assert.Nil(t, m.FindHook(fn.Address()))
	require.NoError(t, m.Unhook(fn.Address()))
}

func TestHookableSignatures(t *testing.T) {
	_, m, _ := newManager(t)
	cb := hook.Callback(func(*hook.Context) hook.Result { return hook.Result_Next })

	float := dyncall.NewFunction(memory.ToPointer(1), dyncall.Calling_Cdecl, []dyncall.Type{dyncall.Type_Float}, dyncall.Type_Void)
	_, err := m.AddHook(float, hook.Phase_Pre, cb)
	assert.ErrorIs(t, err, dyncall.ErrTypeUnsupported)

	unknown := dyncall.NewFunction(memory.ToPointer(1), dyncall.Calling_Cdecl, []dyncall.Type{dyncall.Type(99)}, dyncall.Type_Void)
	_, err = m.AddHook(unknown, hook.Phase_Pre, cb)
	assert.ErrorIs(t, err, dyncall.ErrTypeUnsupported)
}

func TestNestedInvokeFromCallback(t *testing.T) {
	engine, m, _ := newManager(t)
	var innerCalls, outerCalls int
	inner := incFunction(t, &innerCalls)
	outer := incFunction(t, &outerCalls)

	var nested any
	_, err := m.AddHook(outer, hook.Phase_Pre, func(*hook.Context) hook.Result {
		nested, _ = engine.Invoke(inner, 10)
		return hook.Result_Next
	})
	require.NoError(t, err)

	ret, err := m.Dispatch(m.FindHook(outer.Address()), []any{int32(1)})
	require.NoError(t, err)
	assert.Equal(t, int32(2), ret)
	assert.Equal(t, int32(11), nested)
	assert.Equal(t, 1, innerCalls)
	assert.Equal(t, 1, outerCalls)
}

func TestManagerClose(t *testing.T) {
	_, m, patcher := newManager(t)
	var calls int
	fn := incFunction(t, &calls)
	_, err := m.AddHook(fn, hook.Phase_Pre, func(*hook.Context) hook.Result { return hook.Result_Next })
	require.NoError(t, err)
	require.NoError(t, m.Close())
	assert.True(t, patcher.last.restored)
	assert.Nil(t, m.FindHook(fn.Address()))
}
