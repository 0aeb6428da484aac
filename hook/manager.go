package hook

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/ebitengine/purego"
	"github.com/modern-go/reflect2"
	"github.com/rs/zerolog"

	"github.com/wnxd/memhook/dyncall"
	"github.com/wnxd/memhook/internal/patch"
	"github.com/wnxd/memhook/memory"
)

// Manager owns the set of hooked addresses. Installing and removing
// callbacks is safe from multiple goroutines.
type Manager struct {
	mu      sync.RWMutex
	hooks   map[uintptr]*Hook
	engine  *dyncall.Engine
	patcher Patcher
	logger  zerolog.Logger
}

type Option func(*Manager)

func WithPatcher(p Patcher) Option {
	return func(m *Manager) { m.patcher = p }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager binds itself to engine as its trampoline source, so
// Engine.InvokeTrampoline resolves through this manager.
func NewManager(engine *dyncall.Engine, opts ...Option) *Manager {
	m := &Manager{
		hooks:   make(map[uintptr]*Hook),
		engine:  engine,
		patcher: defaultPatcher(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	engine.BindHooks(m)
	return m
}

func defaultPatcher() Patcher {
	return patcherFunc(func(target, dispatcher uintptr) (Patch, error) {
		p, err := patch.Install(target, dispatcher)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}

// AddHook redirects fn's address through the dispatcher on first use and
// registers cb for phase. Registering the same callback value twice in
// one phase is a no-op. The callback is returned so registration can be
// used as a pass-through token.
func (m *Manager) AddHook(fn *dyncall.Function, phase Phase, cb Callback) (Callback, error) {
	if !fn.IsValid() {
		return nil, memory.ErrPointerInvalid
	}
	if cb == nil {
		return nil, dyncall.ErrArgumentInvalid
	}
	if err := hookable(fn); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hooks[fn.Address()]
	if !ok {
		h = &Hook{
			addr:      fn.Address(),
			fn:        fn,
			sig:       fn.Signature(),
			callbacks: make(map[Phase][]callback),
		}
		p, err := m.patcher.Install(h.addr, m.dispatcher(h))
		if err != nil {
			return nil, err
		}
		h.patch = p
		m.hooks[h.addr] = h
		m.logger.Debug().Uint64("addr", uint64(h.addr)).Str("sig", h.sig).Msg("hook installed")
	}
	id := callbackID(cb)
	list := h.callbacks[phase]
	if !slices.ContainsFunc(list, func(c callback) bool { return c.id == id }) {
		h.callbacks[phase] = append(list, callback{cb, id})
	}
	return cb, nil
}

// RemoveHook drops the first registration of cb in phase. Removing an
// absent callback, or hooking state that never existed, is a no-op.
func (m *Manager) RemoveHook(addr uintptr, phase Phase, cb Callback) {
	id := callbackID(cb)
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hooks[addr]
	if !ok {
		return
	}
	list := h.callbacks[phase]
	for i := range list {
		if list[i].id == id {
			h.callbacks[phase] = slices.Delete(list, i, i+1)
			return
		}
	}
}

// Unhook restores the original entry bytes and releases the trampoline.
// A record with emptied callback lists stays installed until this is
// called.
func (m *Manager) Unhook(addr uintptr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hooks[addr]
	if !ok {
		return nil
	}
	delete(m.hooks, addr)
	m.logger.Debug().Uint64("addr", uint64(addr)).Msg("hook removed")
	return h.patch.Restore()
}

func (m *Manager) FindHook(addr uintptr) *Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hooks[addr]
}

// Trampoline implements dyncall.TrampolineSource.
func (m *Manager) Trampoline(addr uintptr) (uintptr, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.hooks[addr]
	if !ok {
		return 0, false
	}
	return h.patch.Trampoline(), true
}

// Close restores every installed hook.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var err error
	for addr, h := range m.hooks {
		delete(m.hooks, addr)
		if e := h.patch.Restore(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// Dispatch runs one intercepted call: Pre callbacks in registration
// order, the original through the trampoline unless short-circuited,
// then Post callbacks in registration order.
func (m *Manager) Dispatch(h *Hook, args []any) (any, error) {
	m.mu.RLock()
	pre := slices.Clone(h.callbacks[Phase_Pre])
	post := slices.Clone(h.callbacks[Phase_Post])
	tramp := h.patch.Trampoline()
	m.mu.RUnlock()
	ctx := &Context{fn: h.fn, args: args}
	short := false
	for _, c := range pre {
		if c.fn(ctx) == Result_Done {
			short = true
			break
		}
	}
	if !short {
		ret := h.fn.Return()
		if ret == dyncall.Type_String {
			// Keep the raw char* so it survives back to the caller.
			ret = dyncall.Type_Pointer
		}
		v, err := m.engine.Invoke(dyncall.NewFunction(memory.ToPointer(tramp), h.fn.Calling(), h.fn.Args(), ret), args...)
		if err != nil {
			return nil, err
		}
		ctx.ret = v
	}
	for _, c := range post {
		c.fn(ctx)
	}
	return ctx.ret, nil
}

// dispatcher builds the native entry the patcher redirects to: a
// callback receiving the hooked signature as machine words.
func (m *Manager) dispatcher(h *Hook) uintptr {
	args := h.fn.Args()
	in := make([]reflect.Type, len(args))
	word := reflect.TypeOf(uintptr(0))
	for i := range in {
		in[i] = word
	}
	var out []reflect.Type
	if h.fn.Return() != dyncall.Type_Void {
		out = []reflect.Type{word}
	}
	fn := reflect.MakeFunc(reflect.FuncOf(in, out, false), func(raw []reflect.Value) []reflect.Value {
		vals := make([]any, len(raw))
		for i, w := range raw {
			vals[i] = decodeWord(args[i], w.Uint())
		}
		ret, err := m.Dispatch(h, vals)
		if err != nil {
			m.logger.Error().Err(err).Uint64("addr", uint64(h.addr)).Msg("dispatch failed")
		}
		if out == nil {
			return nil
		}
		return []reflect.Value{reflect.ValueOf(encodeWord(h.fn.Return(), ret))}
	})
	return purego.NewCallback(fn.Interface())
}

// hookable rejects signatures the word-based dispatcher bridge cannot
// carry.
func hookable(fn *dyncall.Function) error {
	for _, t := range fn.Args() {
		if t.Char() == 0 || t == dyncall.Type_Void {
			return dyncall.ErrTypeUnsupported
		}
		if t == dyncall.Type_Float || t == dyncall.Type_Double {
			return fmt.Errorf("%w: floating point hooks", dyncall.ErrTypeUnsupported)
		}
	}
	switch r := fn.Return(); {
	case r.Char() == 0:
		return dyncall.ErrTypeUnsupported
	case r == dyncall.Type_Float || r == dyncall.Type_Double:
		return fmt.Errorf("%w: floating point hooks", dyncall.ErrTypeUnsupported)
	}
	return nil
}

// callbackID is the identity of a callback value: the pointer to its
// underlying closure object. Two separately created closures are
// distinct even when they share a function body.
func callbackID(cb Callback) uintptr {
	return uintptr(reflect2.PtrOf(cb))
}
