package dyncall

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/ebitengine/purego"
	"github.com/rs/zerolog"

	"github.com/wnxd/memhook/memory"
)

// TrampolineSource resolves the trampoline installed for a hooked
// address. Implemented by hook.Manager.
type TrampolineSource interface {
	Trampoline(addr uintptr) (uintptr, bool)
}

// Engine marshals runtime argument lists into native calls. Each call
// runs on its own frame, so invokes may nest freely; frames are cached
// per descriptor.
type Engine struct {
	frames sync.Map // frameKey -> *frame
	hooks  TrampolineSource
	logger zerolog.Logger
}

type frameKey struct {
	addr uintptr
	sig  string
}

type frame struct {
	call reflect.Value
	in   []reflect.Type
}

type Option func(*Engine)

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BindHooks attaches the trampoline resolver used by InvokeTrampoline.
func (e *Engine) BindHooks(src TrampolineSource) {
	e.hooks = src
}

// Invoke calls the native function fn describes, marshaling args per its
// declared types and interpreting the result per its return type.
func (e *Engine) Invoke(fn *Function, args ...any) (any, error) {
	if !fn.IsValid() {
		return nil, memory.ErrPointerInvalid
	}
	if len(args) != len(fn.args) {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrArgCount, len(args), len(fn.args))
	}
	fr, err := e.frame(fn)
	if err != nil {
		return nil, err
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		in[i], err = coerce(fn.args[i], fr.in[i], arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
	}
	e.logger.Trace().Str("sig", fn.Signature()).Uint64("addr", uint64(fn.addr)).Msg("invoke")
	out := fr.call.Call(in)
	if fn.ret == Type_Void {
		return nil, nil
	}
	if fn.ret == Type_Pointer {
		return memory.ToPointer(out[0].Interface().(uintptr)), nil
	}
	return out[0].Interface(), nil
}

// InvokeTrampoline routes the call to the original code of a hooked
// function through its trampoline.
func (e *Engine) InvokeTrampoline(fn *Function, args ...any) (any, error) {
	if !fn.IsValid() {
		return nil, memory.ErrPointerInvalid
	}
	if e.hooks == nil {
		return nil, ErrNotHooked
	}
	tramp, ok := e.hooks.Trampoline(fn.addr)
	if !ok {
		return nil, ErrNotHooked
	}
	return e.Invoke(fn.withAddress(tramp), args...)
}

func (e *Engine) frame(fn *Function) (*frame, error) {
	key := frameKey{fn.addr, fn.Signature()}
	if v, ok := e.frames.Load(key); ok {
		return v.(*frame), nil
	}
	if err := checkCalling(fn); err != nil {
		return nil, err
	}
	in := make([]reflect.Type, len(fn.args))
	for i, t := range fn.args {
		if t == Type_Void {
			return nil, ErrTypeUnsupported
		}
		typ, err := t.goType()
		if err != nil {
			return nil, err
		}
		in[i] = typ
	}
	var out []reflect.Type
	if fn.ret != Type_Void {
		typ, err := fn.ret.goType()
		if err != nil {
			return nil, err
		}
		out = []reflect.Type{typ}
	}
	fptr := reflect.New(reflect.FuncOf(in, out, false))
	purego.RegisterFunc(fptr.Interface(), fn.addr)
	fr := &frame{call: fptr.Elem(), in: in}
	e.frames.Store(key, fr)
	return fr, nil
}

// checkCalling validates the declared convention. On 64-bit targets all
// supported conventions lower to the single platform ABI; Thiscall means
// the receiver travels as the leading pointer argument.
func checkCalling(fn *Function) error {
	switch fn.calling {
	case Calling_Default, Calling_Cdecl, Calling_Stdcall, Calling_Fastcall:
		return nil
	case Calling_Thiscall:
		if len(fn.args) == 0 || fn.args[0] != Type_Pointer {
			return fmt.Errorf("%w: thiscall requires a leading pointer", ErrCallingUnsupported)
		}
		return nil
	}
	return ErrCallingUnsupported
}
