// Package hook redirects already-compiled functions through a dispatcher
// that runs registered callbacks around the original code. The original
// stays reachable through a per-hook trampoline.
package hook

import (
	"github.com/wnxd/memhook/dyncall"
)

// Phase selects when a callback runs relative to the original call.
type Phase int

const (
	Phase_Pre Phase = iota
	Phase_Post
)

type Result int

const (
	Result_Done Result = -1
	Result_Next Result = 0
)

// Callback observes a dispatched call. A Pre callback returning
// Result_Done short-circuits the remaining Pre callbacks and the call to
// the original code.
type Callback func(ctx *Context) Result

// Context is the state of one dispatched call, shared by all callbacks
// of that call.
type Context struct {
	fn   *dyncall.Function
	args []any
	ret  any
}

func (c *Context) Function() *dyncall.Function {
	return c.fn
}

func (c *Context) Args() []any {
	return c.args
}

func (c *Context) Arg(i int) any {
	return c.args[i]
}

// Return is the original call's result, nil until the trampoline ran.
func (c *Context) Return() any {
	return c.ret
}

// SetReturn substitutes the value handed back to the hooked function's
// caller. Override policy beyond that is the embedder's concern.
func (c *Context) SetReturn(v any) {
	c.ret = v
}

// Hook is the per-address record: the redirect patch, the trampoline and
// the registered callbacks. One record exists per hooked address.
type Hook struct {
	addr      uintptr
	fn        *dyncall.Function
	sig       string
	patch     Patch
	callbacks map[Phase][]callback
}

type callback struct {
	fn Callback
	id uintptr
}

func (h *Hook) Address() uintptr {
	return h.addr
}

// Trampoline is the relocated original entry; stable for the record's
// lifetime.
func (h *Hook) Trampoline() uintptr {
	return h.patch.Trampoline()
}

func (h *Hook) Signature() string {
	return h.sig
}
