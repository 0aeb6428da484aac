package hook

// Patcher is the narrow seam around the architecture-specific byte
// patching: install a redirect at target, relocate the displaced
// prologue and hand back the callable original.
type Patcher interface {
	Install(target, dispatcher uintptr) (Patch, error)
}

type Patch interface {
	Trampoline() uintptr
	Restore() error
}

type patcherFunc func(target, dispatcher uintptr) (Patch, error)

func (f patcherFunc) Install(target, dispatcher uintptr) (Patch, error) {
	return f(target, dispatcher)
}
