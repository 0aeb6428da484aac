package dyncall

import "errors"

var (
	ErrArgCount           = errors.New("argument count mismatch")
	ErrArgumentInvalid    = errors.New("argument invalid")
	ErrTypeUnsupported    = errors.New("type unsupported")
	ErrCallingUnsupported = errors.New("calling unsupported")
	ErrNotHooked          = errors.New("function not hooked")
)
