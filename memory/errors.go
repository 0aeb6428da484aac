package memory

import "errors"

var (
	ErrPointerInvalid = errors.New("pointer invalid")
	ErrRangeTooSmall  = errors.New("search range too small")
	ErrOverlap        = errors.New("memory ranges overlap")
)
