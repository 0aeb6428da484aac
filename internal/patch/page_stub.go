//go:build !unix && !windows

package patch

import "errors"

func allocExec(int) ([]byte, error) {
	return nil, errors.ErrUnsupported
}

func freeExec([]byte) error {
	return errors.ErrUnsupported
}

func writeCode(uintptr, []byte) error {
	return errors.ErrUnsupported
}
