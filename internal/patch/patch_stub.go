//go:build !amd64 && !arm64

package patch

const redirectSize = 0

func buildRedirect(uintptr) []byte {
	return nil
}

func relocationSize([]byte) (int, error) {
	return 0, ErrArchUnsupported
}
