//go:build windows

package terminal

import (
	"errors"
	"os"
)

// NativeOpener is unavailable on Windows; ConPTY support is not implemented.
type NativeOpener struct{}

func (NativeOpener) Open(Config) (Handle, error) {
	return nil, &PtyError{Op: "open", Err: errors.New("pseudo-terminals are not supported on windows")}
}

func isEndOfStream(err error) bool {
	return errors.Is(err, os.ErrClosed)
}
