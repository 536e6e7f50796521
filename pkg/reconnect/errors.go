package reconnect

import (
	"errors"
	"fmt"
)

// Engine errors.
var (
	ErrNoAdapter      = errors.New("no wifi adapter found")
	ErrAdapterMissing = errors.New("configured wifi adapter not found")
	ErrMissingDeps    = errors.New("missing engine dependency")
	ErrEmptySSID      = errors.New("empty ssid")
)

// PanicError wraps a value recovered from a panicking cycle.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
