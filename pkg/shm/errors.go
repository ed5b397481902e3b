package shm

import (
	"errors"
	"fmt"

	internalshm "github.com/srediag/shm-bulk/internal/shm"
)

var (
	// ErrClosed is returned when a region or signal is used after Close.
	ErrClosed = errors.New("shm: handle closed")
	// ErrOutOfRange is returned for reads or writes outside the region.
	ErrOutOfRange = errors.New("shm: offset out of range")
	// ErrNoSpace is returned when the shm filesystem cannot hold the region.
	ErrNoSpace = internalshm.ErrNoSpace
	// ErrInvalidName is returned for names that cannot identify a region.
	ErrInvalidName = internalshm.ErrInvalidName
	// ErrUnsupported is returned on platforms without shared memory support.
	ErrUnsupported = internalshm.ErrUnsupported
)

// TransportError reports a platform-level failure of a region or signal.
type TransportError struct {
	Op   string // "open", "read", "write", "set", "wait", "close"
	Name string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("shm transport: %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func transportError(op, name string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Name: name, Err: err}
}
