//go:build !linux

package shm

import "time"

// FutexSupported is false: callers poll the shared word instead.
const FutexSupported = false

// FutexWait is not supported on this platform.
func FutexWait(addr *uint32, val uint32, timeout time.Duration) error {
	return ErrUnsupported
}

// FutexWake is not supported on this platform.
func FutexWake(addr *uint32, n int) (int, error) {
	return 0, ErrUnsupported
}
