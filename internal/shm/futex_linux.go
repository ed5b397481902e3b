//go:build linux

package shm

import (
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Shared (non-private) futex operations, so waiters in other processes mapping
// the same file are woken too.
const (
	futexWait = 0
	futexWake = 1
)

// FutexSupported reports whether FutexWait and FutexWake block in the kernel.
const FutexSupported = true

// FutexWait blocks while *addr == val, until woken or timeout elapses.
// It returns ErrFutexTimeout on timeout and nil on wake, value mismatch or
// signal interruption. Callers must re-check their condition after it returns.
func FutexWait(addr *uint32, val uint32, timeout time.Duration) error {
	if atomic.LoadUint32(addr) != val {
		return nil
	}
	var tsp uintptr
	if timeout > 0 {
		ts := unix.NsecToTimespec(timeout.Nanoseconds())
		tsp = uintptr(unsafe.Pointer(&ts))
	}
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		futexWait,
		uintptr(val),
		tsp,
		0,
		0,
	)
	switch errno {
	case 0, unix.EAGAIN, unix.EINTR:
		return nil
	case unix.ETIMEDOUT:
		return ErrFutexTimeout
	default:
		return fmt.Errorf("futex wait: %w", errno)
	}
}

// FutexWake wakes up to n waiters parked on addr and returns how many were woken.
func FutexWake(addr *uint32, n int) (int, error) {
	r1, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		futexWake,
		uintptr(n),
		0,
		0,
		0,
	)
	if errno != 0 {
		return 0, fmt.Errorf("futex wake: %w", errno)
	}
	return int(r1), nil
}
