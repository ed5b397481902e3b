package shm

import (
	"errors"
	"sync/atomic"
	"unsafe"
)

// ErrFutexTimeout is returned by FutexWait when the wait times out.
var ErrFutexTimeout = errors.New("futex timeout")

// WordAt returns the 32-bit word at off inside a mapped region.
// off must be 4-byte aligned and inside mem.
func WordAt(mem []byte, off int) *uint32 {
	if off < 0 || off%4 != 0 || off+4 > len(mem) {
		panic("shm: unaligned or out of range word offset")
	}
	return (*uint32)(unsafe.Pointer(&mem[off]))
}

// AtomicLoadUint32 loads a uint32 from shared memory atomically.
func AtomicLoadUint32(addr *uint32) uint32 {
	return atomic.LoadUint32(addr)
}

// AtomicStoreUint32 stores a uint32 to shared memory atomically.
func AtomicStoreUint32(addr *uint32, val uint32) {
	atomic.StoreUint32(addr, val)
}

// AtomicCompareAndSwapUint32 atomically compares and swaps a uint32 in shared memory.
func AtomicCompareAndSwapUint32(addr *uint32, old, new uint32) bool {
	return atomic.CompareAndSwapUint32(addr, old, new)
}
