//go:build linux

package shm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutexWait_ValueMismatchReturnsImmediately(t *testing.T) {
	var word uint32 = 1
	start := time.Now()
	assert.NoError(t, FutexWait(&word, 0, time.Second))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestFutexWait_Timeout(t *testing.T) {
	var word uint32
	start := time.Now()
	err := FutexWait(&word, 0, 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrFutexTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestFutexWake_AcrossMappings(t *testing.T) {
	ctx := context.Background()
	name := testName(t)
	r1, err := MapRegion(ctx, MapOptions{Name: name, Size: 4096})
	require.NoError(t, err)
	defer func() { _ = UnmapRegion(ctx, r1) }()
	r2, err := MapRegion(ctx, MapOptions{Name: name, Size: 4096})
	require.NoError(t, err)
	defer func() { _ = UnmapRegion(ctx, r2) }()

	waiter := WordAt(r1.Addr, 0)
	waker := WordAt(r2.Addr, 0)

	done := make(chan error, 1)
	go func() {
		for AtomicLoadUint32(waiter) == 0 {
			if err := FutexWait(waiter, 0, 5*time.Second); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	time.Sleep(20 * time.Millisecond)
	AtomicStoreUint32(waker, 1)
	_, err = FutexWake(waker, 1)
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not woken through the second mapping")
	}
}
