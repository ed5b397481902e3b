package shm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	internalshm "github.com/srediag/shm-bulk/internal/shm"
)

// Signal names derived from a region name.
const (
	WriteEventSuffix = "WriteEvent"
	ReadEventSuffix  = "ReadEvent"
)

// signalRegionSize is the size of the tiny region holding a signal word.
const signalRegionSize = 64

const (
	signalUnset uint32 = 0
	signalSet   uint32 = 1
)

// Signal is a named, auto-resetting binary signal shared between processes.
// Set marks it; the first Wait that observes the mark consumes it.
type Signal struct {
	name   string
	region *Region
	word   *uint32
}

// OpenSignal creates or opens the named signal.
func OpenSignal(ctx context.Context, name string) (*Signal, error) {
	r, err := CreateOrOpen(ctx, name, signalRegionSize)
	if err != nil {
		return nil, err
	}
	return &Signal{
		name:   name,
		region: r,
		word:   internalshm.WordAt(r.mem, 0),
	}, nil
}

// Name returns the signal name.
func (s *Signal) Name() string { return s.name }

// Set marks the signal and wakes one waiter. Setting a set signal is a no-op.
func (s *Signal) Set() error {
	if s.region.closed.Load() {
		return transportError("set", s.name, ErrClosed)
	}
	internalshm.AtomicStoreUint32(s.word, signalSet)
	if internalshm.FutexSupported {
		if _, err := internalshm.FutexWake(s.word, 1); err != nil {
			return transportError("set", s.name, err)
		}
	}
	return nil
}

// Wait blocks until the signal is set or timeout elapses. It reports whether the
// signal was observed; observing it resets it.
func (s *Signal) Wait(timeout time.Duration) (bool, error) {
	if s.region.closed.Load() {
		return false, transportError("wait", s.name, ErrClosed)
	}
	deadline := time.Now().Add(timeout)
	var poll backoff.BackOff
	for {
		if internalshm.AtomicCompareAndSwapUint32(s.word, signalSet, signalUnset) {
			return true, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		if internalshm.FutexSupported {
			err := internalshm.FutexWait(s.word, signalUnset, remaining)
			if err != nil && !errors.Is(err, internalshm.ErrFutexTimeout) {
				return false, transportError("wait", s.name, err)
			}
			continue
		}
		if poll == nil {
			poll = newPollBackOff()
		}
		d := poll.NextBackOff()
		if d == backoff.Stop || d > remaining {
			d = remaining
		}
		time.Sleep(d)
	}
}

// TryWait consumes the signal if it is set, without blocking. It reports whether
// it was set.
func (s *Signal) TryWait() (bool, error) {
	if s.region.closed.Load() {
		return false, transportError("wait", s.name, ErrClosed)
	}
	return internalshm.AtomicCompareAndSwapUint32(s.word, signalSet, signalUnset), nil
}

// IsSet reports whether the signal is set, leaving it as it is.
func (s *Signal) IsSet() (bool, error) {
	if s.region.closed.Load() {
		return false, transportError("load", s.name, ErrClosed)
	}
	return internalshm.AtomicLoadUint32(s.word) == signalSet, nil
}

// Close releases the signal handle.
func (s *Signal) Close() error {
	return s.region.Close()
}

func newPollBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Microsecond
	b.MaxInterval = 5 * time.Millisecond
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// SignalPair is the producer/consumer handshake of one region.
type SignalPair struct {
	// WriteReady is set by the producer once a batch is completely written.
	WriteReady *Signal
	// ReadReady is set by the consumer once the batch was copied out of the region.
	ReadReady *Signal
}

// OpenSignalPair opens the two signals belonging to the region called name.
func OpenSignalPair(ctx context.Context, name string) (*SignalPair, error) {
	w, err := OpenSignal(ctx, name+WriteEventSuffix)
	if err != nil {
		return nil, err
	}
	r, err := OpenSignal(ctx, name+ReadEventSuffix)
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	return &SignalPair{WriteReady: w, ReadReady: r}, nil
}

// Close releases both signals.
func (p *SignalPair) Close() error {
	return errors.Join(p.WriteReady.Close(), p.ReadReady.Close())
}

// UnlinkSignalPair removes the storage of both signals of the region called name.
func UnlinkSignalPair(name string) error {
	return errors.Join(Unlink(name+WriteEventSuffix), Unlink(name+ReadEventSuffix))
}
