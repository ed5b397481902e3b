package shm

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	cmap "github.com/orcaman/concurrent-map/v2"

	internalshm "github.com/srediag/shm-bulk/internal/shm"
)

// mapping is one process-wide mmap of a named region, shared by every Region
// handle opened with the same name and capacity.
type mapping struct {
	region *internalshm.MappedRegion
	refs   int
}

var regions = cmap.New[*mapping]()

func registryKey(name string, capacity int) string {
	return name + "@" + strconv.Itoa(capacity)
}

// Region is a named, fixed-capacity shared memory region.
//
// Region does no locking of its own: concurrent ReadAt/WriteAt on overlapping
// ranges must be serialized by the caller, across processes typically with a SignalPair.
type Region struct {
	name   string
	key    string
	mem    []byte
	closed atomic.Bool
}

// CreateOrOpen opens the region called name, creating it with the given capacity
// if it does not exist yet. Handles opened twice with the same name refer to the
// same storage, in this process and in others.
func CreateOrOpen(ctx context.Context, name string, capacity int) (*Region, error) {
	if capacity <= 0 {
		return nil, transportError("open", name, fmt.Errorf("invalid capacity %d", capacity))
	}
	if err := internalshm.ValidateName(name); err != nil {
		return nil, transportError("open", name, err)
	}
	key := registryKey(name, capacity)

	// the callback runs under the shard lock, so the map syscalls are serialized per key
	var openErr error
	m := regions.Upsert(key, nil, func(exist bool, cur *mapping, _ *mapping) *mapping {
		if exist && cur != nil {
			cur.refs++
			return cur
		}
		mr, err := internalshm.MapRegion(ctx, internalshm.MapOptions{Name: name, Size: capacity})
		if err != nil {
			openErr = err
			return nil
		}
		return &mapping{region: mr, refs: 1}
	})
	if openErr != nil {
		regions.RemoveCb(key, func(_ string, v *mapping, exists bool) bool {
			return exists && v == nil
		})
		return nil, transportError("open", name, openErr)
	}
	return &Region{name: name, key: key, mem: m.region.Addr}, nil
}

// Name returns the name the region was opened with.
func (r *Region) Name() string { return r.name }

// Cap returns the region capacity in bytes.
func (r *Region) Cap() int { return len(r.mem) }

// ReadAt copies len(p) bytes starting at off into p. It implements io.ReaderAt.
func (r *Region) ReadAt(p []byte, off int64) (int, error) {
	if err := r.check("read", off, len(p)); err != nil {
		return 0, err
	}
	return copy(p, r.mem[off:]), nil
}

// WriteAt copies p into the region starting at off. It implements io.WriterAt.
func (r *Region) WriteAt(p []byte, off int64) (int, error) {
	if err := r.check("write", off, len(p)); err != nil {
		return 0, err
	}
	return copy(r.mem[off:], p), nil
}

func (r *Region) check(op string, off int64, n int) error {
	if r.closed.Load() {
		return transportError(op, r.name, ErrClosed)
	}
	if off < 0 || off > int64(len(r.mem)) || int64(n) > int64(len(r.mem))-off {
		return transportError(op, r.name, fmt.Errorf("%w: offset %d length %d capacity %d", ErrOutOfRange, off, n, len(r.mem)))
	}
	return nil
}

// Close releases this handle. The mapping is removed when the last handle of the
// process is closed; the backing storage survives until Unlink.
func (r *Region) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	var unmapErr error
	regions.RemoveCb(r.key, func(_ string, m *mapping, exists bool) bool {
		if !exists || m == nil {
			return false
		}
		m.refs--
		if m.refs > 0 {
			return false
		}
		unmapErr = internalshm.UnmapRegion(context.Background(), m.region)
		return true
	})
	return transportError("close", r.name, unmapErr)
}

// Unlink removes the storage behind the named region. Processes that still map it
// keep working; the next CreateOrOpen starts from a zeroed region.
func Unlink(name string) error {
	return transportError("unlink", name, internalshm.Unlink(name))
}

// Path returns the file backing the named region.
func Path(name string) (string, error) {
	return internalshm.Path(name)
}
