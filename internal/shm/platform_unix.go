//go:build unix

package shm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MapRegion maps the named region, creating or growing its backing file when needed.
// Opening an existing region never shrinks it, so concurrent create-or-open calls from
// several processes converge on the same file.
func MapRegion(ctx context.Context, opts MapOptions) (*MappedRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Size <= 0 {
		return nil, fmt.Errorf("invalid region size %d", opts.Size)
	}
	path, err := Path(opts.Name)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_CLOEXEC, 0600)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// the mapping stays valid once the descriptor is closed
	defer func() { _ = unix.Close(fd) }()

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, fmt.Errorf("fstat %s: %w", path, err)
	}
	created := st.Size == 0
	if st.Size < int64(opts.Size) {
		if !CanCreateOnDevShm(uint64(int64(opts.Size)-st.Size), path) {
			return nil, fmt.Errorf("%w: path %s size %d", ErrNoSpace, path, opts.Size)
		}
		if err := unix.Ftruncate(fd, int64(opts.Size)); err != nil {
			return nil, fmt.Errorf("ftruncate %s: %w", path, err)
		}
	}
	addr, err := unix.Mmap(fd, 0, opts.Size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &MappedRegion{
		Addr:    addr,
		Path:    path,
		Created: created,
	}, nil
}

// UnmapRegion unmaps the shared memory region. The backing file is left in place.
func UnmapRegion(ctx context.Context, region *MappedRegion) error {
	if region == nil || region.Addr == nil {
		return nil
	}
	if err := unix.Munmap(region.Addr); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	region.Addr = nil
	return nil
}

// Unlink removes the backing file of the named region. Existing mappings stay valid.
// A missing file is not an error.
func Unlink(name string) error {
	path, err := Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
