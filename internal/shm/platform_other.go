//go:build !unix

package shm

import (
	"context"
)

// MapRegion is not implemented on this platform.
// TODO: implement using CreateFileMapping and MapViewOfFile so named regions rendezvous without a file.
func MapRegion(ctx context.Context, opts MapOptions) (*MappedRegion, error) {
	return nil, ErrUnsupported
}

// UnmapRegion is not implemented on this platform.
func UnmapRegion(ctx context.Context, region *MappedRegion) error {
	return ErrUnsupported
}

// Unlink is not implemented on this platform.
func Unlink(name string) error {
	return ErrUnsupported
}
