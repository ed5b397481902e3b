// Package shm contains platform-specific helpers for the shared memory region and signal implementation.
package shm

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// filePrefix keeps region files of this module apart from other users of the shm directory.
const filePrefix = "bulkshm_"

var (
	// ErrUnsupported is returned on platforms without a shared memory implementation.
	ErrUnsupported = errors.New("shared memory not supported on this platform")
	// ErrNoSpace is returned when the shm filesystem cannot hold the requested region.
	ErrNoSpace = errors.New("share memory had not left space")
	// ErrInvalidName is returned for empty names or names containing a path separator.
	ErrInvalidName = errors.New("invalid shared memory name")
)

// MappedRegion represents a memory-mapped shared region.
type MappedRegion struct {
	Addr []byte
	Path string
	// Created reports whether this mapping found an empty backing file and sized it.
	Created bool
}

// MapOptions defines options for mapping shared memory.
type MapOptions struct {
	Name string
	Size int
}

// ValidateName checks that name can be used as a file name inside the shm directory.
func ValidateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Path returns the backing file of the named region.
func Path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(shmDir(), filePrefix+name), nil
}

// Function implementations are provided in platform-specific files (platform_unix.go, platform_windows.go).
