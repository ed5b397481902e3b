//go:build !linux

package shm

import "os"

func shmDir() string {
	return os.TempDir()
}

// CanCreateOnDevShm always reports true outside Linux.
func CanCreateOnDevShm(size uint64, path string) bool {
	return true
}
