//go:build linux

package shm

import (
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

const devShmDir = "/dev/shm"

func shmDir() string {
	if info, err := os.Stat(devShmDir); err == nil && info.IsDir() {
		return devShmDir
	}
	return os.TempDir()
}

// CanCreateOnDevShm reports whether size more bytes fit on /dev/shm. Paths outside
// /dev/shm are not checked.
func CanCreateOnDevShm(size uint64, path string) bool {
	if !strings.HasPrefix(path, devShmDir) {
		return true
	}
	stat, err := disk.Usage(devShmDir)
	if err != nil {
		return true
	}
	return stat.Free >= size
}
