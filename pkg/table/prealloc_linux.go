//go:build linux

package table

import (
	"os"

	"golang.org/x/sys/unix"
)

// preallocate reserves size bytes of zeroed blocks for f, extending it.
// Filesystems without fallocate support fall back to a sparse truncate.
func preallocate(f *os.File, size int64) error {
	err := unix.Fallocate(int(f.Fd()), 0, 0, size)
	if err == nil {
		return nil
	}
	if err == unix.EOPNOTSUPP || err == unix.ENOSYS {
		return f.Truncate(size)
	}
	return err
}
