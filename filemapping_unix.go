//go:build !windows

package linguist

import (
	"fmt"
	"math"
	"os"
	"syscall"
)

// mappableSize reports how many bytes of the catalog file can be mapped.
// Zero means the file must be read instead.
func mappableSize(fi os.FileInfo) (int, error) {
	if !fi.Mode().IsRegular() {
		return 0, fmt.Errorf("catalog %q is not a regular file", fi.Name())
	}
	switch size := fi.Size(); {
	case size < 0:
		return 0, fmt.Errorf("catalog %q reports a negative size", fi.Name())
	case size > math.MaxInt:
		return 0, fmt.Errorf("catalog %q cannot be mapped: %d bytes", fi.Name(), size)
	default:
		return int(size), nil
	}
}

func (m *fileMapping) tryMap(f *os.File) error {
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	size, err := mappableSize(fi)
	if err != nil || size == 0 {
		return err
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, size, syscall.PROT_READ, syscall.MAP_PRIVATE)
	if err != nil {
		return err
	}
	m.data, m.isMapped = data, true
	return nil
}

func (m *fileMapping) closeMapping() error {
	return syscall.Munmap(m.data)
}
