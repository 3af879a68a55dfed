package linguist

import (
	"io"
	"os"
	"runtime"
)

// fileMapping holds the content of a catalog file, memory mapped when the
// platform and file allow it.
type fileMapping struct {
	data []byte

	isMapped bool
}

func (m *fileMapping) Close() error {
	runtime.SetFinalizer(m, nil)
	if !m.isMapped {
		m.data = nil
		return nil
	}
	err := m.closeMapping()
	m.data = nil
	m.isMapped = false
	return err
}

func openMapping(f *os.File) (*fileMapping, error) {
	m := new(fileMapping)

	if err := m.tryMap(f); err == nil && m.isMapped {
		runtime.SetFinalizer(m, (*fileMapping).Close)
		return m, nil
	}
	// Pipes, empty files and platforms without mmap are read into
	// memory instead.
	if _, err := f.Seek(0, io.SeekStart); err != nil && !isPipe(f) {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	m.data = data
	return m, nil
}

func isPipe(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeNamedPipe != 0
}
