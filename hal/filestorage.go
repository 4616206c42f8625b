package hal

import (
	"fmt"
	"os"
)

// FileStorage is a Storage implementation backed by a regular file, used by
// the simulator so a device keeps its configuration across process
// restarts. A newly created file is initialized to the erased state.
type FileStorage struct {
	f    *os.File
	size uint32
}

// OpenFileStorage opens or creates the backing file and grows it to size
// bytes of erased storage if it is new or truncated.
func OpenFileStorage(path string, size uint32) (*FileStorage, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open storage file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat storage file: %w", err)
	}

	s := &FileStorage{f: f, size: size}

	if info.Size() < int64(size) {
		if err := s.Erase(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	return s, nil
}

func (s *FileStorage) Size() uint32 {
	return s.size
}

func (s *FileStorage) Read(offset uint32, buf []byte) error {
	if int(offset)+len(buf) > int(s.size) {
		return fmt.Errorf("storage read out of range: offset %d length %d, size %d",
			offset, len(buf), s.size)
	}

	if _, err := s.f.ReadAt(buf, int64(offset)); err != nil {
		return fmt.Errorf("read storage file: %w", err)
	}

	return nil
}

func (s *FileStorage) Write(offset uint32, data []byte) error {
	if int(offset)+len(data) > int(s.size) {
		return fmt.Errorf("storage write out of range: offset %d length %d, size %d",
			offset, len(data), s.size)
	}

	if _, err := s.f.WriteAt(data, int64(offset)); err != nil {
		return fmt.Errorf("write storage file: %w", err)
	}

	return s.f.Sync()
}

func (s *FileStorage) Erase() error {
	erased := make([]byte, s.size)
	for i := range erased {
		erased[i] = 0xFF
	}

	if _, err := s.f.WriteAt(erased, 0); err != nil {
		return fmt.Errorf("erase storage file: %w", err)
	}

	return s.f.Sync()
}

// Close releases the backing file.
func (s *FileStorage) Close() error {
	return s.f.Close()
}
