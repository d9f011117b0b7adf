package historical

import (
	"errors"
	"fmt"
	"io"
	"unsafe"

	"golang.org/x/exp/mmap"
)

var (
	ErrEof       = errors.New("EOF")
	ErrNotOpen   = errors.New("source is not open")
	ErrTruncated = errors.New("file size is not a multiple of the record size")
)

// Source reads fixed size records of T from a memory mapped file in native
// byte order. T must not contain padding or pointers.
type Source[T any] struct {
	path       string
	recordSize int
	reader     *mmap.ReaderAt
}

func NewSource[T any](path string) *Source[T] {
	var zero T
	return &Source[T]{
		path:       path,
		recordSize: int(unsafe.Sizeof(zero)),
	}
}

func (s *Source[T]) Open() error {
	if s.recordSize == 0 {
		return fmt.Errorf("%s: zero sized record", s.path)
	}
	reader, err := mmap.Open(s.path)
	if err != nil {
		return fmt.Errorf("unable to map %q: %w", s.path, err)
	}
	s.reader = reader
	return nil
}

func (s *Source[T]) Close() {
	if s.reader == nil {
		return
	}
	_ = s.reader.Close()
	s.reader = nil
}

// Read copies record index into data. ErrEof is returned past the last full
// record.
func (s *Source[T]) Read(index int64, data *T) error {
	if s.reader == nil {
		return ErrNotOpen
	}
	offset := index * int64(s.recordSize)
	if index < 0 || offset+int64(s.recordSize) > int64(s.reader.Len()) {
		return ErrEof
	}

	raw := unsafe.Slice((*byte)(unsafe.Pointer(data)), s.recordSize) // #nosec G103
	if _, err := s.reader.ReadAt(raw, offset); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("unable to read record %d: %w", index, err)
	}
	return nil
}

// EntryCount is the number of records in the mapped file.
func (s *Source[T]) EntryCount() (int64, error) {
	if s.reader == nil {
		return 0, ErrNotOpen
	}
	size := int64(s.reader.Len())
	if size%int64(s.recordSize) != 0 {
		return 0, fmt.Errorf("%s: %w", s.path, ErrTruncated)
	}
	return size / int64(s.recordSize), nil
}
