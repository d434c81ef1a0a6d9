// Package source abstracts large byte sources that can be materialized a
// range at a time: local files, in-memory buffers, and remote S3 objects.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Source is a byte payload of known total size whose half-open ranges
// can be pulled into memory on demand.
type Source interface {
	// Size returns the total length of the source in bytes.
	Size() int64
	// Slice materializes the range [off, off+n), clamped to the end of
	// the source. A zero-length result means off is at or past the end.
	Slice(ctx context.Context, off, n int64) ([]byte, error)
}

type FileSource struct {
	file *os.File
	size int64
	name string
}

func OpenFile(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening source file: %v", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("error getting source file info: %v", err)
	}
	return &FileSource{file: file, size: info.Size(), name: info.Name()}, nil
}

func (s *FileSource) Size() int64 {
	return s.size
}

func (s *FileSource) Name() string {
	return s.name
}

func (s *FileSource) Slice(ctx context.Context, off, n int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n = clamp(off, n, s.size)
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	read, err := s.file.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("error reading source range [%d,%d): %v", off, off+n, err)
	}
	return buf[:read], nil
}

func (s *FileSource) Close() error {
	return s.file.Close()
}

type BytesSource struct {
	data []byte
}

func NewBytes(data []byte) *BytesSource {
	return &BytesSource{data: data}
}

func (s *BytesSource) Size() int64 {
	return int64(len(s.data))
}

func (s *BytesSource) Slice(ctx context.Context, off, n int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n = clamp(off, n, s.Size())
	if n == 0 {
		return nil, nil
	}
	return s.data[off : off+n], nil
}

func clamp(off, n, size int64) int64 {
	if off >= size {
		return 0
	}
	if off+n > size {
		return size - off
	}
	return n
}
