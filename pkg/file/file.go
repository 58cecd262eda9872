// Package file adapts a mounted file to the standard streaming interfaces.
package file

import (
	"io"
	"sync"

	"github.com/weberc2/mono/jfs/pkg/fs"
	. "github.com/weberc2/mono/jfs/pkg/types"
)

const ClosedErr ConstError = "stream is closed"

// Reader reads a file from a cursor that starts at zero and only moves
// forward, except through `Reset`.
type Reader struct {
	mutex  sync.Mutex
	fs     *fs.FileSystem
	file   fs.FileDescriptor
	offset Byte
	mark   Byte
	closed bool
}

var _ io.ReadCloser = (*Reader)(nil)

func NewReader(filesystem *fs.FileSystem, file fs.FileDescriptor) *Reader {
	return &Reader{fs: filesystem, file: file}
}

func (r *Reader) Read(p []byte) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return 0, ClosedErr
	}
	if len(p) == 0 {
		return 0, nil
	}
	data, err := r.fs.ReadFile(r.file, r.offset, Byte(len(p)))
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, io.EOF
	}
	r.offset += Byte(copy(p, data))
	return len(data), nil
}

// Skip advances the cursor by up to `n` bytes, stopping at the end of the
// file, and returns how far it moved.
func (r *Reader) Skip(n Byte) (Byte, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return 0, ClosedErr
	}
	if n <= 0 {
		return 0, nil
	}
	size, err := r.fs.FileSize(r.file)
	if err != nil {
		return 0, err
	}
	old := r.offset
	if r.offset+n < size {
		r.offset += n
	} else if r.offset < size {
		r.offset = size
	}
	return r.offset - old, nil
}

// Mark remembers the cursor for a later `Reset`.
func (r *Reader) Mark() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.mark = r.offset
}

// Reset moves the cursor back to the last mark, or to the start of the file
// if there was none.
func (r *Reader) Reset() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return ClosedErr
	}
	r.offset = r.mark
	return nil
}

// Close detaches the reader. Closing twice is harmless.
func (r *Reader) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.closed = true
	return nil
}

// Writer appends every write to the end of a file. Nothing is buffered.
type Writer struct {
	mutex  sync.Mutex
	fs     *fs.FileSystem
	file   fs.FileDescriptor
	closed bool
}

var _ io.WriteCloser = (*Writer)(nil)

func NewWriter(filesystem *fs.FileSystem, file fs.FileDescriptor) *Writer {
	return &Writer{fs: filesystem, file: file}
}

func (w *Writer) Write(p []byte) (int, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return 0, ClosedErr
	}
	if len(p) == 0 {
		return 0, nil
	}
	if err := w.fs.AppendFile(w.file, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close detaches the writer. Closing twice is harmless.
func (w *Writer) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.closed = true
	return nil
}
