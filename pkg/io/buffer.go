package io

import (
	"fmt"
	"io"

	. "github.com/weberc2/mono/jfs/pkg/types"
)

// Buffer is an in-memory `Volume`.
type Buffer struct {
	data []byte
}

func NewBuffer(size Byte) *Buffer {
	return &Buffer{data: make([]byte, size)}
}

func NewBufferFrom(data []byte) *Buffer {
	return &Buffer{data: data}
}

func (b *Buffer) Size() Byte { return Byte(len(b.data)) }

func (b *Buffer) Bytes() []byte { return b.data }

func (b *Buffer) ReadAt(offset Byte, p []byte) error {
	if !b.contains(offset, p) {
		return fmt.Errorf(
			"reading `%d` bytes from buffer at offset `%d`: %w",
			len(p),
			offset,
			io.ErrUnexpectedEOF,
		)
	}
	copy(p, b.data[offset:])
	return nil
}

func (b *Buffer) WriteAt(offset Byte, p []byte) error {
	if !b.contains(offset, p) {
		return fmt.Errorf(
			"writing `%d` bytes to buffer at offset `%d`: %w",
			len(p),
			offset,
			io.ErrShortWrite,
		)
	}
	copy(b.data[offset:], p)
	return nil
}

func (b *Buffer) contains(offset Byte, p []byte) bool {
	return offset >= 0 && offset+Byte(len(p)) <= Byte(len(b.data))
}
