package io

import (
	"fmt"

	. "github.com/weberc2/mono/jfs/pkg/types"
)

// OffsetVolume is a window of `size` bytes into another volume starting at
// `offset`.
type OffsetVolume struct {
	inner  Volume
	offset Byte
	size   Byte
}

func NewOffsetVolume(inner Volume, offset, size Byte) *OffsetVolume {
	return &OffsetVolume{inner: inner, offset: offset, size: size}
}

func (v *OffsetVolume) Size() Byte { return v.size }

func (v *OffsetVolume) ReadAt(offset Byte, b []byte) error {
	if err := v.check(offset, b); err != nil {
		return fmt.Errorf("reading: %w", err)
	}
	if err := v.inner.ReadAt(offset+v.offset, b); err != nil {
		return fmt.Errorf(
			"reading additional offset `%d` from base offset `%d` (total "+
				"offset `%d` bytes): %w",
			offset,
			v.offset,
			offset+v.offset,
			err,
		)
	}
	return nil
}

func (v *OffsetVolume) WriteAt(offset Byte, b []byte) error {
	if err := v.check(offset, b); err != nil {
		return fmt.Errorf("writing: %w", err)
	}
	if err := v.inner.WriteAt(offset+v.offset, b); err != nil {
		return fmt.Errorf(
			"writing additional offset `%d` from base offset `%d` (total "+
				"offset `%d` bytes): %w",
			offset,
			v.offset,
			offset+v.offset,
			err,
		)
	}
	return nil
}

func (v *OffsetVolume) check(offset Byte, b []byte) error {
	if offset < 0 || offset+Byte(len(b)) > v.size {
		return &ErrOutOfBounds{Offset: offset, Len: Byte(len(b)), Size: v.size}
	}
	return nil
}

type ErrOutOfBounds struct {
	Offset Byte
	Len    Byte
	Size   Byte
}

func (err *ErrOutOfBounds) Error() string {
	return fmt.Sprintf(
		"range [%d, %d) exceeds window of `%d` bytes",
		err.Offset,
		err.Offset+err.Len,
		err.Size,
	)
}
