// Package io provides the fixed-size volumes a file system lives on: an
// in-memory buffer, a host file, and windows onto either.
package io

import (
	. "github.com/weberc2/mono/jfs/pkg/types"
)

// Volume is a fixed-size random access store. Reads and writes either
// transfer every byte or fail.
type Volume interface {
	ReadAt(offset Byte, p []byte) error
	WriteAt(offset Byte, p []byte) error
	Size() Byte
}

var (
	_ Volume = (*Buffer)(nil)
	_ Volume = (*FileVolume)(nil)
	_ Volume = (*OffsetVolume)(nil)
)
