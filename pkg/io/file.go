package io

import (
	"errors"
	"fmt"
	"io"
	"os"

	. "github.com/weberc2/mono/jfs/pkg/types"
)

// FileVolume is a `Volume` backed by a host file. Every call is a single
// positioned read or write; nothing is buffered.
type FileVolume struct {
	file *os.File
	size Byte
}

// OpenFileVolume opens an existing host file for reading and writing.
func OpenFileVolume(path string) (*FileVolume, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening volume `%s`: %w", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("opening volume `%s`: %w", path, err)
	}
	return &FileVolume{file: file, size: Byte(info.Size())}, nil
}

// CreateFileVolume creates a zero-filled host file of `size` bytes. It fails
// if the file already exists.
func CreateFileVolume(path string, size Byte) (*FileVolume, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating volume `%s`: %w", path, err)
	}
	if err := file.Truncate(int64(size)); err != nil {
		file.Close()
		return nil, fmt.Errorf(
			"creating volume `%s`: resizing to `%d` bytes: %w",
			path,
			size,
			err,
		)
	}
	return &FileVolume{file: file, size: size}, nil
}

func (volume *FileVolume) Name() string { return volume.file.Name() }

func (volume *FileVolume) Size() Byte { return volume.size }

func (volume *FileVolume) ReadAt(offset Byte, buffer []byte) error {
	if _, err := volume.file.ReadAt(buffer, int64(offset)); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf(
			"reading file `%s` at offset `%d`: %w",
			volume.file.Name(),
			offset,
			err,
		)
	}
	return nil
}

func (volume *FileVolume) WriteAt(offset Byte, buffer []byte) error {
	if offset+Byte(len(buffer)) > volume.size {
		return fmt.Errorf(
			"writing file `%s` at offset `%d`: %w",
			volume.file.Name(),
			offset,
			&ErrOutOfBounds{
				Offset: offset,
				Len:    Byte(len(buffer)),
				Size:   volume.size,
			},
		)
	}
	if _, err := volume.file.WriteAt(buffer, int64(offset)); err != nil {
		return fmt.Errorf(
			"writing file `%s` at offset `%d`: %w",
			volume.file.Name(),
			offset,
			err,
		)
	}
	return nil
}

func (volume *FileVolume) Close() error {
	if err := volume.file.Close(); err != nil {
		return fmt.Errorf("closing volume `%s`: %w", volume.file.Name(), err)
	}
	return nil
}
