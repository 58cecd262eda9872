package fs

import (
	"fmt"

	"github.com/weberc2/mono/jfs/pkg/math"
	. "github.com/weberc2/mono/jfs/pkg/types"
)

// ReadFile returns up to `maxLength` bytes of the file starting at `offset`.
// Fewer bytes are returned when the file ends first.
func (fs *FileSystem) ReadFile(
	file FileDescriptor,
	offset Byte,
	maxLength Byte,
) ([]byte, error) {
	lock := fs.locks.of(file.ino)
	lock.RLock()
	defer lock.RUnlock()

	data, err := fs.readFile(file.ino, offset, maxLength)
	if err != nil {
		return nil, fmt.Errorf(
			"reading `%d` bytes from file `%d` at offset `%d`: %w",
			maxLength,
			file.ino,
			offset,
			err,
		)
	}
	return data, nil
}

func (fs *FileSystem) readFile(ino Ino, offset, maxLength Byte) ([]byte, error) {
	inode, err := fs.readFileInode(ino)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, NegativeOffsetErr
	}
	if offset > inode.Size {
		return nil, OffsetBeyondSizeErr
	}
	data := make([]byte, math.Clamp(maxLength, 0, inode.Size-offset))
	if err := fs.readData(&inode, offset, data); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteFile stores `p` at `offset`, which may be at most the current size.
// The file grows as needed up to `MaxObjectSize`; a write that would exceed
// it is refused without writing anything.
func (fs *FileSystem) WriteFile(file FileDescriptor, p []byte, offset Byte) error {
	lock := fs.locks.of(file.ino)
	lock.Lock()
	defer lock.Unlock()

	inode, err := fs.readFileInode(file.ino)
	if err == nil {
		err = fs.write(file.ino, &inode, p, offset)
	}
	if err != nil {
		return fmt.Errorf(
			"writing `%d` bytes to file `%d` at offset `%d`: %w",
			len(p),
			file.ino,
			offset,
			err,
		)
	}
	return nil
}

// AppendFile writes `p` at the end of the file.
func (fs *FileSystem) AppendFile(file FileDescriptor, p []byte) error {
	lock := fs.locks.of(file.ino)
	lock.Lock()
	defer lock.Unlock()

	inode, err := fs.readFileInode(file.ino)
	if err == nil {
		err = fs.write(file.ino, &inode, p, inode.Size)
	}
	if err != nil {
		return fmt.Errorf(
			"appending `%d` bytes to file `%d`: %w",
			len(p),
			file.ino,
			err,
		)
	}
	return nil
}

// RewriteFile replaces the file's content with `p`, freeing blocks the new
// content no longer needs.
func (fs *FileSystem) RewriteFile(file FileDescriptor, p []byte) error {
	lock := fs.locks.of(file.ino)
	lock.Lock()
	defer lock.Unlock()

	inode, err := fs.readFileInode(file.ino)
	if err == nil {
		err = fs.rewrite(file.ino, &inode, p, nil)
	}
	if err != nil {
		return fmt.Errorf(
			"rewriting file `%d` with `%d` bytes: %w",
			file.ino,
			len(p),
			err,
		)
	}
	return nil
}

func (fs *FileSystem) FileSize(file FileDescriptor) (Byte, error) {
	lock := fs.locks.of(file.ino)
	lock.RLock()
	defer lock.RUnlock()

	inode, err := fs.readFileInode(file.ino)
	if err != nil {
		return 0, fmt.Errorf("sizing file `%d`: %w", file.ino, err)
	}
	return inode.Size, nil
}
