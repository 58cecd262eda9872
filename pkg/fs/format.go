package fs

import (
	"fmt"

	"github.com/weberc2/mono/jfs/pkg/accessor"
	"github.com/weberc2/mono/jfs/pkg/alloc"
	"github.com/weberc2/mono/jfs/pkg/directory"
	"github.com/weberc2/mono/jfs/pkg/io"
	. "github.com/weberc2/mono/jfs/pkg/types"
)

// Create makes a zero-filled, unformatted image of `size` bytes at `path`.
func Create(path string, size Byte) error {
	if err := ValidateVolumeSize(size); err != nil {
		return fmt.Errorf("creating image `%s`: %w", path, err)
	}
	volume, err := io.CreateFileVolume(path, size)
	if err != nil {
		return err
	}
	return volume.Close()
}

// Format writes an empty file system over the whole image at `path`.
func Format(path string) error {
	volume, err := io.OpenFileVolume(path)
	if err != nil {
		return fmt.Errorf("formatting `%s`: %w", path, err)
	}
	defer volume.Close()
	if err := FormatVolume(volume); err != nil {
		return fmt.Errorf("formatting `%s`: %w", path, err)
	}
	return nil
}

// FormatVolume chains every inode and block onto the free lists and then
// allocates inode 1 as the root directory, whose "." and ".." both point at
// itself.
func FormatVolume(volume io.Volume) error {
	sb, err := NewSuperblock(volume.Size())
	if err != nil {
		return fmt.Errorf("formatting volume: %w", err)
	}
	a, err := accessor.New(volume, sb)
	if err != nil {
		return fmt.Errorf("formatting volume: %w", err)
	}
	if err := a.WriteHeader(&sb); err != nil {
		return fmt.Errorf("formatting volume: %w", err)
	}

	for ino := Ino(1); ino <= sb.TotalInodes; ino++ {
		next := (ino + 1) % (sb.TotalInodes + 1)
		if err := a.WriteInode(ino, &VacantInode{Next: next}); err != nil {
			return fmt.Errorf("formatting volume: chaining inodes: %w", err)
		}
	}
	for block := Block(1); block <= sb.TotalBlocks; block++ {
		next := (block + 1) % (sb.TotalBlocks + 1)
		if err := a.WriteBlockNext(block, next); err != nil {
			return fmt.Errorf("formatting volume: chaining blocks: %w", err)
		}
	}

	r, err := alloc.New(a, sb).Take(1, 1)
	if err != nil {
		return fmt.Errorf("formatting volume: allocating root: %w", err)
	}
	root, block := r.Inodes[0], r.Blocks[0]
	if err := a.WriteBlock(
		block,
		0,
		directory.Encode(directory.Init(root, root)),
	); err != nil {
		return fmt.Errorf("formatting volume: writing root directory: %w", err)
	}
	inode := AllocatedInode{Type: EntryTypeDir, Parent: root, Size: BlockSize}
	inode.DirectBlocks[0] = block
	if err := a.WriteInode(root, &inode); err != nil {
		return fmt.Errorf("formatting volume: writing root inode: %w", err)
	}
	return nil
}
