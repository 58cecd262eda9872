package fs

import (
	"fmt"

	"github.com/weberc2/mono/jfs/pkg/math"
	. "github.com/weberc2/mono/jfs/pkg/types"
)

// The helpers in this file expect the caller to hold the lock of every inode
// they touch.

func (fs *FileSystem) readInode(ino Ino) (AllocatedInode, error) {
	var inode AllocatedInode
	if err := fs.accessor.ReadInode(ino, &inode); err != nil {
		return inode, err
	}
	return inode, nil
}

// vacant reports whether the slot holds a vacant inode. A vacant slot
// decodes as an empty directory, which a live directory never is since it
// always holds "." and "..".
func vacant(inode *AllocatedInode) bool {
	return inode.Type == EntryTypeDir && inode.Size == 0
}

func (fs *FileSystem) readDirInode(ino Ino) (AllocatedInode, error) {
	inode, err := fs.readInode(ino)
	if err != nil {
		return inode, err
	}
	if vacant(&inode) {
		return inode, NotFoundErr
	}
	if inode.Type != EntryTypeDir {
		return inode, NotADirErr
	}
	return inode, nil
}

func (fs *FileSystem) readFileInode(ino Ino) (AllocatedInode, error) {
	inode, err := fs.readInode(ino)
	if err != nil {
		return inode, err
	}
	if vacant(&inode) {
		return inode, NotFoundErr
	}
	if inode.Type != EntryTypeFile {
		return inode, IsADirErr
	}
	return inode, nil
}

// readData fills `p` from the object's content starting at `offset`. The
// range must lie inside the object's blocks.
func (fs *FileSystem) readData(
	inode *AllocatedInode,
	offset Byte,
	p []byte,
) error {
	for len(p) > 0 {
		index, inBlock := offset/BlockSize, offset%BlockSize
		n := math.Min(BlockSize-inBlock, Byte(len(p)))
		if err := fs.accessor.ReadBlock(
			inode.DirectBlocks[index],
			inBlock,
			p[:n],
		); err != nil {
			return fmt.Errorf("reading at offset `%d`: %w", offset, err)
		}
		p, offset = p[n:], offset+n
	}
	return nil
}

// writeData is the inverse of `readData`.
func (fs *FileSystem) writeData(
	inode *AllocatedInode,
	offset Byte,
	p []byte,
) error {
	for len(p) > 0 {
		index, inBlock := offset/BlockSize, offset%BlockSize
		n := math.Min(BlockSize-inBlock, Byte(len(p)))
		if err := fs.accessor.WriteBlock(
			inode.DirectBlocks[index],
			inBlock,
			p[:n],
		); err != nil {
			return fmt.Errorf("writing at offset `%d`: %w", offset, err)
		}
		p, offset = p[n:], offset+n
	}
	return nil
}

// resize grows or shrinks the object's block list to `want` blocks. Growth
// uses `reserved` and pops whatever else it needs; new pointers receive the
// ids in reverse order. Shrinking frees the trailing pointers in pointer
// order. `inode.Size` is left to the caller.
func (fs *FileSystem) resize(
	inode *AllocatedInode,
	want Block,
	reserved []Block,
) error {
	have := inode.Blocks()
	switch {
	case want > have:
		need := want - have
		blocks := append([]Block(nil), reserved...)
		if Block(len(blocks)) < need {
			popped, err := fs.alloc.PopBlocks(need - Block(len(blocks)))
			if err != nil {
				return err
			}
			blocks = append(blocks, popped...)
		}
		for i := Block(0); i < need; i++ {
			inode.DirectBlocks[have+i] = blocks[need-1-i]
		}
	case want < have:
		freed := make([]Block, 0, have-want)
		for i := want; i < have; i++ {
			freed = append(freed, inode.DirectBlocks[i])
			inode.DirectBlocks[i] = BlockNil
		}
		if err := fs.alloc.PushBlocks(freed); err != nil {
			return err
		}
	}
	return nil
}

// rewrite replaces the object's content with `data`.
func (fs *FileSystem) rewrite(
	ino Ino,
	inode *AllocatedInode,
	data []byte,
	reserved []Block,
) error {
	size := Byte(len(data))
	if size > MaxObjectSize {
		return TooBigErr
	}
	if err := fs.resize(inode, BlocksFor(size), reserved); err != nil {
		return fmt.Errorf("rewriting inode `%d`: %w", ino, err)
	}
	inode.Size = size
	if err := fs.writeData(inode, 0, data); err != nil {
		return fmt.Errorf("rewriting inode `%d`: %w", ino, err)
	}
	if err := fs.accessor.WriteInode(ino, inode); err != nil {
		return fmt.Errorf("rewriting inode `%d`: %w", ino, err)
	}
	return nil
}

// write stores `p` at `offset`, growing the object if the write ends past
// its current size.
func (fs *FileSystem) write(
	ino Ino,
	inode *AllocatedInode,
	p []byte,
	offset Byte,
) error {
	if offset < 0 {
		return NegativeOffsetErr
	}
	if offset > inode.Size {
		return OffsetBeyondSizeErr
	}
	end := offset + Byte(len(p))
	if end > MaxObjectSize {
		return TooBigErr
	}
	if end > inode.Size {
		if err := fs.resize(inode, BlocksFor(end), nil); err != nil {
			return fmt.Errorf("writing inode `%d`: %w", ino, err)
		}
		inode.Size = end
	}
	if err := fs.writeData(inode, offset, p); err != nil {
		return fmt.Errorf("writing inode `%d`: %w", ino, err)
	}
	if err := fs.accessor.WriteInode(ino, inode); err != nil {
		return fmt.Errorf("writing inode `%d`: %w", ino, err)
	}
	return nil
}

// release frees the object's blocks and then the inode itself.
func (fs *FileSystem) release(ino Ino, inode *AllocatedInode) error {
	if err := fs.resize(inode, 0, nil); err != nil {
		return fmt.Errorf("releasing inode `%d`: %w", ino, err)
	}
	if err := fs.alloc.PushInode(ino); err != nil {
		return fmt.Errorf("releasing inode `%d`: %w", ino, err)
	}
	return nil
}
