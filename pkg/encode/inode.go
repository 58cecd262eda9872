package encode

import (
	"fmt"

	. "github.com/weberc2/mono/jfs/pkg/types"
)

// EncodeInode writes either form of inode. Bytes not used by the form are
// zeroed.
func EncodeInode(inode Inode, b *[InodeSize]byte) {
	*b = [InodeSize]byte{}
	p := b[:]

	switch inode := inode.(type) {
	case *VacantInode:
		putIno(p, inodeNextStart, inode.Next)
	case *AllocatedInode:
		putU8(p, inodeTypeStart, uint8(inode.Type))
		putU24(p, inodeParentStart, uint32(inode.Parent))
		putU32(p, inodeSizeStart, uint32(inode.Size))
		for i := range inode.DirectBlocks {
			putBlock(
				p,
				inodeDirectBlocksStart+Byte(i)*BlockPointerSize,
				inode.DirectBlocks[i],
			)
		}
		putBlock(p, inodeSinglyIndStart, inode.SinglyIndirectBlock)
		putBlock(p, inodeDoublyIndStart, inode.DoublyIndirectBlock)
	default:
		panic(fmt.Sprintf("invalid inode variant: %T", inode))
	}
}

func DecodeAllocatedInode(inode *AllocatedInode, b *[InodeSize]byte) error {
	p := b[:]

	// validate into temporaries first so `inode` is untouched on error
	et := EntryType(getU8(p, inodeTypeStart))
	if err := et.Validate(); err != nil {
		return fmt.Errorf("decoding inode: %w", err)
	}

	size := Byte(getU32(p, inodeSizeStart))
	if size > MaxObjectSize {
		return fmt.Errorf(
			"decoding inode: size `%d`: %w",
			size,
			BadObjectSizeErr,
		)
	}

	inode.Type = et
	inode.Parent = Ino(getU24(p, inodeParentStart))
	inode.Size = size
	for i := range inode.DirectBlocks {
		inode.DirectBlocks[i] = getBlock(
			p,
			inodeDirectBlocksStart+Byte(i)*BlockPointerSize,
		)
	}
	inode.SinglyIndirectBlock = getBlock(p, inodeSinglyIndStart)
	inode.DoublyIndirectBlock = getBlock(p, inodeDoublyIndStart)
	return nil
}

func DecodeVacantInode(inode *VacantInode, b *[InodeSize]byte) {
	inode.Next = getIno(b[:], inodeNextStart)
}

const (
	inodeNextStart = 0

	inodeTypeStart = 0
	inodeTypeSize  = 1
	inodeTypeEnd   = inodeTypeStart + inodeTypeSize

	inodeParentStart = inodeTypeEnd
	inodeParentSize  = 3
	inodeParentEnd   = inodeParentStart + inodeParentSize

	inodeSizeStart = inodeParentEnd
	inodeSizeSize  = 4
	inodeSizeEnd   = inodeSizeStart + inodeSizeSize

	inodeDirectBlocksStart = inodeSizeEnd
	inodeDirectBlocksSize  = Byte(DirectBlocksCount) * BlockPointerSize
	inodeDirectBlocksEnd   = inodeDirectBlocksStart + inodeDirectBlocksSize

	inodeSinglyIndStart = inodeDirectBlocksEnd
	inodeSinglyIndEnd   = inodeSinglyIndStart + BlockPointerSize

	inodeDoublyIndStart = inodeSinglyIndEnd
	inodeDoublyIndEnd   = inodeDoublyIndStart + BlockPointerSize
)

var _ = [1]struct{}{}[inodeDoublyIndEnd-InodeSize]
