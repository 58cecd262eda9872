package types

import (
	"fmt"
)

type Ino uint32

const (
	DirectBlocksCount = 12
	MaxObjectSize     Byte = DirectBlocksCount * BlockSize

	InoSize Byte = 4
	InoNil  Ino  = 0
	InoRoot Ino  = 1

	// MaxParentIno is the largest id that fits in an inode's parent field.
	MaxParentIno Ino = 1<<24 - 1
)

// Inode is the content of one inode slot. It is either an `*AllocatedInode`
// or a `*VacantInode`; which one a slot holds is known from context (free
// list membership), not from the slot itself.
type Inode interface {
	inode()
}

type AllocatedInode struct {
	Type                EntryType
	Parent              Ino
	Size                Byte
	DirectBlocks        [DirectBlocksCount]Block
	SinglyIndirectBlock Block
	DoublyIndirectBlock Block
}

func (*AllocatedInode) inode() {}

// Blocks returns the number of direct pointers in use.
func (inode *AllocatedInode) Blocks() Block {
	return BlocksFor(inode.Size)
}

// VacantInode is an inode slot on the free list.
type VacantInode struct {
	Next Ino
}

func (*VacantInode) inode() {}

type EntryType uint8

const (
	EntryTypeDir  EntryType = 0
	EntryTypeFile EntryType = 1
)

func (et EntryType) String() string {
	switch et {
	case EntryTypeDir:
		return "Dir"
	case EntryTypeFile:
		return "File"
	default:
		return fmt.Sprintf("EntryType(%d)", uint8(et))
	}
}

func (et EntryType) Validate() error {
	if et != EntryTypeDir && et != EntryTypeFile {
		return fmt.Errorf(
			"validating entry type `%d`: %w",
			et,
			InvalidEntryTypeErr,
		)
	}
	return nil
}
