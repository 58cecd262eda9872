package alloc

import (
	"github.com/weberc2/mono/jfs/pkg/accessor"
	. "github.com/weberc2/mono/jfs/pkg/types"
)

// InodeSlots keeps free-list pointers in vacant inodes. Pushing an inode
// overwrites the whole slot with its vacant form.
type InodeSlots struct {
	Accessor *accessor.Accessor
}

func (slots InodeSlots) Next(id uint32) (uint32, error) {
	next, err := slots.Accessor.ReadInodeNext(Ino(id))
	return uint32(next), err
}

func (slots InodeSlots) SetNext(id, next uint32) error {
	return slots.Accessor.WriteInode(Ino(id), &VacantInode{Next: Ino(next)})
}

// BlockSlots keeps free-list pointers in the first bytes of vacant blocks.
type BlockSlots struct {
	Accessor *accessor.Accessor
}

func (slots BlockSlots) Next(id uint32) (uint32, error) {
	next, err := slots.Accessor.ReadBlockNext(Block(id))
	return uint32(next), err
}

func (slots BlockSlots) SetNext(id, next uint32) error {
	return slots.Accessor.WriteBlockNext(Block(id), Block(next))
}

var (
	_ Slots = InodeSlots{}
	_ Slots = BlockSlots{}
)
