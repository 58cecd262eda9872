// Package alloc hands out inode and block ids from the free lists recorded
// in the superblock.
package alloc

import (
	"fmt"
	"sync"

	"github.com/weberc2/mono/jfs/pkg/accessor"
	. "github.com/weberc2/mono/jfs/pkg/types"
)

// Allocator owns both free lists and the superblock. One mutex guards all
// three; every pop or push rewrites the superblock before the mutex is
// released.
type Allocator struct {
	mutex      sync.Mutex
	accessor   *accessor.Accessor
	superblock Superblock
	inodes     FreeList
	blocks     FreeList
}

func New(a *accessor.Accessor, sb Superblock) *Allocator {
	return &Allocator{
		accessor:   a,
		superblock: sb,
		inodes: FreeList{
			Count: uint32(sb.FreeInodes),
			Head:  uint32(sb.FreeInodeHead),
			Slots: InodeSlots{a},
			Empty: NoFreeInodesErr,
		},
		blocks: FreeList{
			Count: uint32(sb.FreeBlocks),
			Head:  uint32(sb.FreeBlockHead),
			Slots: BlockSlots{a},
			Empty: NoFreeBlocksErr,
		},
	}
}

// Reservation is the result of `Take`. Ids are in pop order.
type Reservation struct {
	Inodes []Ino
	Blocks []Block
}

// Superblock returns the current superblock.
func (allocator *Allocator) Superblock() Superblock {
	allocator.mutex.Lock()
	defer allocator.mutex.Unlock()
	return allocator.superblock
}

func (allocator *Allocator) PopInode() (Ino, error) {
	allocator.mutex.Lock()
	defer allocator.mutex.Unlock()
	return allocator.popInode()
}

func (allocator *Allocator) PushInode(ino Ino) error {
	allocator.mutex.Lock()
	defer allocator.mutex.Unlock()
	if err := allocator.inodes.Push(uint32(ino)); err != nil {
		return fmt.Errorf("freeing inode: %w", err)
	}
	return allocator.persist()
}

// PopBlocks pops `n` blocks or, if fewer than `n` are free, none.
func (allocator *Allocator) PopBlocks(n Block) ([]Block, error) {
	allocator.mutex.Lock()
	defer allocator.mutex.Unlock()
	if Block(allocator.blocks.Count) < n {
		return nil, NoFreeBlocksErr
	}
	return allocator.popBlocks(n)
}

// PushBlocks frees `blocks` in order, so the last one becomes the new head.
func (allocator *Allocator) PushBlocks(blocks []Block) error {
	allocator.mutex.Lock()
	defer allocator.mutex.Unlock()
	for _, block := range blocks {
		if err := allocator.blocks.Push(uint32(block)); err != nil {
			return fmt.Errorf("freeing block: %w", err)
		}
		if err := allocator.persist(); err != nil {
			return err
		}
	}
	return nil
}

// Take pops `inodes` inodes and `blocks` blocks as one step. If either list
// is too short nothing is popped.
func (allocator *Allocator) Take(inodes Ino, blocks Block) (Reservation, error) {
	allocator.mutex.Lock()
	defer allocator.mutex.Unlock()

	if Ino(allocator.inodes.Count) < inodes {
		return Reservation{}, NoFreeInodesErr
	}
	if Block(allocator.blocks.Count) < blocks {
		return Reservation{}, NoFreeBlocksErr
	}

	var r Reservation
	for i := Ino(0); i < inodes; i++ {
		ino, err := allocator.popInode()
		if err != nil {
			return r, err
		}
		r.Inodes = append(r.Inodes, ino)
	}

	popped, err := allocator.popBlocks(blocks)
	r.Blocks = popped
	return r, err
}

// FreeInodes walks the inode free list.
func (allocator *Allocator) FreeInodes() ([]Ino, error) {
	allocator.mutex.Lock()
	defer allocator.mutex.Unlock()
	ids, err := allocator.inodes.Walk()
	inodes := make([]Ino, len(ids))
	for i, id := range ids {
		inodes[i] = Ino(id)
	}
	if err != nil {
		return inodes, fmt.Errorf("inode free list: %w", err)
	}
	return inodes, nil
}

// FreeBlocks walks the block free list.
func (allocator *Allocator) FreeBlocks() ([]Block, error) {
	allocator.mutex.Lock()
	defer allocator.mutex.Unlock()
	ids, err := allocator.blocks.Walk()
	blocks := make([]Block, len(ids))
	for i, id := range ids {
		blocks[i] = Block(id)
	}
	if err != nil {
		return blocks, fmt.Errorf("block free list: %w", err)
	}
	return blocks, nil
}

func (allocator *Allocator) popInode() (Ino, error) {
	id, err := allocator.inodes.Pop()
	if err != nil {
		return InoNil, fmt.Errorf("allocating inode: %w", err)
	}
	if err := allocator.persist(); err != nil {
		return InoNil, err
	}
	return Ino(id), nil
}

func (allocator *Allocator) popBlocks(n Block) ([]Block, error) {
	blocks := make([]Block, 0, n)
	for i := Block(0); i < n; i++ {
		id, err := allocator.blocks.Pop()
		if err != nil {
			return blocks, fmt.Errorf("allocating block: %w", err)
		}
		if err := allocator.persist(); err != nil {
			return blocks, err
		}
		blocks = append(blocks, Block(id))
	}
	return blocks, nil
}

func (allocator *Allocator) persist() error {
	allocator.superblock.FreeInodes = Ino(allocator.inodes.Count)
	allocator.superblock.FreeInodeHead = Ino(allocator.inodes.Head)
	allocator.superblock.FreeBlocks = Block(allocator.blocks.Count)
	allocator.superblock.FreeBlockHead = Block(allocator.blocks.Head)
	if err := allocator.accessor.WriteHeader(&allocator.superblock); err != nil {
		return fmt.Errorf("persisting free lists: %w", err)
	}
	return nil
}
