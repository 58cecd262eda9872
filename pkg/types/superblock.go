package types

import (
	"fmt"

	"github.com/weberc2/mono/jfs/pkg/math"
)

const (
	SuperblockMagic   uint32 = 0xAABBCCDD
	SuperblockVersion uint16 = 0

	// BytesPerInode drives the format-time inode count: one inode for every
	// `BytesPerInode` bytes of volume.
	BytesPerInode Byte = 100 * InodeSize
)

type Superblock struct {
	TotalInodes   Ino
	TotalBlocks   Block
	FreeInodes    Ino
	FreeInodeHead Ino
	FreeBlocks    Block
	FreeBlockHead Block
}

// NewSuperblock lays out a volume of `size` bytes. Every inode and block
// starts out free.
func NewSuperblock(size Byte) (Superblock, error) {
	if err := ValidateVolumeSize(size); err != nil {
		return Superblock{}, fmt.Errorf("laying out volume: %w", err)
	}

	inodes := math.Max(1, size/BytesPerInode)
	blocks := (size - SuperblockSize - inodes*InodeSize) / BlockSize
	if blocks < 1 {
		return Superblock{}, fmt.Errorf(
			"laying out volume: %w",
			&ErrVolumeSize{Size: size, Min: MinVolumeSize, Max: MaxVolumeSize},
		)
	}

	return Superblock{
		TotalInodes:   Ino(inodes),
		TotalBlocks:   Block(blocks),
		FreeInodes:    Ino(inodes),
		FreeInodeHead: InoRoot,
		FreeBlocks:    Block(blocks),
		FreeBlockHead: 1,
	}, nil
}

func ValidateVolumeSize(size Byte) error {
	if size < MinVolumeSize || size > MaxVolumeSize {
		return &ErrVolumeSize{Size: size, Min: MinVolumeSize, Max: MaxVolumeSize}
	}
	return nil
}

func (sb *Superblock) InodeTableOffset() Byte {
	return SuperblockSize
}

func (sb *Superblock) InodeTableSize() Byte {
	return Byte(sb.TotalInodes) * InodeSize
}

func (sb *Superblock) DataOffset() Byte {
	return sb.InodeTableOffset() + sb.InodeTableSize()
}

// Size is the number of volume bytes the layout spans.
func (sb *Superblock) Size() Byte {
	return sb.DataOffset() + Byte(sb.TotalBlocks)*BlockSize
}

// InodeOffset is the offset of inode `ino` relative to the inode table.
func (sb *Superblock) InodeOffset(ino Ino) Byte {
	return Byte(ino-1) * InodeSize
}

// BlockOffset is the offset of block `block` relative to the data region.
func (sb *Superblock) BlockOffset(block Block) Byte {
	return Byte(block-1) * BlockSize
}

// Validate checks the layout against a volume of `size` bytes and the free
// list bookkeeping against the totals.
func (sb *Superblock) Validate(size Byte) error {
	if sb.TotalInodes < 1 || sb.TotalInodes > MaxParentIno {
		return fmt.Errorf(
			"validating superblock: total inodes `%d`: %w",
			sb.TotalInodes,
			BadLayoutErr,
		)
	}
	if sb.TotalBlocks < 1 {
		return fmt.Errorf(
			"validating superblock: total blocks `%d`: %w",
			sb.TotalBlocks,
			BadLayoutErr,
		)
	}
	if sb.Size() > size {
		return fmt.Errorf(
			"validating superblock: layout spans `%d` bytes but volume has "+
				"`%d`: %w",
			sb.Size(),
			size,
			BadLayoutErr,
		)
	}
	if err := validateFreeList(
		"inode",
		uint32(sb.FreeInodes),
		uint32(sb.FreeInodeHead),
		uint32(sb.TotalInodes),
	); err != nil {
		return fmt.Errorf("validating superblock: %w", err)
	}
	if err := validateFreeList(
		"block",
		uint32(sb.FreeBlocks),
		uint32(sb.FreeBlockHead),
		uint32(sb.TotalBlocks),
	); err != nil {
		return fmt.Errorf("validating superblock: %w", err)
	}
	return nil
}

func validateFreeList(kind string, count, head, total uint32) error {
	if count > total {
		return fmt.Errorf(
			"free %s count `%d` exceeds total `%d`: %w",
			kind,
			count,
			total,
			BadLayoutErr,
		)
	}
	if (count == 0) != (head == 0) {
		return fmt.Errorf(
			"free %s count `%d` disagrees with head `%d`: %w",
			kind,
			count,
			head,
			BadLayoutErr,
		)
	}
	if head > total {
		return &ErrOutOfRange{Kind: kind, ID: head, Total: total}
	}
	return nil
}
