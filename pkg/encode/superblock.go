package encode

import (
	"fmt"

	. "github.com/weberc2/mono/jfs/pkg/types"
)

func EncodeSuperblock(sb *Superblock, b *[SuperblockSize]byte) {
	p := b[:]
	putU32(p, superblockMagicStart, SuperblockMagic)
	putU16(p, superblockVersionStart, SuperblockVersion)
	putU16(p, superblockBlockSizeStart, uint16(BlockSize))
	putIno(p, superblockTotalInodesStart, sb.TotalInodes)
	putBlock(p, superblockTotalBlocksStart, sb.TotalBlocks)
	putIno(p, superblockFreeInodesStart, sb.FreeInodes)
	putBlock(p, superblockFreeBlocksStart, sb.FreeBlocks)
	putIno(p, superblockInodeHeadStart, sb.FreeInodeHead)
	putBlock(p, superblockBlockHeadStart, sb.FreeBlockHead)
}

func DecodeSuperblock(sb *Superblock, b *[SuperblockSize]byte) error {
	p := b[:]

	if magic := getU32(p, superblockMagicStart); magic != SuperblockMagic {
		return fmt.Errorf("decoding superblock: %w", &ErrBadMagic{Found: magic})
	}

	if v := getU16(p, superblockVersionStart); v != SuperblockVersion {
		return fmt.Errorf(
			"decoding superblock: version `%d`: %w",
			v,
			BadVersionErr,
		)
	}

	if bs := getU16(p, superblockBlockSizeStart); Byte(bs) != BlockSize {
		return fmt.Errorf(
			"decoding superblock: block size `%d`: %w",
			bs,
			BadBlockSizeErr,
		)
	}

	sb.TotalInodes = getIno(p, superblockTotalInodesStart)
	sb.TotalBlocks = getBlock(p, superblockTotalBlocksStart)
	sb.FreeInodes = getIno(p, superblockFreeInodesStart)
	sb.FreeBlocks = getBlock(p, superblockFreeBlocksStart)
	sb.FreeInodeHead = getIno(p, superblockInodeHeadStart)
	sb.FreeBlockHead = getBlock(p, superblockBlockHeadStart)
	return nil
}

const (
	superblockMagicStart = 0
	superblockMagicSize  = 4
	superblockMagicEnd   = superblockMagicStart + superblockMagicSize

	superblockVersionStart = superblockMagicEnd
	superblockVersionSize  = 2
	superblockVersionEnd   = superblockVersionStart + superblockVersionSize

	superblockBlockSizeStart = superblockVersionEnd
	superblockBlockSizeSize  = 2
	superblockBlockSizeEnd   = superblockBlockSizeStart + superblockBlockSizeSize

	superblockTotalInodesStart = superblockBlockSizeEnd
	superblockTotalInodesEnd   = superblockTotalInodesStart + InoSize

	superblockTotalBlocksStart = superblockTotalInodesEnd
	superblockTotalBlocksEnd   = superblockTotalBlocksStart + BlockPointerSize

	superblockFreeInodesStart = superblockTotalBlocksEnd
	superblockFreeInodesEnd   = superblockFreeInodesStart + InoSize

	superblockFreeBlocksStart = superblockFreeInodesEnd
	superblockFreeBlocksEnd   = superblockFreeBlocksStart + BlockPointerSize

	superblockInodeHeadStart = superblockFreeBlocksEnd
	superblockInodeHeadEnd   = superblockInodeHeadStart + InoSize

	superblockBlockHeadStart = superblockInodeHeadEnd
	superblockBlockHeadEnd   = superblockBlockHeadStart + BlockPointerSize
)

// fails to compile unless the fields exactly span the superblock
var _ = [1]struct{}{}[superblockBlockHeadEnd-SuperblockSize]
