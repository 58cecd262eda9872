package types

// Byte is a count of bytes or a byte offset into a volume.
type Byte int64

const (
	SuperblockSize Byte = 32
	InodeSize      Byte = 64
	BlockSize      Byte = 4096

	// MinVolumeSize holds the superblock, one inode and one block.
	MinVolumeSize Byte = SuperblockSize + InodeSize + BlockSize

	// MaxVolumeSize keeps every id and offset representable in the 32-bit
	// on-disk fields and every inode id inside the 24-bit parent field.
	MaxVolumeSize Byte = 1 << 31
)
