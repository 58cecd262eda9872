package encode

import (
	. "github.com/weberc2/mono/jfs/pkg/types"
)

// EncodeBlockPointer writes the free-list "next" field of a vacant block.
func EncodeBlockPointer(block Block, b *[BlockPointerSize]byte) {
	putBlock(b[:], 0, block)
}

func DecodeBlockPointer(b *[BlockPointerSize]byte) Block {
	return getBlock(b[:], 0)
}
