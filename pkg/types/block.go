package types

import "github.com/weberc2/mono/jfs/pkg/math"

type Block uint32

const (
	BlockPointerSize Byte  = 4
	BlockNil         Block = 0
)

// BlocksFor returns the number of blocks needed to hold `size` bytes. An
// object that exactly fills N blocks needs N blocks.
func BlocksFor(size Byte) Block {
	return Block(math.DivRoundUp(size, BlockSize))
}
