package accessor

import (
	"fmt"

	"github.com/weberc2/mono/jfs/pkg/encode"
	. "github.com/weberc2/mono/jfs/pkg/types"
)

func (a *Accessor) checkBlock(block Block) error {
	if block < 1 || block > a.layout.TotalBlocks {
		return &ErrOutOfRange{
			Kind:  "block",
			ID:    uint32(block),
			Total: uint32(a.layout.TotalBlocks),
		}
	}
	return nil
}

// ReadBlock reads `len(p)` bytes starting `offset` bytes into `block`. The
// range must lie inside the block.
func (a *Accessor) ReadBlock(block Block, offset Byte, p []byte) error {
	if err := a.checkRange(block, offset, p); err != nil {
		return fmt.Errorf("reading block: %w", err)
	}
	if err := a.blocks.ReadAt(
		a.layout.BlockOffset(block)+offset,
		p,
	); err != nil {
		return fmt.Errorf("reading block `%d`: %w", block, err)
	}
	return nil
}

// WriteBlock writes `p` starting `offset` bytes into `block`. The range must
// lie inside the block.
func (a *Accessor) WriteBlock(block Block, offset Byte, p []byte) error {
	if err := a.checkRange(block, offset, p); err != nil {
		return fmt.Errorf("writing block: %w", err)
	}
	if err := a.blocks.WriteAt(
		a.layout.BlockOffset(block)+offset,
		p,
	); err != nil {
		return fmt.Errorf("writing block `%d`: %w", block, err)
	}
	return nil
}

// ReadBlockNext reads the free-list pointer of a vacant block.
func (a *Accessor) ReadBlockNext(block Block) (Block, error) {
	var b [BlockPointerSize]byte
	if err := a.ReadBlock(block, 0, b[:]); err != nil {
		return BlockNil, err
	}
	return encode.DecodeBlockPointer(&b), nil
}

// WriteBlockNext writes the free-list pointer of a vacant block. The rest of
// the block is left as it was.
func (a *Accessor) WriteBlockNext(block, next Block) error {
	var b [BlockPointerSize]byte
	encode.EncodeBlockPointer(next, &b)
	return a.WriteBlock(block, 0, b[:])
}

func (a *Accessor) checkRange(block Block, offset Byte, p []byte) error {
	if err := a.checkBlock(block); err != nil {
		return err
	}
	if offset < 0 || offset+Byte(len(p)) > BlockSize {
		return fmt.Errorf(
			"range [%d, %d) of block `%d`: %w",
			offset,
			offset+Byte(len(p)),
			block,
			BadLayoutErr,
		)
	}
	return nil
}
