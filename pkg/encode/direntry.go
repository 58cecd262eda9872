package encode

import (
	"fmt"

	. "github.com/weberc2/mono/jfs/pkg/types"
)

// EncodeDirEntry writes `entry` at the start of `p` and returns the number of
// bytes written. `p` must hold at least `entry.Size()` bytes.
func EncodeDirEntry(entry *DirEntry, p []byte) Byte {
	putIno(p, dirEntryInoStart, entry.Ino)
	putU8(p, dirEntryTypeStart, uint8(entry.Type))
	putU8(p, dirEntryNameLenStart, uint8(len(entry.Name)))
	copy(p[dirEntryNameStart:], entry.Name)
	return entry.Size()
}

// DecodeDirEntry reads one entry from the start of `p` and returns the number
// of bytes it occupied.
func DecodeDirEntry(entry *DirEntry, p []byte) (Byte, error) {
	if Byte(len(p)) < DirEntryHeaderSize {
		return 0, fmt.Errorf(
			"decoding directory entry: header overruns block: %w",
			BadDirBlockErr,
		)
	}

	et := EntryType(getU8(p, dirEntryTypeStart))
	if err := et.Validate(); err != nil {
		return 0, fmt.Errorf("decoding directory entry: %w", err)
	}

	nameLen := Byte(getU8(p, dirEntryNameLenStart))
	if nameLen == 0 {
		return 0, fmt.Errorf(
			"decoding directory entry: empty name: %w",
			BadDirBlockErr,
		)
	}
	if dirEntryNameStart+nameLen > Byte(len(p)) {
		return 0, fmt.Errorf(
			"decoding directory entry: name of `%d` bytes overruns block: %w",
			nameLen,
			BadDirBlockErr,
		)
	}

	entry.Ino = getIno(p, dirEntryInoStart)
	entry.Type = et
	entry.Name = string(p[dirEntryNameStart : dirEntryNameStart+nameLen])
	return dirEntryNameStart + nameLen, nil
}

// EncodeDirBlock writes the block's unused-size header followed by its
// entries. Bytes past the last entry are zeroed.
func EncodeDirBlock(block *DirBlock, b *[BlockSize]byte) {
	*b = [BlockSize]byte{}
	p := b[:]
	putU16(p, dirBlockUnusedStart, uint16(block.Unused))
	pos := DirBlockHeaderSize
	for i := range block.Entries {
		pos += EncodeDirEntry(&block.Entries[i], p[pos:])
	}
}

// DecodeDirBlock parses entries until the used region, as given by the
// unused-size header, is exhausted.
func DecodeDirBlock(block *DirBlock, b *[BlockSize]byte) error {
	p := b[:]
	unused := Byte(getU16(p, dirBlockUnusedStart))
	if unused > DirBlockCapacity {
		return fmt.Errorf(
			"decoding directory block: unused size `%d`: %w",
			unused,
			BadDirBlockErr,
		)
	}

	var entries []DirEntry
	for pos := DirBlockHeaderSize; pos+unused < BlockSize; {
		var entry DirEntry
		n, err := DecodeDirEntry(&entry, p[pos:BlockSize-unused])
		if err != nil {
			return fmt.Errorf(
				"decoding directory block: entry at offset `%d`: %w",
				pos,
				err,
			)
		}
		entries = append(entries, entry)
		pos += n
	}

	block.Entries = entries
	block.Unused = unused
	return nil
}

const (
	dirEntryInoStart = 0
	dirEntryInoEnd   = dirEntryInoStart + InoSize

	dirEntryTypeStart = dirEntryInoEnd
	dirEntryTypeSize  = 1
	dirEntryTypeEnd   = dirEntryTypeStart + dirEntryTypeSize

	dirEntryNameLenStart = dirEntryTypeEnd
	dirEntryNameLenSize  = 1
	dirEntryNameLenEnd   = dirEntryNameLenStart + dirEntryNameLenSize

	dirEntryNameStart = dirEntryNameLenEnd

	dirBlockUnusedStart = 0
)
