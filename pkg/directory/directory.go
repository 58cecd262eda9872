// Package directory converts between a directory's entries and the bytes of
// its data blocks.
package directory

import (
	"fmt"

	"github.com/weberc2/mono/jfs/pkg/encode"
	. "github.com/weberc2/mono/jfs/pkg/types"
)

// Init returns the entries of a new directory.
func Init(self, parent Ino) []DirEntry {
	return []DirEntry{
		{Ino: self, Type: EntryTypeDir, Name: NameSelf},
		{Ino: parent, Type: EntryTypeDir, Name: NameParent},
	}
}

// Find returns the index of the entry named `name` or -1.
func Find(entries []DirEntry, name string) int {
	for i := range entries {
		if entries[i].Name == name {
			return i
		}
	}
	return -1
}

// Remove deletes the entry at index `i`, keeping the order of the rest.
func Remove(entries []DirEntry, i int) []DirEntry {
	return append(entries[:i:i], entries[i+1:]...)
}

// Pack lays `entries` out in directory blocks, starting a new block whenever
// the next entry does not fit in the current one.
func Pack(entries []DirEntry) []DirBlock {
	blocks := []DirBlock{NewDirBlock()}
	for _, entry := range entries {
		if !blocks[len(blocks)-1].TryInsert(entry) {
			block := NewDirBlock()
			block.TryInsert(entry)
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// Encode returns the data of a directory holding `entries`. It is always a
// whole number of blocks.
func Encode(entries []DirEntry) []byte {
	blocks := Pack(entries)
	data := make([]byte, Byte(len(blocks))*BlockSize)
	for i := range blocks {
		encode.EncodeDirBlock(
			&blocks[i],
			(*[BlockSize]byte)(data[Byte(i)*BlockSize:]),
		)
	}
	return data
}

// Decode parses the data of a directory.
func Decode(data []byte) ([]DirEntry, error) {
	if Byte(len(data))%BlockSize != 0 {
		return nil, fmt.Errorf(
			"decoding directory of `%d` bytes: %w",
			len(data),
			BadDirBlockErr,
		)
	}

	var entries []DirEntry
	for start := Byte(0); start < Byte(len(data)); start += BlockSize {
		var block DirBlock
		if err := encode.DecodeDirBlock(
			&block,
			(*[BlockSize]byte)(data[start:]),
		); err != nil {
			return nil, fmt.Errorf(
				"decoding directory block `%d`: %w",
				start/BlockSize,
				err,
			)
		}
		entries = append(entries, block.Entries...)
	}
	return entries, nil
}
