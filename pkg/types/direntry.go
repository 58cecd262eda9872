package types

const (
	DirEntryHeaderSize Byte = InoSize + 2
	MaxNameLen              = 255

	NameSelf   = "."
	NameParent = ".."
	Separator  = '/'
)

type DirEntry struct {
	Ino  Ino
	Type EntryType
	Name string
}

// Size is the number of bytes the entry occupies in a directory block.
func (entry *DirEntry) Size() Byte {
	return DirEntryHeaderSize + Byte(len(entry.Name))
}

// IsSystem reports whether the entry is "." or "..".
func (entry *DirEntry) IsSystem() bool {
	return entry.Name == NameSelf || entry.Name == NameParent
}

const (
	// DirBlockHeaderSize is the "unused size" field at the start of every
	// directory block.
	DirBlockHeaderSize Byte = 2
	DirBlockCapacity        = BlockSize - DirBlockHeaderSize
)

// DirBlock is one data block of a directory.
type DirBlock struct {
	Entries []DirEntry
	Unused  Byte
}

func NewDirBlock() DirBlock {
	return DirBlock{Unused: DirBlockCapacity}
}

// TryInsert appends `entry` if it fits in the unused space and reports
// whether it did.
func (block *DirBlock) TryInsert(entry DirEntry) bool {
	if size := entry.Size(); size <= block.Unused {
		block.Entries = append(block.Entries, entry)
		block.Unused -= size
		return true
	}
	return false
}
