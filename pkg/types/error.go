package types

import (
	"errors"
	"fmt"
)

// ConstError is an error that can be declared as a constant. Errors of this
// type that reach a caller mean the volume is corrupt.
type ConstError string

func (err ConstError) Error() string { return string(err) }

const (
	InvalidEntryTypeErr ConstError = "invalid entry type"
	BadVersionErr       ConstError = "unsupported format version"
	BadBlockSizeErr     ConstError = "unsupported block size"
	BadLayoutErr        ConstError = "inconsistent volume layout"
	BadDirBlockErr      ConstError = "malformed directory block"
	BadObjectSizeErr    ConstError = "object size exceeds maximum"
)

type ErrBadMagic struct {
	Found uint32
}

func (err *ErrBadMagic) Error() string {
	return fmt.Sprintf(
		"bad magic: wanted `%#08X`; found `%#08X`",
		SuperblockMagic,
		err.Found,
	)
}

type ErrOutOfRange struct {
	Kind  string
	ID    uint32
	Total uint32
}

func (err *ErrOutOfRange) Error() string {
	return fmt.Sprintf(
		"%s id `%d` out of range [1, %d]",
		err.Kind,
		err.ID,
		err.Total,
	)
}

type ErrVolumeSize struct {
	Size Byte
	Min  Byte
	Max  Byte
}

func (err *ErrVolumeSize) Error() string {
	return fmt.Sprintf(
		"volume size `%d` outside of [%d, %d]",
		err.Size,
		err.Min,
		err.Max,
	)
}

// Refusal is a rejected request. The file system is unchanged whenever a
// refusal is returned and the caller may retry with other arguments.
type Refusal string

func (err Refusal) Error() string { return string(err) }

func (Refusal) refusal() {}

const (
	NoFreeInodesErr     Refusal = "no unallocated inodes left"
	NoFreeBlocksErr     Refusal = "not enough unallocated blocks for requested operation"
	EmptyNameErr        Refusal = "entry name must not be empty"
	SeparatorInNameErr  Refusal = "entry name must not contain separator character"
	InvalidNameErr      Refusal = "entry name must be valid UTF-8"
	NameTooLongErr      Refusal = "entry name length limit exceeded"
	NotFoundErr         Refusal = "no such file or directory"
	IsADirErr           Refusal = "is a directory"
	NotADirErr          Refusal = "not a directory"
	OffsetBeyondSizeErr Refusal = "requested offset is bigger than file size"
	NegativeOffsetErr   Refusal = "requested offset is negative"
	TooBigErr           Refusal = "operation will produce too big file"
	SystemDirErr        Refusal = "cannot remove system directory"
)

type NameInUseErr struct {
	Name string
}

func (err *NameInUseErr) Error() string {
	return fmt.Sprintf("%s is already in use", err.Name)
}

func (*NameInUseErr) refusal() {}

type refusal interface {
	error
	refusal()
}

// IsRefusal reports whether `err` is, or wraps, a refusal. Any other error
// from a file system operation means the mount is no longer usable.
func IsRefusal(err error) bool {
	_, ok := AsRefusal(err)
	return ok
}

// AsRefusal unwraps `err` down to the refusal it carries, if any.
func AsRefusal(err error) (error, bool) {
	var r refusal
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
