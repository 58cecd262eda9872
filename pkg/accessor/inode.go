package accessor

import (
	"fmt"

	"github.com/weberc2/mono/jfs/pkg/encode"
	. "github.com/weberc2/mono/jfs/pkg/types"
)

func (a *Accessor) checkIno(ino Ino) error {
	if ino < 1 || ino > a.layout.TotalInodes {
		return &ErrOutOfRange{
			Kind:  "inode",
			ID:    uint32(ino),
			Total: uint32(a.layout.TotalInodes),
		}
	}
	return nil
}

// ReadInode reads an inode that is known to be allocated.
func (a *Accessor) ReadInode(ino Ino, inode *AllocatedInode) error {
	var b [InodeSize]byte
	if err := a.readInode(ino, &b); err != nil {
		return err
	}
	if err := encode.DecodeAllocatedInode(inode, &b); err != nil {
		return fmt.Errorf("reading inode `%d`: %w", ino, err)
	}
	return nil
}

// ReadInodeNext reads the free-list pointer of a vacant inode.
func (a *Accessor) ReadInodeNext(ino Ino) (Ino, error) {
	var b [InodeSize]byte
	if err := a.readInode(ino, &b); err != nil {
		return InoNil, err
	}
	var vacant VacantInode
	encode.DecodeVacantInode(&vacant, &b)
	return vacant.Next, nil
}

func (a *Accessor) WriteInode(ino Ino, inode Inode) error {
	if err := a.checkIno(ino); err != nil {
		return fmt.Errorf("writing inode: %w", err)
	}
	var b [InodeSize]byte
	encode.EncodeInode(inode, &b)
	if err := a.inodes.WriteAt(a.layout.InodeOffset(ino), b[:]); err != nil {
		return fmt.Errorf("writing inode `%d`: %w", ino, err)
	}
	return nil
}

func (a *Accessor) readInode(ino Ino, b *[InodeSize]byte) error {
	if err := a.checkIno(ino); err != nil {
		return fmt.Errorf("reading inode: %w", err)
	}
	if err := a.inodes.ReadAt(a.layout.InodeOffset(ino), b[:]); err != nil {
		return fmt.Errorf("reading inode `%d`: %w", ino, err)
	}
	return nil
}
