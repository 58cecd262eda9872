// Package accessor is the only code that touches a volume's bytes. It maps
// inode and block ids to regions of the volume and checks every id against
// the totals recorded in the superblock.
package accessor

import (
	"fmt"

	"github.com/weberc2/mono/jfs/pkg/encode"
	"github.com/weberc2/mono/jfs/pkg/io"
	. "github.com/weberc2/mono/jfs/pkg/types"
)

type Accessor struct {
	volume io.Volume
	layout Superblock
	inodes *io.OffsetVolume
	blocks *io.OffsetVolume
}

// New lays an accessor over `volume` using the totals in `layout`.
func New(volume io.Volume, layout Superblock) (*Accessor, error) {
	if err := ValidateVolume(volume); err != nil {
		return nil, err
	}
	if err := layout.Validate(volume.Size()); err != nil {
		return nil, fmt.Errorf("creating accessor: %w", err)
	}
	return &Accessor{
		volume: volume,
		layout: layout,
		inodes: io.NewOffsetVolume(
			volume,
			layout.InodeTableOffset(),
			layout.InodeTableSize(),
		),
		blocks: io.NewOffsetVolume(
			volume,
			layout.DataOffset(),
			Byte(layout.TotalBlocks)*BlockSize,
		),
	}, nil
}

// Open reads and validates the superblock of an existing volume.
func Open(volume io.Volume) (*Accessor, Superblock, error) {
	if err := ValidateVolume(volume); err != nil {
		return nil, Superblock{}, err
	}

	var b [SuperblockSize]byte
	if err := volume.ReadAt(0, b[:]); err != nil {
		return nil, Superblock{}, fmt.Errorf("reading superblock: %w", err)
	}
	var sb Superblock
	if err := encode.DecodeSuperblock(&sb, &b); err != nil {
		return nil, Superblock{}, fmt.Errorf("opening volume: %w", err)
	}

	accessor, err := New(volume, sb)
	if err != nil {
		return nil, Superblock{}, err
	}
	return accessor, sb, nil
}

func ValidateVolume(volume io.Volume) error {
	if err := ValidateVolumeSize(volume.Size()); err != nil {
		return fmt.Errorf("validating volume: %w", err)
	}
	return nil
}

func (a *Accessor) Volume() io.Volume { return a.volume }

func (a *Accessor) TotalInodes() Ino { return a.layout.TotalInodes }

func (a *Accessor) TotalBlocks() Block { return a.layout.TotalBlocks }

func (a *Accessor) ReadHeader(sb *Superblock) error {
	var b [SuperblockSize]byte
	if err := a.volume.ReadAt(0, b[:]); err != nil {
		return fmt.Errorf("reading superblock: %w", err)
	}
	if err := encode.DecodeSuperblock(sb, &b); err != nil {
		return fmt.Errorf("reading superblock: %w", err)
	}
	return nil
}

func (a *Accessor) WriteHeader(sb *Superblock) error {
	var b [SuperblockSize]byte
	encode.EncodeSuperblock(sb, &b)
	if err := a.volume.WriteAt(0, b[:]); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	return nil
}
