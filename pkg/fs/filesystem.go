// Package fs is the file system driver. It mounts a volume and performs
// every directory and file operation against it, serializing concurrent
// callers with a fixed array of inode lock shards.
package fs

import (
	"fmt"
	stdio "io"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/weberc2/mono/jfs/pkg/accessor"
	"github.com/weberc2/mono/jfs/pkg/alloc"
	"github.com/weberc2/mono/jfs/pkg/io"
	. "github.com/weberc2/mono/jfs/pkg/types"
)

const DefaultLockShards = 16

type Options struct {
	// LockShards is the number of inode lock shards. Zero means
	// `DefaultLockShards`.
	LockShards int

	// Logger defaults to the logrus standard logger.
	Logger log.FieldLogger
}

type FileSystem struct {
	accessor *accessor.Accessor
	alloc    *alloc.Allocator
	locks    shards
	closer   stdio.Closer
	log      log.FieldLogger
	id       uuid.UUID
}

// DirDescriptor refers to a directory by inode id. It carries no state and
// stays valid only while the directory exists.
type DirDescriptor struct {
	ino Ino
}

func (d DirDescriptor) Ino() Ino { return d.ino }

// FileDescriptor refers to a regular file by inode id. It carries no state
// and stays valid only while the file exists.
type FileDescriptor struct {
	ino Ino
}

func (f FileDescriptor) Ino() Ino { return f.ino }

// Mount opens the volume image at `path`. The image stays open until
// `Close`.
func Mount(path string, options Options) (*FileSystem, error) {
	volume, err := io.OpenFileVolume(path)
	if err != nil {
		return nil, fmt.Errorf("mounting `%s`: %w", path, err)
	}
	fs, err := MountVolume(volume, options)
	if err != nil {
		volume.Close()
		return nil, fmt.Errorf("mounting `%s`: %w", path, err)
	}
	fs.closer = volume
	return fs, nil
}

func MountVolume(volume io.Volume, options Options) (*FileSystem, error) {
	a, sb, err := accessor.Open(volume)
	if err != nil {
		return nil, fmt.Errorf("mounting volume: %w", err)
	}

	shardCount := options.LockShards
	if shardCount <= 0 {
		shardCount = DefaultLockShards
	}
	logger := options.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	id := uuid.New()
	fs := &FileSystem{
		accessor: a,
		alloc:    alloc.New(a, sb),
		locks:    newShards(shardCount),
		log:      logger.WithField("mount", id.String()),
		id:       id,
	}
	fs.log.WithFields(log.Fields{
		"inodes":     sb.TotalInodes,
		"blocks":     sb.TotalBlocks,
		"freeInodes": sb.FreeInodes,
		"freeBlocks": sb.FreeBlocks,
		"lockShards": shardCount,
	}).Info("mounted volume")
	return fs, nil
}

// ID identifies this mount in log entries.
func (fs *FileSystem) ID() uuid.UUID { return fs.id }

// Close releases the image opened by `Mount`. Descriptors must not be used
// afterwards.
func (fs *FileSystem) Close() error {
	fs.log.Info("unmounting volume")
	if fs.closer != nil {
		if err := fs.closer.Close(); err != nil {
			return fmt.Errorf("unmounting: %w", err)
		}
	}
	return nil
}

// Stat returns the superblock as of this call.
func (fs *FileSystem) Stat() Superblock {
	return fs.alloc.Superblock()
}

func (fs *FileSystem) Root() DirDescriptor {
	return DirDescriptor{InoRoot}
}
