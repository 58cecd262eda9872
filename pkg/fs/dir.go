package fs

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/weberc2/mono/jfs/pkg/directory"
	. "github.com/weberc2/mono/jfs/pkg/types"
)

// readEntries decodes the entries of directory `ino`.
func (fs *FileSystem) readEntries(ino Ino) ([]DirEntry, AllocatedInode, error) {
	inode, err := fs.readDirInode(ino)
	if err != nil {
		return nil, inode, err
	}
	entries, err := fs.decodeEntries(&inode)
	return entries, inode, err
}

func (fs *FileSystem) decodeEntries(inode *AllocatedInode) ([]DirEntry, error) {
	data := make([]byte, inode.Size)
	if err := fs.readData(inode, 0, data); err != nil {
		return nil, err
	}
	return directory.Decode(data)
}

// Entries lists the directory in on-disk order, "." and ".." included.
func (fs *FileSystem) Entries(dir DirDescriptor) ([]DirEntry, error) {
	lock := fs.locks.of(dir.ino)
	lock.RLock()
	defer lock.RUnlock()

	entries, _, err := fs.readEntries(dir.ino)
	if err != nil {
		return nil, fmt.Errorf("listing directory `%d`: %w", dir.ino, err)
	}
	return entries, nil
}

// Dirs maps the names of the directory's subdirectories, "." and ".."
// included, to their descriptors.
func (fs *FileSystem) Dirs(dir DirDescriptor) (map[string]DirDescriptor, error) {
	entries, err := fs.Entries(dir)
	if err != nil {
		return nil, err
	}
	dirs := map[string]DirDescriptor{}
	for _, entry := range entries {
		if entry.Type == EntryTypeDir {
			dirs[entry.Name] = DirDescriptor{entry.Ino}
		}
	}
	return dirs, nil
}

// Files maps the names of the directory's regular files to their
// descriptors.
func (fs *FileSystem) Files(dir DirDescriptor) (map[string]FileDescriptor, error) {
	entries, err := fs.Entries(dir)
	if err != nil {
		return nil, err
	}
	files := map[string]FileDescriptor{}
	for _, entry := range entries {
		if entry.Type == EntryTypeFile {
			files[entry.Name] = FileDescriptor{entry.Ino}
		}
	}
	return files, nil
}

func (fs *FileSystem) lookup(dir DirDescriptor, name string) (DirEntry, error) {
	entries, err := fs.Entries(dir)
	if err != nil {
		return DirEntry{}, err
	}
	i := directory.Find(entries, name)
	if i < 0 {
		return DirEntry{}, NotFoundErr
	}
	return entries[i], nil
}

func (fs *FileSystem) LookupDir(dir DirDescriptor, name string) (DirDescriptor, error) {
	entry, err := fs.lookup(dir, name)
	if err != nil {
		return DirDescriptor{}, err
	}
	if entry.Type != EntryTypeDir {
		return DirDescriptor{}, NotADirErr
	}
	return DirDescriptor{entry.Ino}, nil
}

func (fs *FileSystem) LookupFile(dir DirDescriptor, name string) (FileDescriptor, error) {
	entry, err := fs.lookup(dir, name)
	if err != nil {
		return FileDescriptor{}, err
	}
	if entry.Type != EntryTypeFile {
		return FileDescriptor{}, IsADirErr
	}
	return FileDescriptor{entry.Ino}, nil
}

// Parent returns the directory's parent. The root is its own parent.
func (fs *FileSystem) Parent(dir DirDescriptor) (DirDescriptor, error) {
	lock := fs.locks.of(dir.ino)
	lock.RLock()
	defer lock.RUnlock()

	inode, err := fs.readDirInode(dir.ino)
	if err != nil {
		return DirDescriptor{}, fmt.Errorf(
			"finding parent of directory `%d`: %w",
			dir.ino,
			err,
		)
	}
	return DirDescriptor{inode.Parent}, nil
}

func (fs *FileSystem) AddDir(dir DirDescriptor, name string) (DirDescriptor, error) {
	ino, err := fs.addEntry(dir, name, EntryTypeDir)
	if err != nil {
		return DirDescriptor{}, fmt.Errorf(
			"adding directory `%s` to directory `%d`: %w",
			name,
			dir.ino,
			err,
		)
	}
	return DirDescriptor{ino}, nil
}

func (fs *FileSystem) AddFile(dir DirDescriptor, name string) (FileDescriptor, error) {
	ino, err := fs.addEntry(dir, name, EntryTypeFile)
	if err != nil {
		return FileDescriptor{}, fmt.Errorf(
			"adding file `%s` to directory `%d`: %w",
			name,
			dir.ino,
			err,
		)
	}
	return FileDescriptor{ino}, nil
}

// addEntry reserves the child inode, the child's first block (directories
// only) and any blocks the parent needs to grow in a single allocation, so
// a refusal leaves the volume untouched.
func (fs *FileSystem) addEntry(
	dir DirDescriptor,
	name string,
	et EntryType,
) (Ino, error) {
	if err := directory.ValidateName(name); err != nil {
		return InoNil, err
	}

	lock := fs.locks.of(dir.ino)
	lock.Lock()
	defer lock.Unlock()

	entries, parent, err := fs.readEntries(dir.ino)
	if err != nil {
		return InoNil, err
	}
	if directory.Find(entries, name) >= 0 {
		return InoNil, &NameInUseErr{Name: name}
	}

	entries = append(entries, DirEntry{Type: et, Name: name})
	size := Byte(len(directory.Encode(entries)))
	if size > MaxObjectSize {
		return InoNil, TooBigErr
	}

	var childBlocks Block
	if et == EntryTypeDir {
		childBlocks = 1
	}
	var growth Block
	if need := BlocksFor(size); need > parent.Blocks() {
		growth = need - parent.Blocks()
	}
	r, err := fs.alloc.Take(1, childBlocks+growth)
	if err != nil {
		return InoNil, err
	}

	child := r.Inodes[0]
	inode := AllocatedInode{Type: et, Parent: dir.ino}
	if et == EntryTypeDir {
		err = fs.rewrite(
			child,
			&inode,
			directory.Encode(directory.Init(child, dir.ino)),
			r.Blocks[:childBlocks],
		)
	} else {
		err = fs.accessor.WriteInode(child, &inode)
	}
	if err != nil {
		return InoNil, err
	}

	entries[len(entries)-1].Ino = child
	if err := fs.rewrite(
		dir.ino,
		&parent,
		directory.Encode(entries),
		r.Blocks[childBlocks:],
	); err != nil {
		return InoNil, err
	}
	return child, nil
}

// RemoveFile unlinks the regular file `name` and frees its inode and blocks.
func (fs *FileSystem) RemoveFile(dir DirDescriptor, name string) error {
	if err := fs.removeFile(dir, name); err != nil {
		return fmt.Errorf(
			"removing file `%s` from directory `%d`: %w",
			name,
			dir.ino,
			err,
		)
	}
	return nil
}

func (fs *FileSystem) removeFile(dir DirDescriptor, name string) error {
	for {
		// find the child before locking so both shards can be taken in
		// order; retry if the entry changed in between
		file, err := fs.LookupFile(dir, name)
		if err != nil {
			return err
		}

		unlock := fs.locks.lockPair(dir.ino, file.ino)
		entries, parent, err := fs.readEntries(dir.ino)
		if err != nil {
			unlock()
			return err
		}
		i := directory.Find(entries, name)
		if i < 0 ||
			entries[i].Ino != file.ino ||
			entries[i].Type != EntryTypeFile {
			unlock()
			continue
		}
		err = fs.unlink(dir.ino, &parent, entries, i)
		unlock()
		return err
	}
}

// unlink removes `entries[i]` from the parent and frees the child, which
// must be a regular file.
func (fs *FileSystem) unlink(
	dir Ino,
	parent *AllocatedInode,
	entries []DirEntry,
	i int,
) error {
	child := entries[i].Ino
	if err := fs.rewrite(
		dir,
		parent,
		directory.Encode(directory.Remove(entries, i)),
		nil,
	); err != nil {
		return err
	}
	inode, err := fs.readFileInode(child)
	if err != nil {
		return err
	}
	return fs.release(child, &inode)
}

// RemoveDir unlinks the entry `name` and frees everything below it. A regular
// file is removed as by `RemoveFile`. Every lock shard is held for the
// duration, since the subtree's inodes may live in any shard.
func (fs *FileSystem) RemoveDir(dir DirDescriptor, name string) error {
	if name == NameSelf || name == NameParent {
		return fmt.Errorf(
			"removing directory `%s` from directory `%d`: %w",
			name,
			dir.ino,
			SystemDirErr,
		)
	}

	fs.locks.lockAll()
	defer fs.locks.unlockAll()

	released, err := fs.removeTree(dir.ino, name)
	if err != nil {
		return fmt.Errorf(
			"removing directory `%s` from directory `%d`: %w",
			name,
			dir.ino,
			err,
		)
	}
	fs.log.WithFields(log.Fields{
		"dir":    dir.ino,
		"name":   name,
		"inodes": released,
	}).Debug("removed directory tree")
	return nil
}

func (fs *FileSystem) removeTree(dir Ino, name string) (int, error) {
	entries, parent, err := fs.readEntries(dir)
	if err != nil {
		return 0, err
	}
	i := directory.Find(entries, name)
	if i < 0 {
		return 0, NotFoundErr
	}
	if entries[i].Type == EntryTypeFile {
		return 1, fs.unlink(dir, &parent, entries, i)
	}

	target := entries[i].Ino
	if err := fs.rewrite(
		dir,
		&parent,
		directory.Encode(directory.Remove(entries, i)),
		nil,
	); err != nil {
		return 0, err
	}

	released := 0
	seen := map[Ino]struct{}{}
	for work := []Ino{target}; len(work) > 0; {
		ino := work[len(work)-1]
		work = work[:len(work)-1]

		if _, found := seen[ino]; found || ino == InoRoot {
			return released, fmt.Errorf(
				"inode `%d` reached twice: %w",
				ino,
				TreeCycleErr,
			)
		}
		seen[ino] = struct{}{}

		inode, err := fs.readInode(ino)
		if err != nil {
			return released, err
		}
		if inode.Type == EntryTypeDir {
			children, err := fs.decodeEntries(&inode)
			if err != nil {
				return released, fmt.Errorf(
					"reading directory `%d`: %w",
					ino,
					err,
				)
			}
			for _, child := range children {
				if !child.IsSystem() {
					work = append(work, child.Ino)
				}
			}
		}
		if err := fs.release(ino, &inode); err != nil {
			return released, err
		}
		released++
	}
	return released, nil
}

const TreeCycleErr ConstError = "directory tree contains a cycle"
