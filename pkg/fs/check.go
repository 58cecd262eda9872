package fs

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	. "github.com/weberc2/mono/jfs/pkg/types"
)

// Report is the outcome of `Check`.
type Report struct {
	Superblock Superblock
	Dirs       int
	Files      int
	UsedBlocks int
	Problems   []string
}

func (r *Report) Clean() bool { return len(r.Problems) == 0 }

func (r *Report) problemf(format string, v ...interface{}) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, v...))
}

// Check verifies the volume's structure with every lock shard held: the free
// lists match their counts, every inode and block is either free or owned by
// exactly one live object, and every directory's "." and ".." entries and
// every inode's parent field agree with the tree.
func (fs *FileSystem) Check() *Report {
	fs.locks.lockAll()
	defer fs.locks.unlockAll()

	c := checker{
		fs:         fs,
		report:     &Report{Superblock: fs.alloc.Superblock()},
		freeInodes: map[Ino]struct{}{},
		freeBlocks: map[Block]struct{}{},
		inodes:     map[Ino]struct{}{},
		blocks:     map[Block]Ino{},
	}
	c.walkFreeLists()
	c.walkTree()
	c.reconcile()

	fs.log.WithFields(log.Fields{
		"dirs":     c.report.Dirs,
		"files":    c.report.Files,
		"problems": len(c.report.Problems),
	}).Info("checked volume")
	return c.report
}

type checker struct {
	fs         *FileSystem
	report     *Report
	freeInodes map[Ino]struct{}
	freeBlocks map[Block]struct{}
	inodes     map[Ino]struct{}
	blocks     map[Block]Ino
}

func (c *checker) walkFreeLists() {
	inodes, err := c.fs.alloc.FreeInodes()
	if err != nil {
		c.report.problemf("%v", err)
	}
	for _, ino := range inodes {
		c.freeInodes[ino] = struct{}{}
	}

	blocks, err := c.fs.alloc.FreeBlocks()
	if err != nil {
		c.report.problemf("%v", err)
	}
	for _, block := range blocks {
		c.freeBlocks[block] = struct{}{}
	}
}

type pending struct {
	ino    Ino
	parent Ino
	et     EntryType
	name   string
}

func (c *checker) walkTree() {
	total := c.report.Superblock.TotalInodes
	for work := []pending{{InoRoot, InoRoot, EntryTypeDir, "/"}}; len(work) > 0; {
		p := work[0]
		work = work[1:]

		if p.ino < 1 || p.ino > total {
			c.report.problemf(
				"entry `%s` in directory `%d` points at inode `%d` outside "+
					"[1, %d]",
				p.name,
				p.parent,
				p.ino,
				total,
			)
			continue
		}
		if _, found := c.inodes[p.ino]; found {
			c.report.problemf(
				"inode `%d` is linked more than once (again as `%s` in `%d`)",
				p.ino,
				p.name,
				p.parent,
			)
			continue
		}
		c.inodes[p.ino] = struct{}{}
		if _, found := c.freeInodes[p.ino]; found {
			c.report.problemf("inode `%d` is linked but free", p.ino)
		}

		inode, err := c.fs.readInode(p.ino)
		if err != nil {
			c.report.problemf("%v", err)
			continue
		}
		if inode.Type != p.et {
			c.report.problemf(
				"inode `%d` is a %s but its entry says %s",
				p.ino,
				inode.Type,
				p.et,
			)
			continue
		}
		if inode.Parent != p.parent {
			c.report.problemf(
				"inode `%d` names parent `%d` but is linked from `%d`",
				p.ino,
				inode.Parent,
				p.parent,
			)
		}
		c.claimBlocks(p.ino, &inode)

		if inode.Type == EntryTypeFile {
			c.report.Files++
			continue
		}
		c.report.Dirs++

		entries, err := c.fs.decodeEntries(&inode)
		if err != nil {
			c.report.problemf("directory `%d`: %v", p.ino, err)
			continue
		}
		c.checkSystemEntries(p.ino, p.parent, entries)
		for _, entry := range entries {
			if !entry.IsSystem() {
				work = append(work, pending{
					ino:    entry.Ino,
					parent: p.ino,
					et:     entry.Type,
					name:   entry.Name,
				})
			}
		}
	}
}

func (c *checker) checkSystemEntries(dir, parent Ino, entries []DirEntry) {
	var self, up int
	for _, entry := range entries {
		switch entry.Name {
		case NameSelf:
			self++
			if entry.Ino != dir || entry.Type != EntryTypeDir {
				c.report.problemf(
					"directory `%d` has \".\" pointing at `%d`",
					dir,
					entry.Ino,
				)
			}
		case NameParent:
			up++
			if entry.Ino != parent || entry.Type != EntryTypeDir {
				c.report.problemf(
					"directory `%d` has \"..\" pointing at `%d`; wanted `%d`",
					dir,
					entry.Ino,
					parent,
				)
			}
		}
	}
	if self != 1 || up != 1 {
		c.report.problemf(
			"directory `%d` has `%d` \".\" and `%d` \"..\" entries",
			dir,
			self,
			up,
		)
	}
}

func (c *checker) claimBlocks(ino Ino, inode *AllocatedInode) {
	total := c.report.Superblock.TotalBlocks
	used := inode.Blocks()
	for i, block := range inode.DirectBlocks {
		if Block(i) >= used {
			if block != BlockNil {
				c.report.problemf(
					"inode `%d` has stray pointer `%d` in slot `%d`",
					ino,
					block,
					i,
				)
			}
			continue
		}
		if block < 1 || block > total {
			c.report.problemf(
				"inode `%d` points at block `%d` outside [1, %d]",
				ino,
				block,
				total,
			)
			continue
		}
		if owner, found := c.blocks[block]; found {
			c.report.problemf(
				"block `%d` is owned by inodes `%d` and `%d`",
				block,
				owner,
				ino,
			)
			continue
		}
		c.blocks[block] = ino
		c.report.UsedBlocks++
		if _, found := c.freeBlocks[block]; found {
			c.report.problemf("block `%d` of inode `%d` is also free", block, ino)
		}
	}
}

func (c *checker) reconcile() {
	sb := c.report.Superblock
	for ino := Ino(1); ino <= sb.TotalInodes; ino++ {
		_, free := c.freeInodes[ino]
		_, used := c.inodes[ino]
		if !free && !used {
			c.report.problemf("inode `%d` is neither free nor linked", ino)
		}
	}
	for block := Block(1); block <= sb.TotalBlocks; block++ {
		_, free := c.freeBlocks[block]
		_, used := c.blocks[block]
		if !free && !used {
			c.report.problemf("block `%d` is neither free nor owned", block)
		}
	}
}
