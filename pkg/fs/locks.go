package fs

import (
	"sync"

	. "github.com/weberc2/mono/jfs/pkg/types"
)

// shards guards inodes by `ino % len(shards)`, so unrelated inodes may share
// a lock. An operation holds either one shard, two shards taken in ascending
// order, or all of them, which rules out lock cycles.
type shards []sync.RWMutex

func newShards(n int) shards {
	return make(shards, n)
}

func (s shards) index(ino Ino) int {
	return int(ino % Ino(len(s)))
}

func (s shards) of(ino Ino) *sync.RWMutex {
	return &s[s.index(ino)]
}

// lockPair write-locks the shards of `a` and `b` and returns the matching
// unlock.
func (s shards) lockPair(a, b Ino) func() {
	i, j := s.index(a), s.index(b)
	if i == j {
		s[i].Lock()
		return s[i].Unlock
	}
	if i > j {
		i, j = j, i
	}
	s[i].Lock()
	s[j].Lock()
	return func() {
		s[j].Unlock()
		s[i].Unlock()
	}
}

func (s shards) lockAll() {
	for i := range s {
		s[i].Lock()
	}
}

func (s shards) unlockAll() {
	for i := len(s) - 1; i >= 0; i-- {
		s[i].Unlock()
	}
}
