package alloc

import (
	"fmt"

	. "github.com/weberc2/mono/jfs/pkg/types"
)

// Slots stores each free node's "next" pointer inside the node itself.
type Slots interface {
	Next(id uint32) (uint32, error)
	SetNext(id, next uint32) error
}

// FreeList is an intrusive singly linked list of unused ids. The last node
// points at 0.
type FreeList struct {
	Count uint32
	Head  uint32
	Slots Slots

	// Empty is returned by `Pop` when `Count` is zero.
	Empty error
}

func (list *FreeList) Pop() (uint32, error) {
	if list.Count == 0 {
		return 0, list.Empty
	}
	id := list.Head
	next, err := list.Slots.Next(id)
	if err != nil {
		return 0, fmt.Errorf("popping `%d` from free list: %w", id, err)
	}
	list.Head = next
	list.Count--
	return id, nil
}

func (list *FreeList) Push(id uint32) error {
	if err := list.Slots.SetNext(id, list.Head); err != nil {
		return fmt.Errorf("pushing `%d` onto free list: %w", id, err)
	}
	list.Head = id
	list.Count++
	return nil
}

// Walk returns the ids on the list in order. It fails if the chain does not
// end after exactly `Count` nodes or if it visits a node twice.
func (list *FreeList) Walk() ([]uint32, error) {
	ids := make([]uint32, 0, list.Count)
	seen := make(map[uint32]struct{}, list.Count)
	for id := list.Head; id != 0; {
		if uint32(len(ids)) == list.Count {
			return ids, fmt.Errorf(
				"walking free list: more than `%d` nodes: %w",
				list.Count,
				FreeListMismatchErr,
			)
		}
		if _, found := seen[id]; found {
			return ids, fmt.Errorf(
				"walking free list: node `%d` visited twice: %w",
				id,
				FreeListMismatchErr,
			)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)

		next, err := list.Slots.Next(id)
		if err != nil {
			return ids, fmt.Errorf("walking free list: %w", err)
		}
		id = next
	}
	if uint32(len(ids)) != list.Count {
		return ids, fmt.Errorf(
			"walking free list: wanted `%d` nodes; found `%d`: %w",
			list.Count,
			len(ids),
			FreeListMismatchErr,
		)
	}
	return ids, nil
}

const FreeListMismatchErr ConstError = "free list does not match its count"
