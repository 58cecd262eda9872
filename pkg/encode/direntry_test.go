package encode

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/weberc2/mono/jfs/pkg/types"
)

func TestDirEntryEncodeDecode(t *testing.T) {
	for _, wanted := range []DirEntry{
		{Ino: 1, Type: EntryTypeDir, Name: "."},
		{Ino: 7, Type: EntryTypeFile, Name: "файл.txt"},
		{Ino: 0xFFFFFFFF, Type: EntryTypeFile, Name: strings.Repeat("x", MaxNameLen)},
	} {
		buf := make([]byte, wanted.Size())
		if n := EncodeDirEntry(&wanted, buf); n != wanted.Size() {
			t.Fatalf("EncodeDirEntry(): wanted `%d` bytes; found `%d`", wanted.Size(), n)
		}

		var found DirEntry
		n, err := DecodeDirEntry(&found, buf)
		if err != nil {
			t.Fatalf("DecodeDirEntry(): unexpected err: %v", err)
		}
		if n != wanted.Size() {
			t.Fatalf("DecodeDirEntry(): wanted `%d` bytes; found `%d`", wanted.Size(), n)
		}
		if diff := cmp.Diff(wanted, found); diff != "" {
			t.Fatalf("DecodeDirEntry(): mismatch (-wanted +found):\n%s", diff)
		}
	}
}

func TestDirEntryLayout(t *testing.T) {
	buf := make([]byte, 8)
	EncodeDirEntry(&DirEntry{Ino: 0x0102, Type: EntryTypeFile, Name: "ab"}, buf)
	wanted := []byte{0x00, 0x00, 0x01, 0x02, 0x01, 0x02, 'a', 'b'}
	if diff := cmp.Diff(wanted, buf); diff != "" {
		t.Fatalf("EncodeDirEntry(): mismatch (-wanted +found):\n%s", diff)
	}
}

func TestDirBlockEncodeDecode(t *testing.T) {
	wanted := NewDirBlock()
	for _, entry := range []DirEntry{
		{Ino: 3, Type: EntryTypeDir, Name: "."},
		{Ino: 1, Type: EntryTypeDir, Name: ".."},
		{Ino: 4, Type: EntryTypeFile, Name: "notes"},
	} {
		if !wanted.TryInsert(entry) {
			t.Fatalf("TryInsert(): unexpectedly refused `%s`", entry.Name)
		}
	}
	if wanted.Unused != DirBlockCapacity-7-8-11 {
		t.Fatalf("TryInsert(): wanted unused `%d`; found `%d`", DirBlockCapacity-26, wanted.Unused)
	}

	var buf [BlockSize]byte
	EncodeDirBlock(&wanted, &buf)

	var found DirBlock
	if err := DecodeDirBlock(&found, &buf); err != nil {
		t.Fatalf("DecodeDirBlock(): unexpected err: %v", err)
	}
	if diff := cmp.Diff(wanted, found); diff != "" {
		t.Fatalf("DecodeDirBlock(): mismatch (-wanted +found):\n%s", diff)
	}
}

func TestDirBlockFull(t *testing.T) {
	block := NewDirBlock()
	name := strings.Repeat("n", MaxNameLen)
	inserted := 0
	for block.TryInsert(DirEntry{Ino: 2, Type: EntryTypeFile, Name: name}) {
		inserted++
	}
	if wanted := int(DirBlockCapacity / (DirEntryHeaderSize + MaxNameLen)); inserted != wanted {
		t.Fatalf("TryInsert(): wanted `%d` entries; found `%d`", wanted, inserted)
	}

	var buf [BlockSize]byte
	EncodeDirBlock(&block, &buf)
	var found DirBlock
	if err := DecodeDirBlock(&found, &buf); err != nil {
		t.Fatalf("DecodeDirBlock(): unexpected err: %v", err)
	}
	if len(found.Entries) != inserted {
		t.Fatalf("DecodeDirBlock(): wanted `%d` entries; found `%d`", inserted, len(found.Entries))
	}
}

func TestDecodeDirBlockErrors(t *testing.T) {
	for _, testCase := range []struct {
		name   string
		mutate func(b *[BlockSize]byte)
	}{
		{
			name:   "unused size beyond capacity",
			mutate: func(b *[BlockSize]byte) { b[0], b[1] = 0x10, 0x00 },
		},
		{
			name: "entry overruns used region",
			// claim one byte less is used than the entries need
			mutate: func(b *[BlockSize]byte) { b[1]++ },
		},
		{
			name:   "empty name",
			mutate: func(b *[BlockSize]byte) { b[2+5] = 0 },
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			block := NewDirBlock()
			block.TryInsert(DirEntry{Ino: 1, Type: EntryTypeDir, Name: "."})
			var buf [BlockSize]byte
			EncodeDirBlock(&block, &buf)
			testCase.mutate(&buf)

			var found DirBlock
			if err := DecodeDirBlock(&found, &buf); !errors.Is(err, BadDirBlockErr) {
				t.Fatalf(
					"DecodeDirBlock(): wanted `%v`; found `%v`",
					BadDirBlockErr,
					err,
				)
			}
		})
	}
}
