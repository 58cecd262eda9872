package fs

import (
	"bytes"
	"errors"
	"io/ioutil"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	log "github.com/sirupsen/logrus"
	"github.com/weberc2/mono/jfs/pkg/encode"
	"github.com/weberc2/mono/jfs/pkg/io"
	. "github.com/weberc2/mono/jfs/pkg/types"
)

const testVolumeSize Byte = 200000

func quietLogger() log.FieldLogger {
	logger := log.New()
	logger.SetOutput(ioutil.Discard)
	return logger
}

func newFileSystem(t *testing.T, size Byte) (*FileSystem, *io.Buffer) {
	t.Helper()
	buf := io.NewBuffer(size)
	if err := FormatVolume(buf); err != nil {
		t.Fatalf("FormatVolume(): unexpected err: %v", err)
	}
	fs, err := MountVolume(buf, Options{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("MountVolume(): unexpected err: %v", err)
	}
	return fs, buf
}

type counts struct {
	Inodes Ino
	Blocks Block
}

func freeCounts(fs *FileSystem) counts {
	sb := fs.Stat()
	return counts{sb.FreeInodes, sb.FreeBlocks}
}

func wantCounts(t *testing.T, fs *FileSystem, wanted counts) {
	t.Helper()
	if diff := cmp.Diff(wanted, freeCounts(fs)); diff != "" {
		t.Fatalf("free counts mismatch (-wanted +found):\n%s", diff)
	}
}

func wantClean(t *testing.T, fs *FileSystem) {
	t.Helper()
	if report := fs.Check(); !report.Clean() {
		t.Fatalf("Check(): unexpected problems:\n%s", strings.Join(report.Problems, "\n"))
	}
}

func names(t *testing.T, fs *FileSystem, dir DirDescriptor) []string {
	t.Helper()
	entries, err := fs.Entries(dir)
	if err != nil {
		t.Fatalf("Entries(): unexpected err: %v", err)
	}
	var out []string
	for _, entry := range entries {
		out = append(out, entry.Name)
	}
	sort.Strings(out)
	return out
}

func TestFormat(t *testing.T) {
	for _, testCase := range []struct {
		name   string
		size   Byte
		wanted Superblock
	}{
		{
			name: "reference volume",
			size: testVolumeSize,
			wanted: Superblock{
				TotalInodes:   31,
				TotalBlocks:   48,
				FreeInodes:    30,
				FreeInodeHead: 2,
				FreeBlocks:    47,
				FreeBlockHead: 2,
			},
		},
		{
			name: "minimal volume",
			size: MinVolumeSize,
			wanted: Superblock{
				TotalInodes: 1,
				TotalBlocks: 1,
			},
		},
		{
			name: "minimal volume plus 100 blocks",
			size: MinVolumeSize + 100*BlockSize,
			wanted: Superblock{
				TotalInodes:   64,
				TotalBlocks:   100,
				FreeInodes:    63,
				FreeInodeHead: 2,
				FreeBlocks:    99,
				FreeBlockHead: 2,
			},
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			fs, _ := newFileSystem(t, testCase.size)
			if diff := cmp.Diff(testCase.wanted, fs.Stat()); diff != "" {
				t.Fatalf("Stat(): mismatch (-wanted +found):\n%s", diff)
			}

			entries, err := fs.Entries(fs.Root())
			if err != nil {
				t.Fatalf("Entries(): unexpected err: %v", err)
			}
			if diff := cmp.Diff(
				[]DirEntry{
					{Ino: InoRoot, Type: EntryTypeDir, Name: "."},
					{Ino: InoRoot, Type: EntryTypeDir, Name: ".."},
				},
				entries,
			); diff != "" {
				t.Fatalf("Entries(): mismatch (-wanted +found):\n%s", diff)
			}

			parent, err := fs.Parent(fs.Root())
			if err != nil {
				t.Fatalf("Parent(): unexpected err: %v", err)
			}
			if parent != fs.Root() {
				t.Fatalf("Parent(): wanted root; found `%d`", parent.Ino())
			}
			wantClean(t, fs)
		})
	}
}

func TestFormatVolumeSize(t *testing.T) {
	var e *ErrVolumeSize
	if err := FormatVolume(io.NewBuffer(MinVolumeSize - 1)); !errors.As(err, &e) {
		t.Fatalf("FormatVolume(): wanted `ErrVolumeSize`; found `%v`", err)
	}
}

func TestAddRemoveDirIsInverse(t *testing.T) {
	fs, _ := newFileSystem(t, testVolumeSize)
	wantCounts(t, fs, counts{30, 47})

	dir, err := fs.AddDir(fs.Root(), "x")
	if err != nil {
		t.Fatalf("AddDir(): unexpected err: %v", err)
	}
	wantCounts(t, fs, counts{29, 46})

	dirs, err := fs.Dirs(fs.Root())
	if err != nil {
		t.Fatalf("Dirs(): unexpected err: %v", err)
	}
	if dirs["x"] != dir {
		t.Fatalf("Dirs(): wanted `x` -> `%d`; found `%v`", dir.Ino(), dirs)
	}
	if diff := cmp.Diff([]string{".", "..", "x"}, names(t, fs, fs.Root())); diff != "" {
		t.Fatalf("Entries(): mismatch (-wanted +found):\n%s", diff)
	}

	entries, err := fs.Entries(dir)
	if err != nil {
		t.Fatalf("Entries(): unexpected err: %v", err)
	}
	if diff := cmp.Diff(
		[]DirEntry{
			{Ino: dir.Ino(), Type: EntryTypeDir, Name: "."},
			{Ino: InoRoot, Type: EntryTypeDir, Name: ".."},
		},
		entries,
	); diff != "" {
		t.Fatalf("Entries(): mismatch (-wanted +found):\n%s", diff)
	}
	if parent, err := fs.Parent(dir); err != nil || parent != fs.Root() {
		t.Fatalf("Parent(): wanted root; found `%v` (err: %v)", parent, err)
	}
	wantClean(t, fs)

	if err := fs.RemoveDir(fs.Root(), "x"); err != nil {
		t.Fatalf("RemoveDir(): unexpected err: %v", err)
	}
	wantCounts(t, fs, counts{30, 47})
	if diff := cmp.Diff([]string{".", ".."}, names(t, fs, fs.Root())); diff != "" {
		t.Fatalf("Entries(): mismatch (-wanted +found):\n%s", diff)
	}
	wantClean(t, fs)
}

func TestMaxFileRoundTrip(t *testing.T) {
	fs, _ := newFileSystem(t, testVolumeSize)

	file, err := fs.AddFile(fs.Root(), "big")
	if err != nil {
		t.Fatalf("AddFile(): unexpected err: %v", err)
	}
	wantCounts(t, fs, counts{29, 47})

	data := bytes.Repeat([]byte("0123456789abcdef"), int(MaxObjectSize/16))
	if err := fs.WriteFile(file, data, 0); err != nil {
		t.Fatalf("WriteFile(): unexpected err: %v", err)
	}
	wantCounts(t, fs, counts{29, 35})

	found, err := fs.ReadFile(file, 0, MaxObjectSize)
	if err != nil {
		t.Fatalf("ReadFile(): unexpected err: %v", err)
	}
	if !bytes.Equal(data, found) {
		t.Fatal("ReadFile(): content mismatch")
	}
	wantClean(t, fs)

	if err := fs.RemoveFile(fs.Root(), "big"); err != nil {
		t.Fatalf("RemoveFile(): unexpected err: %v", err)
	}
	wantCounts(t, fs, counts{30, 47})
	wantClean(t, fs)
}

func TestNameValidationDoesNotMutate(t *testing.T) {
	fs, buf := newFileSystem(t, testVolumeSize)
	if _, err := fs.AddFile(fs.Root(), "taken"); err != nil {
		t.Fatalf("AddFile(): unexpected err: %v", err)
	}
	before := append([]byte(nil), buf.Bytes()...)

	for _, testCase := range []struct {
		name   string
		input  string
		wanted error
	}{
		{"empty", "", EmptyNameErr},
		{"separator", "a/b", SeparatorInNameErr},
		{"too long", strings.Repeat("я", 128), NameTooLongErr},
		{"collision", "taken", &NameInUseErr{Name: "taken"}},
		{"dot", ".", &NameInUseErr{Name: "."}},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			for _, add := range []func() error{
				func() error {
					_, err := fs.AddDir(fs.Root(), testCase.input)
					return err
				},
				func() error {
					_, err := fs.AddFile(fs.Root(), testCase.input)
					return err
				},
			} {
				err := add()
				if !IsRefusal(err) {
					t.Fatalf("wanted refusal; found `%v`", err)
				}
				refusal, _ := AsRefusal(err)
				if refusal.Error() != testCase.wanted.Error() {
					t.Fatalf("wanted `%v`; found `%v`", testCase.wanted, refusal)
				}
				if !bytes.Equal(before, buf.Bytes()) {
					t.Fatal("refused request modified the volume")
				}
			}
		})
	}
}

func TestCapacityRefusal(t *testing.T) {
	fs, _ := newFileSystem(t, testVolumeSize)
	file, err := fs.AddFile(fs.Root(), "f")
	if err != nil {
		t.Fatalf("AddFile(): unexpected err: %v", err)
	}
	if err := fs.WriteFile(file, make([]byte, MaxObjectSize-1), 0); err != nil {
		t.Fatalf("WriteFile(): unexpected err: %v", err)
	}
	before := freeCounts(fs)

	for _, testCase := range []struct {
		name string
		call func() error
	}{
		{"append", func() error { return fs.AppendFile(file, []byte("ab")) }},
		{"write", func() error {
			return fs.WriteFile(file, []byte("abc"), MaxObjectSize-2)
		}},
		{"rewrite", func() error {
			return fs.RewriteFile(file, make([]byte, MaxObjectSize+1))
		}},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			if err := testCase.call(); !errors.Is(err, TooBigErr) {
				t.Fatalf("wanted `%v`; found `%v`", TooBigErr, err)
			}
			size, err := fs.FileSize(file)
			if err != nil {
				t.Fatalf("FileSize(): unexpected err: %v", err)
			}
			if size != MaxObjectSize-1 {
				t.Fatalf("FileSize(): wanted `%d`; found `%d`", MaxObjectSize-1, size)
			}
			wantCounts(t, fs, before)
		})
	}

	if err := fs.AppendFile(file, []byte("a")); err != nil {
		t.Fatalf("AppendFile(): unexpected err: %v", err)
	}
}

func TestReadWrite(t *testing.T) {
	fs, _ := newFileSystem(t, testVolumeSize)
	file, err := fs.AddFile(fs.Root(), "f")
	if err != nil {
		t.Fatalf("AddFile(): unexpected err: %v", err)
	}

	if _, err := fs.ReadFile(file, 1, 10); !errors.Is(err, OffsetBeyondSizeErr) {
		t.Fatalf("ReadFile(): wanted `%v`; found `%v`", OffsetBeyondSizeErr, err)
	}
	if err := fs.WriteFile(file, []byte("x"), 1); !errors.Is(err, OffsetBeyondSizeErr) {
		t.Fatalf("WriteFile(): wanted `%v`; found `%v`", OffsetBeyondSizeErr, err)
	}
	if data, err := fs.ReadFile(file, 0, 10); err != nil || len(data) != 0 {
		t.Fatalf("ReadFile(): wanted empty read; found `%q` (err: %v)", data, err)
	}

	// straddle the first block boundary
	head := bytes.Repeat([]byte{'a'}, int(BlockSize-2))
	if err := fs.AppendFile(file, head); err != nil {
		t.Fatalf("AppendFile(): unexpected err: %v", err)
	}
	if err := fs.AppendFile(file, []byte("bcde")); err != nil {
		t.Fatalf("AppendFile(): unexpected err: %v", err)
	}
	wantCounts(t, fs, counts{29, 45})

	for _, testCase := range []struct {
		name      string
		offset    Byte
		maxLength Byte
		wanted    string
	}{
		{"across boundary", BlockSize - 3, 5, "abcde"},
		{"clamped", BlockSize, 100, "de"},
		{"at end", BlockSize + 2, 100, ""},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			data, err := fs.ReadFile(file, testCase.offset, testCase.maxLength)
			if err != nil {
				t.Fatalf("ReadFile(): unexpected err: %v", err)
			}
			if string(data) != testCase.wanted {
				t.Fatalf("ReadFile(): wanted `%s`; found `%s`", testCase.wanted, data)
			}
		})
	}

	// overwrite in place does not grow
	if err := fs.WriteFile(file, []byte("XY"), BlockSize-1); err != nil {
		t.Fatalf("WriteFile(): unexpected err: %v", err)
	}
	if data, _ := fs.ReadFile(file, BlockSize-2, 10); string(data) != "bXYe" {
		t.Fatalf("ReadFile(): wanted `bXYe`; found `%s`", data)
	}
	if size, _ := fs.FileSize(file); size != BlockSize+2 {
		t.Fatalf("FileSize(): wanted `%d`; found `%d`", BlockSize+2, size)
	}

	// rewriting with less content frees blocks
	if err := fs.RewriteFile(file, []byte("short")); err != nil {
		t.Fatalf("RewriteFile(): unexpected err: %v", err)
	}
	wantCounts(t, fs, counts{29, 46})
	if data, _ := fs.ReadFile(file, 0, 100); string(data) != "short" {
		t.Fatalf("ReadFile(): wanted `short`; found `%s`", data)
	}
	if err := fs.RewriteFile(file, nil); err != nil {
		t.Fatalf("RewriteFile(): unexpected err: %v", err)
	}
	wantCounts(t, fs, counts{29, 47})
	wantClean(t, fs)
}

func TestExactBlockMultiple(t *testing.T) {
	fs, _ := newFileSystem(t, testVolumeSize)
	file, err := fs.AddFile(fs.Root(), "f")
	if err != nil {
		t.Fatalf("AddFile(): unexpected err: %v", err)
	}
	if err := fs.WriteFile(file, make([]byte, 2*BlockSize), 0); err != nil {
		t.Fatalf("WriteFile(): unexpected err: %v", err)
	}
	wantCounts(t, fs, counts{29, 45})
}

func TestWrongKind(t *testing.T) {
	fs, _ := newFileSystem(t, testVolumeSize)
	dir, err := fs.AddDir(fs.Root(), "d")
	if err != nil {
		t.Fatalf("AddDir(): unexpected err: %v", err)
	}
	if _, err := fs.AddFile(fs.Root(), "f"); err != nil {
		t.Fatalf("AddFile(): unexpected err: %v", err)
	}

	for _, testCase := range []struct {
		name   string
		call   func() error
		wanted error
	}{
		{"remove dir as file", func() error { return fs.RemoveFile(fs.Root(), "d") }, IsADirErr},
		{"remove missing file", func() error { return fs.RemoveFile(fs.Root(), "nope") }, NotFoundErr},
		{"remove missing dir", func() error { return fs.RemoveDir(fs.Root(), "nope") }, NotFoundErr},
		{"remove self", func() error { return fs.RemoveDir(dir, ".") }, SystemDirErr},
		{"remove parent", func() error { return fs.RemoveDir(dir, "..") }, SystemDirErr},
		{"lookup file as dir", func() error {
			_, err := fs.LookupDir(fs.Root(), "f")
			return err
		}, NotADirErr},
		{"lookup dir as file", func() error {
			_, err := fs.LookupFile(fs.Root(), "d")
			return err
		}, IsADirErr},
		{"read dir", func() error {
			_, err := fs.ReadFile(FileDescriptor{dir.Ino()}, 0, 1)
			return err
		}, IsADirErr},
		{"list file", func() error {
			f, _ := fs.LookupFile(fs.Root(), "f")
			_, err := fs.Entries(DirDescriptor{f.Ino()})
			return err
		}, NotADirErr},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			if err := testCase.call(); !errors.Is(err, testCase.wanted) {
				t.Fatalf("wanted `%v`; found `%v`", testCase.wanted, err)
			}
		})
	}

	// a file can be removed through RemoveDir too
	if err := fs.RemoveDir(fs.Root(), "f"); err != nil {
		t.Fatalf("RemoveDir(): unexpected err: %v", err)
	}
	wantCounts(t, fs, counts{29, 46})
	wantClean(t, fs)
}

func TestRemoveTree(t *testing.T) {
	fs, _ := newFileSystem(t, testVolumeSize)
	baseline := freeCounts(fs)

	top, err := fs.AddDir(fs.Root(), "top")
	if err != nil {
		t.Fatalf("AddDir(): unexpected err: %v", err)
	}
	dir := top
	for _, name := range []string{"a", "b", "c"} {
		if dir, err = fs.AddDir(dir, name); err != nil {
			t.Fatalf("AddDir(): unexpected err: %v", err)
		}
		file, err := fs.AddFile(dir, name+".txt")
		if err != nil {
			t.Fatalf("AddFile(): unexpected err: %v", err)
		}
		if err := fs.WriteFile(file, make([]byte, BlockSize+1), 0); err != nil {
			t.Fatalf("WriteFile(): unexpected err: %v", err)
		}
	}
	if _, err := fs.AddDir(top, "sibling"); err != nil {
		t.Fatalf("AddDir(): unexpected err: %v", err)
	}
	// top, a, b, c, sibling and three files
	wantCounts(t, fs, counts{baseline.Inodes - 8, baseline.Blocks - 5 - 6})
	wantClean(t, fs)

	if err := fs.RemoveDir(fs.Root(), "top"); err != nil {
		t.Fatalf("RemoveDir(): unexpected err: %v", err)
	}
	wantCounts(t, fs, baseline)
	wantClean(t, fs)
}

func TestDirectoryGrowsAndShrinks(t *testing.T) {
	fs, _ := newFileSystem(t, testVolumeSize)
	name := func(i int) string { return strings.Repeat(string(rune('a'+i)), MaxNameLen) }

	// 15 entries with 255-byte names fill the root's first block
	for i := 0; i < 15; i++ {
		if _, err := fs.AddFile(fs.Root(), name(i)); err != nil {
			t.Fatalf("AddFile(): unexpected err: %v", err)
		}
	}
	wantCounts(t, fs, counts{15, 47})

	if _, err := fs.AddFile(fs.Root(), name(15)); err != nil {
		t.Fatalf("AddFile(): unexpected err: %v", err)
	}
	wantCounts(t, fs, counts{14, 46})
	if found := len(names(t, fs, fs.Root())); found != 18 {
		t.Fatalf("Entries(): wanted `18` entries; found `%d`", found)
	}
	wantClean(t, fs)

	if err := fs.RemoveFile(fs.Root(), name(3)); err != nil {
		t.Fatalf("RemoveFile(): unexpected err: %v", err)
	}
	wantCounts(t, fs, counts{15, 47})
	wantClean(t, fs)
}

func TestOutOfInodes(t *testing.T) {
	fs, buf := newFileSystem(t, testVolumeSize)
	for i := 0; i < 30; i++ {
		if _, err := fs.AddFile(fs.Root(), string(rune('A'+i))); err != nil {
			t.Fatalf("AddFile(): unexpected err: %v", err)
		}
	}
	before := append([]byte(nil), buf.Bytes()...)
	if _, err := fs.AddDir(fs.Root(), "more"); !errors.Is(err, NoFreeInodesErr) {
		t.Fatalf("AddDir(): wanted `%v`; found `%v`", NoFreeInodesErr, err)
	}
	if !bytes.Equal(before, buf.Bytes()) {
		t.Fatal("refused AddDir() modified the volume")
	}
	wantClean(t, fs)
}

func TestOutOfBlocks(t *testing.T) {
	fs, buf := newFileSystem(t, testVolumeSize)
	for i, size := range []Byte{MaxObjectSize, MaxObjectSize, MaxObjectSize, 11 * BlockSize} {
		file, err := fs.AddFile(fs.Root(), string(rune('a'+i)))
		if err != nil {
			t.Fatalf("AddFile(): unexpected err: %v", err)
		}
		if err := fs.WriteFile(file, make([]byte, size), 0); err != nil {
			t.Fatalf("WriteFile(): unexpected err: %v", err)
		}
	}
	wantCounts(t, fs, counts{26, 0})

	before := append([]byte(nil), buf.Bytes()...)
	if _, err := fs.AddDir(fs.Root(), "dir"); !errors.Is(err, NoFreeBlocksErr) {
		t.Fatalf("AddDir(): wanted `%v`; found `%v`", NoFreeBlocksErr, err)
	}
	last, err := fs.LookupFile(fs.Root(), "d")
	if err != nil {
		t.Fatalf("LookupFile(): unexpected err: %v", err)
	}
	if err := fs.AppendFile(last, []byte("x")); !errors.Is(err, NoFreeBlocksErr) {
		t.Fatalf("AppendFile(): wanted `%v`; found `%v`", NoFreeBlocksErr, err)
	}
	if !bytes.Equal(before, buf.Bytes()) {
		t.Fatal("refused requests modified the volume")
	}

	// files need no blocks until written
	if _, err := fs.AddFile(fs.Root(), "empty"); err != nil {
		t.Fatalf("AddFile(): unexpected err: %v", err)
	}
	wantCounts(t, fs, counts{25, 0})
	wantClean(t, fs)
}

func TestMountPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.jfs")
	if err := Create(path, testVolumeSize); err != nil {
		t.Fatalf("Create(): unexpected err: %v", err)
	}
	if _, err := Mount(path, Options{Logger: quietLogger()}); err == nil {
		t.Fatal("Mount(): wanted error for unformatted image")
	}
	if err := Format(path); err != nil {
		t.Fatalf("Format(): unexpected err: %v", err)
	}

	fs, err := Mount(path, Options{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Mount(): unexpected err: %v", err)
	}
	dir, err := fs.AddDir(fs.Root(), "docs")
	if err != nil {
		t.Fatalf("AddDir(): unexpected err: %v", err)
	}
	file, err := fs.AddFile(dir, "readme")
	if err != nil {
		t.Fatalf("AddFile(): unexpected err: %v", err)
	}
	if err := fs.AppendFile(file, []byte("hello")); err != nil {
		t.Fatalf("AppendFile(): unexpected err: %v", err)
	}
	if err := fs.Close(); err != nil {
		t.Fatalf("Close(): unexpected err: %v", err)
	}

	fs, err = Mount(path, Options{Logger: quietLogger(), LockShards: 3})
	if err != nil {
		t.Fatalf("Mount(): unexpected err: %v", err)
	}
	defer fs.Close()

	dir, err = fs.LookupDir(fs.Root(), "docs")
	if err != nil {
		t.Fatalf("LookupDir(): unexpected err: %v", err)
	}
	file, err = fs.LookupFile(dir, "readme")
	if err != nil {
		t.Fatalf("LookupFile(): unexpected err: %v", err)
	}
	if data, err := fs.ReadFile(file, 0, 100); err != nil || string(data) != "hello" {
		t.Fatalf("ReadFile(): wanted `hello`; found `%s` (err: %v)", data, err)
	}
	wantCounts(t, fs, counts{28, 45})
	wantClean(t, fs)
}

func TestCorruptionIsNotRefusal(t *testing.T) {
	fs, buf := newFileSystem(t, testVolumeSize)
	if _, err := fs.AddDir(fs.Root(), "d"); err != nil {
		t.Fatalf("AddDir(): unexpected err: %v", err)
	}

	// clobber the type byte of inode 2
	buf.Bytes()[SuperblockSize+InodeSize] = 9
	_, err := fs.Entries(DirDescriptor{2})
	if !errors.Is(err, InvalidEntryTypeErr) {
		t.Fatalf("Entries(): wanted `%v`; found `%v`", InvalidEntryTypeErr, err)
	}
	if IsRefusal(err) {
		t.Fatalf("Entries(): corruption reported as refusal: %v", err)
	}
}

func TestCheckFindsProblems(t *testing.T) {
	fs, buf := newFileSystem(t, testVolumeSize)
	if _, err := fs.AddDir(fs.Root(), "d"); err != nil {
		t.Fatalf("AddDir(): unexpected err: %v", err)
	}

	// point the "." entry of the new directory (block 2) somewhere else
	sb := fs.Stat()
	dot := sb.DataOffset() + BlockSize + DirBlockHeaderSize
	buf.Bytes()[dot+3] = 7

	report := fs.Check()
	if report.Clean() {
		t.Fatal("Check(): wanted problems; found none")
	}
	if report.Dirs != 2 {
		t.Fatalf("Check(): wanted `2` dirs; found `%d`", report.Dirs)
	}
}

func TestSnapshot(t *testing.T) {
	fs, _ := newFileSystem(t, testVolumeSize)
	if _, err := fs.AddDir(fs.Root(), "kept"); err != nil {
		t.Fatalf("AddDir(): unexpected err: %v", err)
	}

	var out bytes.Buffer
	n, err := fs.Snapshot(&out)
	if err != nil {
		t.Fatalf("Snapshot(): unexpected err: %v", err)
	}
	if n != testVolumeSize || Byte(out.Len()) != testVolumeSize {
		t.Fatalf("Snapshot(): wanted `%d` bytes; found `%d`", testVolumeSize, n)
	}

	copied, err := MountVolume(io.NewBufferFrom(out.Bytes()), Options{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("MountVolume(): unexpected err: %v", err)
	}
	if _, err := copied.LookupDir(copied.Root(), "kept"); err != nil {
		t.Fatalf("LookupDir(): unexpected err: %v", err)
	}
}

func TestAddEntryReleasesSurplusDirBlocks(t *testing.T) {
	fs, _ := newFileSystem(t, testVolumeSize)
	dir, err := fs.AddDir(fs.Root(), "d")
	if err != nil {
		t.Fatalf("AddDir(): unexpected err: %v", err)
	}
	before := freeCounts(fs)

	// give the directory a trailing empty block, as a volume that does not
	// compact its directories would
	extra, err := fs.alloc.PopBlocks(1)
	if err != nil {
		t.Fatalf("PopBlocks(): unexpected err: %v", err)
	}
	var data [BlockSize]byte
	empty := NewDirBlock()
	encode.EncodeDirBlock(&empty, &data)
	if err := fs.accessor.WriteBlock(extra[0], 0, data[:]); err != nil {
		t.Fatalf("WriteBlock(): unexpected err: %v", err)
	}
	var inode AllocatedInode
	if err := fs.accessor.ReadInode(dir.Ino(), &inode); err != nil {
		t.Fatalf("ReadInode(): unexpected err: %v", err)
	}
	inode.DirectBlocks[1] = extra[0]
	inode.Size = 2 * BlockSize
	if err := fs.accessor.WriteInode(dir.Ino(), &inode); err != nil {
		t.Fatalf("WriteInode(): unexpected err: %v", err)
	}

	if _, err := fs.AddFile(dir, "f"); err != nil {
		t.Fatalf("AddFile(): unexpected err: %v", err)
	}
	if diff := cmp.Diff([]string{".", "..", "f"}, names(t, fs, dir)); diff != "" {
		t.Fatalf("Entries(): mismatch (-wanted +found):\n%s", diff)
	}
	wantCounts(t, fs, counts{before.Inodes - 1, before.Blocks})
	wantClean(t, fs)
}
