package objectstore

import (
	"bytes"
	"io/ioutil"
	"testing"

	"github.com/weberc2/mono/jfs/pkg/testsupport"
)

func TestGzipObjectStore(t *testing.T) {
	fake := testsupport.NewObjectStoreFake()
	objectStore := GzipObjectStore{ObjectStore: fake}
	image := make([]byte, 200000)
	copy(image, "jfs image header")

	if err := objectStore.PutObject(
		"snapshots",
		"images/a.jfs",
		bytes.NewReader(image),
	); err != nil {
		t.Fatalf("PutObject(): unexpected err: %v", err)
	}

	raw, found := fake.Raw("snapshots", "images/a.jfs")
	if !found {
		t.Fatal("PutObject(): nothing stored")
	}
	if len(raw) >= len(image) {
		t.Fatalf("PutObject(): wanted fewer than `%d` bytes; found `%d`", len(image), len(raw))
	}

	body, err := objectStore.GetObject("snapshots", "images/a.jfs")
	if err != nil {
		t.Fatalf("GetObject(): unexpected err: %v", err)
	}
	defer body.Close()

	data, err := ioutil.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll(): unexpected err: %v", err)
	}
	if !bytes.Equal(image, data) {
		t.Fatal("GetObject(): content mismatch")
	}
}
