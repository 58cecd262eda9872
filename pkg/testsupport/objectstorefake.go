// Package testsupport holds in-memory fakes for tests.
package testsupport

import (
	"bytes"
	"io"
	"io/ioutil"
	"sort"
	"strings"
	"sync"

	"github.com/weberc2/mono/jfs/pkg/types"
)

// ObjectStoreFake keeps objects in memory, keyed by bucket and key.
type ObjectStoreFake struct {
	mutex   sync.Mutex
	objects map[[2]string][]byte
}

func NewObjectStoreFake() *ObjectStoreFake {
	return &ObjectStoreFake{objects: map[[2]string][]byte{}}
}

func (osf *ObjectStoreFake) PutObject(
	bucket string,
	key string,
	data io.ReadSeeker,
) error {
	var b bytes.Buffer
	if _, err := io.Copy(&b, data); err != nil {
		return err
	}
	osf.mutex.Lock()
	defer osf.mutex.Unlock()
	osf.objects[[2]string{bucket, key}] = b.Bytes()
	return nil
}

func (osf *ObjectStoreFake) GetObject(
	bucket string,
	key string,
) (io.ReadCloser, error) {
	osf.mutex.Lock()
	defer osf.mutex.Unlock()
	data, found := osf.objects[[2]string{bucket, key}]
	if !found {
		return nil, &types.ObjectNotFoundErr{Bucket: bucket, Key: key}
	}
	return ioutil.NopCloser(bytes.NewReader(data)), nil
}

// Raw returns the stored bytes of an object as they were put.
func (osf *ObjectStoreFake) Raw(bucket, key string) ([]byte, bool) {
	osf.mutex.Lock()
	defer osf.mutex.Unlock()
	data, found := osf.objects[[2]string{bucket, key}]
	return data, found
}

func (osf *ObjectStoreFake) ListObjects(
	bucket string,
	prefix string,
) ([]string, error) {
	osf.mutex.Lock()
	defer osf.mutex.Unlock()
	var out []string
	for key := range osf.objects {
		if key[0] == bucket && strings.HasPrefix(key[1], prefix) {
			out = append(out, key[1])
		}
	}
	sort.Strings(out)
	return out, nil
}

func (osf *ObjectStoreFake) DeleteObject(bucket, key string) error {
	osf.mutex.Lock()
	defer osf.mutex.Unlock()
	k := [2]string{bucket, key}
	if _, found := osf.objects[k]; !found {
		return &types.ObjectNotFoundErr{Bucket: bucket, Key: key}
	}
	delete(osf.objects, k)
	return nil
}
