// Package snapshot copies whole volume images to and from an object store.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	log "github.com/sirupsen/logrus"
	"github.com/weberc2/mono/jfs/pkg/accessor"
	"github.com/weberc2/mono/jfs/pkg/fs"
	jfsio "github.com/weberc2/mono/jfs/pkg/io"
	"github.com/weberc2/mono/jfs/pkg/types"
)

const Extension = ".jfs"

type Store struct {
	Objects types.ObjectStore
	Bucket  string
	Prefix  string
	Logger  log.FieldLogger
}

func (s *Store) logger() log.FieldLogger {
	if s.Logger == nil {
		return log.StandardLogger()
	}
	return s.Logger
}

// Key builds a fresh key for a snapshot labeled `label`.
func (s *Store) Key(label string) string {
	name := slug.Make(label)
	if name == "" {
		name = "snapshot"
	}
	return path.Join(s.Prefix, name+"-"+uuid.New().String()+Extension)
}

// Push stores a consistent image of the mounted volume and returns its key.
// The image is staged in a temporary file rather than in memory.
func (s *Store) Push(filesystem *fs.FileSystem, label string) (string, error) {
	key, size, err := s.push(filesystem, label)
	if err != nil {
		return "", fmt.Errorf("pushing snapshot `%s`: %w", label, err)
	}
	s.logger().WithFields(log.Fields{
		"bucket": s.Bucket,
		"key":    key,
		"bytes":  size,
		"mount":  filesystem.ID().String(),
	}).Info("pushed snapshot")
	return key, nil
}

func (s *Store) push(
	filesystem *fs.FileSystem,
	label string,
) (string, types.Byte, error) {
	staging, err := os.CreateTemp("", "jfs-snapshot-*"+Extension)
	if err != nil {
		return "", 0, err
	}
	defer os.Remove(staging.Name())
	defer staging.Close()

	size, err := filesystem.Snapshot(staging)
	if err != nil {
		return "", 0, err
	}
	if _, err := staging.Seek(0, io.SeekStart); err != nil {
		return "", 0, fmt.Errorf("rewinding staged image: %w", err)
	}
	key := s.Key(label)
	if err := s.Objects.PutObject(s.Bucket, key, staging); err != nil {
		return "", 0, err
	}
	return key, size, nil
}

// Pull writes the snapshot stored under `key` to a new image at `dst` and
// checks that it carries a valid header. An existing file at `dst` is left
// alone.
func (s *Store) Pull(key, dst string) error {
	body, err := s.Objects.GetObject(s.Bucket, key)
	if err != nil {
		return fmt.Errorf("pulling snapshot `%s`: %w", key, err)
	}
	defer body.Close()

	file, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("pulling snapshot `%s`: %w", key, err)
	}
	n, err := io.Copy(file, body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = validate(dst)
	}
	if err != nil {
		os.Remove(dst)
		return fmt.Errorf("pulling snapshot `%s` to `%s`: %w", key, dst, err)
	}

	s.logger().WithFields(log.Fields{
		"bucket": s.Bucket,
		"key":    key,
		"path":   dst,
		"bytes":  n,
	}).Info("pulled snapshot")
	return nil
}

func validate(path string) error {
	volume, err := jfsio.OpenFileVolume(path)
	if err != nil {
		return err
	}
	defer volume.Close()
	_, _, err = accessor.Open(volume)
	return err
}

// List returns the keys of every stored snapshot, sorted.
func (s *Store) List() ([]string, error) {
	prefix := s.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	keys, err := s.Objects.ListObjects(s.Bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	out := keys[:0]
	for _, key := range keys {
		if strings.HasSuffix(key, Extension) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Delete(key string) error {
	if err := s.Objects.DeleteObject(s.Bucket, key); err != nil {
		return fmt.Errorf("deleting snapshot `%s`: %w", key, err)
	}
	return nil
}

// IsNotFound reports whether `err` means the snapshot does not exist.
func IsNotFound(err error) bool {
	var e *types.ObjectNotFoundErr
	return errors.As(err, &e)
}
