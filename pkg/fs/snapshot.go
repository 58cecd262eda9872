package fs

import (
	"fmt"
	stdio "io"

	"github.com/weberc2/mono/jfs/pkg/math"
	. "github.com/weberc2/mono/jfs/pkg/types"
)

const snapshotChunkSize Byte = 64 * 1024

// Snapshot copies the raw volume to `w` with every lock shard held, so the
// copy is a consistent image that can be mounted on its own.
func (fs *FileSystem) Snapshot(w stdio.Writer) (Byte, error) {
	fs.locks.lockAll()
	defer fs.locks.unlockAll()

	volume := fs.accessor.Volume()
	size := volume.Size()
	buf := make([]byte, math.Min(snapshotChunkSize, size))
	var written Byte
	for written < size {
		chunk := buf[:math.Min(Byte(len(buf)), size-written)]
		if err := volume.ReadAt(written, chunk); err != nil {
			return written, fmt.Errorf("taking snapshot: %w", err)
		}
		if _, err := w.Write(chunk); err != nil {
			return written, fmt.Errorf("taking snapshot: %w", err)
		}
		written += Byte(len(chunk))
	}
	fs.log.WithField("bytes", written).Info("took snapshot")
	return written, nil
}
