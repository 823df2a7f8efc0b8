package upload

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"labelpress/internal/constants"
)

// PersistResult reports what the persister wrote on success.
type PersistResult struct {
	Size int64
	Hash string
}

// Persist consumes the stream in bounded chunks and writes it to path.
//
// The file is opened for exclusive creation unless overwrite was requested
// upstream; an occupied path fails with AlreadyExists. After each chunk the
// running total is checked against maxSize so an oversized stream is
// aborted mid-flight even when the declared size lied, and a progress
// notification is published to sink (fire-and-forget). A BLAKE3 hash of the
// content is computed as bytes flow through.
//
// Context cancellation and every I/O failure take the same cleanup path:
// the partially written file is removed before the error is returned, so no
// failure mode leaves a partial artifact on storage.
func Persist(ctx context.Context, r io.Reader, path string, maxSize int64, declaredSize int64, overwrite bool, sink ProgressSink) (*PersistResult, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_EXCL
	if overwrite {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, constants.FilePermissions)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, ErrAlreadyExistsWithName(filepath.Base(path))
		}
		return nil, WrapIoFailure(err)
	}

	// Any failure from here on must remove the partial file.
	abort := func() {
		f.Close()
		os.Remove(path)
	}

	hasher := blake3.New()
	buf := make([]byte, constants.UploadChunkSize)
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			abort()
			return nil, WrapError(constants.ErrCodeIoFailure, "upload cancelled", err)
		}

		n, rerr := r.Read(buf)
		if n > 0 {
			if written+int64(n) > maxSize {
				abort()
				return nil, ErrPayloadTooLarge
			}
			if _, werr := f.Write(buf[:n]); werr != nil {
				abort()
				return nil, WrapIoFailure(werr)
			}
			hasher.Write(buf[:n])
			written += int64(n)
			if sink != nil {
				sink.Publish(Progress{BytesWritten: written, TotalExpected: declaredSize})
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			abort()
			return nil, WrapIoFailure(rerr)
		}
	}

	if err := f.Sync(); err != nil {
		abort()
		return nil, WrapIoFailure(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, WrapIoFailure(err)
	}

	return &PersistResult{
		Size: written,
		Hash: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}
