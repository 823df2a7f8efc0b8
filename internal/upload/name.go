package upload

import (
	"fmt"
	"strings"
	"time"
)

// timestampNow returns the unix timestamp used as the collision-avoiding
// name prefix. Overridable in tests.
var timestampNow = func() int64 {
	return time.Now().Unix()
}

// Extension returns the substring after the last '.' in name,
// case-preserving ("archive.tar.gz" → "gz", "photo.PNG" → "PNG").
// Returns "" for a name without a dot.
func Extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx == -1 {
		return ""
	}
	return name[idx+1:]
}

// ResolveName computes the final on-disk file name for an upload.
//
// With a rename policy the base name is the rename target plus the original
// file's extension (no extension appended when the original has none);
// otherwise the base name is the original file name. Unless the caller
// requested overwrite semantics, the base is prefixed with a unix timestamp
// so repeated uploads of the same file never collide.
//
// The collision check against existing is a defensive backstop: two uploads
// of the same base name to the same destination within the same second can
// still collide. That narrow race is accepted — NameCollision is retryable
// and upload traffic is human-paced. Callers wanting hard guarantees rely on
// the persister's exclusive-create, which is the final arbiter.
func ResolveName(originalName string, policy Policy, renameTarget string, overwrite bool, existing []string) (string, error) {
	base := originalName
	if policy.RenameOnStore {
		if renameTarget == "" {
			return "", NewError(ErrInvalidFilename.Code, "rename target required for this destination")
		}
		if ext := Extension(originalName); ext != "" {
			base = renameTarget + "." + ext
		} else {
			base = renameTarget
		}
	}

	if overwrite {
		// Explicit overwrite: exact name, a pre-existing file is replaced.
		return base, nil
	}

	name := fmt.Sprintf("%d-%s", timestampNow(), base)
	for _, e := range existing {
		if e == name {
			return "", ErrNameCollisionWithName(name)
		}
	}
	return name, nil
}
