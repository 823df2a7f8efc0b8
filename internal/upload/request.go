package upload

import "io"

// Request describes one upload attempt. Constructed by the caller per
// upload, consumed exactly once by the validate+persist pipeline.
type Request struct {
	Destination Destination

	// ContentType is the declared MIME type of the payload.
	ContentType string

	// DeclaredSize is the byte length announced ahead of streaming.
	// Zero or negative means unknown — the persister enforces the size
	// bound against actual bytes regardless.
	DeclaredSize int64

	// OriginalName is the client-supplied file name.
	OriginalName string

	// RenameTarget is the canonical base name (a principal or entity
	// identifier) used when the destination policy renames on store.
	RenameTarget string

	// Overwrite requests overwrite semantics: no timestamp prefix and a
	// pre-existing file at the exact path is replaced.
	Overwrite bool

	// Permissions is the requesting principal's permission set.
	Permissions []string

	// Body is the raw byte stream. Read incrementally, never buffered
	// whole.
	Body io.Reader
}

// StoredFile describes the durable artifact produced by a successful
// upload. Ownership of the underlying file passes to the storage
// filesystem once this is returned.
type StoredFile struct {
	Name        string      `json:"name"`
	Destination Destination `json:"destination"`
	Subdir      string      `json:"subdir"`
	Size        int64       `json:"size"`
	Hash        string      `json:"hash"`
}

// Progress is a transient notification emitted while bytes are consumed.
// TotalExpected is zero or negative when the declared size was unknown.
type Progress struct {
	BytesWritten  int64 `json:"bytes_written"`
	TotalExpected int64 `json:"total_expected,omitempty"`
}

// ProgressSink receives progress notifications. Delivery is
// fire-and-forget: implementations must never block the persister.
type ProgressSink interface {
	Publish(p Progress)
}
