package audit

import (
	"labelpress/internal/constants"
)

// Entry represents a single audit log entry
type Entry struct {
	ID        int64       `json:"id"`
	Timestamp int64       `json:"timestamp"`
	Action    string      `json:"action"`
	IPAddress string      `json:"ip_address"`
	Principal string      `json:"principal"`
	Details   interface{} `json:"details,omitempty"`
}

// UploadCompletedDetails holds details for upload_completed
type UploadCompletedDetails struct {
	Destination string `json:"destination"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	Hash        string `json:"hash"`
	Overwrite   bool   `json:"overwrite,omitempty"`
}

// UploadRejectedDetails holds details for upload_rejected (pre-flight or
// name resolution failure; the stream was never, or barely, read)
type UploadRejectedDetails struct {
	Destination string `json:"destination"`
	Filename    string `json:"filename"`
	Code        string `json:"code"`
}

// UploadFailedDetails holds details for upload_failed (persist-time failure;
// any partial artifact was removed)
type UploadFailedDetails struct {
	Destination string `json:"destination"`
	Filename    string `json:"filename"`
	Code        string `json:"code"`
	Reason      string `json:"reason,omitempty"`
}

// KeyCreatedDetails holds details for key_created
type KeyCreatedDetails struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// IsValidAction reports whether the action type is recognised.
func IsValidAction(action string) bool {
	return constants.AuditValidActions[action]
}
