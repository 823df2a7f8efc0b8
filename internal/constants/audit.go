package constants

// Audit Action Types
const (
	AuditActionUploadCompleted = "upload_completed"
	AuditActionUploadRejected  = "upload_rejected"
	AuditActionUploadFailed    = "upload_failed"
	AuditActionKeyCreated      = "key_created"
)

// AuditValidActions is the set of recognised audit action types.
var AuditValidActions = map[string]bool{
	AuditActionUploadCompleted: true,
	AuditActionUploadRejected:  true,
	AuditActionUploadFailed:    true,
	AuditActionKeyCreated:      true,
}
