package constants

// API Error Codes
const (
	// Upload pipeline
	ErrCodeUnknownDestination   = "UNKNOWN_DESTINATION"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	ErrCodeAlreadyExists        = "ALREADY_EXISTS"
	ErrCodeNameCollision        = "NAME_COLLISION"
	ErrCodeIoFailure            = "IO_FAILURE"

	// Request handling
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeInvalidFilename = "INVALID_FILENAME"
	ErrCodeNotConfigured   = "NOT_CONFIGURED"
	ErrCodeInternalError   = "INTERNAL_ERROR"

	// Auth
	ErrCodeAuthRequired      = "AUTH_REQUIRED"
	ErrCodeAuthInvalidAPIKey = "AUTH_INVALID_API_KEY"

	// Progress
	ErrCodeUploadNotFound = "UPLOAD_NOT_FOUND"
)
