package constants

// HTTP Headers
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderXAPIKey       = "X-API-Key"
	HeaderCacheControl  = "Cache-Control"
)

// Content Types
const (
	ContentTypeJSON        = "application/json"
	ContentTypeEventStream = "text/event-stream"
)
