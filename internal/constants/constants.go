package constants

import "time"

// Application Identity
const (
	AppName        = "labelpress"
	AppDisplayName = "LabelPress"
)

// Server Defaults
const (
	DefaultPort         = 8470
	DefaultLogLevel     = "DEBUG"
	ShutdownTimeoutSecs = 10
	HTTPIdleTimeout     = 120 * time.Second
)

// Upload Destinations
const (
	DestinationArtist  = "Artist"
	DestinationAvatar  = "Avatar"
	DestinationRelease = "Release"
)

// Upload Policy Values
const (
	ArtistMaxUploadSize  int64 = 100 * 1024 * 1024 // 100 MiB
	AvatarMaxUploadSize  int64 = 10 * 1024 * 1024  // 10 MiB
	ReleaseMaxUploadSize int64 = 100 * 1024 * 1024 // 100 MiB

	ArtistSubdir  = "artists"
	AvatarSubdir  = "avatars"
	ReleaseSubdir = "releases"
)

// Upload Streaming
const (
	// UploadChunkSize is the read buffer used by the streaming persister.
	// Each chunk is an independent suspension point: the size bound is
	// re-checked and a progress event emitted per chunk.
	UploadChunkSize = 32 * 1024
)

// Permissions
const (
	PermissionAdmin      = "admin"
	PermissionLabelOwner = "label_owner"
)

// Internal Directory Structure (under the upload root)
const (
	InternalDir  = ".internal"
	ServiceDB    = "labelpress.db"
	LogsDir      = "logs"
	LogsDirDebug = "debug"
	LogsDirInfo  = "info"
	LogsDirWarn  = "warn"
	LogsDirError = "error"
)

// Config
const (
	ConfigDir  = ".labelpress"
	ConfigFile = "config.yaml"

	// EnvUploadRoot overrides config.upload_root when set (also honoured
	// from a .env file in the working directory).
	EnvUploadRoot = "UPLOAD_PATH"
)

// Logging
const (
	LogTimestampFormat = "2006-01-02 15:04:05.000"
	LogFileExtension   = ".log"
)

// Auth
const (
	APIKeyPrefix          = "lbp_"
	AuthAPIKeyRandomBytes = 24
	AuthBearerPrefix      = "Bearer "
)

// Progress Streaming
const (
	// ProgressBufferSize bounds each subscriber channel. A consumer that
	// falls this far behind starts dropping events rather than stalling
	// the upload.
	ProgressBufferSize = 4096

	ProgressSSEKeepAlive = 15 * time.Second
)

// Audit Log
const (
	AuditDefaultMaxLogSizeBytes int64 = 50 * 1024 * 1024
	AuditDefaultPurgePercentage       = 20
	AuditPurgeCheckInterval           = 5 * time.Minute
)
