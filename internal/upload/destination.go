package upload

import (
	"labelpress/internal/constants"
)

// Destination identifies where an upload goes. The set of destinations is
// fixed at compile time; each maps to exactly one Policy.
type Destination string

const (
	DestinationArtist  Destination = constants.DestinationArtist
	DestinationAvatar  Destination = constants.DestinationAvatar
	DestinationRelease Destination = constants.DestinationRelease
)

// Policy holds the validation and storage rules bound to a destination.
// Policies are pure functions of the destination value — no runtime
// registration, no mutable state.
type Policy struct {
	// AllowedContentTypes is the set of accepted MIME type strings.
	AllowedContentTypes []string
	// Subdir is the storage path segment under the shared upload root.
	Subdir string
	// RequiredPermissions must intersect the principal's permission set
	// in at least one element. Empty means no restriction.
	RequiredPermissions []string
	// MaxSizeBytes is the inclusive upper bound on upload size.
	MaxSizeBytes int64
	// RenameOnStore discards the client file name in favour of a canonical
	// name derived from the caller-supplied rename target.
	RenameOnStore bool
}

// ParseDestination converts an external string selector (e.g. a form field)
// into a Destination. This is the only fallible entry point of the registry.
func ParseDestination(s string) (Destination, error) {
	switch s {
	case constants.DestinationArtist:
		return DestinationArtist, nil
	case constants.DestinationAvatar:
		return DestinationAvatar, nil
	case constants.DestinationRelease:
		return DestinationRelease, nil
	default:
		return "", ErrUnknownDestinationWithValue(s)
	}
}

func (d Destination) String() string {
	return string(d)
}

// imageContentTypes returns a fresh copy of the image allow-list shared by
// all destinations. Copied per call so callers can never mutate the table.
func imageContentTypes() []string {
	return []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
}

// PolicyFor returns the policy for a destination. Total and deterministic
// for every defined Destination; an undefined value (which ParseDestination
// never produces) gets a zero-permission, zero-size policy that rejects
// everything.
func PolicyFor(d Destination) Policy {
	switch d {
	case DestinationArtist:
		return Policy{
			AllowedContentTypes: imageContentTypes(),
			Subdir:              constants.ArtistSubdir,
			RequiredPermissions: []string{constants.PermissionAdmin, constants.PermissionLabelOwner},
			MaxSizeBytes:        constants.ArtistMaxUploadSize,
			RenameOnStore:       false,
		}
	case DestinationAvatar:
		return Policy{
			AllowedContentTypes: imageContentTypes(),
			Subdir:              constants.AvatarSubdir,
			RequiredPermissions: nil,
			MaxSizeBytes:        constants.AvatarMaxUploadSize,
			RenameOnStore:       true,
		}
	case DestinationRelease:
		return Policy{
			AllowedContentTypes: imageContentTypes(),
			Subdir:              constants.ReleaseSubdir,
			RequiredPermissions: []string{constants.PermissionAdmin, constants.PermissionLabelOwner},
			MaxSizeBytes:        constants.ReleaseMaxUploadSize,
			RenameOnStore:       false,
		}
	default:
		return Policy{}
	}
}

// AllowsContentType reports whether the declared content type is a member
// of the policy's allow-list (exact string match).
func (p Policy) AllowsContentType(contentType string) bool {
	for _, ct := range p.AllowedContentTypes {
		if ct == contentType {
			return true
		}
	}
	return false
}
