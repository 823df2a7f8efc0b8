package upload

import (
	"fmt"

	"labelpress/internal/constants"
)

// Validate performs the pre-flight checks for an upload against its
// destination policy. Checks run in a fixed order and the first violation
// is reported:
//
//  1. permission intersection (Forbidden)
//  2. declared content type membership (UnsupportedMediaType)
//  3. declared size bound, when a size is known (PayloadTooLarge)
//
// Validate never reads the byte stream. The declared size can be absent,
// wrong, or adversarial — the streaming persister independently re-enforces
// the bound against actual bytes consumed.
func Validate(req *Request, policy Policy) error {
	if len(policy.RequiredPermissions) > 0 && !hasAnyPermission(req.Permissions, policy.RequiredPermissions) {
		return ErrForbidden
	}

	if !policy.AllowsContentType(req.ContentType) {
		return &Error{
			Code:    constants.ErrCodeUnsupportedMediaType,
			Message: fmt.Sprintf("content type %q not allowed for destination %s", req.ContentType, req.Destination),
		}
	}

	if req.DeclaredSize > 0 && req.DeclaredSize > policy.MaxSizeBytes {
		return ErrPayloadTooLarge
	}

	return nil
}

// hasAnyPermission reports whether held intersects required in at least
// one element.
func hasAnyPermission(held, required []string) bool {
	for _, r := range required {
		for _, h := range held {
			if h == r {
				return true
			}
		}
	}
	return false
}
