package server

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"labelpress/internal/audit"
	"labelpress/internal/auth"
	"labelpress/internal/constants"
	"labelpress/internal/sanitize"
	"labelpress/internal/upload"
	"labelpress/internal/version"
)

// maxFormFieldBytes bounds non-file multipart fields (destination selector,
// slug, overwrite flag). Anything larger is not a legitimate field value.
const maxFormFieldBytes = 1024

// GET /api/health - service info
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]interface{}{
		"service": constants.AppName,
		"version": version.Version,
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"destinations": []string{
			constants.DestinationArtist,
			constants.DestinationAvatar,
			constants.DestinationRelease,
		},
	})
}

// POST /api/upload - streaming multipart upload
//
// Field order matters and mirrors the client form: "type" (destination
// selector) and "slug" (rename target / entity id) must precede the file
// part, because the policy has to be known before the stream is consumed.
// An optional "overwrite" field requests overwrite semantics.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromRequest(r)
	if identity == nil {
		WriteError(w, http.StatusUnauthorized, "Authentication required", constants.ErrCodeAuthRequired)
		return
	}

	mr, err := r.MultipartReader()
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Expected multipart form data", constants.ErrCodeInvalidRequest)
		return
	}

	fields := map[string]string{}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "No file in request", constants.ErrCodeInvalidRequest)
			return
		}
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Malformed multipart form", constants.ErrCodeInvalidRequest)
			return
		}

		if part.FileName() == "" {
			value, err := readFieldValue(part)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "Malformed form field", constants.ErrCodeInvalidRequest)
				return
			}
			fields[part.FormName()] = value
			continue
		}

		// File part reached: everything the pipeline needs must be known.
		s.streamUpload(w, r, identity, fields, part)
		return
	}
}

// streamUpload runs the upload pipeline against the file part's stream.
func (s *Server) streamUpload(w http.ResponseWriter, r *http.Request, identity *auth.Identity, fields map[string]string, part *multipart.Part) {
	defer part.Close()

	destination, err := upload.ParseDestination(fields[constants.FormFieldType])
	if err != nil {
		s.auditRejected(r, identity, fields[constants.FormFieldType], part.FileName(), err)
		s.handleUploadError(w, err)
		return
	}

	slug := fields[constants.FormFieldSlug]
	if slug != "" && sanitize.RenameTarget(slug) != slug {
		WriteError(w, http.StatusBadRequest, "Invalid slug", constants.ErrCodeInvalidRequest)
		return
	}

	originalName := part.FileName()
	overwrite := parseBool(fields[constants.FormFieldOverwrite])

	// Watchers key their progress stream by principal and client file name,
	// so two principals uploading "cover.png" at once do not cross streams.
	uploadID := identity.Name + "-" + originalName
	sink := s.broker.UploadSink(uploadID)
	defer s.broker.Finish(uploadID)

	req := &upload.Request{
		Destination:  destination,
		ContentType:  part.Header.Get(constants.HeaderContentType),
		DeclaredSize: 0, // multipart carries no reliable per-part length
		OriginalName: originalName,
		RenameTarget: slug,
		Overwrite:    overwrite,
		Permissions:  identity.Permissions,
		Body:         part,
	}

	result, err := s.uploads.Upload(r.Context(), req, sink)
	if err != nil {
		code, _ := upload.ErrorCode(err)
		if isRejection(code) {
			s.auditRejected(r, identity, destination.String(), originalName, err)
		} else {
			s.auditFailed(r, identity, destination.String(), originalName, err)
		}
		s.handleUploadError(w, err)
		return
	}

	if s.auditLogger != nil {
		s.auditLogger.Log(constants.AuditActionUploadCompleted, getClientIP(r), identity.Name, audit.UploadCompletedDetails{
			Destination: result.Destination.String(),
			Name:        result.Name,
			Size:        result.Size,
			Hash:        result.Hash,
			Overwrite:   overwrite,
		})
	}

	WriteSuccess(w, map[string]interface{}{
		"success":   true,
		"upload_id": uploadID,
		"file":      result,
	})
}

// GET /api/audit - recent audit entries (admin only)
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromRequest(r)
	if identity == nil {
		WriteError(w, http.StatusUnauthorized, "Authentication required", constants.ErrCodeAuthRequired)
		return
	}
	if !hasPermission(identity, constants.PermissionAdmin) {
		WriteError(w, http.StatusForbidden, "Admin permission required", constants.ErrCodeForbidden)
		return
	}

	entries, err := s.auditLogger.Recent(100)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error(), constants.ErrCodeInternalError)
		return
	}
	WriteSuccess(w, map[string]interface{}{"entries": entries})
}

func (s *Server) auditRejected(r *http.Request, identity *auth.Identity, destination, filename string, err error) {
	if s.auditLogger == nil {
		return
	}
	code, _ := upload.ErrorCode(err)
	s.auditLogger.Log(constants.AuditActionUploadRejected, getClientIP(r), identity.Name, audit.UploadRejectedDetails{
		Destination: destination,
		Filename:    filename,
		Code:        code,
	})
}

func (s *Server) auditFailed(r *http.Request, identity *auth.Identity, destination, filename string, err error) {
	if s.auditLogger == nil {
		return
	}
	code, _ := upload.ErrorCode(err)
	s.auditLogger.Log(constants.AuditActionUploadFailed, getClientIP(r), identity.Name, audit.UploadFailedDetails{
		Destination: destination,
		Filename:    filename,
		Code:        code,
		Reason:      err.Error(),
	})
}

// isRejection reports whether an error code means the upload was turned
// away before (or instead of) persisting, as opposed to failing mid-stream.
func isRejection(code string) bool {
	switch code {
	case constants.ErrCodeUnknownDestination, constants.ErrCodeForbidden,
		constants.ErrCodeUnsupportedMediaType, constants.ErrCodeNameCollision,
		constants.ErrCodeInvalidFilename:
		return true
	}
	return false
}

func hasPermission(identity *auth.Identity, perm string) bool {
	for _, p := range identity.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func readFieldValue(part *multipart.Part) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, maxFormFieldBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
