package server

import (
	"encoding/json"
	"net/http"

	"labelpress/internal/constants"
	"labelpress/internal/upload"
)

// APIError represents a standard error response
type APIError struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error response
func WriteError(w http.ResponseWriter, status int, message string, code string) {
	WriteJSON(w, status, APIError{
		Error:   true,
		Message: message,
		Code:    code,
	})
}

// WriteSuccess writes a simple success response
func WriteSuccess(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, data)
}

// handleUploadError maps typed upload failures to HTTP responses.
func (s *Server) handleUploadError(w http.ResponseWriter, err error) {
	code, ok := upload.ErrorCode(err)
	if !ok {
		WriteError(w, http.StatusInternalServerError, err.Error(), constants.ErrCodeInternalError)
		return
	}

	status := http.StatusInternalServerError
	switch code {
	case constants.ErrCodeUnknownDestination, constants.ErrCodeInvalidFilename:
		status = http.StatusBadRequest
	case constants.ErrCodeForbidden:
		status = http.StatusForbidden
	case constants.ErrCodeUnsupportedMediaType:
		status = http.StatusUnsupportedMediaType
	case constants.ErrCodePayloadTooLarge:
		status = http.StatusRequestEntityTooLarge
	case constants.ErrCodeAlreadyExists, constants.ErrCodeNameCollision:
		status = http.StatusConflict
	case constants.ErrCodeIoFailure:
		status = http.StatusInternalServerError
	}

	WriteError(w, status, err.Error(), code)
}
