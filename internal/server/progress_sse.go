package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"labelpress/internal/auth"
	"labelpress/internal/constants"
)

// GET /api/progress/{id} - Server-Sent Events stream of upload progress
//
// The id is "{principal}-{filename}", the same key the upload handler
// publishes under. The stream ends when the upload finishes (the broker
// closes the channel) or the watcher disconnects. Events carry the running
// byte total, monotonically non-decreasing.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromRequest(r)
	if identity == nil {
		WriteError(w, http.StatusUnauthorized, "Authentication required", constants.ErrCodeAuthRequired)
		return
	}

	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || id == "" {
		WriteError(w, http.StatusBadRequest, "Invalid upload id", constants.ErrCodeInvalidRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "Streaming unsupported", constants.ErrCodeInternalError)
		return
	}

	events, cancel := s.broker.Subscribe(id)
	defer cancel()

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeEventStream)
	w.Header().Set(constants.HeaderCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(constants.ProgressSSEKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			// Comment line keeps proxies from closing an idle stream.
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case p, ok := <-events:
			if !ok {
				fmt.Fprint(w, "event: done\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			payload, err := json.Marshal(p)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
