package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"labelpress/internal/audit"
	"labelpress/internal/auth"
	"labelpress/internal/config"
	"labelpress/internal/constants"
	"labelpress/internal/database"
	"labelpress/internal/logger"
	"labelpress/internal/progress"
	"labelpress/internal/upload"
)

type testEnv struct {
	server    *httptest.Server
	root      string
	broker    *progress.Broker
	adminKey  string
	viewerKey string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	log := logger.NewLogger(logger.LevelError)

	db, err := database.Init(filepath.Join(root, "service.db"))
	if err != nil {
		t.Fatalf("database.Init failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	auditLogger := audit.NewLogger(db, constants.AuditDefaultMaxLogSizeBytes, constants.AuditDefaultPurgePercentage)
	t.Cleanup(auditLogger.Stop)

	keys := auth.NewStore(db)
	adminKey, err := keys.CreateKey("alice", []string{constants.PermissionAdmin})
	if err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}
	viewerKey, err := keys.CreateKey("bob", []string{"viewer"})
	if err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	cfg := &config.Config{UploadRoot: root}
	cfg.ApplyDefaults()

	broker := progress.NewBroker()
	srv := NewServer(cfg, log, upload.NewService(root, log), broker, auditLogger, keys)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{
		server:    ts,
		root:      root,
		broker:    broker,
		adminKey:  adminKey,
		viewerKey: viewerKey,
	}
}

type filePart struct {
	name        string
	contentType string
	content     []byte
}

// multipartBody builds a form with fields in map-independent declared order:
// type, slug, overwrite, then the file part. Field order is part of the
// contract — policy fields must precede the stream.
func multipartBody(t *testing.T, destination, slug, overwrite string, file *filePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if destination != "" {
		if err := w.WriteField(constants.FormFieldType, destination); err != nil {
			t.Fatal(err)
		}
	}
	if slug != "" {
		if err := w.WriteField(constants.FormFieldSlug, slug); err != nil {
			t.Fatal(err)
		}
	}
	if overwrite != "" {
		if err := w.WriteField(constants.FormFieldOverwrite, overwrite); err != nil {
			t.Fatal(err)
		}
	}
	if file != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, constants.FormFieldFile, file.name))
		h.Set(constants.HeaderContentType, file.contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(file.content); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func (e *testEnv) post(t *testing.T, key string, body *bytes.Buffer, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/api/upload", body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set(constants.HeaderContentType, contentType)
	if key != "" {
		req.Header.Set(constants.HeaderXAPIKey, key)
	}
	resp, err := e.server.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeError(t *testing.T, resp *http.Response) APIError {
	t.Helper()
	defer resp.Body.Close()
	var apiErr APIError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	return apiErr
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.server.Client().Get(env.server.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Service      string   `json:"service"`
		Destinations []string `json:"destinations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Service != constants.AppName {
		t.Errorf("service = %q, want %q", body.Service, constants.AppName)
	}
	if len(body.Destinations) != 3 {
		t.Errorf("destinations = %v, want 3 entries", body.Destinations)
	}
}

func TestUploadRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, "Avatar", "user-1", "", &filePart{"a.png", "image/png", []byte("x")})
	resp := env.post(t, "", body, ct)

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if apiErr := decodeError(t, resp); apiErr.Code != constants.ErrCodeAuthRequired {
		t.Errorf("code = %q, want %q", apiErr.Code, constants.ErrCodeAuthRequired)
	}
}

func TestUploadAvatarEndToEnd(t *testing.T) {
	env := newTestEnv(t)

	content := bytes.Repeat([]byte{0xCD}, 64*1024)
	body, ct := multipartBody(t, "Avatar", "user-42", "true", &filePart{"photo.PNG", "image/png", content})
	resp := env.post(t, env.adminKey, body, ct)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body: %s", resp.StatusCode, raw)
	}

	var result struct {
		Success  bool   `json:"success"`
		UploadID string `json:"upload_id"`
		File     struct {
			Name string `json:"name"`
			Size int64  `json:"size"`
			Hash string `json:"hash"`
		} `json:"file"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if !result.Success {
		t.Error("success = false")
	}
	if result.UploadID != "alice-photo.PNG" {
		t.Errorf("upload_id = %q, want %q", result.UploadID, "alice-photo.PNG")
	}
	if result.File.Name != "user-42.PNG" {
		t.Errorf("name = %q, want %q", result.File.Name, "user-42.PNG")
	}
	if result.File.Size != int64(len(content)) {
		t.Errorf("size = %d, want %d", result.File.Size, len(content))
	}

	stored, err := os.ReadFile(filepath.Join(env.root, constants.AvatarSubdir, "user-42.PNG"))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if !bytes.Equal(stored, content) {
		t.Error("stored content differs from upload")
	}
}

func TestUploadErrorMapping(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name        string
		key         string
		destination string
		slug        string
		file        *filePart
		wantStatus  int
		wantCode    string
	}{
		{
			name:        "unknown_destination",
			key:         env.adminKey,
			destination: "Banner",
			file:        &filePart{"a.png", "image/png", []byte("x")},
			wantStatus:  http.StatusBadRequest,
			wantCode:    constants.ErrCodeUnknownDestination,
		},
		{
			name:        "forbidden",
			key:         env.viewerKey,
			destination: "Artist",
			file:        &filePart{"press.jpg", "image/jpeg", []byte("x")},
			wantStatus:  http.StatusForbidden,
			wantCode:    constants.ErrCodeForbidden,
		},
		{
			name:        "unsupported_media_type",
			key:         env.adminKey,
			destination: "Release",
			file:        &filePart{"booklet.pdf", "application/pdf", []byte("x")},
			wantStatus:  http.StatusUnsupportedMediaType,
			wantCode:    constants.ErrCodeUnsupportedMediaType,
		},
		{
			name:        "traversal_slug",
			key:         env.adminKey,
			destination: "Avatar",
			slug:        "../../admin",
			file:        &filePart{"a.png", "image/png", []byte("x")},
			wantStatus:  http.StatusBadRequest,
			wantCode:    constants.ErrCodeInvalidRequest,
		},
		{
			name:        "no_file_part",
			key:         env.adminKey,
			destination: "Avatar",
			wantStatus:  http.StatusBadRequest,
			wantCode:    constants.ErrCodeInvalidRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body, ct := multipartBody(t, tc.destination, tc.slug, "", tc.file)
			resp := env.post(t, tc.key, body, ct)
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
			if apiErr := decodeError(t, resp); apiErr.Code != tc.wantCode {
				t.Errorf("code = %q, want %q", apiErr.Code, tc.wantCode)
			}
		})
	}
}

func TestRepeatedUploadNeverClobbers(t *testing.T) {
	env := newTestEnv(t)

	send := func() *http.Response {
		body, ct := multipartBody(t, "Avatar", "user-9", "", &filePart{"pic.png", "image/png", []byte("bytes")})
		return env.post(t, env.adminKey, body, ct)
	}

	first := send()
	defer first.Body.Close()
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first upload status = %d", first.StatusCode)
	}
	var firstResult struct {
		File struct {
			Name string `json:"name"`
		} `json:"file"`
	}
	if err := json.NewDecoder(first.Body).Decode(&firstResult); err != nil {
		t.Fatal(err)
	}

	// A repeat without overwrite either resolves to a fresh name (next
	// second) or is turned away with a conflict (same second). Either way
	// the first file must survive untouched.
	second := send()
	switch second.StatusCode {
	case http.StatusOK:
		var secondResult struct {
			File struct {
				Name string `json:"name"`
			} `json:"file"`
		}
		if err := json.NewDecoder(second.Body).Decode(&secondResult); err != nil {
			t.Fatal(err)
		}
		second.Body.Close()
		if secondResult.File.Name == firstResult.File.Name {
			t.Errorf("second upload reused name %q", firstResult.File.Name)
		}
	case http.StatusConflict:
		apiErr := decodeError(t, second)
		if apiErr.Code != constants.ErrCodeNameCollision && apiErr.Code != constants.ErrCodeAlreadyExists {
			t.Errorf("code = %q, want a conflict code", apiErr.Code)
		}
	default:
		t.Fatalf("second upload status = %d, want 200 or 409", second.StatusCode)
	}

	if _, err := os.Stat(filepath.Join(env.root, constants.AvatarSubdir, firstResult.File.Name)); err != nil {
		t.Errorf("first upload no longer on disk: %v", err)
	}
}

func TestAuditEndpoint(t *testing.T) {
	env := newTestEnv(t)

	// Generate one audit entry.
	body, ct := multipartBody(t, "Avatar", "user-3", "true", &filePart{"a.png", "image/png", []byte("x")})
	resp := env.post(t, env.adminKey, body, ct)
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/audit", nil)
	req.Header.Set(constants.HeaderXAPIKey, env.adminKey)
	resp, err := env.server.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var result struct {
		Entries []audit.Entry `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) == 0 {
		t.Error("no audit entries after a completed upload")
	}
	if result.Entries[0].Action != constants.AuditActionUploadCompleted {
		t.Errorf("latest action = %q, want %q", result.Entries[0].Action, constants.AuditActionUploadCompleted)
	}
}

func TestAuditEndpointRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/audit", nil)
	req.Header.Set(constants.HeaderXAPIKey, env.viewerKey)
	resp, err := env.server.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestProgressStream(t *testing.T) {
	env := newTestEnv(t)
	const uploadID = "alice-big.bin"

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/progress/"+uploadID, nil)
	req.Header.Set(constants.HeaderXAPIKey, env.adminKey)
	resp, err := env.server.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get(constants.HeaderContentType); ct != constants.ContentTypeEventStream {
		t.Errorf("content type = %q, want %q", ct, constants.ContentTypeEventStream)
	}

	go func() {
		// Give the subscription a moment to register.
		time.Sleep(50 * time.Millisecond)
		env.broker.Publish(uploadID, upload.Progress{BytesWritten: 1024, TotalExpected: 4096})
		env.broker.Publish(uploadID, upload.Progress{BytesWritten: 4096, TotalExpected: 4096})
		env.broker.Finish(uploadID)
	}()

	var events []string
	var done bool
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") && line != "data: {}" {
			events = append(events, strings.TrimPrefix(line, "data: "))
		}
		if line == "event: done" {
			done = true
		}
	}

	if len(events) != 2 {
		t.Fatalf("got %d progress events, want 2: %v", len(events), events)
	}
	var last upload.Progress
	if err := json.Unmarshal([]byte(events[len(events)-1]), &last); err != nil {
		t.Fatal(err)
	}
	if last.BytesWritten != 4096 {
		t.Errorf("final BytesWritten = %d, want 4096", last.BytesWritten)
	}
	if !done {
		t.Error("stream ended without a done event")
	}
}

func TestProgressRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.server.Client().Get(env.server.URL + "/api/progress/alice-x.png")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}
