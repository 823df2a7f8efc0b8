package e2e

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"labelpress/internal/audit"
	"labelpress/internal/auth"
	"labelpress/internal/config"
	"labelpress/internal/constants"
	"labelpress/internal/database"
	"labelpress/internal/logger"
	"labelpress/internal/progress"
	"labelpress/internal/server"
	"labelpress/internal/upload"
)

// TestServer wraps a running labelpress server for black-box tests.
type TestServer struct {
	Server      *httptest.Server
	Root        string
	DB          *sql.DB
	Broker      *progress.Broker
	AuditLogger *audit.Logger
	Keys        *auth.Store
	URL         string
	AdminKey    string // bootstrap admin key for authenticated requests
}

// StartTestServer boots a server over an isolated upload root with a
// bootstrapped admin key.
func StartTestServer(t *testing.T) *TestServer {
	t.Helper()
	ts := startAt(t, t.TempDir())

	result, err := auth.Bootstrap(ts.Keys, logger.NewLogger(logger.LevelError))
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	if result == nil {
		t.Fatal("bootstrap returned no credentials on a fresh store")
	}
	ts.AdminKey = result.APIKey
	return ts
}

// startAt wires the full stack over an existing upload root. Used directly
// by Restart so state on disk survives.
func startAt(t *testing.T, root string) *TestServer {
	t.Helper()
	log := logger.NewLogger(logger.LevelError) // suppress logs in tests

	internalDir := filepath.Join(root, constants.InternalDir)
	if err := os.MkdirAll(internalDir, constants.DirPermissions); err != nil {
		t.Fatalf("failed to create internal dir: %v", err)
	}

	db, err := database.Init(filepath.Join(internalDir, constants.ServiceDB))
	if err != nil {
		t.Fatalf("failed to open service database: %v", err)
	}

	auditLogger := audit.NewLogger(db, constants.AuditDefaultMaxLogSizeBytes, constants.AuditDefaultPurgePercentage)
	keys := auth.NewStore(db)

	cfg := &config.Config{UploadRoot: root}
	cfg.ApplyDefaults()

	broker := progress.NewBroker()
	srv := server.NewServer(cfg, log, upload.NewService(root, log), broker, auditLogger, keys)
	httpServer := httptest.NewServer(srv.Handler())

	ts := &TestServer{
		Server:      httpServer,
		Root:        root,
		DB:          db,
		Broker:      broker,
		AuditLogger: auditLogger,
		Keys:        keys,
		URL:         httpServer.URL,
	}
	t.Cleanup(ts.Shutdown)
	return ts
}

// Shutdown stops the server and closes the database. Safe to call twice.
func (ts *TestServer) Shutdown() {
	if ts.Server != nil {
		ts.Server.Close()
		ts.Server = nil
	}
	if ts.AuditLogger != nil {
		ts.AuditLogger.Stop()
		ts.AuditLogger = nil
	}
	if ts.DB != nil {
		ts.DB.Close()
		ts.DB = nil
	}
}

// Restart stops the server and brings a fresh instance up over the same
// upload root, simulating a process restart.
func (ts *TestServer) Restart(t *testing.T) *TestServer {
	t.Helper()
	adminKey := ts.AdminKey
	root := ts.Root
	ts.Shutdown()

	fresh := startAt(t, root)
	fresh.AdminKey = adminKey
	return fresh
}

// UploadFile posts a multipart upload. Pass overwrite="" to omit the field.
func (ts *TestServer) UploadFile(apiKey, destination, slug, overwrite, filename, contentType string, content []byte) (*http.Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if destination != "" {
		if err := w.WriteField(constants.FormFieldType, destination); err != nil {
			return nil, err
		}
	}
	if slug != "" {
		if err := w.WriteField(constants.FormFieldSlug, slug); err != nil {
			return nil, err
		}
	}
	if overwrite != "" {
		if err := w.WriteField(constants.FormFieldOverwrite, overwrite); err != nil {
			return nil, err
		}
	}

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, constants.FormFieldFile, filename))
	h.Set(constants.HeaderContentType, contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set(constants.HeaderContentType, w.FormDataContentType())
	if apiKey != "" {
		req.Header.Set(constants.HeaderXAPIKey, apiKey)
	}
	return ts.Server.Client().Do(req)
}

// Get performs an authenticated GET against the API.
func (ts *TestServer) Get(apiKey, path string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		req.Header.Set(constants.HeaderXAPIKey, apiKey)
	}
	return ts.Server.Client().Do(req)
}

// decodeBody reads a JSON response body into a generic map.
func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("parsing response %q: %v", raw, err)
	}
	return body
}
