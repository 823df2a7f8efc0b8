package upload

import (
	"context"
	"os"
	"path/filepath"

	"labelpress/internal/constants"
	"labelpress/internal/logger"
	"labelpress/internal/sanitize"
)

// Service runs the full upload pipeline: policy lookup, pre-flight
// validation, name resolution, streaming persistence. Each call is an
// independent unit of work; the only shared resource between concurrent
// uploads is the destination directory's namespace, arbitrated by the
// timestamp prefix and the persister's exclusive create.
type Service struct {
	root string
	log  *logger.Logger
}

// NewService creates an upload service rooted at the shared upload
// directory.
func NewService(root string, log *logger.Logger) *Service {
	return &Service{root: root, log: log}
}

// Root returns the shared upload root directory.
func (s *Service) Root() string {
	return s.root
}

// Upload validates and persists one upload request. On success it returns
// the stored file descriptor; on failure it returns a typed *Error and
// guarantees no partially written file survives. Progress notifications go
// to sink, which may be nil.
func (s *Service) Upload(ctx context.Context, req *Request, sink ProgressSink) (*StoredFile, error) {
	policy := PolicyFor(req.Destination)

	if err := Validate(req, policy); err != nil {
		s.log.Debug("Upload rejected for %s: %v", req.Destination, err)
		return nil, err
	}

	cleanName := sanitize.Filename(req.OriginalName)
	if cleanName == "" {
		return nil, ErrInvalidFilename
	}

	dir := filepath.Join(s.root, policy.Subdir)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, WrapIoFailure(err)
	}

	existing, err := listNames(dir)
	if err != nil {
		return nil, WrapIoFailure(err)
	}

	name, err := ResolveName(cleanName, policy, req.RenameTarget, req.Overwrite, existing)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, name)
	s.log.Debug("Persisting upload %q to %s (max %d bytes)", name, path, policy.MaxSizeBytes)

	result, err := Persist(ctx, req.Body, path, policy.MaxSizeBytes, req.DeclaredSize, req.Overwrite, sink)
	if err != nil {
		s.log.Warn("Upload of %q to %s failed: %v", cleanName, req.Destination, err)
		return nil, err
	}

	s.log.Info("Stored %s/%s (%d bytes)", policy.Subdir, name, result.Size)

	return &StoredFile{
		Name:        name,
		Destination: req.Destination,
		Subdir:      policy.Subdir,
		Size:        result.Size,
		Hash:        result.Hash,
	}, nil
}

// listNames returns the names currently occupying a destination directory.
func listNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
