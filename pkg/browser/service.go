// Package browser projects a hierarchical, filesystem-like namespace onto
// a flat, prefix-addressable object store.
//
// The Service is the orchestrator for every file-manager operation. Each
// request follows the same finite sequence:
//
//	parse action -> canonicalize path(s) -> evaluate permissions ->
//	execute storage call(s) -> emit audit event(s) -> build refreshed
//	listing response
//
// Authorization is strictly a precondition: a denied item never reaches
// the storage backend. Batch items are processed sequentially and stop at
// the first failure; items completed before it remain applied. The service
// holds no mutable state across requests, so one instance serves all
// goroutines concurrently.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bucketfm/bucketfm/pkg/access"
	"github.com/bucketfm/bucketfm/pkg/audit"
	"github.com/bucketfm/bucketfm/pkg/metrics"
	"github.com/bucketfm/bucketfm/pkg/storage"
	"github.com/bucketfm/bucketfm/pkg/vpath"
)

// Service dispatches file-manager operations against one storage backend.
type Service struct {
	store   storage.Store
	gate    access.Provider
	sink    audit.Sink
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New wires a Service. metrics may be nil.
func New(store storage.Store, gate access.Provider, sink audit.Sink, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		gate:    gate,
		sink:    sink,
		logger:  logger,
		metrics: m,
	}
}

// Do executes one operation request for the given user.
//
// Unrecognized actions fail immediately with a ValidationError, before any
// path handling, permission evaluation or storage access. Mutation actions
// conclude by re-listing the affected directory.
func (s *Service) Do(ctx context.Context, user access.User, req Request) (*Response, error) {
	start := time.Now()

	resp, err := s.dispatch(ctx, user, req)
	s.metrics.ObserveOperation(req.Action, outcomeOf(err), start)

	return resp, err
}

func (s *Service) dispatch(ctx context.Context, user access.User, req Request) (*Response, error) {
	switch req.Action {
	case ActionRead:
		return s.doRead(ctx, user, req)
	case ActionDetails:
		return s.doDetails(ctx, user, req)
	case ActionCreate:
		return s.doCreate(ctx, user, req)
	case ActionDelete:
		return s.doDelete(ctx, user, req)
	case ActionRename:
		return s.doRename(ctx, user, req)
	case ActionMove, ActionPaste:
		return s.doMove(ctx, user, req)
	default:
		return nil, validationf("unsupported action %q", req.Action)
	}
}

// permissions evaluates the gate, failing closed: an evaluation error is an
// internal fault, not an authorization verdict, and is surfaced as a
// StorageFailure so the caller sees an internal error rather than a
// misleading "forbidden".
func (s *Service) permissions(ctx context.Context, user access.User, path vpath.Path) (access.Flags, error) {
	flags, err := s.gate.Permissions(ctx, user, path)
	if err != nil {
		return access.None, storagef(fmt.Errorf("permission evaluation failed: %w", err), path)
	}

	return flags, nil
}

// requireAll denies unless every flag in want is granted on path.
func (s *Service) requireAll(ctx context.Context, user access.User, path vpath.Path, want access.Flags, requirement string) error {
	flags, err := s.permissions(ctx, user, path)
	if err != nil {
		return err
	}

	if !flags.Has(want) {
		return &AuthorizationDenied{Path: path, Requirement: requirement}
	}

	return nil
}

// requireAny denies unless at least one flag in want is granted on path.
func (s *Service) requireAny(ctx context.Context, user access.User, path vpath.Path, want access.Flags, requirement string) error {
	flags, err := s.permissions(ctx, user, path)
	if err != nil {
		return err
	}

	if !flags.Any(want) {
		return &AuthorizationDenied{Path: path, Requirement: requirement}
	}

	return nil
}

// record emits one audit event. Audit is best-effort: a sink failure is
// logged and counted, never propagated, and never rolls back the completed
// storage operation it describes.
func (s *Service) record(ctx context.Context, user access.User, action string, path vpath.Path, details string) {
	event := audit.NewEvent(user.ID, action, path.String(), details)

	if err := s.sink.Record(ctx, event); err != nil {
		s.metrics.ObserveAuditFailure()
		s.logger.Warn("failed to record audit event",
			zap.String("event_id", event.ID),
			zap.String("action", action),
			zap.String("path", path.String()),
			zap.Error(err),
		)
	}
}

// ----------------------------------------------------------------------------
// Actions
// ----------------------------------------------------------------------------

func (s *Service) doRead(ctx context.Context, user access.User, req Request) (*Response, error) {
	dir, err := vpath.Canonicalize(req.Path)
	if err != nil {
		return nil, validationf("path: %v", err)
	}

	if err := s.requireAll(ctx, user, dir, access.Read, "read"); err != nil {
		return nil, err
	}

	entries, err := s.list(ctx, dir)
	if err != nil {
		return nil, err
	}

	s.record(ctx, user, "list", dir, "")

	return &Response{Path: dir.String(), Entries: entries}, nil
}

func (s *Service) doDetails(ctx context.Context, user access.User, req Request) (*Response, error) {
	dir, err := vpath.Canonicalize(req.Path)
	if err != nil {
		return nil, validationf("path: %v", err)
	}

	names := req.Names
	if len(names) == 0 && req.Name != "" {
		names = []string{req.Name}
	}
	if len(names) == 0 {
		return nil, validationf("details requires at least one item name")
	}

	if err := s.requireAll(ctx, user, dir, access.Read, "read"); err != nil {
		return nil, err
	}

	details := make([]FileEntry, 0, len(names))

	for _, raw := range names {
		entry, err := s.detailsFor(ctx, dir, raw)
		if err != nil {
			return nil, err
		}

		details = append(details, entry)
		s.record(ctx, user, "details", dir.Join(strings.TrimSuffix(raw, "/")), "")
	}

	return &Response{Path: dir.String(), Details: details}, nil
}

// detailsFor resolves metadata for one named item. Files are looked up
// directly; folders fall back from placeholder metadata to virtual
// existence inferred from children.
func (s *Service) detailsFor(ctx context.Context, dir vpath.Path, rawName string) (FileEntry, error) {
	isDir := strings.HasSuffix(rawName, "/")
	item := dir.Join(strings.TrimSuffix(rawName, "/"))

	if !isDir {
		info, err := s.store.Head(ctx, item.Key(false))
		if err == nil {
			modified := info.LastModified

			return entryForFile(item, info.Size, &modified), nil
		}

		if !errors.Is(err, storage.ErrObjectNotFound) {
			return FileEntry{}, storagef(err, item)
		}
	}

	// Folder: prefer the placeholder's metadata, accept a virtual prefix.
	info, err := s.store.Head(ctx, item.Key(true))
	if err == nil {
		modified := info.LastModified

		return entryForDir(item, &modified), nil
	}

	if !errors.Is(err, storage.ErrObjectNotFound) {
		return FileEntry{}, storagef(err, item)
	}

	keys, err := s.keysUnder(ctx, item.Key(true))
	if err != nil {
		return FileEntry{}, storagef(err, item)
	}

	if len(keys) > 0 {
		return entryForDir(item, nil), nil
	}

	return FileEntry{}, storagef(fmt.Errorf("item %s: %w", item, storage.ErrObjectNotFound), item)
}

func (s *Service) doCreate(ctx context.Context, user access.User, req Request) (*Response, error) {
	dir, err := vpath.Canonicalize(req.Path)
	if err != nil {
		return nil, validationf("path: %v", err)
	}

	name := req.NewName
	if name == "" {
		name = req.Name
	}
	if name == "" {
		return nil, validationf("create requires a folder name")
	}

	if err := s.requireAny(ctx, user, dir, access.Write|access.Upload, "write or upload"); err != nil {
		return nil, err
	}

	folder := dir.Join(strings.TrimSuffix(name, "/"))

	if err := s.createFolder(ctx, folder); err != nil {
		return nil, err
	}

	s.record(ctx, user, "create", folder, "")

	return s.refreshed(ctx, dir)
}

func (s *Service) doDelete(ctx context.Context, user access.User, req Request) (*Response, error) {
	dir, err := vpath.Canonicalize(req.Path)
	if err != nil {
		return nil, validationf("path: %v", err)
	}

	if len(req.Names) == 0 {
		return nil, validationf("delete requires at least one item name")
	}

	for _, raw := range req.Names {
		isDir := strings.HasSuffix(raw, "/")
		item := dir.Join(strings.TrimSuffix(raw, "/"))

		if err := s.requireAll(ctx, user, item, access.Delete, "delete"); err != nil {
			return nil, err
		}

		if err := s.deleteEntry(ctx, item, isDir); err != nil {
			return nil, err
		}

		s.record(ctx, user, "delete", item, "")
	}

	return s.refreshed(ctx, dir)
}

func (s *Service) doRename(ctx context.Context, user access.User, req Request) (*Response, error) {
	dir, err := vpath.Canonicalize(req.Path)
	if err != nil {
		return nil, validationf("path: %v", err)
	}

	if req.Name == "" || req.NewName == "" {
		return nil, validationf("rename requires both name and newName")
	}

	dirHint := strings.HasSuffix(req.Name, "/")
	src := dir.Join(strings.TrimSuffix(req.Name, "/"))
	dst := dir.Join(strings.TrimSuffix(req.NewName, "/"))

	if err := s.requireAll(ctx, user, src, access.Write|access.Delete, "write and delete"); err != nil {
		return nil, err
	}

	if err := s.requireAll(ctx, user, dst, access.Write, "write"); err != nil {
		return nil, err
	}

	if err := s.move(ctx, src, dst, dirHint); err != nil {
		return nil, err
	}

	s.record(ctx, user, "rename", src, "to "+dst.String())

	return s.refreshed(ctx, dir)
}

func (s *Service) doMove(ctx context.Context, user access.User, req Request) (*Response, error) {
	dir, err := vpath.Canonicalize(req.Path)
	if err != nil {
		return nil, validationf("path: %v", err)
	}

	if req.TargetPath == "" {
		return nil, validationf("move requires a targetPath")
	}

	target, err := vpath.Canonicalize(req.TargetPath)
	if err != nil {
		return nil, validationf("targetPath: %v", err)
	}

	if len(req.Names) == 0 {
		return nil, validationf("move requires at least one item name")
	}

	for _, raw := range req.Names {
		dirHint := strings.HasSuffix(raw, "/")
		name := strings.TrimSuffix(raw, "/")
		src := dir.Join(name)
		dst := target.Join(name)

		if err := s.requireAll(ctx, user, src, access.Delete, "delete"); err != nil {
			return nil, err
		}

		if err := s.requireAny(ctx, user, dst, access.Write|access.Upload, "write or upload"); err != nil {
			return nil, err
		}

		if err := s.move(ctx, src, dst, dirHint); err != nil {
			return nil, err
		}

		s.record(ctx, user, "move", src, "to "+dst.String())
	}

	return s.refreshed(ctx, target)
}

// refreshed builds the post-mutation listing response for a directory.
func (s *Service) refreshed(ctx context.Context, dir vpath.Path) (*Response, error) {
	entries, err := s.list(ctx, dir)
	if err != nil {
		return nil, err
	}

	return &Response{Path: dir.String(), Entries: entries}, nil
}

// ----------------------------------------------------------------------------
// Upload / Download
// ----------------------------------------------------------------------------

// Upload stores one file payload under the target directory and returns
// the refreshed listing.
func (s *Service) Upload(ctx context.Context, user access.User, rawDir, filename string, body io.Reader, size int64) (*Response, error) {
	start := time.Now()

	resp, err := s.doUpload(ctx, user, rawDir, filename, body, size)
	s.metrics.ObserveOperation("upload", outcomeOf(err), start)

	return resp, err
}

func (s *Service) doUpload(ctx context.Context, user access.User, rawDir, filename string, body io.Reader, size int64) (*Response, error) {
	dir, err := vpath.Canonicalize(rawDir)
	if err != nil {
		return nil, validationf("path: %v", err)
	}

	if filename == "" || strings.ContainsAny(filename, "/\\") {
		return nil, validationf("invalid upload file name %q", filename)
	}

	if err := s.requireAny(ctx, user, dir, access.Write|access.Upload, "write or upload"); err != nil {
		return nil, err
	}

	file := dir.Join(filename)

	if err := s.upload(ctx, file, body, size); err != nil {
		return nil, err
	}

	s.record(ctx, user, "upload", file, "")

	return s.refreshed(ctx, dir)
}

// Download opens a file for streaming to the caller. The returned entry
// carries the resolved name and size for response headers; the caller must
// close the reader.
func (s *Service) Download(ctx context.Context, user access.User, rawPath string) (io.ReadCloser, *FileEntry, error) {
	start := time.Now()

	reader, entry, err := s.doDownload(ctx, user, rawPath)
	s.metrics.ObserveOperation("download", outcomeOf(err), start)

	return reader, entry, err
}

func (s *Service) doDownload(ctx context.Context, user access.User, rawPath string) (io.ReadCloser, *FileEntry, error) {
	file, err := vpath.Canonicalize(rawPath)
	if err != nil {
		return nil, nil, validationf("path: %v", err)
	}

	if file.IsRoot() {
		return nil, nil, validationf("cannot download the root")
	}

	if err := s.requireAll(ctx, user, file, access.Read, "read"); err != nil {
		return nil, nil, err
	}

	reader, info, err := s.store.Get(ctx, file.Key(false))
	if err != nil {
		return nil, nil, storagef(err, file)
	}

	modified := info.LastModified
	entry := entryForFile(file, info.Size, &modified)

	s.record(ctx, user, "download", file, "")

	return reader, &entry, nil
}

// outcomeOf classifies an operation error for metrics labels.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case isValidation(err):
		return metrics.OutcomeValidation
	case isDenied(err):
		return metrics.OutcomeDenied
	default:
		return metrics.OutcomeStorage
	}
}

func isValidation(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}

func isDenied(err error) bool {
	var ad *AuthorizationDenied

	return errors.As(err, &ad)
}
