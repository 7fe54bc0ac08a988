package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bucketfm/bucketfm/pkg/browser"
)

// handleHealth answers liveness probes.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleOperations executes one file-manager operation envelope.
func (s *Server) handleOperations(c *gin.Context) {
	var req browser.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})

		return
	}

	resp, err := s.svc.Do(c.Request.Context(), currentUser(c), req)
	if err != nil {
		s.writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleUpload stores the multipart file parts under the path form field.
// Several parts may share the "file" field name; they are stored in order
// and the response carries the listing after the last one.
func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	dir := c.PostForm("path")
	if dir == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing path form field"})

		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid multipart form: %v", err)})

		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file form field"})

		return
	}

	var resp *browser.Response

	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cannot open uploaded file: %v", err)})

			return
		}

		resp, err = s.svc.Upload(c.Request.Context(), currentUser(c), dir, fileHeader.Filename, file, fileHeader.Size)
		_ = file.Close()

		if err != nil {
			s.writeError(c, err)

			return
		}
	}

	c.JSON(http.StatusOK, resp)
}

// downloadSelection is the POST body naming one file to download.
type downloadSelection struct {
	Path  string   `json:"path"`
	Names []string `json:"names"`
}

// handleDownload streams one file back to the client. GET takes the path
// as a query parameter; POST takes a selection body naming a single file
// inside a directory.
func (s *Server) handleDownload(c *gin.Context) {
	path, ok := s.downloadPath(c)
	if !ok {
		return
	}

	reader, entry, err := s.svc.Download(c.Request.Context(), currentUser(c), path)
	if err != nil {
		s.writeError(c, err)

		return
	}
	defer func() { _ = reader.Close() }()

	contentType, body := contentTypeFor(entry.Name, reader)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.Name))
	c.Header("Content-Length", strconv.FormatInt(entry.Size, 10))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, body); err != nil {
		// Headers are gone; all we can do is log the broken stream.
		s.logger.Warn("download stream interrupted",
			zap.String("path", path),
			zap.Error(err),
		)
	}
}

// downloadPath resolves the requested file path from either request
// shape, writing the error response itself when the request is invalid.
func (s *Server) downloadPath(c *gin.Context) (string, bool) {
	if c.Request.Method == http.MethodGet {
		path := c.Query("path")
		if path == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing path query parameter"})

			return "", false
		}

		return path, true
	}

	var sel downloadSelection
	if err := c.ShouldBindJSON(&sel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid selection body: %v", err)})

		return "", false
	}

	switch len(sel.Names) {
	case 0:
		if sel.Path == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "selection names a path or a single file"})

			return "", false
		}

		return sel.Path, true
	case 1:
		return strings.TrimSuffix(sel.Path, "/") + "/" + sel.Names[0], true
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "download selects a single file"})

		return "", false
	}
}

// contentTypeFor resolves the response content type from the file name,
// sniffing the stream head for files with unknown extensions. The returned
// reader replays any sniffed bytes before the rest of the stream.
func contentTypeFor(name string, body io.Reader) (string, io.Reader) {
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		return byExt, body
	}

	header := make([]byte, 3072)

	n, err := io.ReadFull(body, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "application/octet-stream", io.MultiReader(bytes.NewReader(header[:n]), body)
	}

	detected := mimetype.Detect(header[:n])

	return detected.String(), io.MultiReader(bytes.NewReader(header[:n]), body)
}

// handleAuditQuery returns persisted audit events inside a time range.
// Only available when the configured sink supports queries.
func (s *Server) handleAuditQuery(c *gin.Context) {
	querier, ok := s.sink.(AuditQuerier)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "the configured audit sink does not support queries"})

		return
	}

	from, err := parseTimeParam(c.Query("from"), time.Unix(0, 0))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid from parameter: %v", err)})

		return
	}

	to, err := parseTimeParam(c.Query("to"), time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid to parameter: %v", err)})

		return
	}

	events, err := querier.Query(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "audit query failed"})

		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// parseTimeParam parses an RFC 3339 query parameter, returning fallback
// when the parameter is absent.
func parseTimeParam(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}

	return time.Parse(time.RFC3339, raw)
}

// writeError maps service errors to HTTP status codes. Storage failures
// deliberately reach the client as an opaque internal error; backend
// details stay in the log.
func (s *Server) writeError(c *gin.Context, err error) {
	var (
		validation *browser.ValidationError
		denied     *browser.AuthorizationDenied
		failure    *browser.StorageFailure
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, gin.H{"error": denied.Error()})
	case errors.As(err, &failure):
		s.logger.Error("storage operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage operation failed"})
	default:
		s.logger.Error("unexpected operation failure", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
