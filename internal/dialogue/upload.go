package dialogue

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/csheth/oeescout/internal/api"
	"github.com/csheth/oeescout/internal/conversation"
	"github.com/csheth/oeescout/internal/filters"
)

// UploadTicket captures one accepted dataset upload.
type UploadTicket struct {
	id       uint64
	filename string
	data     []byte
	backend  api.Backend
}

// Filename returns the name sent with the dataset.
func (t UploadTicket) Filename() string {
	return t.filename
}

// UploadResult is the outcome of an upload ticket. Catalog is the catalog
// fetched after a successful upload; CatalogErr is set when that fetch failed.
type UploadResult struct {
	ticket     uint64
	Err        error
	Catalog    filters.Options
	CatalogErr error
}

// OK reports whether the dataset was accepted.
func (r UploadResult) OK() bool {
	return r.Err == nil
}

// Run uploads the dataset and, on success, fetches the refreshed catalog.
func (t UploadTicket) Run(ctx context.Context) (result UploadResult) {
	result.ticket = t.id
	if t.backend == nil {
		result.Err = uploadFailed(errors.New(noBackendErrorText))
		return result
	}
	defer func() {
		if r := recover(); r != nil {
			result = UploadResult{ticket: t.id, Err: uploadFailed(fmt.Errorf("collaborator panic: %v", r))}
		}
	}()
	if err := t.backend.UploadDataset(ctx, t.filename, t.data); err != nil {
		result.Err = uploadFailed(err)
		return result
	}
	catalog, err := t.backend.FetchFilterCatalog(ctx)
	if err != nil {
		result.CatalogErr = err
		return result
	}
	result.Catalog = catalog
	return result
}

// BeginUpload accepts a dataset when no upload is outstanding.
func (c *Controller) BeginUpload(filename string, data []byte) (UploadTicket, bool) {
	if c.uploadState == UploadInProgress {
		c.logger.Debug("upload dropped while another is in flight", zap.String("file", filename))
		return UploadTicket{}, false
	}
	c.seq++
	c.uploading = c.seq
	c.uploadState = UploadInProgress
	c.logger.Info("uploading dataset", zap.String("file", filepath.Base(filename)), zap.Int("bytes", len(data)))
	return UploadTicket{
		id:       c.seq,
		filename: filename,
		data:     data,
		backend:  c.backend,
	}, true
}

// ResolveUpload records the outcome of the in-flight upload. On success the
// fetched catalog replaces the current one, unless that fetch failed, and a
// confirmation is appended; on failure an error message is appended and the
// catalog is untouched.
func (c *Controller) ResolveUpload(result UploadResult) bool {
	if c.uploadState != UploadInProgress || result.ticket != c.uploading {
		c.logger.Debug("stale upload result ignored", zap.Uint64("ticket", result.ticket))
		return false
	}
	c.uploadState = UploadIdle
	c.uploading = 0
	if result.Err != nil {
		c.logger.Warn("upload failed", zap.Error(result.Err))
		c.log.Append(conversation.NewSystemMessage(UploadFailureText, nil))
		return true
	}
	if result.CatalogErr != nil {
		_ = c.catalog.FetchFailed(result.CatalogErr)
	} else {
		c.catalog.Apply(result.Catalog)
	}
	c.log.Append(conversation.NewSystemMessage(UploadSuccessText, nil))
	return true
}

// Upload runs a full upload synchronously and reports whether it was
// accepted.
func (c *Controller) Upload(ctx context.Context, filename string, data []byte) bool {
	ticket, ok := c.BeginUpload(filename, data)
	if !ok {
		return false
	}
	c.ResolveUpload(ticket.Run(ctx))
	return true
}

func uploadFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrUploadFailed, err)
}
