package upload

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/menusearch/internal/domain"
	domupload "github.com/kailas-cloud/menusearch/internal/domain/upload"
	"github.com/kailas-cloud/menusearch/internal/logger"
	"github.com/kailas-cloud/menusearch/internal/metrics"
)

// Result is returned for a stored file.
type Result struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Service validates uploads and writes them to the blob store.
type Service struct {
	blobs  BlobStore
	prefix string
	newID  func() string
}

// New creates an upload service. prefix is prepended to every blob path.
func New(blobs BlobStore, prefix string) *Service {
	return &Service{
		blobs:  blobs,
		prefix: prefix,
		newID:  func() string { return uuid.NewString() },
	}
}

// Upload stores one file. Validation happens before the blob store is touched.
func (s *Service) Upload(ctx context.Context, filename string, size int64, r io.Reader) (*Result, error) {
	ext := domupload.Extension(filename)

	if err := domupload.Validate(filename); err != nil {
		metrics.UploadsTotal.WithLabelValues(metricExt(ext), "rejected").Inc()
		return nil, err
	}
	if size == 0 || r == nil {
		metrics.UploadsTotal.WithLabelValues(ext, "rejected").Inc()
		return nil, fmt.Errorf("%w: empty file", domain.ErrInvalidUpload)
	}

	key := domupload.BlobPath(s.prefix, s.newID(), filename)
	contentType := domupload.ContentType(filename)

	url, err := s.blobs.Put(ctx, key, r, size, contentType)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(ext, "error").Inc()
		logger.FromContext(ctx).Error("blob upload failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrBlobStoreFailure, err)
	}

	metrics.UploadsTotal.WithLabelValues(ext, "ok").Inc()
	if size > 0 {
		metrics.UploadBytesTotal.Add(float64(size))
	}
	logger.FromContext(ctx).Info("file uploaded",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int64("size", size),
	)

	return &Result{
		Message:  "Archivo subido correctamente",
		Filename: key,
		URL:      url,
	}, nil
}

// metricExt bounds label cardinality for rejected extensions.
func metricExt(ext string) string {
	for _, allowed := range domupload.AllowedExtensions() {
		if ext == allowed {
			return ext
		}
	}
	return "other"
}
