// Package azblob stores uploaded menu files in an Azure Storage blob container.
package azblob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// Config holds container connection settings.
type Config struct {
	ConnectionString string
	Container        string
	PublicURL        string // optional base URL for returned blob links
	HTTPClient       *http.Client
	MaxRetries       int32 // 0 keeps the SDK default, < 0 disables retries
}

// Store writes blobs to one container.
type Store struct {
	client    *azblob.Client
	container string
	baseURL   string
}

// New creates a container store from a storage account connection string.
func New(cfg Config) (*Store, error) {
	if cfg.ConnectionString == "" {
		return nil, errors.New("connection string is required")
	}
	if cfg.Container == "" {
		return nil, errors.New("container is required")
	}

	opts := &azblob.ClientOptions{}
	if cfg.HTTPClient != nil {
		opts.Transport = cfg.HTTPClient
	}
	if cfg.MaxRetries != 0 {
		opts.Retry.MaxRetries = cfg.MaxRetries
	}

	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, opts)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}

	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" {
		base = strings.TrimRight(client.URL(), "/") + "/" + url.PathEscape(cfg.Container)
	}

	return &Store{client: client, container: cfg.Container, baseURL: base}, nil
}

// Put uploads the blob and returns its URL. size is not needed by the streaming upload.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	var opts *azblob.UploadStreamOptions
	if contentType != "" {
		opts = &azblob.UploadStreamOptions{
			HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
		}
	}
	if _, err := s.client.UploadStream(ctx, s.container, key, r, opts); err != nil {
		return "", fmt.Errorf("upload blob %s: %w", key, err)
	}
	return s.URL(key), nil
}

// EnsureContainer creates the container when it does not exist yet.
func (s *Store) EnsureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err == nil || bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil
	}
	return fmt.Errorf("create container %s: %w", s.container, err)
}

// Ping checks that the container is reachable.
func (s *Store) Ping(ctx context.Context) error {
	cc := s.client.ServiceClient().NewContainerClient(s.container)
	if _, err := cc.GetProperties(ctx, nil); err != nil {
		if bloberror.HasCode(err, bloberror.ContainerNotFound) {
			return fmt.Errorf("container %s does not exist", s.container)
		}
		return fmt.Errorf("get container %s: %w", s.container, err)
	}
	return nil
}

// Container returns the container name.
func (s *Store) Container() string { return s.container }

// URL returns the link for a blob name.
func (s *Store) URL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + strings.Join(segments, "/")
}
