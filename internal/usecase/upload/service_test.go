package upload

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kailas-cloud/menusearch/internal/domain"
)

type mockBlobStore struct {
	calls       int
	key         string
	contentType string
	body        string
	err         error
}

func (m *mockBlobStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	m.calls++
	m.key = key
	m.contentType = contentType
	data, _ := io.ReadAll(r)
	m.body = string(data)
	if m.err != nil {
		return "", m.err
	}
	return "https://blobs.example.com/meals/" + key, nil
}

func newTestService(blobs BlobStore, prefix string) *Service {
	svc := New(blobs, prefix)
	svc.newID = func() string { return "fixed-id" }
	return svc
}

func TestUpload_Success(t *testing.T) {
	blobs := &mockBlobStore{}
	svc := newTestService(blobs, "menus")

	res, err := svc.Upload(context.Background(), "Carta Verano.pdf", 5, strings.NewReader("%PDF-"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Filename != "menus/fixed-id_Carta_Verano.pdf" {
		t.Errorf("Filename = %q", res.Filename)
	}
	if res.URL != "https://blobs.example.com/meals/menus/fixed-id_Carta_Verano.pdf" {
		t.Errorf("URL = %q", res.URL)
	}
	if res.Message == "" {
		t.Error("expected message")
	}
	if blobs.contentType != "application/pdf" {
		t.Errorf("content type = %q", blobs.contentType)
	}
	if blobs.body != "%PDF-" {
		t.Errorf("body = %q", blobs.body)
	}
}

func TestUpload_RejectsBeforeBlobCall(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		want     error
	}{
		{"disallowed extension", "menu.exe", 10, domain.ErrUnsupportedFileType},
		{"webp", "menu.webp", 10, domain.ErrUnsupportedFileType},
		{"blank name", "", 10, domain.ErrInvalidUpload},
		{"empty file", "menu.pdf", 0, domain.ErrInvalidUpload},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			blobs := &mockBlobStore{}
			svc := newTestService(blobs, "")

			_, err := svc.Upload(context.Background(), tc.filename, tc.size, strings.NewReader("data"))
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if blobs.calls != 0 {
				t.Errorf("blob store called %d times", blobs.calls)
			}
		})
	}
}

func TestUpload_BlobFailure(t *testing.T) {
	blobs := &mockBlobStore{err: errors.New("connection reset")}
	svc := newTestService(blobs, "")

	_, err := svc.Upload(context.Background(), "foto.jpg", 4, strings.NewReader("jpeg"))
	if !errors.Is(err, domain.ErrBlobStoreFailure) {
		t.Fatalf("err = %v, want ErrBlobStoreFailure", err)
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("cause missing from %q", err)
	}
	if blobs.key != "fixed-id_foto.jpg" {
		t.Errorf("key = %q", blobs.key)
	}
	if blobs.contentType != "image/jpeg" {
		t.Errorf("content type = %q", blobs.contentType)
	}
}

func TestMetricExt(t *testing.T) {
	if got := metricExt("pdf"); got != "pdf" {
		t.Errorf("metricExt(pdf) = %q", got)
	}
	if got := metricExt("exe"); got != "other" {
		t.Errorf("metricExt(exe) = %q", got)
	}
}
