package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeS3 is a minimal path-style S3 endpoint.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
	types   map[string]string
	failPut bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{buckets: map[string]bool{}, objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")

	switch {
	case r.Method == http.MethodHead && key == "":
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && key == "":
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		if f.failPut {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>InternalError</Code><Message>boom</Message></Error>`)
			return
		}
		data, _ := io.ReadAll(r.Body)
		f.objects[bucket+"/"+key] = data
		f.types[bucket+"/"+key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T, fake *fakeS3, publicURL string) (*Store, string) {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	st, err := New(context.Background(), Config{
		Endpoint:        srv.URL,
		Bucket:          "meals",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
		PublicURL:       publicURL,
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return st, srv.URL
}

func TestNew_RequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestEnsureBucket_CreatesMissing(t *testing.T) {
	fake := newFakeS3()
	st, _ := newTestStore(t, fake, "")

	if err := st.Ping(context.Background()); err == nil {
		t.Fatal("ping must fail before the bucket exists")
	}
	if err := st.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("ensure bucket: %v", err)
	}
	if !fake.buckets["meals"] {
		t.Fatal("bucket not created")
	}
	if err := st.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("ensure existing bucket: %v", err)
	}
	if err := st.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestPut(t *testing.T) {
	fake := newFakeS3()
	fake.buckets["meals"] = true
	st, endpoint := newTestStore(t, fake, "")

	body := []byte("%PDF-1.4 menu")
	got, err := st.Put(context.Background(), "menus/abc_carta.pdf", bytes.NewReader(body), int64(len(body)), "application/pdf")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if want := endpoint + "/meals/menus/abc_carta.pdf"; got != want {
		t.Errorf("url = %q, want %q", got, want)
	}
	if !bytes.Equal(fake.objects["meals/menus/abc_carta.pdf"], body) {
		t.Errorf("stored %q", fake.objects["meals/menus/abc_carta.pdf"])
	}
	if ct := fake.types["meals/menus/abc_carta.pdf"]; ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
}

func TestPut_Error(t *testing.T) {
	fake := newFakeS3()
	fake.failPut = true
	st, _ := newTestStore(t, fake, "")

	_, err := st.Put(context.Background(), "k.pdf", bytes.NewReader([]byte("x")), 1, "application/pdf")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestURL(t *testing.T) {
	tests := []struct {
		cfg  Config
		key  string
		want string
	}{
		{Config{Bucket: "meals", PublicURL: "https://cdn.example.com/"}, "a b.pdf", "https://cdn.example.com/a%20b.pdf"},
		{Config{Bucket: "meals", Endpoint: "http://minio:9000"}, "p/x.png", "http://minio:9000/meals/p/x.png"},
		{Config{Bucket: "meals", Region: "eu-west-1"}, "x.jpg", "https://meals.s3.eu-west-1.amazonaws.com/x.jpg"},
	}
	for _, tc := range tests {
		st := &Store{baseURL: objectBaseURL(tc.cfg)}
		if got := st.URL(tc.key); got != tc.want {
			t.Errorf("URL(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}
