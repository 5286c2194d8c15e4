package search

import (
	"context"
	"sync"
	"testing"

	"github.com/kailas-cloud/menusearch/internal/db"
	"github.com/kailas-cloud/menusearch/internal/domain/search/query"
	"github.com/kailas-cloud/menusearch/internal/domain/search/request"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	mu            sync.Mutex
	searchTextFn  func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	aggregateFn   func(ctx context.Context, q *db.FacetQuery) ([]db.FacetBucket, error)
	pingErr       error
	lastText      *db.TextQuery
	lastFacet     *db.FacetQuery
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExists   bool
	created       bool
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	m.mu.Lock()
	m.lastText = q
	m.mu.Unlock()
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) Aggregate(ctx context.Context, q *db.FacetQuery) ([]db.FacetBucket, error) {
	m.mu.Lock()
	m.lastFacet = q
	m.mu.Unlock()
	if m.aggregateFn != nil {
		return m.aggregateFn(ctx, q)
	}
	return nil, nil
}

func (m *mockStore) Ping(_ context.Context) error { return m.pingErr }

func (m *mockStore) IndexExists(_ context.Context, _ string) (bool, error) {
	return m.indexExists, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	m.created = true
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func mustSpec(t *testing.T, p request.Params) query.Spec {
	t.Helper()
	req, err := request.New(p)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	spec, err := query.Build(&req)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return spec
}

func ptr(v float64) *float64 { return &v }
