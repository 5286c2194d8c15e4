package search

import (
	"context"
	"iter"

	"github.com/kailas-cloud/menusearch/internal/domain/search/query"
)

// Backend executes a query specification against a search engine.
// Implementations are constructed once and shared across requests.
type Backend interface {
	Search(ctx context.Context, spec query.Spec) (ResultSet, error)
	Name() string
}

// ResultSet is the outcome of one backend call.
//
// Records is a single-use cursor: it may be ranged over once and yields a
// non-nil error at most once, as its last element. Facets and Count may be
// called in any order, before or after Records.
type ResultSet interface {
	Records() iter.Seq2[map[string]any, error]
	Facets() (map[string][]FacetBucket, error)
	Count() (int64, bool)
}

// FacetBucket is one raw facet value with its occurrence count.
type FacetBucket struct {
	Value any
	Count int64
}
