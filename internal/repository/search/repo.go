package search

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/menusearch/internal/db"
	"github.com/kailas-cloud/menusearch/internal/domain/search/order"
	"github.com/kailas-cloud/menusearch/internal/domain/search/query"
	"github.com/kailas-cloud/menusearch/internal/domain/search/result"
	usesearch "github.com/kailas-cloud/menusearch/internal/usecase/search"
)

// Driver is the backend name reported in logs and metrics.
const Driver = "redis"

// ScoreField carries the relevance score in each record, as the hosted engine names it.
const ScoreField = "@search.score"

// Default page and facet sizes.
const (
	DefaultLimit      = 50
	DefaultFacetLimit = 10
)

// Hash fields holding numbers.
var numericFields = map[string]bool{
	"metadata_storage_size": true,
	"sentiment":             true,
	"precio":                true,
	"puntuacion":            true,
}

// Hash fields holding JSON-encoded lists or objects.
var jsonFields = map[string]bool{
	"platos":       true,
	"keyphrases":   true,
	"locations":    true,
	"imageTags":    true,
	"imageCaption": true,
}

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	Aggregate(ctx context.Context, q *db.FacetQuery) ([]db.FacetBucket, error)
	Ping(ctx context.Context) error
}

// Backend serves query specs from a RediSearch index.
type Backend struct {
	store      store
	index      string
	limit      int
	facetLimit int
}

var _ usesearch.Backend = (*Backend)(nil)

// New creates a RediSearch backend. Non-positive limits fall back to defaults.
func New(s store, index string, limit, facetLimit int) *Backend {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if facetLimit <= 0 {
		facetLimit = DefaultFacetLimit
	}
	return &Backend{store: s, index: index, limit: limit, facetLimit: facetLimit}
}

// Name returns the driver name.
func (b *Backend) Name() string { return Driver }

// Ping checks the underlying store.
func (b *Backend) Ping(ctx context.Context) error {
	if err := b.store.Ping(ctx); err != nil {
		return fmt.Errorf("redis search backend: %w", err)
	}
	return nil
}

// Search runs the text query and the facet aggregations concurrently.
// A failed aggregation is kept on the result set; only the text query fails the call.
func (b *Backend) Search(ctx context.Context, spec query.Spec) (usesearch.ResultSet, error) {
	tq := &db.TextQuery{
		IndexName:    b.index,
		Text:         spec.SearchText(),
		Filters:      spec.Filter(),
		Limit:        b.limit,
		ReturnFields: spec.Select(),
	}
	if s := spec.Sort(); !s.IsRelevance() {
		tq.SortBy = &db.SortBy{Field: s.Field, Desc: s.Direction == order.Desc}
	}

	rs := &resultSet{facets: make(map[string][]usesearch.FacetBucket)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := b.store.SearchText(gctx, tq)
		if err != nil {
			return fmt.Errorf("search %s: %w", b.index, err)
		}
		rs.hits = res
		return nil
	})
	for _, field := range spec.Facets() {
		g.Go(func() error {
			buckets, err := b.store.Aggregate(gctx, &db.FacetQuery{
				IndexName: b.index,
				Text:      spec.SearchText(),
				Filters:   spec.Filter(),
				Field:     field,
				Limit:     b.facetLimit,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rs.facetErr = fmt.Errorf("facet %s: %w", field, err)
				return nil
			}
			rs.facets[field] = toFacetBuckets(buckets)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // wrapped inside the group
	}
	return rs, nil
}

func toFacetBuckets(in []db.FacetBucket) []usesearch.FacetBucket {
	out := make([]usesearch.FacetBucket, 0, len(in))
	for _, b := range in {
		var v any
		if !b.Null {
			v = b.Value
		}
		out = append(out, usesearch.FacetBucket{Value: v, Count: b.Count})
	}
	return out
}

// resultSet adapts a RediSearch reply to usesearch.ResultSet.
type resultSet struct {
	hits     *db.SearchResult
	facets   map[string][]usesearch.FacetBucket
	facetErr error
	consumed bool
}

func (r *resultSet) Records() iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		if r.consumed {
			yield(nil, fmt.Errorf("result set already consumed"))
			return
		}
		r.consumed = true
		for _, e := range r.hits.Entries {
			if !yield(toRecord(e), nil) {
				return
			}
		}
	}
}

func (r *resultSet) Facets() (map[string][]usesearch.FacetBucket, error) {
	if r.facetErr != nil {
		return nil, r.facetErr
	}
	return r.facets, nil
}

func (r *resultSet) Count() (int64, bool) {
	return int64(r.hits.Total), true
}

// toRecord restores field types lost in hash storage.
func toRecord(e db.SearchEntry) map[string]any {
	rec := make(map[string]any, len(e.Fields)+1)
	for name, raw := range e.Fields {
		switch {
		case numericFields[name]:
			if result.IsNumberLiteral(raw) {
				rec[name] = json.Number(raw)
				continue
			}
			rec[name] = raw
		case jsonFields[name] && json.Valid([]byte(raw)):
			rec[name] = json.RawMessage(raw)
		default:
			rec[name] = raw
		}
	}
	rec[ScoreField] = e.Score
	return rec
}
