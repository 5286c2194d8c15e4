package azuresearch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/kailas-cloud/menusearch/internal/domain/search/query"
	usesearch "github.com/kailas-cloud/menusearch/internal/usecase/search"
)

// searchRequest is the body of POST /indexes/{index}/docs/search.
type searchRequest struct {
	Search     string   `json:"search"`
	SearchMode string   `json:"searchMode"`
	Count      bool     `json:"count"`
	Filter     string   `json:"filter,omitempty"`
	OrderBy    string   `json:"orderby,omitempty"`
	Facets     []string `json:"facets,omitempty"`
	Highlight  string   `json:"highlight,omitempty"`
	Select     string   `json:"select,omitempty"`
	Top        int      `json:"top,omitempty"`
}

func newSearchRequest(spec query.Spec, top int) searchRequest {
	return searchRequest{
		Search:     spec.SearchText(),
		SearchMode: spec.SearchMode(),
		Count:      spec.IncludeTotalCount(),
		Filter:     spec.FilterExpression(),
		OrderBy:    spec.SortExpression(),
		Facets:     spec.Facets(),
		Highlight:  strings.Join(spec.Highlight(), ","),
		Select:     strings.Join(spec.Select(), ","),
		Top:        top,
	}
}

type searchResponse struct {
	Count  *int64                     `json:"@odata.count"`
	Facets map[string]json.RawMessage `json:"@search.facets"`
	Value  []json.RawMessage          `json:"value"`
}

type facetEntry struct {
	Value json.RawMessage `json:"value"`
	Count int64           `json:"count"`
}

// resultSet decodes records and facets only when asked.
type resultSet struct {
	payload  searchResponse
	consumed bool
}

func newResultSet(p searchResponse) *resultSet {
	return &resultSet{payload: p}
}

func (r *resultSet) Records() iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		if r.consumed {
			yield(nil, fmt.Errorf("result set already consumed"))
			return
		}
		r.consumed = true
		for i, raw := range r.payload.Value {
			rec, err := decodeRecord(raw)
			if err != nil {
				yield(nil, fmt.Errorf("decode record %d: %w", i, err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func (r *resultSet) Facets() (map[string][]usesearch.FacetBucket, error) {
	out := make(map[string][]usesearch.FacetBucket, len(r.payload.Facets))
	for field, raw := range r.payload.Facets {
		var entries []facetEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("decode facet %s: %w", field, err)
		}
		buckets := make([]usesearch.FacetBucket, 0, len(entries))
		for _, e := range entries {
			var v any
			if len(e.Value) > 0 {
				if err := decodeNumber(e.Value, &v); err != nil {
					return nil, fmt.Errorf("decode facet %s value: %w", field, err)
				}
			}
			buckets = append(buckets, usesearch.FacetBucket{Value: v, Count: e.Count})
		}
		out[field] = buckets
	}
	return out, nil
}

func (r *resultSet) Count() (int64, bool) {
	if r.payload.Count == nil {
		return 0, false
	}
	return *r.payload.Count, true
}

func decodeRecord(raw json.RawMessage) (map[string]any, error) {
	var rec map[string]any
	if err := decodeNumber(raw, &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("record is not an object")
	}
	return rec, nil
}

func decodeNumber(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v) //nolint:wrapcheck // callers add context
}
