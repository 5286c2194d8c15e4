package db

import "github.com/kailas-cloud/menusearch/internal/domain/search/filter"

// SortBy orders search hits by a sortable field.
type SortBy struct {
	Field string
	Desc  bool
}

// TextQuery is the input for full-text search. Every term of Text must match.
// A nil SortBy keeps relevance order.
type TextQuery struct {
	IndexName    string
	Text         string
	Filters      filter.Expression
	SortBy       *SortBy
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// FacetQuery counts matching documents grouped by the values of Field.
type FacetQuery struct {
	IndexName string
	Text      string
	Filters   filter.Expression
	Field     string
	Limit     int
}

// FacetBucket is one group of a facet aggregation. Missing values have Null set.
type FacetBucket struct {
	Value string
	Null  bool
	Count int64
}
