// Package query turns a validated search request into a backend query specification.
package query

import (
	"fmt"

	"github.com/kailas-cloud/menusearch/internal/domain"
	"github.com/kailas-cloud/menusearch/internal/domain/search/filter"
	"github.com/kailas-cloud/menusearch/internal/domain/search/order"
	"github.com/kailas-cloud/menusearch/internal/domain/search/request"
)

// Index field names used by filters and facets.
const (
	FieldAuthor  = "metadata_author"
	FieldRating  = "puntuacion"
	FieldPrice   = "precio"
	FieldCuisine = "tipologia"
)

// SearchModeAll requires every search term to match.
const SearchModeAll = "all"

var (
	facetFields     = []string{FieldAuthor}
	highlightFields = []string{"merged_content", "imageCaption"}
	selectFields    = []string{
		"url",
		"metadata_storage_name",
		"metadata_author",
		"metadata_storage_size",
		"metadata_storage_last_modified",
		"language",
		"sentiment",
		"merged_content",
		"keyphrases",
		"locations",
		"imageTags",
		"imageCaption",
		"platos",
		"ubicacion",
		"tipologia",
		"tipo_menu",
		"precio",
		"puntuacion",
	}
)

// Spec is an immutable backend query specification.
type Spec struct {
	searchText string
	filter     filter.Expression
	sortKey    order.Key
	sort       order.Clause
}

// Build derives a Spec from a validated request.
// Clauses are emitted in fixed order: facet, puntuacion ge, precio le, tipologia.
func Build(req *request.Request) (Spec, error) {
	var clauses []filter.Clause

	if v := req.Facet(); v != "" {
		c, err := filter.NewMatch(FieldAuthor, v)
		if err != nil {
			return Spec{}, fmt.Errorf("%w: facet: %w", domain.ErrInvalidQuery, err)
		}
		clauses = append(clauses, c)
	}

	if v := req.MinRating(); v != nil {
		c, err := filter.NewComparison(FieldRating, filter.Ge, *v)
		if err != nil {
			return Spec{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
		}
		clauses = append(clauses, c)
	}

	if v := req.MaxPrice(); v != nil {
		c, err := filter.NewComparison(FieldPrice, filter.Le, *v)
		if err != nil {
			return Spec{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
		}
		clauses = append(clauses, c)
	}

	if v := req.Cuisine(); v != "" {
		c, err := filter.NewMatch(FieldCuisine, v)
		if err != nil {
			return Spec{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
		}
		clauses = append(clauses, c)
	}

	expr, err := filter.NewExpression(clauses...)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	return Spec{
		searchText: req.Query(),
		filter:     expr,
		sortKey:    req.SortKey(),
		sort:       req.SortKey().Clause(),
	}, nil
}

// SearchText returns the text passed verbatim to the backend.
func (s Spec) SearchText() string { return s.searchText }

// SearchMode returns the term matching mode.
func (s Spec) SearchMode() string { return SearchModeAll }

// IncludeTotalCount reports whether the backend should compute a total count.
func (s Spec) IncludeTotalCount() bool { return true }

// Filter returns the structured filter.
func (s Spec) Filter() filter.Expression { return s.filter }

// FilterExpression returns the OData filter string, or "" when no filter is active.
func (s Spec) FilterExpression() string { return s.filter.OData() }

// HasFilter reports whether any filter clause is active.
func (s Spec) HasFilter() bool { return !s.filter.IsEmpty() }

// SortKey returns the resolved sort key.
func (s Spec) SortKey() order.Key { return s.sortKey }

// Sort returns the resolved ordering.
func (s Spec) Sort() order.Clause { return s.sort }

// SortExpression returns the OData $orderby expression.
func (s Spec) SortExpression() string { return s.sort.OData() }

// Facets returns the requested facet fields.
func (s Spec) Facets() []string { return clone(facetFields) }

// Select returns the fields to retrieve.
func (s Spec) Select() []string { return clone(selectFields) }

// Highlight returns the fields to highlight.
func (s Spec) Highlight() []string { return clone(highlightFields) }

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
