package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/menusearch/internal/domain"
	"github.com/kailas-cloud/menusearch/internal/domain/search/order"
)

// MaxQueryLength is the maximum allowed search text length.
const MaxQueryLength = 1024

// Params holds raw search parameters as received from a client.
type Params struct {
	Query     string
	Facet     string
	MinRating *float64
	MaxPrice  *float64
	Cuisine   string
	Sort      string
}

// Request is a validated search request.
type Request struct {
	query       string
	facet       string
	minRating   *float64
	maxPrice    *float64
	cuisine     string
	sortKey     order.Key
	sortMatched bool
}

// New validates and normalizes search parameters.
// Blank optional strings count as absent. Unknown sort keys resolve to relevance.
func New(p Params) (Request, error) {
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return Request{}, fmt.Errorf("%w: search text is required", domain.ErrInvalidQuery)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: search text too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}

	key, matched := order.Parse(strings.TrimSpace(p.Sort))

	return Request{
		query:       query,
		facet:       strings.TrimSpace(p.Facet),
		minRating:   p.MinRating,
		maxPrice:    p.MaxPrice,
		cuisine:     strings.TrimSpace(p.Cuisine),
		sortKey:     key,
		sortMatched: matched || strings.TrimSpace(p.Sort) == "",
	}, nil
}

// Query returns the trimmed search text.
func (r *Request) Query() string { return r.query }

// Facet returns the author facet value ("" when absent).
func (r *Request) Facet() string { return r.facet }

// MinRating returns the minimum rating bound (nil when absent).
func (r *Request) MinRating() *float64 { return r.minRating }

// MaxPrice returns the maximum price bound (nil when absent).
func (r *Request) MaxPrice() *float64 { return r.maxPrice }

// Cuisine returns the cuisine type filter ("" when absent).
func (r *Request) Cuisine() string { return r.cuisine }

// SortKey returns the resolved sort key.
func (r *Request) SortKey() order.Key { return r.sortKey }

// SortFellBack reports whether a non-empty, unrecognized sort key was replaced by relevance.
func (r *Request) SortFellBack() bool { return !r.sortMatched }
