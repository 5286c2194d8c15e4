package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/menusearch/internal/domain"
	"github.com/kailas-cloud/menusearch/internal/domain/search/result"
	"github.com/kailas-cloud/menusearch/internal/logger"
)

// ProcessingError reports a failure while iterating backend records.
type ProcessingError struct {
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", domain.ErrResultProcessing, e.Err)
}

// Unwrap exposes both the sentinel and the backend cause.
func (e *ProcessingError) Unwrap() []error {
	return []error{domain.ErrResultProcessing, e.Err}
}

// Normalize turns a backend result set into the public response.
//
// Every field value is coerced with result.ValueOf, so a malformed field never
// fails the request. Facet errors are logged and replaced by an empty mapping.
// Count is the backend total when reported, otherwise the number of records.
func Normalize(ctx context.Context, rs ResultSet, searchTerms string) (result.Response, error) {
	resp := result.NewResponse(searchTerms)

	for rec, err := range rs.Records() {
		if err != nil {
			return result.Response{}, &ProcessingError{Err: err}
		}
		record := make(result.Record, len(rec))
		for name, v := range rec {
			record[name] = result.ValueOf(v)
		}
		resp.Results = append(resp.Results, record)
	}

	facets, err := collectFacets(rs)
	if err != nil {
		logger.FromContext(ctx).Warn("facets unavailable", zap.Error(err))
	} else {
		resp.Facets = facets
	}

	if n, ok := rs.Count(); ok {
		resp.Count = n
		resp.CountExact = true
	} else {
		resp.Count = int64(len(resp.Results))
	}

	return resp, nil
}

func collectFacets(rs ResultSet) (out map[string][]result.FacetValue, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("facet decoding panicked: %v", r)
		}
	}()

	raw, err := rs.Facets()
	if err != nil {
		return nil, err
	}

	out = make(map[string][]result.FacetValue, len(raw))
	for field, buckets := range raw {
		values := make([]result.FacetValue, 0, len(buckets))
		for _, b := range buckets {
			values = append(values, result.FacetValue{Value: result.ValueOf(b.Value), Count: b.Count})
		}
		out[field] = values
	}
	return out, nil
}
