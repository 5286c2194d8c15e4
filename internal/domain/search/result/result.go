package result

import (
	"bytes"
	"encoding/json"
)

// Record is one flattened search hit: field name to JSON-serializable value.
type Record map[string]Value

// FacetValue is one bucket of a facet aggregation.
type FacetValue struct {
	Value Value `json:"value"`
	Count int64 `json:"count"`
}

// Response is the public search response contract.
//
// Count is the backend-reported total when the backend reports one (CountExact=true);
// otherwise it is the number of records in Results, i.e. the page length.
type Response struct {
	Count       int64                   `json:"count"`
	Results     []Record                `json:"results"`
	Facets      map[string][]FacetValue `json:"facets"`
	SearchTerms string                  `json:"search_terms"`
	CountExact  bool                    `json:"-"`
}

// NewResponse returns a response with non-nil collections.
func NewResponse(searchTerms string) Response {
	return Response{
		Results:     []Record{},
		Facets:      map[string][]FacetValue{},
		SearchTerms: searchTerms,
	}
}

func unmarshalNumber(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v) //nolint:wrapcheck // caller stringifies on any error
}
