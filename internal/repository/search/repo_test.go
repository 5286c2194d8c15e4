package search

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kailas-cloud/menusearch/internal/db"
	"github.com/kailas-cloud/menusearch/internal/domain/search/request"
	usesearch "github.com/kailas-cloud/menusearch/internal/usecase/search"
)

func TestBackend_SearchBuildsQuery(t *testing.T) {
	ms := &mockStore{}
	b := New(ms, "menus", 0, 0)

	spec := mustSpec(t, request.Params{Query: "pasta", Cuisine: "Italiana", MaxPrice: ptr(20), Sort: "date"})
	if _, err := b.Search(context.Background(), spec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := ms.lastText
	if q.IndexName != "menus" || q.Text != "pasta" || q.Limit != DefaultLimit {
		t.Errorf("unexpected query %+v", q)
	}
	if len(q.Filters.Clauses()) != 2 {
		t.Errorf("filters = %d clauses, want 2", len(q.Filters.Clauses()))
	}
	if q.SortBy == nil || q.SortBy.Field != "metadata_storage_last_modified" || !q.SortBy.Desc {
		t.Errorf("sort = %+v", q.SortBy)
	}
	if len(q.ReturnFields) != 18 {
		t.Errorf("return fields = %d, want 18", len(q.ReturnFields))
	}

	f := ms.lastFacet
	if f == nil || f.Field != "metadata_author" || f.Limit != DefaultFacetLimit {
		t.Errorf("facet query = %+v", f)
	}
}

func TestBackend_RelevanceHasNoSortBy(t *testing.T) {
	ms := &mockStore{}
	b := New(ms, "menus", 10, 5)

	if _, err := b.Search(context.Background(), mustSpec(t, request.Params{Query: "sushi"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ms.lastText.SortBy != nil {
		t.Errorf("relevance must not set SORTBY, got %+v", ms.lastText.SortBy)
	}
}

func TestBackend_ResultSet(t *testing.T) {
	ms := &mockStore{
		searchTextFn: func(_ context.Context, _ *db.TextQuery) (*db.SearchResult, error) {
			return &db.SearchResult{Total: 12, Entries: []db.SearchEntry{{
				Key:   "menusearch:menu:1",
				Score: 2.25,
				Fields: map[string]string{
					"metadata_storage_name": "carta.pdf",
					"precio":                "14.5",
					"puntuacion":            "n/a",
					"platos":                `[{"nombre":"paella","puntuacion":9}]`,
					"keyphrases":            "not json",
				},
			}}}, nil
		},
		aggregateFn: func(_ context.Context, _ *db.FacetQuery) ([]db.FacetBucket, error) {
			return []db.FacetBucket{{Value: "Ana", Count: 3}, {Null: true, Count: 1}}, nil
		},
	}
	b := New(ms, "menus", 0, 0)

	rs, err := b.Search(context.Background(), mustSpec(t, request.Params{Query: "paella"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, ok := rs.Count()
	if !ok || n != 12 {
		t.Errorf("count = %d,%v, want 12,true", n, ok)
	}

	var records []map[string]any
	for rec, err := range rs.Records() {
		if err != nil {
			t.Fatalf("iteration error: %v", err)
		}
		records = append(records, rec)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec["precio"] != json.Number("14.5") {
		t.Errorf("precio = %#v, want json.Number", rec["precio"])
	}
	if rec["puntuacion"] != "n/a" {
		t.Errorf("puntuacion = %#v, want raw string", rec["puntuacion"])
	}
	if _, ok := rec["platos"].(json.RawMessage); !ok {
		t.Errorf("platos = %T, want json.RawMessage", rec["platos"])
	}
	if rec["keyphrases"] != "not json" {
		t.Errorf("keyphrases = %#v", rec["keyphrases"])
	}
	if rec[ScoreField] != 2.25 {
		t.Errorf("score = %#v", rec[ScoreField])
	}

	facets, err := rs.Facets()
	if err != nil {
		t.Fatalf("facets: %v", err)
	}
	want := []usesearch.FacetBucket{{Value: "Ana", Count: 3}, {Value: nil, Count: 1}}
	got := facets["metadata_author"]
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("facets = %+v, want %+v", got, want)
	}
}

func TestBackend_RecordsSingleUse(t *testing.T) {
	ms := &mockStore{
		searchTextFn: func(_ context.Context, _ *db.TextQuery) (*db.SearchResult, error) {
			return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{{Key: "k"}}}, nil
		},
	}
	rs, err := New(ms, "menus", 0, 0).Search(context.Background(), mustSpec(t, request.Params{Query: "x"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for range rs.Records() {
	}
	var second error
	for _, err := range rs.Records() {
		second = err
	}
	if second == nil {
		t.Error("second iteration must yield an error")
	}
}

func TestBackend_FacetErrorIsDeferred(t *testing.T) {
	ms := &mockStore{
		aggregateFn: func(_ context.Context, _ *db.FacetQuery) ([]db.FacetBucket, error) {
			return nil, errors.New("aggregate not allowed")
		},
	}
	rs, err := New(ms, "menus", 0, 0).Search(context.Background(), mustSpec(t, request.Params{Query: "x"}))
	if err != nil {
		t.Fatalf("facet failure must not fail the search: %v", err)
	}
	if _, err := rs.Facets(); err == nil {
		t.Error("expected facet error on the result set")
	}
}

func TestBackend_SearchError(t *testing.T) {
	ms := &mockStore{
		searchTextFn: func(_ context.Context, _ *db.TextQuery) (*db.SearchResult, error) {
			return nil, db.ErrIndexNotFound
		},
	}
	_, err := New(ms, "menus", 0, 0).Search(context.Background(), mustSpec(t, request.Params{Query: "x"}))
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestBackend_Ping(t *testing.T) {
	ms := &mockStore{pingErr: errors.New("down")}
	if err := New(ms, "menus", 0, 0).Ping(context.Background()); err == nil {
		t.Error("expected ping error")
	}
}

func TestBackend_NormalizesEndToEnd(t *testing.T) {
	ms := &mockStore{
		searchTextFn: func(_ context.Context, _ *db.TextQuery) (*db.SearchResult, error) {
			return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{{
				Score:  1,
				Fields: map[string]string{"platos": `[{"nombre":"ramen","puntuacion":8.5}]`},
			}}}, nil
		},
	}
	rs, err := New(ms, "menus", 0, 0).Search(context.Background(), mustSpec(t, request.Params{Query: "ramen"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := usesearch.Normalize(context.Background(), rs, "ramen")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"count":1,"results":[{"@search.score":1,"platos":[{"nombre":"ramen","puntuacion":8.5}]}],` +
		`"facets":{"metadata_author":[]},"search_terms":"ramen"}`
	if string(data) != want {
		t.Errorf("json = %s\nwant   %s", data, want)
	}
}
