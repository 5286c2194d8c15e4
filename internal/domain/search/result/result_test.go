package result

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

type dish struct {
	name  string
	score float64
}

func (d dish) Fields() map[string]any {
	return map[string]any{"nombre": d.name, "puntuacion": d.score}
}

type opaque struct{ ch chan int }

type dishPtr struct{ name string }

func (d *dishPtr) Fields() map[string]any { return map[string]any{"nombre": d.name} }

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func TestValueOf_Primitives(t *testing.T) {
	tests := []struct {
		name string
		in   any
		kind Kind
		want string
	}{
		{"nil", nil, KindNull, `null`},
		{"bool", true, KindBool, `true`},
		{"string", "sushi", KindString, `"sushi"`},
		{"int", 42, KindNumber, `42`},
		{"int64", int64(-7), KindNumber, `-7`},
		{"int8", int8(-3), KindNumber, `-3`},
		{"int16", int16(300), KindNumber, `300`},
		{"uint", uint(9), KindNumber, `9`},
		{"uint8", uint8(5), KindNumber, `5`},
		{"uint16", uint16(65535), KindNumber, `65535`},
		{"float", 4.5, KindNumber, `4.5`},
		{"json number", json.Number("12.50"), KindNumber, `12.50`},
		{"time", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), KindString, `"2024-03-01T10:00:00Z"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := ValueOf(tc.in)
			if v.Kind() != tc.kind {
				t.Errorf("Kind() = %d, want %d", v.Kind(), tc.kind)
			}
			if got := mustJSON(t, v); got != tc.want {
				t.Errorf("json = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestValueOf_Nested(t *testing.T) {
	in := map[string]any{
		"platos": []any{
			map[string]any{"nombre": "paella", "puntuacion": json.Number("9")},
		},
		"tags": []string{"a", "b"},
	}
	v := ValueOf(in)
	if v.Kind() != KindMapping {
		t.Fatalf("Kind() = %d, want mapping", v.Kind())
	}
	want := `{"platos":[{"nombre":"paella","puntuacion":9}],"tags":["a","b"]}`
	if got := mustJSON(t, v); got != want {
		t.Errorf("json = %s, want %s", got, want)
	}
}

func TestValueOf_MapperBecomesMapping(t *testing.T) {
	v := ValueOf(dish{name: "ramen", score: 8.5})
	if v.Kind() != KindMapping {
		t.Fatalf("Kind() = %d, want mapping", v.Kind())
	}
	if got := v.AsMapping()["nombre"].AsString(); got != "ramen" {
		t.Errorf("nombre = %q", got)
	}
}

func TestValueOf_NilPointerMapper(t *testing.T) {
	var d *dishPtr
	v := ValueOf(d)
	if v.Kind() != KindUnsupported {
		t.Fatalf("Kind() = %d, want unsupported", v.Kind())
	}
	if _, err := json.Marshal(v); err != nil {
		t.Fatalf("marshal: %v", err)
	}
}

func TestValueOf_Unsupported(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"channel struct", opaque{ch: make(chan int)}},
		{"func", func() {}},
		{"error", errors.New("boom")},
		{"nan", math.NaN()},
		{"inf", math.Inf(-1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := ValueOf(tc.in)
			if v.Kind() != KindUnsupported {
				t.Fatalf("Kind() = %d, want unsupported", v.Kind())
			}
			data, err := json.Marshal(v)
			if err != nil {
				t.Fatalf("marshal unsupported value: %v", err)
			}
			var s string
			if err := json.Unmarshal(data, &s); err != nil {
				t.Fatalf("unsupported value should marshal as string, got %s", data)
			}
		})
	}
}

func TestValueOf_RawMessage(t *testing.T) {
	v := ValueOf(json.RawMessage(`{"a":[1,2.5,null]}`))
	if got := mustJSON(t, v); got != `{"a":[1,2.5,null]}` {
		t.Errorf("json = %s", got)
	}

	bad := ValueOf(json.RawMessage(`{not json`))
	if bad.Kind() != KindUnsupported || bad.AsString() != "{not json" {
		t.Errorf("expected stringified raw message, got kind %d %q", bad.Kind(), bad.AsString())
	}
}

func TestValueOf_DepthLimit(t *testing.T) {
	var nested any = "leaf"
	for range maxDepth + 5 {
		nested = []any{nested}
	}
	v := ValueOf(nested)
	if _, err := json.Marshal(v); err != nil {
		t.Fatalf("deep value must still marshal: %v", err)
	}
}

func TestNewResponse_EmptyCollections(t *testing.T) {
	resp := NewResponse("tapas")
	got := mustJSON(t, resp)
	want := `{"count":0,"results":[],"facets":{},"search_terms":"tapas"}`
	if got != want {
		t.Errorf("json = %s, want %s", got, want)
	}
}

func TestResponse_FacetsJSON(t *testing.T) {
	resp := NewResponse("pizza")
	resp.Count = 3
	resp.Facets["metadata_author"] = []FacetValue{{Value: String("Ana"), Count: 2}, {Value: Null(), Count: 1}}
	resp.Results = append(resp.Results, Record{"precio": Number(12)})

	want := `{"count":3,"results":[{"precio":12}],` +
		`"facets":{"metadata_author":[{"value":"Ana","count":2},{"value":null,"count":1}]},` +
		`"search_terms":"pizza"}`
	if got := mustJSON(t, resp); got != want {
		t.Errorf("json = %s, want %s", got, want)
	}
}

func TestIsNumberLiteral(t *testing.T) {
	tests := map[string]bool{
		"12":     true,
		"-4.5":   true,
		"1e3":    true,
		"":       false,
		"NaN":    false,
		"Inf":    false,
		"0x10":   false,
		" 12":    false,
		"12abc":  false,
		"\"12\"": false,
	}
	for in, want := range tests {
		if got := IsNumberLiteral(in); got != want {
			t.Errorf("IsNumberLiteral(%q) = %v, want %v", in, got, want)
		}
	}
	if ValueOf(json.Number("NaN")).Kind() != KindUnsupported {
		t.Error("NaN literal must not be emitted as a number")
	}
}
