package db

import (
	"strings"
	"testing"
)

func mustBuild(t *testing.T, b *IndexBuilder) *IndexDefinition {
	t.Helper()
	idx, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return idx
}

func TestIndexBuilder_Simple(t *testing.T) {
	idx := mustBuild(t, NewIndex("menus-idx").
		Prefix("menu:").
		Tag("tipologia").
		Numeric("precio"))

	if err := idx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Name != "menus-idx" {
		t.Errorf("name = %q, want menus-idx", idx.Name)
	}
	if idx.StorageType != StorageHash {
		t.Errorf("storage = %q, want HASH", idx.StorageType)
	}
	if len(idx.Fields) != 2 {
		t.Fatalf("fields count = %d, want 2", len(idx.Fields))
	}
	if idx.Fields[0].Name != "tipologia" || idx.Fields[0].Type != IndexFieldTag {
		t.Errorf("field[0] = %+v, want tipologia TAG", idx.Fields[0])
	}
	if idx.Fields[1].Name != "precio" || idx.Fields[1].Type != IndexFieldNumeric {
		t.Errorf("field[1] = %+v, want precio NUMERIC", idx.Fields[1])
	}
}

func TestIndexBuilder_Sortable(t *testing.T) {
	idx := mustBuild(t, NewIndex("idx").
		Text("merged_content").
		Numeric("sentiment").Sortable().
		Tag("metadata_storage_name").Sortable())

	if idx.Fields[0].Sortable {
		t.Error("merged_content should not be sortable")
	}
	if !idx.Fields[1].Sortable || !idx.Fields[2].Sortable {
		t.Errorf("expected sortable fields, got %+v", idx.Fields)
	}
}

func TestIndexBuilder_SortableWithoutFields(t *testing.T) {
	_, err := NewIndex("idx").Sortable().Build()
	if err == nil {
		t.Fatal("expected error for index without fields")
	}
}

func TestIndexBuilder_TextNoStem(t *testing.T) {
	idx := mustBuild(t, NewIndex("text-idx").
		Prefix("m:").
		TextNoStem("ubicacion").
		Text("platos"))

	if !idx.Fields[0].TextNoStem || idx.Fields[0].Type != IndexFieldText {
		t.Errorf("field[0] = %+v, want TEXT NOSTEM", idx.Fields[0])
	}
	if idx.Fields[1].TextNoStem {
		t.Error("platos must keep stemming")
	}
}

func TestIndexBuilder_TagOptions(t *testing.T) {
	idx := mustBuild(t, NewIndex("tag-idx").
		Prefix("t:").
		TagWithOpts("tags", "|", true))

	f := idx.Fields[0]
	if f.TagSeparator != "|" {
		t.Errorf("separator = %q, want |", f.TagSeparator)
	}
	if !f.TagCaseSensitive {
		t.Error("expected TagCaseSensitive=true")
	}
}

func TestIndexBuilder_MultiplePrefixes(t *testing.T) {
	idx := mustBuild(t, NewIndex("multi-idx").
		Prefix("a:", "b:", "c:").
		Tag("x"))

	if len(idx.Prefixes) != 3 {
		t.Errorf("prefix count = %d, want 3", len(idx.Prefixes))
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() (*IndexDefinition, error)
		wantErr string
	}{
		{
			name: "empty name",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("").Tag("x").Build()
			},
			wantErr: "index name is required",
		},
		{
			name: "no fields",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Build()
			},
			wantErr: "at least one field",
		},
		{
			name: "negative weight",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").TextWeighted("t", -1).Build()
			},
			wantErr: "negative weight",
		},
		{
			name: "invalid characters",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx with spaces").Tag("x").Build()
			},
			wantErr: "invalid characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx := mustBuild(t, NewIndex("my-idx").
		Prefix("doc:").
		Language("spanish").
		TextWeighted("merged_content", 2).
		Numeric("puntuacion").Sortable())

	want := "FT.CREATE my-idx ON HASH PREFIX doc: LANGUAGE spanish SCHEMA " +
		"merged_content TEXT WEIGHT 2 puntuacion NUMERIC SORTABLE"
	if got := idx.String(); got != want {
		t.Errorf("String() = %q\nwant       %q", got, want)
	}
}

func TestIndexBuilder_Alias(t *testing.T) {
	idx := &IndexDefinition{
		Name:     "alias-idx",
		Prefixes: []string{"a:"},
		Fields: []IndexField{
			{Name: "$.field", Alias: "field", Type: IndexFieldTag},
		},
	}

	if err := idx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Fields[0].Alias != "field" {
		t.Errorf("alias = %q, want field", idx.Fields[0].Alias)
	}
}

func TestIndexBuilder_DuplicateFields(t *testing.T) {
	idx := &IndexDefinition{
		Name: "dup-idx",
		Fields: []IndexField{
			{Name: "field1", Type: IndexFieldTag},
			{Name: "field1", Type: IndexFieldNumeric},
		},
	}

	if err := idx.Validate(); err == nil {
		t.Fatal("expected error for duplicate fields")
	}
}
