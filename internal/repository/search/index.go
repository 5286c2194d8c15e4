package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/menusearch/internal/db"
)

// DefaultPrefix is the key prefix of indexed menu hashes.
const DefaultPrefix = "menusearch:menu:"

// indexManager is the consumer interface for index lifecycle (ISP).
type indexManager interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// MenuIndex describes the FT index over menu hashes.
// Fields mirror the searchable, filterable and sortable fields of the search response.
func MenuIndex(name string, prefixes ...string) (*db.IndexDefinition, error) {
	if len(prefixes) == 0 {
		prefixes = []string{DefaultPrefix}
	}
	def, err := db.NewIndex(name).
		OnHash().
		Prefix(prefixes...).
		Language("spanish").
		TextWeighted("merged_content", 1).
		TextWeighted("imageCaption", 0.5).
		Text("keyphrases").
		Text("platos").
		TextNoStem("ubicacion").
		TextNoStem("locations").
		Tag("metadata_storage_name").Sortable().
		TagWithOpts("metadata_author", ",", true).Sortable().
		Tag("metadata_storage_last_modified").Sortable().
		Numeric("metadata_storage_size").Sortable().
		Numeric("sentiment").Sortable().
		Tag("language").
		TagWithOpts("tipologia", ",", true).
		Tag("tipo_menu").
		Numeric("precio").Sortable().
		Numeric("puntuacion").Sortable().
		Build()
	if err != nil {
		return nil, fmt.Errorf("build menu index: %w", err)
	}
	return def, nil
}

// EnsureIndex creates the index unless it already exists. It reports whether it created one.
func EnsureIndex(ctx context.Context, m indexManager, def *db.IndexDefinition) (bool, error) {
	exists, err := m.IndexExists(ctx, def.Name)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", def.Name, err)
	}
	if exists {
		return false, nil
	}
	if err := m.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", def.Name, err)
	}
	return true, nil
}
