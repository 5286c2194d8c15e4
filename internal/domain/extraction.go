package domain

import (
	"context"

	"github.com/kailas-cloud/menusearch/internal/domain/menu"
)

// KeyPrefix namespaces every key this service writes to Redis.
const KeyPrefix = "menusearch:"

// EntityExtractor turns raw menu text into structured entities.
type EntityExtractor interface {
	Extract(ctx context.Context, text string) (ExtractionResult, error)
}

// HealthChecker verifies an external provider is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ExtractionResult carries the entities and token usage through the decorator chain.
// A cache hit reports zero tokens.
type ExtractionResult struct {
	Entities         menu.Entities
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
