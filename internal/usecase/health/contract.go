package health

import "context"

// Pinger is satisfied by the search backend, blob store and Redis store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker is satisfied by the LLM extractor.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
