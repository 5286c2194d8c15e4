package extraction

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/menusearch/internal/domain"
	"github.com/kailas-cloud/menusearch/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// InstrumentedExtractor wraps an extractor with budget enforcement and logging.
// Request and token metrics are recorded by the transport.
type InstrumentedExtractor struct {
	inner    domain.EntityExtractor
	provider string
	model    string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedExtractor wraps an extractor. budget may be nil.
func NewInstrumentedExtractor(
	inner domain.EntityExtractor, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedExtractor {
	return &InstrumentedExtractor{
		inner:    inner,
		provider: provider,
		model:    model,
		budget:   budget,
		logger:   logger,
	}
}

// Extract checks the budget, delegates and records usage.
func (p *InstrumentedExtractor) Extract(ctx context.Context, text string) (domain.ExtractionResult, error) {
	if p.budget != nil {
		if err := p.budget.Check(ctx); err != nil {
			p.logger.Error("Budget exceeded",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Error(err),
			)
			return domain.ExtractionResult{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	result, err := p.inner.Extract(ctx, text)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Entity extraction failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.ExtractionResult{}, fmt.Errorf("extract: %w", err)
	}

	if p.budget != nil && result.TotalTokens > 0 {
		p.budget.Record(int64(result.TotalTokens))
		gauge := metrics.ExtractionBudgetTokensRemaining
		gauge.WithLabelValues(p.provider, "daily").Set(float64(p.budget.RemainingDaily()))
		gauge.WithLabelValues(p.provider, "monthly").Set(float64(p.budget.RemainingMonthly()))
	}

	p.logger.Debug("Entity extraction completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dishes", len(result.Entities.Dishes)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}
