package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/menusearch/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	br       BudgetReader
	provider string
	now      func() time.Time
}

// New creates a Service. br can be nil (unlimited mode, usage not tracked).
func New(br BudgetReader, provider string) *Service {
	return &Service{br: br, provider: provider, now: time.Now}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	start, end := period.Bounds(s.now())

	r := domusage.Report{
		Period:      period,
		PeriodStart: start,
		PeriodEnd:   end,
		Provider:    s.provider,
		Budget:      domusage.Budget{TokensRemaining: -1, ResetsAt: end},
	}
	if s.br == nil {
		return r
	}

	switch period {
	case domusage.PeriodMonth:
		r.TokensUsed = s.br.MonthlyUsed()
		r.Budget.TokensLimit = s.br.MonthlyLimit()
		r.Budget.TokensRemaining = s.br.RemainingMonthly()
	default:
		r.TokensUsed = s.br.DailyUsed()
		r.Budget.TokensLimit = s.br.DailyLimit()
		r.Budget.TokensRemaining = s.br.RemainingDaily()
	}
	return r
}
