// Package usage describes token consumption reports for the extraction provider.
package usage

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/menusearch/internal/domain"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod resolves a client value. Blank means PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("%w: %q (want day or month)", domain.ErrInvalidUsagePeriod, s)
	}
}

// Bounds returns the UTC [start, end) window of the period containing now.
func (p Period) Bounds(now time.Time) (start, end time.Time) {
	now = now.UTC()
	if p == PeriodMonth {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Budget is a token budget snapshot. TokensLimit 0 means unlimited.
type Budget struct {
	TokensLimit     int64
	TokensRemaining int64
	ResetsAt        time.Time
}

// IsExhausted reports whether a limited budget is spent.
func (b Budget) IsExhausted() bool {
	return b.TokensLimit > 0 && b.TokensRemaining <= 0
}

// Report is the extraction token usage for one period.
type Report struct {
	Period      Period
	PeriodStart time.Time
	PeriodEnd   time.Time
	Provider    string
	TokensUsed  int64
	Budget      Budget
}
