package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/menusearch/internal/domain"
	"github.com/kailas-cloud/menusearch/internal/domain/search/query"
	"github.com/kailas-cloud/menusearch/internal/domain/search/request"
	"github.com/kailas-cloud/menusearch/internal/domain/search/result"
	"github.com/kailas-cloud/menusearch/internal/logger"
	"github.com/kailas-cloud/menusearch/internal/metrics"
)

// DefaultTimeout bounds one backend call when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// RetryPolicy controls re-issuing a failed backend call.
// MaxAttempts <= 1 disables retries.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Options tunes the outbound call.
type Options struct {
	Timeout time.Duration
	Retry   RetryPolicy
}

// Service builds queries, calls the backend and normalizes results.
type Service struct {
	backend Backend
	opts    Options
}

// New creates a search service around a shared backend.
func New(backend Backend, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry.MaxAttempts = 1
	}
	return &Service{backend: backend, opts: opts}
}

// Search runs a validated request.
//
// Errors: domain.ErrInvalidQuery when the query cannot be built,
// domain.ErrBackendFailure when the backend call fails or times out,
// *ProcessingError (domain.ErrResultProcessing) when reading records fails.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Response, error) {
	log := logger.FromContext(ctx)

	spec, err := query.Build(req)
	if err != nil {
		return result.Response{}, err
	}
	if req.SortFellBack() {
		log.Debug("unrecognized sort key, using relevance", zap.String("resolved", string(spec.SortKey())))
	}

	driver := s.backend.Name()
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	rs, attempts, err := s.call(callCtx, spec)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(driver, "error").Inc()
		log.Error("search backend failed",
			zap.String("driver", driver),
			zap.Int("attempts", attempts),
			zap.String("filter", spec.FilterExpression()),
			zap.Error(err),
		)
		return result.Response{}, fmt.Errorf("%w: %w", domain.ErrBackendFailure, err)
	}

	resp, err := Normalize(callCtx, rs, req.Query())
	metrics.SearchRequestDuration.WithLabelValues(driver).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(driver, "processing_error").Inc()
		log.Error("search result processing failed", zap.String("driver", driver), zap.Error(err))
		return result.Response{}, err
	}

	metrics.SearchRequestsTotal.WithLabelValues(driver, "ok").Inc()
	metrics.SearchResultsReturned.Observe(float64(len(resp.Results)))
	log.Debug("search completed",
		zap.String("driver", driver),
		zap.Int64("count", resp.Count),
		zap.Bool("count_exact", resp.CountExact),
		zap.Int("returned", len(resp.Results)),
	)
	return resp, nil
}

// call invokes the backend, retrying per policy while the deadline allows.
func (s *Service) call(ctx context.Context, spec query.Spec) (ResultSet, int, error) {
	var lastErr error
	for attempt := 1; attempt <= s.opts.Retry.MaxAttempts; attempt++ {
		rs, err := s.backend.Search(ctx, spec)
		if err == nil {
			return rs, attempt, nil
		}
		lastErr = err

		if attempt == s.opts.Retry.MaxAttempts || ctx.Err() != nil {
			return nil, attempt, lastErr
		}

		logger.FromContext(ctx).Warn("search backend call failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", s.opts.Retry.Backoff),
			zap.Error(err),
		)

		timer := time.NewTimer(s.opts.Retry.Backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, attempt, errors.Join(lastErr, ctx.Err())
		case <-timer.C:
		}
	}
	return nil, s.opts.Retry.MaxAttempts, lastErr
}
