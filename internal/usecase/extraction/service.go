// Package extraction runs the entity skill: a batch of indexer records in,
// structured menu entities per record out.
package extraction

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/menusearch/internal/domain"
	"github.com/kailas-cloud/menusearch/internal/domain/menu"
	"github.com/kailas-cloud/menusearch/internal/logger"
	"github.com/kailas-cloud/menusearch/internal/metrics"
)

// DefaultConcurrency bounds parallel extractor calls per batch.
const DefaultConcurrency = 4

// Record is one input item of a skill batch.
type Record struct {
	RecordID string
	Text     string
}

// Output is the enriched result for one record.
type Output struct {
	RecordID string
	Entities menu.Entities
	Warnings []string
}

// Service extracts entities for skill batches.
type Service struct {
	extractor   domain.EntityExtractor
	concurrency int
}

// New creates a skill service.
func New(extractor domain.EntityExtractor, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Service{extractor: extractor, concurrency: concurrency}
}

// Process enriches every record that carries an id, preserving input order.
// Extraction failures never fail the batch: the record gets default entities and a warning.
func (s *Service) Process(ctx context.Context, records []Record) []Output {
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if r.RecordID == "" {
			metrics.SkillRecordsTotal.WithLabelValues("skipped").Inc()
			continue
		}
		kept = append(kept, r)
	}

	out := make([]Output, len(kept))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, r := range kept {
		g.Go(func() error {
			out[i] = s.processOne(gctx, r)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (s *Service) processOne(ctx context.Context, r Record) Output {
	if strings.TrimSpace(r.Text) == "" {
		metrics.SkillRecordsTotal.WithLabelValues("empty").Inc()
		return Output{RecordID: r.RecordID, Entities: menu.DefaultEntities()}
	}

	res, err := s.extractor.Extract(ctx, r.Text)
	if err != nil {
		metrics.SkillRecordsTotal.WithLabelValues("fallback").Inc()
		logger.FromContext(ctx).Error("entity extraction failed, using defaults",
			zap.String("record_id", r.RecordID),
			zap.Error(err),
		)
		return Output{
			RecordID: r.RecordID,
			Entities: menu.DefaultEntities(),
			Warnings: []string{warningFor(err)},
		}
	}

	metrics.SkillRecordsTotal.WithLabelValues("extracted").Inc()
	return Output{RecordID: r.RecordID, Entities: res.Entities.Normalize()}
}

func warningFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrExtractionQuotaExceeded):
		return "entity extraction skipped: token budget exceeded"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "entity extraction timed out"
	default:
		return "entity extraction failed: " + err.Error()
	}
}
