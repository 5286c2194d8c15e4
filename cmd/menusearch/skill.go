package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/menusearch/internal/config"
	dbRedis "github.com/kailas-cloud/menusearch/internal/db/redis"
	"github.com/kailas-cloud/menusearch/internal/domain"
	"github.com/kailas-cloud/menusearch/internal/metrics"
	budgetrepo "github.com/kailas-cloud/menusearch/internal/repository/budget"
	"github.com/kailas-cloud/menusearch/internal/repository/entitycache"
	chiTransport "github.com/kailas-cloud/menusearch/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/menusearch/internal/transport/openai"
	extractionuc "github.com/kailas-cloud/menusearch/internal/usecase/extraction"
	healthuc "github.com/kailas-cloud/menusearch/internal/usecase/health"
	usageuc "github.com/kailas-cloud/menusearch/internal/usecase/usage"
)

func skillCommand() *cli.Command {
	return &cli.Command{
		Name:   "skill",
		Usage:  "Run the menu entity extraction skill API",
		Action: runSkill,
	}
}

func runSkill(ctx context.Context, _ *cli.Command) error {
	cfg, logger, err := bootstrap("skill")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.RequireSkill(); err != nil {
		return fmt.Errorf("invalid skill config: %w", err)
	}

	metrics.RegisterExtractionMetrics()

	base := openaiTransport.NewExtractor(&openaiTransport.Config{
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		Provider: cfg.LLM.Provider,
		Logger:   logger,
	})
	components := []healthuc.Component{healthuc.ProviderComponent("llm", base)}

	var store *dbRedis.Store
	if cfg.Redis.Enabled() {
		store, err = openRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		components = append(components, healthuc.PingComponent("cache", store))
	}

	extractor, tracker := buildExtractor(ctx, cfg, base, store, logger)
	logger.Info("Extractor created",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", base.Model()),
		zap.Int("concurrency", cfg.Extraction.Concurrency),
		zap.Bool("cache", store != nil && cfg.Extraction.CacheTTLSec > 0),
	)

	var budgetReader usageuc.BudgetReader
	if tracker != nil {
		budgetReader = tracker
	}

	svc := extractionuc.New(extractor, cfg.Extraction.Concurrency)
	usageSvc := usageuc.New(budgetReader, cfg.LLM.Provider)
	skill := chiTransport.NewSkillServer(svc, usageSvc, healthuc.New(components...), 0)

	r := newRouter(logger)
	r.Use(chiTransport.FunctionKeyMiddleware(cfg.Auth.FunctionKeys))
	skill.Routes(r)

	return serveHTTP(ctx, cfg.HTTP, r, logger)
}

// buildExtractor assembles the decorator chain: OpenAI -> Cached -> Instrumented.
// The tracker is nil when no token limit is configured.
func buildExtractor(
	ctx context.Context,
	cfg config.Config,
	base *openaiTransport.Extractor,
	store *dbRedis.Store,
	logger *zap.Logger,
) (domain.EntityExtractor, *extractionuc.BudgetTracker) {
	var extractor domain.EntityExtractor = base
	if store != nil && cfg.Extraction.CacheTTLSec > 0 {
		extractor = entitycache.New(
			base, store, base.Model(),
			time.Duration(cfg.Extraction.CacheTTLSec)*time.Second,
			metrics.ExtractionCacheTotal, logger,
		)
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var (
		budget  extractionuc.BudgetChecker
		tracker *extractionuc.BudgetTracker
	)
	budgetCfg := cfg.Extraction.Budget
	if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
		action := extractionuc.BudgetActionWarn
		if budgetCfg.Action == "reject" {
			action = extractionuc.BudgetActionReject
		}
		tracker = extractionuc.NewBudgetTracker(
			cfg.LLM.Provider, budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
		)
		if store != nil {
			tracker.WithStore(ctx, budgetrepo.New(store, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
		}
		budget = tracker
	}

	return extractionuc.NewInstrumentedExtractor(extractor, cfg.LLM.Provider, base.Model(), budget, logger), tracker
}
