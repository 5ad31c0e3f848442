package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/amishk599/talentmesh/internal/ai"
	"github.com/amishk599/talentmesh/internal/cache"
	"github.com/amishk599/talentmesh/internal/config"
	"github.com/amishk599/talentmesh/internal/model"
	"github.com/amishk599/talentmesh/internal/objectstore"
	"github.com/amishk599/talentmesh/internal/profile"
	"github.com/amishk599/talentmesh/internal/ranker"
	"github.com/amishk599/talentmesh/internal/ratelimit"
	"github.com/amishk599/talentmesh/internal/retry"
	"github.com/amishk599/talentmesh/internal/scorer"
	"github.com/amishk599/talentmesh/internal/search"
	"github.com/amishk599/talentmesh/internal/store"
)

// app is the wired service graph shared by the commands.
type app struct {
	cfg       *config.Config
	store     *store.SQLStore
	cache     model.ProfileCache
	extractor model.KeywordExtractor
	scorer    *scorer.Scorer
	ranker    *ranker.Ranker
	indexer   *profile.Indexer
	loader    *profile.Loader
	search    *search.Orchestrator
	peers     *search.PeerMatcher
	history   *search.History
	logger    *slog.Logger
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	sc := scorer.New(scorer.WithWeights(scorer.Weights{
		Overlap:      cfg.Scoring.Overlap,
		Diversity:    cfg.Scoring.Diversity,
		Completeness: cfg.Scoring.Completeness,
		Location:     cfg.Scoring.Location,
		Premium:      cfg.Scoring.Premium,
	}))
	if err := sc.Weights().Validate(); err != nil {
		return nil, fmt.Errorf("scoring weights: %w", err)
	}

	extractor, err := setupExtractor(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, store.Dialect(cfg.Database.Driver), cfg.Database.DSN, store.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	var c model.ProfileCache = cache.Nop{}
	if !cfg.Cache.Disabled {
		c = cache.New(ctx, cache.Options{
			TTL:        cfg.Cache.TTL,
			MaxEntries: cfg.Cache.MaxEntries,
			RedisURL:   cfg.Cache.RedisURL,
		}, logger)
	}

	rk := ranker.New(sc)
	publicPool := profile.NewPublicPool(st)
	orch := search.NewOrchestrator(extractor, rk, profile.NewOrgPool(st), publicPool, st, search.Config{
		MinDescriptionLength: cfg.Search.MinDescriptionLength,
		DefaultLimit:         cfg.Search.DefaultLimit,
		PersistTimeout:       cfg.Search.PersistTimeout,
	}, logger)
	loader := profile.NewLoader(st, c)

	return &app{
		cfg:       cfg,
		store:     st,
		cache:     c,
		extractor: extractor,
		scorer:    sc,
		ranker:    rk,
		indexer: profile.NewIndexer(extractor, st, c, profile.Options{
			Concurrency: cfg.Reindex.Concurrency,
			StaleBatch:  cfg.Reindex.StaleBatch,
		}, logger),
		loader:  loader,
		search:  orch,
		peers:   search.NewPeerMatcher(loader, publicPool, rk, logger),
		history: search.NewHistory(st, orch),
		logger:  logger,
	}, nil
}

func (a *app) Close() {
	if tc, ok := a.cache.(*cache.TieredCache); ok {
		hits, misses := tc.Stats()
		a.logger.Debug("profile cache", "hits", hits, "misses", misses)
	}
	if cl, ok := a.cache.(io.Closer); ok {
		if err := cl.Close(); err != nil {
			a.logger.Warn("closing cache", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store", "error", err)
	}
}

// setupExtractor builds provider → LLM extractor → rate limit → retry.
func setupExtractor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (model.KeywordExtractor, error) {
	var provider ai.LLMProvider
	switch cfg.AI.Provider {
	case "openai":
		httpClient := &http.Client{Timeout: cfg.AI.Timeout}
		provider = ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, httpClient)
	case "gemini":
		p, err := ai.NewGeminiProvider(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			return nil, fmt.Errorf("creating gemini provider: %w", err)
		}
		provider = p
	default:
		logger.Warn("no AI provider configured, keyword extraction is disabled")
		return ai.NewNopExtractor(), nil
	}
	logger.Info("keyword extraction enabled", "provider", provider.Name(), "model", cfg.AI.Model)

	var extractor model.KeywordExtractor = ai.NewLLMKeywordExtractor(provider, cfg.AI.MaxKeywords, logger)

	limiter := ratelimit.NewProviderRateLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.ProviderOverrides)
	extractor = ratelimit.NewRateLimitedExtractor(extractor, limiter, provider.Name())

	return retry.NewRetryExtractor(extractor, retry.Policy{
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  cfg.Retry.BaseDelay,
		MaxDelay:   cfg.Retry.MaxDelay,
		Jitter:     cfg.Retry.Jitter,
	}, logger), nil
}

// setupObjectStore returns nil when storage is not configured.
func setupObjectStore(ctx context.Context, cfg *config.Config) (*objectstore.Client, error) {
	if cfg.Storage.Bucket == "" {
		return nil, nil
	}
	return objectstore.New(ctx, objectstore.Config{
		Bucket:    cfg.Storage.Bucket,
		AccountID: cfg.Storage.AccountID,
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		MaxBytes:  cfg.Storage.MaxBytes,
	})
}
