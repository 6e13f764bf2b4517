package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/Jegankumard/OptGiftAI/catalog"
	"github.com/Jegankumard/OptGiftAI/config"
	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/engine"
	"github.com/Jegankumard/OptGiftAI/feedback"
	"github.com/Jegankumard/OptGiftAI/filter"
	"github.com/Jegankumard/OptGiftAI/pipeline"
	"github.com/Jegankumard/OptGiftAI/pkg/logging"
	"github.com/Jegankumard/OptGiftAI/relevance"
	"github.com/Jegankumard/OptGiftAI/service"
	"github.com/Jegankumard/OptGiftAI/store"
)

// app 持有一次命令执行所需的全部依赖。
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	catalog *catalog.Catalog

	kv           core.Store
	interactions *store.InteractionLog
	weights      *store.WeightStore
	carts        *store.CartStore
	prefs        *store.PreferenceStore

	embedClient *service.EmbeddingClient
}

func loadApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Logging.Output == nil {
		cfg.Logging.Output = os.Stderr
	}
	logging.Init(cfg.Logging)
	return newApp(ctx, cfg)
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, logger: logging.WithComponent("cli")}

	cat, err := catalog.LoadFile(cfg.Catalog.Path, catalog.Format(cfg.Catalog.Format))
	if err != nil {
		return nil, err
	}
	a.catalog = cat

	kv, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	a.kv = kv
	a.interactions = store.NewInteractionLog(kv)
	a.weights = store.NewWeightStore(kv)
	a.carts = store.NewCartStore(kv)
	a.prefs = store.NewPreferenceStore(kv)
	return a, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (core.Store, error) {
	switch cfg.Backend {
	case "redis":
		return store.NewRedisStore(ctx, store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case "badger":
		return store.NewBadgerStore(store.BadgerOptions{Path: cfg.BadgerPath})
	case "memory", "":
		return store.NewMemoryStore(), nil
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported,
			fmt.Sprintf("unknown store backend %q", cfg.Backend))
	}
}

func (a *app) Close() {
	if a.embedClient != nil {
		a.embedClient.Close()
	}
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("close store")
		}
	}
}

// recommender 按配置装配推荐引擎。
func (a *app) recommender(ctx context.Context) (*engine.Recommender, error) {
	ec := a.cfg.Engine
	opts := []engine.Option{
		engine.WithLogger(logging.WithComponent("engine")),
		engine.WithSeed(ec.Seed),
		engine.WithCollaborativePolicy(ec.CollaborativePolicy),
		engine.WithFactorization(ec.ActionWeights, ec.MinInteractions, ec.MaxRank),
		engine.WithFusionPolicy(ec.FusionPolicy),
		engine.WithSemanticCandidates(ec.SemanticCandidates),
		engine.WithTopK(ec.TopK),
		engine.WithStrategyTimeout(ec.StrategyTimeout),
		engine.WithQualityModelPath(ec.ModelPath),
		engine.WithInteractionLoader(a.interactions.All),
		engine.WithExcludeStore(filter.NewStoreAdapter(a.kv), store.DefaultCartPrefix),
	}

	if ec.RelevanceMode == string(relevance.ModeSemantic) {
		emb, err := a.embedder()
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithSemanticRelevance(emb, a.cfg.Embedding.Timeout))
	} else {
		opts = append(opts, engine.WithLexicalRelevance(ec.Lemmatizer, ec.MaxFeatures))
	}

	if ec.PipelineFile != "" {
		pc, err := pipeline.Load(ec.PipelineFile)
		if err != nil {
			return nil, fmt.Errorf("load hybrid pipeline: %w", err)
		}
		opts = append(opts, engine.WithPipelineConfig(pc))
	}
	return engine.New(ctx, a.catalog, opts...)
}

func (a *app) embedder() (relevance.Embedder, error) {
	ecfg := a.cfg.Embedding
	if ecfg.Provider != "http" {
		return relevance.NewHashingEmbedder(ecfg.Dimension), nil
	}
	opts := []service.EmbeddingOption{
		service.WithEmbeddingTimeout(ecfg.Timeout),
		service.WithCacheSize(ecfg.CacheSize),
		service.WithBreakerFailures(ecfg.BreakerFailures),
		service.WithEmbeddingLogger(logging.WithComponent("embedding")),
	}
	if ecfg.APIKey != "" {
		opts = append(opts, service.WithEmbeddingAuth(&service.AuthConfig{Type: "bearer", Token: ecfg.APIKey}))
	}
	client, err := service.NewEmbeddingClient(ecfg.Endpoint, ecfg.Model, ecfg.Dimension, opts...)
	if err != nil {
		return nil, err
	}
	a.embedClient = client
	return client, nil
}

func (a *app) feedback() *feedback.Service {
	return feedback.NewService(a.catalog, a.weights, a.interactions,
		feedback.WithLogger(logging.WithComponent("feedback")))
}
