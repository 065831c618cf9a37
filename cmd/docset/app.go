package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docset/internal/config"
	dbRedis "github.com/kailas-cloud/docset/internal/db/redis"
	"github.com/kailas-cloud/docset/internal/domain/record"
	"github.com/kailas-cloud/docset/internal/engine/bleveidx"
	"github.com/kailas-cloud/docset/internal/engine/meili"
	"github.com/kailas-cloud/docset/internal/metrics"
	"github.com/kailas-cloud/docset/internal/queryset"
	recordrepo "github.com/kailas-cloud/docset/internal/repository/record"
	"github.com/kailas-cloud/docset/internal/repository/recordcache"
	"github.com/kailas-cloud/docset/internal/repository/recordsql"
	searchrepo "github.com/kailas-cloud/docset/internal/repository/search"
	healthuc "github.com/kailas-cloud/docset/internal/usecase/health"
	searchuc "github.com/kailas-cloud/docset/internal/usecase/search"
)

// app is the composition root shared by serve and search.
type app struct {
	search *searchuc.Service
	health *healthuc.Service

	// set when the matching backend or driver is configured
	bleve   *bleveidx.Engine
	sqlite  *recordsql.Repo
	redis   *dbRedis.Store
	closers []func() error
}

// newApp connects the configured backend and record layer.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (_ *app, err error) {
	a := &app{health: healthuc.New()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	kinds := make([]record.Kind, 0, len(cfg.Kinds))
	for _, k := range cfg.Kinds {
		kinds = append(kinds, k.Kind())
	}

	// Register query metrics explicitly (no init())
	metrics.RegisterQueryMetrics()

	searcher, err := a.searcher(ctx, cfg, kinds, logger)
	if err != nil {
		return nil, err
	}
	records, err := a.records(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a.search = searchuc.New(kinds, searcher, records,
		queryset.WithTimeout(cfg.Search.Timeout()),
		queryset.WithObserver(metrics.QueryObserver{}),
	).WithMaxLimit(cfg.HTTP.MaxPageSize)

	return a, nil
}

func (a *app) searcher(
	ctx context.Context, cfg config.Config, kinds []record.Kind, logger *zap.Logger,
) (searchuc.Searcher, error) {
	switch cfg.Search.Backend {
	case config.BackendRedis:
		store, err := a.redisStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		a.health.With("search", store)
		return searchrepo.New(store, cfg.Search.DefaultPageSize), nil

	case config.BackendBleve:
		eng := bleveidx.New(cfg.Search.BlevePath, cfg.Search.DefaultPageSize)
		a.closers = append(a.closers, eng.Close)
		for _, k := range kinds {
			if err := eng.Open(k); err != nil {
				return nil, fmt.Errorf("open bleve index %s: %w", k.Index, err)
			}
		}
		logger.Info("Opened bleve indexes", zap.String("path", cfg.Search.BlevePath), zap.Int("kinds", len(kinds)))
		a.bleve = eng
		a.health.With("search", eng)
		return eng, nil

	case config.BackendMeilisearch:
		eng, err := meili.New(meili.Config{
			Host:       cfg.Search.MeiliHost,
			APIKey:     cfg.Search.MeiliAPIKey,
			PrimaryKey: cfg.Search.MeiliPrimaryKey,
			PageSize:   cfg.Search.DefaultPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("create meilisearch client: %w", err)
		}
		a.closers = append(a.closers, func() error { eng.Close(); return nil })
		logger.Info("Using meilisearch", zap.String("host", cfg.Search.MeiliHost))
		a.health.With("search", eng)
		return eng, nil
	}
	return nil, fmt.Errorf("unknown search backend %q", cfg.Search.Backend)
}

func (a *app) records(ctx context.Context, cfg config.Config, logger *zap.Logger) (searchuc.Records, error) {
	var inner searchuc.Records
	switch cfg.Records.Driver {
	case config.RecordsRedis:
		store, err := a.redisStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Search.Backend != config.BackendRedis {
			a.health.With("records", store)
		}
		inner = recordrepo.New(store)

	case config.RecordsSQLite:
		repo, err := recordsql.Open(cfg.Records.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite records: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		a.sqlite = repo
		a.health.With("records", repo)
		inner = repo

	default:
		return nil, fmt.Errorf("unknown records driver %q", cfg.Records.Driver)
	}

	if cfg.Records.CacheSize <= 0 {
		return inner, nil
	}
	cached, err := recordcache.New[record.Document](inner, cfg.Records.CacheSize, metrics.RecordCacheTotal, logger)
	if err != nil {
		return nil, fmt.Errorf("create record cache: %w", err)
	}
	return cached, nil
}

// redisStore connects once; the search backend and the record layer share it.
func (a *app) redisStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*dbRedis.Store, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Search.Addrs,
		Password: cfg.Search.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis store: %w", err)
	}
	a.closers = append(a.closers, func() error { store.Close(); return nil })

	if err := store.WaitForReady(ctx, time.Duration(cfg.Search.ReadinessTimeout)*time.Second); err != nil {
		return nil, fmt.Errorf("redis not ready: %w", err)
	}
	logger.Info("Connected to redis", zap.Strings("addrs", cfg.Search.Addrs))
	a.redis = store
	return store, nil
}

// Close releases every connection in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
