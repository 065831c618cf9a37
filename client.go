// Package docset is a library facade over lazy, cacheable document search.
//
//	c, err := docset.New(
//		docset.WithRedis("localhost:6379"),
//		docset.WithKinds(people),
//	)
//	qs, err := c.Query("person")
//	smiths := qs.Filter("last_name", "smith").OrderBy("-username")
//	docs, err := smiths.List(ctx)
package docset

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/docset/internal/db/redis"
	"github.com/kailas-cloud/docset/internal/engine/bleveidx"
	"github.com/kailas-cloud/docset/internal/engine/meili"
	"github.com/kailas-cloud/docset/internal/queryset"
	recordrepo "github.com/kailas-cloud/docset/internal/repository/record"
	"github.com/kailas-cloud/docset/internal/repository/recordcache"
	"github.com/kailas-cloud/docset/internal/repository/recordsql"
	searchrepo "github.com/kailas-cloud/docset/internal/repository/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the docset SDK entry point.
type Client struct {
	kinds    map[string]Kind
	searcher Searcher
	resolver Resolver
	opts     []queryset.Option
	pingers  []func(context.Context) error
	closers  []func() error
}

// New creates a Client and connects the configured backend and record layer.
func New(opts ...Option) (_ *Client, err error) {
	cfg := &clientConfig{logger: zap.NewNop()}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	c := &Client{kinds: make(map[string]Kind, len(cfg.kinds))}
	for _, k := range cfg.kinds {
		if err := k.Validate(); err != nil {
			return nil, fmt.Errorf("docset: %w", err)
		}
		c.kinds[k.Name] = k
	}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	obs, err := newObserver(cfg.logger, cfg.registerer, cfg.observer)
	if err != nil {
		return nil, err
	}

	var redis *dbRedis.Store
	if cfg.backend == backendRedis || (cfg.resolver == nil && cfg.sqlitePath == "") {
		if redis, err = c.connectRedis(cfg); err != nil {
			return nil, err
		}
	}
	if c.searcher, err = c.createSearcher(cfg, redis); err != nil {
		return nil, err
	}
	if c.resolver, err = c.createResolver(cfg, redis, obs); err != nil {
		return nil, err
	}

	if cfg.timeout > 0 {
		c.opts = append(c.opts, queryset.WithTimeout(cfg.timeout))
	}
	c.opts = append(c.opts, queryset.WithObserver(obs))
	return c, nil
}

func (c *Client) connectRedis(cfg *clientConfig) (*dbRedis.Store, error) {
	if len(cfg.addrs) == 0 {
		return nil, errors.New("docset: redis address required (use WithRedis, or pick another backend and record layer)")
	}
	s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
	if err != nil {
		return nil, fmt.Errorf("docset: create redis store: %w", err)
	}
	c.closers = append(c.closers, func() error { s.Close(); return nil })
	c.pingers = append(c.pingers, s.Ping)

	if err := s.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
		return nil, fmt.Errorf("docset: redis not ready: %w", err)
	}
	return s, nil
}

func (c *Client) createSearcher(cfg *clientConfig, redis *dbRedis.Store) (Searcher, error) {
	if cfg.searcher != nil {
		return cfg.searcher, nil
	}
	switch cfg.backend {
	case backendRedis:
		return searchrepo.New(redis, cfg.pageSize), nil
	case backendBleve:
		eng := bleveidx.New(cfg.blevePath, cfg.pageSize)
		c.closers = append(c.closers, eng.Close)
		c.pingers = append(c.pingers, eng.Ping)
		for _, k := range c.kinds {
			if err := eng.Open(k); err != nil {
				return nil, fmt.Errorf("docset: %w", err)
			}
		}
		return eng, nil
	case backendMeili:
		eng, err := meili.New(meili.Config{Host: cfg.meiliHost, APIKey: cfg.meiliKey, PageSize: cfg.pageSize})
		if err != nil {
			return nil, fmt.Errorf("docset: %w", err)
		}
		c.closers = append(c.closers, func() error { eng.Close(); return nil })
		c.pingers = append(c.pingers, eng.Ping)
		return eng, nil
	}
	return nil, errors.New("docset: search backend required (use WithRedis, WithBleve, WithMeilisearch or WithSearcher)")
}

func (c *Client) createResolver(cfg *clientConfig, redis *dbRedis.Store, obs *observer) (Resolver, error) {
	var r Resolver
	switch {
	case cfg.resolver != nil:
		r = cfg.resolver
	case cfg.sqlitePath != "":
		repo, err := recordsql.Open(cfg.sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("docset: %w", err)
		}
		c.closers = append(c.closers, repo.Close)
		c.pingers = append(c.pingers, repo.Ping)
		r = repo
	default:
		r = recordrepo.New(redis)
	}

	if cfg.cacheSize <= 0 {
		return r, nil
	}
	cached, err := recordcache.New[Document](r, cfg.cacheSize, obs.recordCacheCounter(), cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("docset: %w", err)
	}
	return cached, nil
}

// Close releases all resources.
func (c *Client) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
	c.closers = nil
}

// Ping checks connectivity of every connected backend.
func (c *Client) Ping(ctx context.Context) error {
	for _, p := range c.pingers {
		if err := p(ctx); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
	}
	return nil
}

// Kinds returns the declared kind names in sorted order.
func (c *Client) Kinds() []string {
	names := make([]string, 0, len(c.kinds))
	for name := range c.kinds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Query returns a QuerySet over every document of kind.
func (c *Client) Query(kind string) (*QuerySet, error) {
	k, ok := c.kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return c.QueryKind(k), nil
}

// QueryKind returns a QuerySet over an ad hoc kind that was not declared
// with WithKinds.
func (c *Client) QueryKind(k Kind) *QuerySet {
	return queryset.New(k, c.searcher, c.resolver, c.opts...)
}

func (c *Client) declared(kind string) (Kind, bool) {
	if c == nil {
		return Kind{}, false
	}
	k, ok := c.kinds[kind]
	return k, ok
}
