package docset

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Search backends.
const (
	backendRedis = "redis"
	backendBleve = "bleve"
	backendMeili = "meilisearch"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	backend   string
	addrs     []string
	password  string
	blevePath string
	meiliHost string
	meiliKey  string

	sqlitePath string
	cacheSize  int

	kinds      []Kind
	timeout    time.Duration
	pageSize   int
	observer   Observer
	registerer prometheus.Registerer
	logger     *zap.Logger

	searcher Searcher
	resolver Resolver
}

// WithRedis searches RediSearch indexes on addrs and resolves hits from
// Redis hashes unless another record layer is chosen.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) {
		c.backend = backendRedis
		c.addrs = addrs
	}
}

// WithPassword sets the Redis password.
func WithPassword(password string) Option {
	return func(c *clientConfig) { c.password = password }
}

// WithBleve searches in-process bleve indexes stored under dir.
// An empty dir keeps the indexes in memory.
func WithBleve(dir string) Option {
	return func(c *clientConfig) {
		c.backend = backendBleve
		c.blevePath = dir
	}
}

// WithMeilisearch searches a Meilisearch server.
func WithMeilisearch(host, apiKey string) Option {
	return func(c *clientConfig) {
		c.backend = backendMeili
		c.meiliHost = host
		c.meiliKey = apiKey
	}
}

// WithSearcher plugs in a custom search backend.
func WithSearcher(s Searcher) Option {
	return func(c *clientConfig) { c.searcher = s }
}

// WithSQLiteRecords resolves hits from the SQLite database at path.
func WithSQLiteRecords(path string) Option {
	return func(c *clientConfig) { c.sqlitePath = path }
}

// WithResolver plugs in a custom record layer.
func WithResolver(r Resolver) Option {
	return func(c *clientConfig) { c.resolver = r }
}

// WithRecordCache keeps up to size resolved records in memory.
func WithRecordCache(size int) Option {
	return func(c *clientConfig) { c.cacheSize = size }
}

// WithKinds declares the record kinds the client can query.
func WithKinds(kinds ...Kind) Option {
	return func(c *clientConfig) { c.kinds = append(c.kinds, kinds...) }
}

// WithTimeout bounds every backend call.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.timeout = d }
}

// WithPageSize sets the page size used when a query is not sliced.
func WithPageSize(n int) Option {
	return func(c *clientConfig) { c.pageSize = n }
}

// WithObserver reports executions and cache hits, for example to metrics.
func WithObserver(o Observer) Option {
	return func(c *clientConfig) { c.observer = o }
}

// WithRegisterer registers execution and cache metrics on reg.
// Collectors already registered by another client are reused.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *clientConfig) { c.registerer = reg }
}

// WithLogger sets the logger for failed queries and the record cache.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}
