package queryset

import (
	"context"
	"time"

	"github.com/kailas-cloud/docset/internal/domain/record"
	"github.com/kailas-cloud/docset/internal/domain/search/body"
	"github.com/kailas-cloud/docset/internal/domain/search/response"
)

// Searcher executes a request body against a search backend.
type Searcher interface {
	Execute(ctx context.Context, b *body.Body) (*response.Response, error)
}

// Counter is implemented by searchers that can count matches without
// fetching a page.
type Counter interface {
	Count(ctx context.Context, b *body.Body) (int, error)
}

// Resolver loads the record behind a hit. A missing record is reported
// as ok == false, not as an error.
type Resolver[R record.Record] interface {
	Resolve(ctx context.Context, kind record.Kind, id string) (rec R, ok bool, err error)
}

// BatchResolver is implemented by record layers that can load a page of
// hits in one call. Missing ids are absent from the result.
type BatchResolver[R record.Record] interface {
	ResolveMany(ctx context.Context, kind record.Kind, ids []string) (map[string]R, error)
}

// Renderer is implemented by record layers with their own list rendering.
type Renderer[R record.Record] interface {
	Render(kind record.Kind, recs []R) string
}

// Observer receives execution and cache events.
type Observer interface {
	ObserveExecution(kind string, d time.Duration, err error)
	ObserveCache(kind string, hit bool)
}

type nopObserver struct{}

func (nopObserver) ObserveExecution(string, time.Duration, error) {}
func (nopObserver) ObserveCache(string, bool)                     {}
