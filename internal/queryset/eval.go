package queryset

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docset/internal/domain"
	"github.com/kailas-cloud/docset/internal/domain/record"
	"github.com/kailas-cloud/docset/internal/domain/search/body"
	"github.com/kailas-cloud/docset/internal/domain/search/facet"
	"github.com/kailas-cloud/docset/internal/domain/search/response"
	"github.com/kailas-cloud/docset/internal/domain/search/suggest"
	"github.com/kailas-cloud/docset/internal/logger"
)

// Evaluated reports whether the set holds a cached response.
func (q *QuerySet[R]) Evaluated() bool {
	return q.resp != nil && q.respKey == q.fp
}

func (q *QuerySet[R]) evaluate(ctx context.Context) (*response.Response, error) {
	kind := q.req.Kind().Name
	if q.Evaluated() {
		q.opts.observer.ObserveCache(kind, true)
		return q.resp, nil
	}
	q.opts.observer.ObserveCache(kind, false)

	b, err := body.Build(q.req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := q.call(ctx, b.Index, func(ctx context.Context) (*response.Response, error) {
		r, err := q.searcher.Execute(ctx, b)
		if err != nil {
			return nil, err
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("malformed response: %w", err)
		}
		return r, nil
	})
	q.opts.observer.ObserveExecution(kind, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	logger.ForQuery(ctx, kind, q.fp).Debug("query executed",
		zap.String("index", b.Index),
		zap.Int("hits", len(resp.Hits)),
		zap.Int("total", resp.Total),
		zap.Duration("took", time.Since(start)),
	)

	q.resp, q.respKey = resp, q.fp
	q.page, q.paged = nil, false
	return resp, nil
}

// call runs fn under the configured timeout and maps failures to
// ExecutionError. Build errors raised by a backend pass through unchanged.
func (q *QuerySet[R]) call(
	ctx context.Context, index string, fn func(context.Context) (*response.Response, error),
) (*response.Response, error) {
	if q.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.opts.timeout)
		defer cancel()
	}
	resp, err := fn(ctx)
	if err == nil {
		return resp, nil
	}
	return nil, executionError(ctx, index, err)
}

func executionError(ctx context.Context, index string, err error) error {
	if errors.Is(err, domain.ErrBuild) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}
	return domain.NewExecutionError(index, err)
}

// resolved evaluates the set and loads the records behind its hits.
// Hits whose record is gone are skipped.
func (q *QuerySet[R]) resolved(ctx context.Context) ([]R, error) {
	resp, err := q.evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if q.paged {
		return q.page, nil
	}

	kind := q.req.Kind()
	ids := resp.IDs()
	page := make([]R, 0, len(ids))

	if batch, ok := q.records.(BatchResolver[R]); ok {
		found, err := batch.ResolveMany(ctx, kind, ids)
		if err != nil {
			return nil, fmt.Errorf("resolve %s records: %w", kind.Name, err)
		}
		for _, id := range ids {
			if rec, ok := found[id]; ok {
				page = append(page, rec)
			} else {
				q.drift(ctx, id)
			}
		}
	} else {
		for _, id := range ids {
			rec, ok, err := q.records.Resolve(ctx, kind, id)
			if err != nil {
				return nil, fmt.Errorf("resolve %s %q: %w", kind.Name, id, err)
			}
			if !ok {
				q.drift(ctx, id)
				continue
			}
			page = append(page, rec)
		}
	}

	q.page, q.paged = page, true
	return page, nil
}

func (q *QuerySet[R]) drift(ctx context.Context, id string) {
	logger.ForQuery(ctx, q.req.Kind().Name, q.fp).Debug("hit skipped",
		zap.String("id", id),
		zap.Error(domain.ErrResolutionDrift),
	)
}

// List returns the records of the current page.
func (q *QuerySet[R]) List(ctx context.Context) ([]R, error) {
	page, err := q.resolved(ctx)
	if err != nil {
		return nil, err
	}
	return append([]R(nil), page...), nil
}

// All iterates the records of the current page. An evaluation failure is
// yielded once with a zero record.
func (q *QuerySet[R]) All(ctx context.Context) iter.Seq2[R, error] {
	return func(yield func(R, error) bool) {
		page, err := q.resolved(ctx)
		if err != nil {
			var zero R
			yield(zero, err)
			return
		}
		for _, rec := range page {
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Hits returns the raw hits of the current page with their scores.
func (q *QuerySet[R]) Hits(ctx context.Context) ([]response.Hit, error) {
	resp, err := q.evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return append([]response.Hit(nil), resp.Hits...), nil
}

// At returns the record at position i of the current page.
func (q *QuerySet[R]) At(ctx context.Context, i int) (R, error) {
	var zero R
	page, err := q.resolved(ctx)
	if err != nil {
		return zero, err
	}
	if i < 0 || i >= len(page) {
		return zero, &domain.RangeError{Index: i, Len: len(page)}
	}
	return page[i], nil
}

// First returns the first record, or ok == false for an empty set.
// An unevaluated set fetches a single document.
func (q *QuerySet[R]) First(ctx context.Context) (rec R, ok bool, err error) {
	src := q
	if !q.Evaluated() {
		src = q.Slice(0, 1)
	}
	page, err := src.resolved(ctx)
	if err != nil || len(page) == 0 {
		return rec, false, err
	}
	return page[0], true, nil
}

// Contains reports whether a record with the same id is on the current page.
func (q *QuerySet[R]) Contains(ctx context.Context, rec R) (bool, error) {
	page, err := q.resolved(ctx)
	if err != nil {
		return false, err
	}
	id := rec.RecordID()
	for _, r := range page {
		if r.RecordID() == id {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of matching documents inside the set's window.
// A cached response answers without I/O. Otherwise searchers implementing
// Counter get a dedicated count request, so the result is not limited by
// the backend page size.
func (q *QuerySet[R]) Count(ctx context.Context) (int, error) {
	bounds := q.req.Bounds()
	if q.Evaluated() && q.resp.TotalKnown {
		q.opts.observer.ObserveCache(q.req.Kind().Name, true)
		return bounds.Clamp(q.resp.Total), nil
	}
	if q.counted {
		q.opts.observer.ObserveCache(q.req.Kind().Name, true)
		return q.count, nil
	}

	counter, ok := q.searcher.(Counter)
	if !ok {
		resp, err := q.evaluate(ctx)
		if err != nil {
			return 0, err
		}
		if !resp.TotalKnown {
			return len(resp.Hits), nil
		}
		return bounds.Clamp(resp.Total), nil
	}

	b, err := body.Build(q.req)
	if err != nil {
		return 0, err
	}
	var n int
	start := time.Now()
	_, err = q.call(ctx, b.Index, func(ctx context.Context) (*response.Response, error) {
		var err error
		n, err = counter.Count(ctx, b.Unpaged())
		if err == nil && n < 0 {
			err = fmt.Errorf("malformed count %d", n)
		}
		return nil, err
	})
	q.opts.observer.ObserveExecution(q.req.Kind().Name, time.Since(start), err)
	if err != nil {
		return 0, err
	}

	q.count, q.counted = bounds.Clamp(n), true
	return q.count, nil
}

// Facets returns the shaped facets of the requested fields.
func (q *QuerySet[R]) Facets(ctx context.Context) (map[string]facet.Facet, error) {
	resp, err := q.evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return facet.ShapeAll(q.req.Facets(), resp.Facets), nil
}

// Suggestions returns term suggestions per requested field.
func (q *QuerySet[R]) Suggestions(ctx context.Context) (map[string][]suggest.Entry, error) {
	resp, err := q.evaluate(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]suggest.Entry, len(q.req.Suggest()))
	maps.Copy(out, resp.Suggestions)
	for _, f := range q.req.Suggest() {
		if _, ok := out[f]; !ok {
			out[f] = []suggest.Entry{}
		}
	}
	return out, nil
}

// Render formats the current page the way the record layer formats a
// list of records.
func (q *QuerySet[R]) Render(ctx context.Context) (string, error) {
	page, err := q.resolved(ctx)
	if err != nil {
		return "", err
	}
	if r, ok := q.records.(Renderer[R]); ok {
		return r.Render(q.req.Kind(), page), nil
	}
	return record.RenderList(q.req.Kind(), page), nil
}

// String renders the set, evaluating it if needed. Errors are rendered inline.
func (q *QuerySet[R]) String() string {
	s, err := q.Render(context.Background())
	if err != nil {
		return fmt.Sprintf("<%s query error: %v>", q.req.Kind().Name, err)
	}
	return s
}
