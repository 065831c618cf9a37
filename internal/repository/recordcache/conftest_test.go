package recordcache

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	domrec "github.com/kailas-cloud/docset/internal/domain/record"
)

// mockResolver resolves from a fixed map and counts calls.
type mockResolver struct {
	docs  map[string]domrec.Document
	calls int
	err   error
}

func (m *mockResolver) Resolve(_ context.Context, _ domrec.Kind, id string) (domrec.Document, bool, error) {
	m.calls++
	if m.err != nil {
		return domrec.Document{}, false, m.err
	}
	d, ok := m.docs[id]
	return d, ok, nil
}

// mockBatchResolver adds ResolveMany.
type mockBatchResolver struct {
	*mockResolver
	batches [][]string
}

func (m *mockBatchResolver) ResolveMany(_ context.Context, _ domrec.Kind, ids []string) (map[string]domrec.Document, error) {
	m.batches = append(m.batches, ids)
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]domrec.Document)
	for _, id := range ids {
		if d, ok := m.docs[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

func newMockResolver() *mockResolver {
	return &mockResolver{docs: map[string]domrec.Document{
		"t1": domrec.NewDocument("t1", map[string]string{"username": "woot2"}),
		"t4": domrec.NewDocument("t4", map[string]string{"username": "foo"}),
	}}
}

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_record_cache_total",
	}, []string{"result"})
}

func personKind() domrec.Kind {
	return domrec.Kind{Name: "person", Index: "people"}
}

func newTestCache[R domrec.Record](t *testing.T, inner resolver[R], size int) (*CachedResolver[R], *prometheus.CounterVec) {
	t.Helper()
	cv := newCounter()
	c, err := New[R](inner, size, cv, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, cv
}
