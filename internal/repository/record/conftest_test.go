package record

import (
	"context"
	"testing"

	domrec "github.com/kailas-cloud/docset/internal/domain/record"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hashes         map[string]map[string]string
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	if h, ok := m.hashes[key]; ok {
		return h, nil
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i], _ = m.HGetAll(ctx, k)
	}
	return out, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{hashes: map[string]map[string]string{
		"person:t1": {"username": "woot2", "first_name": "John", "last_name": "Smith"},
		"person:t4": {"username": "foo", "first_name": "Foo", "last_name": "Bar"},
	}}
	return New(ms), ms
}

func personKind() domrec.Kind {
	return domrec.Kind{Name: "person", Index: "people", Prefix: "person:", DefaultField: "first_name"}
}
