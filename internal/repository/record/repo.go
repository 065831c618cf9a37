package record

import (
	"context"
	"fmt"

	domrec "github.com/kailas-cloud/docset/internal/domain/record"
)

// store is the consumer interface for hash-stored records (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Repo loads the records behind search hits from Redis hashes stored
// under kind.Prefix + id. It implements queryset.Resolver and
// queryset.BatchResolver for domrec.Document.
type Repo struct {
	store store
}

// New creates a record repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Resolve returns the record with id. A missing hash yields ok == false.
func (r *Repo) Resolve(ctx context.Context, kind domrec.Kind, id string) (domrec.Document, bool, error) {
	key := kind.Prefix + id
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domrec.Document{}, false, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domrec.Document{}, false, nil
	}
	return domrec.NewDocument(id, m), true, nil
}

// ResolveMany loads a page of records in one round-trip. Missing ids are
// absent from the result.
func (r *Repo) ResolveMany(ctx context.Context, kind domrec.Kind, ids []string) (map[string]domrec.Document, error) {
	if len(ids) == 0 {
		return map[string]domrec.Document{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = kind.Prefix + id
	}

	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", kind.Name, err)
	}
	if len(rows) != len(ids) {
		return nil, fmt.Errorf("hgetall %s: expected %d rows, got %d", kind.Name, len(ids), len(rows))
	}

	out := make(map[string]domrec.Document, len(ids))
	for i, m := range rows {
		if len(m) == 0 {
			continue
		}
		out[ids[i]] = domrec.NewDocument(ids[i], m)
	}
	return out, nil
}
