package docset

import (
	"context"
	"fmt"
)

// Index is a typed, schema-first view over one kind.
// The kind's fields are inferred from T's struct tags at construction time.
type Index[T any] struct {
	client *Client
	kind   Kind
	meta   *schemaMeta
}

// NewIndex creates a typed index handle for kind, stored in the backend
// index named index. T must be a struct with docset tags.
func NewIndex[T any](client *Client, kind, index string) (*Index[T], error) {
	meta, err := parseSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("new index %q: %w", kind, err)
	}
	k := meta.kind(kind, index)
	if err := k.Validate(); err != nil {
		return nil, fmt.Errorf("new index %q: %w", kind, err)
	}
	if declared, ok := client.declared(kind); ok {
		k = declared
	}
	return &Index[T]{client: client, kind: k, meta: meta}, nil
}

// Kind returns the inferred kind.
func (idx *Index[T]) Kind() Kind { return idx.kind }

// Query returns a QuerySet over every document of the index.
func (idx *Index[T]) Query() *QuerySet {
	return idx.client.QueryKind(idx.kind)
}

// List evaluates qs and decodes the resolved documents into T.
func (idx *Index[T]) List(ctx context.Context, qs *QuerySet) ([]T, error) {
	docs, err := qs.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		item, err := idx.Decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// First returns the first match of qs, if any.
func (idx *Index[T]) First(ctx context.Context, qs *QuerySet) (T, bool, error) {
	var zero T
	d, ok, err := qs.First(ctx)
	if err != nil || !ok {
		return zero, ok, err
	}
	item, err := idx.Decode(d)
	if err != nil {
		return zero, false, err
	}
	return item, true, nil
}

// Decode converts a resolved document into T.
func (idx *Index[T]) Decode(doc Document) (T, error) {
	var zero T
	v, err := idx.meta.fromDocument(doc)
	if err != nil {
		return zero, err
	}
	item, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("docset: decode %s: type assertion failed", doc.RecordID())
	}
	return item, nil
}

// Encode converts item into the document shape the index stores.
func (idx *Index[T]) Encode(item T) Document {
	return idx.meta.toDocument(item)
}

// KindOf infers the kind described by T's docset tags, for declaring it
// with WithKinds before an Index over it is created.
func KindOf[T any](kind, index string) (Kind, error) {
	meta, err := parseSchema[T]()
	if err != nil {
		return Kind{}, err
	}
	k := meta.kind(kind, index)
	return k, k.Validate()
}
