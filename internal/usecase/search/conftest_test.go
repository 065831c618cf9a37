package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/docset/internal/domain/record"
	"github.com/kailas-cloud/docset/internal/domain/search/body"
	"github.com/kailas-cloud/docset/internal/domain/search/response"
)

// --- Mocks ---

type mockSearcher struct {
	resp     *response.Response
	err      error
	count    int
	bodies   []*body.Body
	counted  []*body.Body
	countErr error
}

func (m *mockSearcher) Execute(_ context.Context, b *body.Body) (*response.Response, error) {
	m.bodies = append(m.bodies, b)
	if m.err != nil {
		return nil, m.err
	}
	if m.resp == nil {
		return &response.Response{TotalKnown: true}, nil
	}
	return m.resp, nil
}

type countingSearcher struct {
	*mockSearcher
}

func (c countingSearcher) Count(_ context.Context, b *body.Body) (int, error) {
	c.counted = append(c.counted, b)
	return c.count, c.countErr
}

type mockRecords struct {
	docs map[string]record.Document
}

func (m *mockRecords) Resolve(_ context.Context, _ record.Kind, id string) (record.Document, bool, error) {
	d, ok := m.docs[id]
	return d, ok, nil
}

func peopleKind() record.Kind {
	return record.Kind{
		Name:         "person",
		Index:        "people",
		Prefix:       "person:",
		DefaultField: "bio",
		Fields: map[string]record.FieldKind{
			"first_name": record.Keyword,
			"last_name":  record.Keyword,
			"username":   record.Keyword,
			"age":        record.Numeric,
			"bio":        record.Text,
		},
	}
}

func newRecords(ids ...string) *mockRecords {
	m := &mockRecords{docs: make(map[string]record.Document, len(ids))}
	for _, id := range ids {
		m.docs[id] = record.NewDocument(id, map[string]string{"username": id})
	}
	return m
}

func newTestService(t *testing.T, s Searcher, r Records) *Service {
	t.Helper()
	return New([]record.Kind{peopleKind()}, s, r)
}

func f64(v float64) *float64 { return &v }
