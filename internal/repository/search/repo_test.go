package search

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/docset/internal/db"
	"github.com/kailas-cloud/docset/internal/domain"
	"github.com/kailas-cloud/docset/internal/domain/search/body"
)

// --- Execute ---

func TestExecute_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchFn = func(_ context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
		if q.IndexName != "people" {
			t.Errorf("unexpected index: %s", q.IndexName)
		}
		if q.Limit != DefaultPageSize || q.Offset != 2 {
			t.Errorf("window = %d+%d", q.Offset, q.Limit)
		}
		if q.SortBy == nil || q.SortBy.Field != "username" || !q.SortBy.Desc {
			t.Errorf("sort = %+v", q.SortBy)
		}
		return &db.SearchResult{
			Total: 4,
			Entries: []db.SearchEntry{
				{Key: "person:t3", Score: 2},
				{Key: "person:t4", Score: 1},
			},
		}, nil
	}

	resp, err := repo.Execute(context.Background(), &body.Body{
		Index:  "people",
		Prefix: "person:",
		Sort:   []body.SortField{{Field: "username", Desc: true}},
		From:   2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.TotalKnown || resp.Total != 4 {
		t.Errorf("total = %d known=%v", resp.Total, resp.TotalKnown)
	}
	if len(resp.Hits) != 2 || resp.Hits[0].ID != "t3" || resp.Hits[1].ID != "t4" {
		t.Errorf("hits = %+v", resp.Hits)
	}
	if resp.Facets != nil || resp.Suggestions != nil {
		t.Error("unexpected facets or suggestions")
	}
}

func TestExecute_ExplicitSize(t *testing.T) {
	repo, ms := newTestRepo(t)
	if _, err := repo.Execute(context.Background(), &body.Body{Index: "people", Size: intPtr(0)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ms.lastQ.Limit != 0 {
		t.Errorf("limit = %d, want 0", ms.lastQ.Limit)
	}
}

func TestExecute_MultiSortRejected(t *testing.T) {
	repo, ms := newTestRepo(t)
	_, err := repo.Execute(context.Background(), &body.Body{
		Index: "people",
		Sort:  []body.SortField{{Field: "last_name"}, {Field: "username"}},
	})
	if !errors.Is(err, domain.ErrBuild) {
		t.Fatalf("err = %v, want ErrBuild", err)
	}
	if ms.lastQ != nil {
		t.Error("store must not be called")
	}
}

func TestExecute_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(context.Context, *db.SearchQuery) (*db.SearchResult, error) {
		return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	}
	_, err := repo.Execute(context.Background(), &body.Body{Index: "people"})
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestExecute_Facets(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(_ context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
		if len(q.Facets) != 2 || !q.Facets[0].Global || !q.Facets[1].Global {
			t.Errorf("facets = %+v", q.Facets)
		}
		return &db.SearchResult{
			Facets: map[string]db.FacetResult{
				"last_name": {
					Buckets: []db.FacetBucket{
						{Value: "smith", Count: 2},
						{Value: "Smith", Count: 1},
						{Value: "bar", Count: 1},
						{Value: "doe", Count: 1},
					},
					Missing: 3,
				},
			},
		}, nil
	}

	resp, err := repo.Execute(context.Background(), &body.Body{
		Index: "people",
		Aggs: []body.Agg{
			{Field: "last_name", Scope: body.ScopeGlobal, Size: 2},
			{Field: "username", Scope: body.ScopeGlobal},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ln := resp.Facets["last_name"]
	if len(ln.Buckets) != 2 {
		t.Fatalf("buckets = %+v", ln.Buckets)
	}
	if ln.Buckets[0].Term != "smith" || ln.Buckets[0].Count != 3 {
		t.Errorf("top bucket = %+v", ln.Buckets[0])
	}
	if ln.Buckets[1].Term != "bar" {
		t.Errorf("second bucket = %+v", ln.Buckets[1])
	}
	if ln.Other != 1 || ln.Missing != 3 {
		t.Errorf("other=%d missing=%d", ln.Other, ln.Missing)
	}
	if un, ok := resp.Facets["username"]; !ok || len(un.Buckets) != 0 {
		t.Errorf("username facet = %+v", un)
	}
}

func TestExecute_Suggestions(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(_ context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
		if q.SpellCheck == nil || q.SpellCheck.Text != "jhon smith" {
			t.Errorf("spellcheck = %+v", q.SpellCheck)
		}
		return &db.SearchResult{
			IndexSize: 4,
			SpellCheck: []db.SpellTerm{{
				Term: "jhon",
				Suggestions: []db.SpellSuggestion{
					{Value: "john", Score: 0.25},
					{Value: "jack", Score: 0.25},
					{Value: "jhon", Score: 0.5},
				},
			}},
		}, nil
	}

	resp, err := repo.Execute(context.Background(), &body.Body{
		Index:   "people",
		Suggest: &body.Suggest{Text: "Jhon smith", Fields: []string{"first_name", "username"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Suggestions) != 2 {
		t.Fatalf("suggestions = %+v", resp.Suggestions)
	}

	entries := resp.Suggestions["first_name"]
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}
	jhon := entries[0]
	if jhon.Text != "jhon" || jhon.Offset != 0 || jhon.Length != 4 {
		t.Errorf("entry = %+v", jhon)
	}
	if len(jhon.Options) != 1 {
		t.Fatalf("options = %+v", jhon.Options)
	}
	if opt := jhon.Options[0]; opt.Text != "john" || opt.Freq != 1 || opt.Score != 0.5 {
		t.Errorf("option = %+v", opt)
	}

	smith := entries[1]
	if smith.Offset != 5 || smith.Length != 5 || len(smith.Options) != 0 {
		t.Errorf("entry = %+v", smith)
	}
}

// --- Count ---

func TestCount(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.countFn = func(_ context.Context, index string, q body.Query) (int, error) {
		if index != "people" || len(q.Must) != 1 {
			t.Errorf("index=%s query=%+v", index, q)
		}
		return 3, nil
	}
	n, err := repo.Count(context.Background(), &body.Body{
		Index: "people",
		Query: body.Query{Must: []body.Term{{Field: "last_name", Value: "smith"}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d", n)
	}
}

func TestCount_Error(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.countFn = func(context.Context, string, body.Query) (int, error) {
		return 0, context.DeadlineExceeded
	}
	if _, err := repo.Count(context.Background(), &body.Body{Index: "people"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v", err)
	}
}
