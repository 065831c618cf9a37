package queryset

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/kailas-cloud/docset/internal/domain/record"
	"github.com/kailas-cloud/docset/internal/domain/search/body"
	"github.com/kailas-cloud/docset/internal/domain/search/response"
	"github.com/kailas-cloud/docset/internal/domain/search/suggest"
)

type person struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
}

func (p person) RecordID() string { return p.ID }

func (p person) field(name string) string {
	switch name {
	case "username":
		return p.Username
	case "first_name":
		return p.FirstName
	case "last_name":
		return p.LastName
	}
	return ""
}

var people = []person{
	{"t1", "woot2", "John", "Smith"},
	{"t2", "woot", "Jack", "Smith"},
	{"t3", "BigMama", "Mama", "Smith"},
	{"t4", "foo", "Foo", "Bar"},
}

func peopleKind() record.Kind {
	return record.Kind{
		Name:         "person",
		Index:        "people",
		Prefix:       "person:",
		DefaultField: "first_name",
		Fields: map[string]record.FieldKind{
			"username":   record.Keyword,
			"first_name": record.Keyword,
			"last_name":  record.Keyword,
			"bio":        record.Text,
			"age":        record.Numeric,
		},
	}
}

// fakeSearcher evaluates bodies over an in-memory slice of people.
type fakeSearcher struct {
	docs     []person
	pageSize int
	calls    int
	bodies   []*body.Body
	execFn   func(ctx context.Context, b *body.Body) (*response.Response, error)
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{docs: people, pageSize: 10}
}

func (f *fakeSearcher) Execute(ctx context.Context, b *body.Body) (*response.Response, error) {
	f.calls++
	f.bodies = append(f.bodies, b)
	if f.execFn != nil {
		return f.execFn(ctx, b)
	}
	return f.run(b), nil
}

func (f *fakeSearcher) match(b *body.Body) []person {
	var out []person
	for _, p := range f.docs {
		if matches(p, b.Query) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p person, q body.Query) bool {
	for _, t := range q.Must {
		if strings.ToLower(p.field(t.Field)) != t.Value {
			return false
		}
	}
	for _, t := range q.MustNot {
		if strings.ToLower(p.field(t.Field)) == t.Value {
			return false
		}
	}
	if q.Text != nil {
		if !strings.EqualFold(p.field(q.Text.Field), q.Text.Value) {
			return false
		}
	}
	return true
}

func (f *fakeSearcher) run(b *body.Body) *response.Response {
	matched := f.match(b)
	if len(b.Sort) > 0 {
		slices.SortStableFunc(matched, func(x, y person) int {
			for _, s := range b.Sort {
				c := cmp.Compare(strings.ToLower(x.field(s.Field)), strings.ToLower(y.field(s.Field)))
				if s.Desc {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}

	resp := &response.Response{Total: len(matched), TotalKnown: true}
	from := min(b.From, len(matched))
	to := min(from+b.Limit(f.pageSize), len(matched))
	for _, p := range matched[from:to] {
		resp.Hits = append(resp.Hits, response.Hit{ID: p.ID, Score: 1})
	}

	if len(b.Aggs) > 0 {
		resp.Facets = make(map[string]response.RawFacet)
		for _, a := range b.Aggs {
			src := matched
			if a.Scope == body.ScopeGlobal {
				src = f.docs
			}
			counts := map[string]int{}
			var order []string
			for _, p := range src {
				v := p.field(a.Field)
				if _, ok := counts[v]; !ok {
					order = append(order, v)
				}
				counts[v]++
			}
			var raw response.RawFacet
			for _, v := range order {
				raw.Buckets = append(raw.Buckets, response.Bucket{Term: v, Count: counts[v]})
			}
			resp.Facets[a.Field] = raw
		}
	}

	if b.Suggest != nil {
		resp.Suggestions = make(map[string][]suggest.Entry)
		for _, field := range b.Suggest.Fields {
			var entries []suggest.Entry
			for _, tok := range suggest.Tokenize(b.Suggest.Text) {
				freq := map[string]int{}
				for _, p := range f.docs {
					freq[strings.ToLower(p.field(field))]++
				}
				var opts []suggest.Option
				for term, n := range freq {
					d := suggest.Distance(tok.Text, term)
					if d == 0 || d > suggest.MaxDistance {
						continue
					}
					opts = append(opts, suggest.Option{Text: term, Score: suggest.Score(tok.Text, term), Freq: n})
				}
				entries = append(entries, suggest.Entry{
					Text: tok.Text, Offset: tok.Offset, Length: tok.Length, Options: suggest.Rank(opts),
				})
			}
			resp.Suggestions[field] = entries
		}
	}
	return resp
}

// countingSearcher adds the Counter fast path.
type countingSearcher struct {
	*fakeSearcher
	countCalls int
	countBody  *body.Body
}

func (c *countingSearcher) Count(_ context.Context, b *body.Body) (int, error) {
	c.countCalls++
	c.countBody = b
	return len(c.match(b)), nil
}

// fakeRecords resolves people by id one at a time.
type fakeRecords struct {
	byID  map[string]person
	calls int
	err   error
}

func newFakeRecords(ps ...person) *fakeRecords {
	if len(ps) == 0 {
		ps = people
	}
	m := make(map[string]person, len(ps))
	for _, p := range ps {
		m[p.ID] = p
	}
	return &fakeRecords{byID: m}
}

func (r *fakeRecords) Resolve(_ context.Context, _ record.Kind, id string) (person, bool, error) {
	r.calls++
	if r.err != nil {
		return person{}, false, r.err
	}
	p, ok := r.byID[id]
	return p, ok, nil
}

// batchRecords resolves a whole page per call.
type batchRecords struct {
	*fakeRecords
	batches int
}

func (r *batchRecords) ResolveMany(_ context.Context, _ record.Kind, ids []string) (map[string]person, error) {
	r.batches++
	out := make(map[string]person, len(ids))
	for _, id := range ids {
		if p, ok := r.byID[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type observerStub struct {
	executions int
	failures   int
	hits       int
	misses     int
}

func (o *observerStub) ObserveExecution(_ string, _ time.Duration, err error) {
	o.executions++
	if err != nil {
		o.failures++
	}
}

func (o *observerStub) ObserveCache(_ string, hit bool) {
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func ids(ps []person) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
