package redis

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/docset/internal/db"
	"github.com/kailas-cloud/docset/internal/domain/search/body"
	"github.com/kailas-cloud/docset/internal/domain/search/filter"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewStore_RequiresAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty addrs")
	}
}

// --- hash.go tests ---

func TestHGetAll_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "person:t1")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			"username":  mock.RedisString("woot2"),
			"last_name": mock.RedisString("Smith"),
		})))

	s := NewStoreForTest(c)
	m, err := s.HGetAll(context.Background(), "person:t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["username"] != "woot2" || m["last_name"] != "Smith" {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestHGetAll_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "person:t1")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.HGetAll(context.Background(), "person:t1")
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestHGetAllMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), mock.Match("HGETALL", "k1"), mock.Match("HGETALL", "k2")).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
				"f": mock.RedisString("a"),
			})),
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{})),
		})

	s := NewStoreForTest(c)
	results, err := s.HGetAllMulti(context.Background(), []string{"k1", "k2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0]["f"] != "a" || len(results[1]) != 0 {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestHGetAllMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil) // client not called
	results, err := s.HGetAllMulti(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil, got %v", results)
	}
}

// --- search.go tests ---

func isCmd(name string) gomock.Matcher {
	return mock.MatchFn(func(cmd []string) bool { return cmd[0] == name }, name)
}

func TestSearch_HitsOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var got []string
	c.EXPECT().
		DoMulti(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.SEARCH"
		})).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisArray(
				mock.RedisInt64(3),
				mock.RedisString("person:t1"), mock.RedisString("1.5"),
				mock.RedisString("person:t2"), mock.RedisString("0.5"),
			)),
		})

	s := NewStoreForTest(c)
	res, err := s.Search(context.Background(), &db.SearchQuery{
		IndexName: "people",
		Query:     body.Query{Must: []body.Term{{Field: "last_name", Value: "smith"}}},
		SortBy:    &db.SortBy{Field: "username", Desc: true},
		Offset:    0,
		Limit:     2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"FT.SEARCH", "people", "@last_name:{smith}", "NOCONTENT", "WITHSCORES",
		"SORTBY", "username", "DESC", "LIMIT", "0", "2", "DIALECT", "2",
	}
	if !slices.Equal(got, want) {
		t.Errorf("cmd = %q, want %q", got, want)
	}
	if res.Total != 3 || len(res.Entries) != 2 {
		t.Fatalf("total=%d entries=%d", res.Total, len(res.Entries))
	}
	if res.Entries[0].Key != "person:t1" || res.Entries[0].Score != 1.5 {
		t.Errorf("entry = %+v", res.Entries[0])
	}
	if res.Facets != nil || res.SpellCheck != nil {
		t.Error("unexpected facets or spellcheck")
	}
}

func TestSearch_FacetsAndSpellCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var aggs [][]string
	aggMatcher := mock.MatchFn(func(cmd []string) bool {
		if cmd[0] != "FT.AGGREGATE" {
			return false
		}
		aggs = append(aggs, cmd)
		return true
	})

	c.EXPECT().
		DoMulti(gomock.Any(), isCmd("FT.SEARCH"), aggMatcher, aggMatcher, isCmd("FT.SEARCH"), isCmd("FT.SPELLCHECK")).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisArray(mock.RedisInt64(1), mock.RedisString("person:t4"), mock.RedisString("1"))),
			mock.Result(mock.RedisArray(
				mock.RedisInt64(3),
				mock.RedisArray(mock.RedisString("last_name"), mock.RedisString("Smith"), mock.RedisString("count"), mock.RedisString("3")),
				mock.RedisArray(mock.RedisString("last_name"), mock.RedisString("Bar"), mock.RedisString("count"), mock.RedisString("1")),
				mock.RedisArray(mock.RedisString("last_name"), mock.RedisNil(), mock.RedisString("count"), mock.RedisString("2")),
			)),
			mock.Result(mock.RedisArray(
				mock.RedisInt64(1),
				mock.RedisArray(mock.RedisString("username"), mock.RedisString("foo"), mock.RedisString("count"), mock.RedisString("1")),
			)),
			mock.Result(mock.RedisArray(mock.RedisInt64(4))),
			mock.Result(mock.RedisArray(
				mock.RedisArray(
					mock.RedisString("TERM"),
					mock.RedisString("smath"),
					mock.RedisArray(
						mock.RedisArray(mock.RedisString("0.75"), mock.RedisString("smith")),
					),
				),
			)),
		})

	s := NewStoreForTest(c)
	res, err := s.Search(context.Background(), &db.SearchQuery{
		IndexName: "people",
		Query:     body.Query{Text: &body.Text{Field: "first_name", Value: "foo"}},
		Limit:     10,
		Facets: []db.FacetQuery{
			{Field: "last_name", Global: true},
			{Field: "username", Global: false},
		},
		SpellCheck: &db.SpellCheckQuery{Text: "smath", Distance: 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(aggs) != 2 {
		t.Fatalf("aggregations = %d", len(aggs))
	}
	if aggs[0][2] != "*" {
		t.Errorf("global facet query = %q, want *", aggs[0][2])
	}
	if aggs[1][2] != "@first_name:(foo)" {
		t.Errorf("scoped facet query = %q", aggs[1][2])
	}
	if aggs[0][5] != "@last_name" {
		t.Errorf("group field = %q", aggs[0][5])
	}

	ln := res.Facets["last_name"]
	if len(ln.Buckets) != 2 || ln.Buckets[0] != (db.FacetBucket{Value: "Smith", Count: 3}) || ln.Missing != 2 {
		t.Errorf("last_name facet = %+v", ln)
	}
	if un := res.Facets["username"]; len(un.Buckets) != 1 || un.Buckets[0].Value != "foo" {
		t.Errorf("username facet = %+v", un)
	}

	if res.IndexSize != 4 {
		t.Errorf("IndexSize = %d", res.IndexSize)
	}
	if len(res.SpellCheck) != 1 || res.SpellCheck[0].Term != "smath" {
		t.Fatalf("spellcheck = %+v", res.SpellCheck)
	}
	if sug := res.SpellCheck[0].Suggestions; len(sug) != 1 || sug[0].Value != "smith" || sug[0].Score != 0.75 {
		t.Errorf("suggestions = %+v", sug)
	}
}

func TestSearch_UnknownIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), isCmd("FT.SEARCH")).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisError("people: no such index")),
		})

	s := NewStoreForTest(c)
	_, err := s.Search(context.Background(), &db.SearchQuery{IndexName: "people", Limit: 10})
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("err = %v, want ErrIndexNotFound", err)
	}
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %T", err)
	}
}

func TestSearch_Validation(t *testing.T) {
	s := &Store{}
	ctx := context.Background()

	if _, err := s.Search(ctx, &db.SearchQuery{Limit: 10}); err == nil {
		t.Error("expected error for empty index name")
	}
	if _, err := s.Search(ctx, &db.SearchQuery{IndexName: "idx", Offset: -1}); err == nil {
		t.Error("expected error for negative offset")
	}
}

func TestSearch_MalformedScore(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), isCmd("FT.SEARCH")).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisArray(mock.RedisInt64(1), mock.RedisString("person:t1"), mock.RedisString("abc"))),
		})

	s := NewStoreForTest(c)
	if _, err := s.Search(context.Background(), &db.SearchQuery{IndexName: "people", Limit: 10}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCount_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.SEARCH", "people", "@last_name:{smith}", "NOCONTENT", "LIMIT", "0", "0", "DIALECT", "2")).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(42))))

	s := NewStoreForTest(c)
	count, err := s.Count(context.Background(), "people", body.Query{
		Must: []body.Term{{Field: "last_name", Value: "smith"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 42 {
		t.Errorf("expected 42, got %d", count)
	}
}

func TestCount_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), isCmd("FT.SEARCH")).
		Return(mock.Result(mock.RedisArray()))

	s := NewStoreForTest(c)
	count, err := s.Count(context.Background(), "people", body.Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0, got %d", count)
	}
}

func TestCount_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), isCmd("FT.SEARCH")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.Count(context.Background(), "people", body.Query{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v", err)
	}
}

// --- query.go tests ---

func TestCompileQuery(t *testing.T) {
	gte, lte := 10.0, 100.0
	rng, _ := filter.NewRangeFilter(nil, &gte, nil, &lte)

	tests := []struct {
		name string
		q    body.Query
		want string
	}{
		{"empty", body.Query{}, "*"},
		{"tag", body.Query{Must: []body.Term{{Field: "category", Value: "electronics"}}}, `@category:{electronics}`},
		{"tag escaped", body.Query{Must: []body.Term{{Field: "name", Value: "big mama"}}}, `@name:{big\ mama}`},
		{"numeric", body.Query{Ranges: []body.Range{{Field: "price", Bounds: rng}}}, `@price:[10 100]`},
		{"must not", body.Query{MustNot: []body.Term{{Field: "status", Value: "deleted"}}}, `-@status:{deleted}`},
		{"text field", body.Query{Text: &body.Text{Field: "bio", Value: "john"}}, `@bio:(john)`},
		{"text any", body.Query{Text: &body.Text{Value: "john-paul"}}, `(john\-paul)`},
		{
			"combined",
			body.Query{
				Must:    []body.Term{{Field: "category", Value: "books"}},
				MustNot: []body.Term{{Field: "status", Value: "draft"}},
				Text:    &body.Text{Field: "title", Value: "go"},
			},
			`@category:{books} @title:(go) -@status:{draft}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compileQuery(tt.q); got != tt.want {
				t.Errorf("compileQuery = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildNumericFilter_GTonly(t *testing.T) {
	gt := 5.0
	rng, _ := filter.NewRangeFilter(&gt, nil, nil, nil)
	result := buildNumericFilter("price", rng)
	if result != `@price:[(5 +inf]` {
		t.Errorf("unexpected filter: %q", result)
	}
}

func TestBuildNumericFilter_LTonly(t *testing.T) {
	lt := 100.0
	rng, _ := filter.NewRangeFilter(nil, nil, &lt, nil)
	result := buildNumericFilter("price", rng)
	if result != `@price:[-inf (100]` {
		t.Errorf("unexpected filter: %q", result)
	}
}

func TestEscapeQuery(t *testing.T) {
	input := `hello "world" @user {tag}`
	escaped := escapeQuery(input)
	expected := `hello \"world\" \@user \{tag\}`
	if escaped != expected {
		t.Errorf("expected %q, got %q", expected, escaped)
	}
}

// --- helpers ---

// isDBError is a test helper for checking wrapped db.Error.
func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
