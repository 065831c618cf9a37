package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docset/internal/db"
	"github.com/kailas-cloud/docset/internal/domain/search/body"
)

// maxFacetGroups caps the groups one FT.AGGREGATE returns.
const maxFacetGroups = 1000

// Search runs the hit query, every facet aggregation and the optional spell
// check in a single DoMulti round-trip.
func (s *Store) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Offset < 0 || q.Limit < 0 {
		return nil, fmt.Errorf("offset and limit must not be negative")
	}

	query := compileQuery(q.Query)

	cmds := make([]rueidis.Completed, 0, 3+len(q.Facets))
	cmds = append(cmds, s.searchCmd(q, query))
	for _, f := range q.Facets {
		src := query
		if f.Global {
			src = "*"
		}
		cmds = append(cmds, s.aggregateCmd(q.IndexName, src, f.Field))
	}
	if q.SpellCheck != nil {
		cmds = append(cmds,
			s.countCmd(q.IndexName, "*"),
			s.spellCheckCmd(q.IndexName, q.SpellCheck),
		)
	}

	results := s.client.DoMulti(ctx, cmds...)
	if len(results) != len(cmds) {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("expected %d replies, got %d", len(cmds), len(results))}
	}

	raw, err := results[0].ToArray()
	if err != nil {
		return nil, opError(db.OpSearch, q.IndexName, err)
	}
	out, err := parseSearchResult(raw)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	if len(q.Facets) > 0 {
		out.Facets = make(map[string]db.FacetResult, len(q.Facets))
		for i, f := range q.Facets {
			raw, err := results[1+i].ToArray()
			if err != nil {
				return nil, opError(db.OpAggregate, q.IndexName, err)
			}
			fr, err := parseAggregateResult(raw, f.Field)
			if err != nil {
				return nil, &db.Error{Op: db.OpAggregate, Err: fmt.Errorf("field %s: %w", f.Field, err)}
			}
			out.Facets[f.Field] = fr
		}
	}

	if q.SpellCheck != nil {
		n := 1 + len(q.Facets)
		size, err := parseCount(results[n])
		if err != nil {
			return nil, opError(db.OpSearch, q.IndexName, err)
		}
		raw, err := results[n+1].ToArray()
		if err != nil {
			return nil, opError(db.OpSpellCheck, q.IndexName, err)
		}
		terms, err := parseSpellCheckResult(raw)
		if err != nil {
			return nil, &db.Error{Op: db.OpSpellCheck, Err: err}
		}
		out.IndexSize, out.SpellCheck = size, terms
	}

	return out, nil
}

// Count returns the number of documents matching q via FT.SEARCH with LIMIT 0 0.
func (s *Store) Count(ctx context.Context, index string, q body.Query) (int, error) {
	if index == "" {
		return 0, fmt.Errorf("index name is required")
	}
	n, err := parseCount(s.do(ctx, s.countCmd(index, compileQuery(q))))
	if err != nil {
		return 0, opError(db.OpSearch, index, err)
	}
	return n, nil
}

func (s *Store) searchCmd(q *db.SearchQuery, query string) rueidis.Completed {
	args := []string{q.IndexName, query, "NOCONTENT", "WITHSCORES"}
	if q.SortBy != nil {
		dir := "ASC"
		if q.SortBy.Desc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy.Field, dir)
	}
	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)
	return s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
}

func (s *Store) countCmd(index, query string) rueidis.Completed {
	return s.b().Arbitrary("FT.SEARCH").
		Args(index, query, "NOCONTENT", "LIMIT", "0", "0", "DIALECT", "2").
		Build()
}

func (s *Store) aggregateCmd(index, query, field string) rueidis.Completed {
	return s.b().Arbitrary("FT.AGGREGATE").Args(
		index, query,
		"GROUPBY", "1", "@"+field,
		"REDUCE", "COUNT", "0", "AS", "count",
		"SORTBY", "2", "@count", "DESC",
		"LIMIT", "0", strconv.Itoa(maxFacetGroups),
		"DIALECT", "2",
	).Build()
}

func (s *Store) spellCheckCmd(index string, q *db.SpellCheckQuery) rueidis.Completed {
	dist := max(q.Distance, 1)
	return s.b().Arbitrary("FT.SPELLCHECK").Args(
		index, escapeQuery(q.Text),
		"DISTANCE", strconv.Itoa(dist),
		"DIALECT", "2",
	).Build()
}

// --- Result parsing ---

func parseCount(res rueidis.RedisResult) (int, error) {
	raw, err := res.ToArray()
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// parseSearchResult reads a NOCONTENT WITHSCORES reply:
// [total, key1, score1, key2, score2, ...].
func parseSearchResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/2)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			return nil, fmt.Errorf("parse key %d: %w", i, err)
		}
		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			return nil, fmt.Errorf("parse score of %s: %w", key, err)
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			return nil, fmt.Errorf("parse score of %s: %w", key, err)
		}
		entries = append(entries, db.SearchEntry{Key: key, Score: score})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

// parseAggregateResult reads a GROUPBY reply:
// [groups, [field, value, count, n], ...]. A nil value is the group of
// documents without the field.
func parseAggregateResult(raw []rueidis.RedisMessage, field string) (db.FacetResult, error) {
	var out db.FacetResult
	for i := 1; i < len(raw); i++ {
		row, err := raw[i].ToArray()
		if err != nil {
			return out, fmt.Errorf("parse row %d: %w", i, err)
		}

		var (
			value   string
			missing = true
			count   int
		)
		for j := 0; j+1 < len(row); j += 2 {
			name, err := row[j].ToString()
			if err != nil {
				continue
			}
			switch name {
			case field:
				if !row[j+1].IsNil() {
					if value, err = row[j+1].ToString(); err != nil {
						return out, fmt.Errorf("parse value in row %d: %w", i, err)
					}
					missing = false
				}
			case "count":
				s, err := row[j+1].ToString()
				if err != nil {
					return out, fmt.Errorf("parse count in row %d: %w", i, err)
				}
				if count, err = strconv.Atoi(s); err != nil {
					return out, fmt.Errorf("parse count in row %d: %w", i, err)
				}
			}
		}

		if missing {
			out.Missing += count
			continue
		}
		out.Buckets = append(out.Buckets, db.FacetBucket{Value: value, Count: count})
	}
	return out, nil
}

// parseSpellCheckResult reads an FT.SPELLCHECK reply:
// [["TERM", term, [[score, suggestion], ...]], ...].
func parseSpellCheckResult(raw []rueidis.RedisMessage) ([]db.SpellTerm, error) {
	out := make([]db.SpellTerm, 0, len(raw))
	for i, msg := range raw {
		entry, err := msg.ToArray()
		if err != nil || len(entry) < 3 {
			return nil, fmt.Errorf("parse term %d: unexpected shape", i)
		}
		term, err := entry[1].ToString()
		if err != nil {
			return nil, fmt.Errorf("parse term %d: %w", i, err)
		}
		sugs, err := entry[2].ToArray()
		if err != nil {
			return nil, fmt.Errorf("parse suggestions of %s: %w", term, err)
		}

		st := db.SpellTerm{Term: term}
		for _, sm := range sugs {
			pair, err := sm.ToArray()
			if err != nil || len(pair) < 2 {
				continue
			}
			scoreStr, err := pair[0].ToString()
			if err != nil {
				continue
			}
			score, err := strconv.ParseFloat(scoreStr, 64)
			if err != nil {
				continue
			}
			value, err := pair[1].ToString()
			if err != nil {
				continue
			}
			st.Suggestions = append(st.Suggestions, db.SpellSuggestion{Value: value, Score: score})
		}
		out = append(out, st)
	}
	return out, nil
}
