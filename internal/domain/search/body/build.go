package body

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/docset/internal/domain"
	"github.com/kailas-cloud/docset/internal/domain/record"
	"github.com/kailas-cloud/docset/internal/domain/search/filter"
	"github.com/kailas-cloud/docset/internal/domain/search/request"
)

// Build translates a specification into a request body. It performs no I/O
// and returns a *domain.BuildError for specifications no backend can serve.
func Build(req request.Request) (*Body, error) {
	if err := req.Err(); err != nil {
		return nil, err
	}
	kind := req.Kind()
	if !record.IsValidIdentifier(kind.Index) {
		return nil, domain.NewBuildError("", "kind %q has no valid index name", kind.Name)
	}

	b := &Body{
		Index:  kind.Index,
		Prefix: kind.Prefix,
		Kind:   kind.Name,
		From:   req.Bounds().Start(),
	}
	if n, ok := req.Bounds().Limit(); ok {
		b.Size = &n
	}

	if err := buildFilters(kind, req.Filters(), &b.Query); err != nil {
		return nil, err
	}

	if q := strings.TrimSpace(req.Query()); q != "" {
		b.Query.Text = &Text{Field: kind.DefaultField, Value: q}
	}

	for _, k := range req.Ordering() {
		fk, err := declared(kind, k.Field())
		if err != nil {
			return nil, err
		}
		if fk == record.Text {
			return nil, domain.NewBuildError(k.Field(), "cannot order by text field")
		}
		b.Sort = append(b.Sort, SortField{Field: k.Field(), Desc: k.Desc()})
	}

	scope := ScopeQuery
	if req.GlobalFacets() {
		scope = ScopeGlobal
	}
	for _, f := range req.Facets() {
		fk, err := declared(kind, f)
		if err != nil {
			return nil, err
		}
		if fk == record.Text {
			return nil, domain.NewBuildError(f, "cannot facet on text field")
		}
		b.Aggs = append(b.Aggs, Agg{Field: f, Scope: scope, Size: DefaultFacetSize})
	}

	if fields := req.Suggest(); len(fields) > 0 {
		if b.Query.Text == nil {
			return nil, domain.NewBuildError("", "suggestions require a query")
		}
		for _, f := range fields {
			fk, err := declared(kind, f)
			if err != nil {
				return nil, err
			}
			if fk == record.Numeric {
				return nil, domain.NewBuildError(f, "cannot suggest on numeric field")
			}
		}
		b.Suggest = &Suggest{Text: b.Query.Text.Value, Fields: fields}
	}

	return b, nil
}

func buildFilters(kind record.Kind, expr filter.Expression, q *Query) error {
	for _, c := range expr.Must() {
		if err := addCondition(kind, c, q, false); err != nil {
			return err
		}
	}
	for _, c := range expr.MustNot() {
		if err := addCondition(kind, c, q, true); err != nil {
			return err
		}
	}
	return nil
}

func addCondition(kind record.Kind, c filter.Condition, q *Query, negate bool) error {
	fk, err := declared(kind, c.Key())
	if err != nil {
		return err
	}

	if c.IsRange() {
		if fk != record.Numeric {
			return domain.NewBuildError(c.Key(), "range on non-numeric field")
		}
		if negate {
			return domain.NewBuildError(c.Key(), "negated ranges are not supported")
		}
		q.Ranges = append(q.Ranges, Range{Field: c.Key(), Bounds: *c.Range()})
		return nil
	}

	switch fk {
	case record.Text:
		return domain.NewBuildError(c.Key(), "exact match on text field, use a query instead")
	case record.Numeric:
		v, err := strconv.ParseFloat(c.Match(), 64)
		if err != nil {
			return domain.NewBuildError(c.Key(), "value %q is not numeric", c.Match())
		}
		if negate {
			return domain.NewBuildError(c.Key(), "negated numeric match is not supported")
		}
		rng, _ := filter.NewRangeFilter(nil, &v, nil, &v)
		q.Ranges = append(q.Ranges, Range{Field: c.Key(), Bounds: rng})
		return nil
	}

	t := Term{Field: c.Key(), Value: strings.ToLower(c.Match())}
	if negate {
		q.MustNot = append(q.MustNot, t)
	} else {
		q.Must = append(q.Must, t)
	}
	return nil
}

func declared(kind record.Kind, field string) (record.FieldKind, error) {
	if !record.IsValidIdentifier(field) {
		return "", domain.NewBuildError(field, "invalid field name")
	}
	fk, ok := kind.FieldKind(field)
	if !ok {
		return "", domain.NewBuildError(field, "field is not declared by kind %q", kind.Name)
	}
	return fk, nil
}
