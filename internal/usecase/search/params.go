package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/docset/internal/domain/search/filter"
)

// ParseMatch parses "field:value". The value may be empty or contain colons.
func ParseMatch(s string) (Match, error) {
	field, value, ok := strings.Cut(s, ":")
	if !ok || field == "" {
		return Match{}, fmt.Errorf("expected field:value, got %q", s)
	}
	return Match{Field: field, Value: value}, nil
}

// ParseRange parses "field:lo..hi". Either bound may be empty; both are inclusive.
func ParseRange(s string) (Range, error) {
	field, bounds, ok := strings.Cut(s, ":")
	if !ok || field == "" {
		return Range{}, fmt.Errorf("expected field:lo..hi, got %q", s)
	}
	lo, hi, ok := strings.Cut(bounds, "..")
	if !ok {
		return Range{}, fmt.Errorf("expected field:lo..hi, got %q", s)
	}

	gte, err := bound(lo)
	if err != nil {
		return Range{}, fmt.Errorf("%s: lower bound %q is not a number", field, lo)
	}
	lte, err := bound(hi)
	if err != nil {
		return Range{}, fmt.Errorf("%s: upper bound %q is not a number", field, hi)
	}

	rng, err := filter.NewRangeFilter(nil, gte, nil, lte)
	if err != nil {
		return Range{}, fmt.Errorf("%s: %w", field, err)
	}
	return Range{Field: field, Bounds: rng}, nil
}

func bound(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// SplitList splits comma-separated values and drops blanks.
func SplitList(raw []string) []string {
	var out []string
	for _, s := range raw {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
