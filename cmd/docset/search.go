package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kailas-cloud/docset/internal/domain/record"
	searchuc "github.com/kailas-cloud/docset/internal/usecase/search"
)

// Output formats.
const (
	formatJSON = "json"
	formatText = "text"
)

// searchFlags mirror the query parameters of the HTTP API.
type searchFlags struct {
	query        string
	filters      []string
	excludes     []string
	ranges       []string
	order        []string
	facets       []string
	globalFacets bool
	suggest      []string
	offset       int
	limit        int
	format       string
}

func (f *searchFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.query, "query", "q", "", "free-text query against the kind's default field")
	fs.StringArrayVarP(&f.filters, "filter", "f", nil, "keep documents where field equals value (field:value, repeatable)")
	fs.StringArrayVarP(&f.excludes, "exclude", "x", nil, "drop documents where field equals value (field:value, repeatable)")
	fs.StringArrayVar(&f.ranges, "range", nil, "numeric range, bounds inclusive (field:lo..hi, repeatable)")
	fs.StringSliceVarP(&f.order, "order", "o", nil, "order by fields, prefix with - for descending")
	fs.StringSliceVar(&f.facets, "facet", nil, "term facets to compute")
	fs.BoolVar(&f.globalFacets, "global-facets", true, "compute facets over the whole index instead of the matches")
	fs.StringSliceVar(&f.suggest, "suggest", nil, "fields to suggest corrections of the query against")
	fs.IntVar(&f.offset, "offset", 0, "skip this many matches")
	fs.IntVarP(&f.limit, "limit", "n", 0, "page size (0: backend default)")
	fs.StringVar(&f.format, "format", formatJSON, "output format: json, text")
}

func (f *searchFlags) params() (searchuc.Params, error) {
	p := searchuc.Params{
		Query:       f.query,
		Order:       searchuc.SplitList(f.order),
		Facets:      searchuc.SplitList(f.facets),
		LocalFacets: !f.globalFacets,
		Suggest:     searchuc.SplitList(f.suggest),
		Offset:      f.offset,
		Limit:       f.limit,
	}
	for _, s := range f.filters {
		m, err := searchuc.ParseMatch(s)
		if err != nil {
			return p, fmt.Errorf("--filter: %w", err)
		}
		p.Filters = append(p.Filters, m)
	}
	for _, s := range f.excludes {
		m, err := searchuc.ParseMatch(s)
		if err != nil {
			return p, fmt.Errorf("--exclude: %w", err)
		}
		p.Excludes = append(p.Excludes, m)
	}
	for _, s := range f.ranges {
		r, err := searchuc.ParseRange(s)
		if err != nil {
			return p, fmt.Errorf("--range: %w", err)
		}
		p.Ranges = append(p.Ranges, r)
	}
	if f.format != formatJSON && f.format != formatText {
		return p, fmt.Errorf("--format must be %s or %s, got %q", formatJSON, formatText, f.format)
	}
	return p, nil
}

func newSearchCmd(g *globalFlags) *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "search <kind>",
		Short: "Run one search and print the page",
		Example: "  docset search person -f last_name:smith -o -username --facet last_name\n" +
			"  docset search person -q jhon --suggest first_name --format text",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.params()
			if err != nil {
				return err
			}
			cfg, logger, err := g.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			res, err := a.search.Search(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res, f.format)
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newCountCmd(g *globalFlags) *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "count <kind>",
		Short: "Count matching documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.params()
			if err != nil {
				return err
			}
			cfg, logger, err := g.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			n, err := a.search.Count(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func printResult(w io.Writer, res *searchuc.Result, format string) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	var b strings.Builder
	b.WriteString(record.RenderList(record.Kind{Name: res.Kind}, res.Hits))
	fmt.Fprintf(&b, "\ncount: %d\n", res.Count)
	for _, field := range slices.Sorted(maps.Keys(res.Facets)) {
		f := res.Facets[field]
		fmt.Fprintf(&b, "facet %s (total %d, other %d, missing %d):", field, f.Total, f.Other, f.Missing)
		for _, t := range f.Terms {
			fmt.Fprintf(&b, " %s=%d", t.Term, t.Count)
		}
		b.WriteByte('\n')
	}
	for _, field := range slices.Sorted(maps.Keys(res.Suggestions)) {
		for _, e := range res.Suggestions[field] {
			opts := make([]string, 0, len(e.Options))
			for _, o := range e.Options {
				opts = append(opts, o.Text)
			}
			fmt.Fprintf(&b, "suggest %s %q: %s\n", field, e.Text, strings.Join(opts, ", "))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
