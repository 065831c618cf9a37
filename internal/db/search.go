package db

import "github.com/kailas-cloud/docset/internal/domain/search/body"

// SearchQuery is the input for one pipelined search: the hit page plus
// optional facet aggregations and a spell check.
type SearchQuery struct {
	IndexName  string
	Query      body.Query
	SortBy     *SortBy
	Offset     int
	Limit      int
	Facets     []FacetQuery
	SpellCheck *SpellCheckQuery
}

// SortBy is a single-field ordering. FT.SEARCH accepts only one.
type SortBy struct {
	Field string
	Desc  bool
}

// FacetQuery groups documents by Field. Global facets ignore the query.
type FacetQuery struct {
	Field  string
	Global bool
}

// SpellCheckQuery asks for corrections of the terms in Text.
type SpellCheckQuery struct {
	Text     string
	Distance int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
	Facets  map[string]FacetResult
	// SpellCheck and IndexSize are set only when a spell check was requested.
	SpellCheck []SpellTerm
	IndexSize  int
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key   string
	Score float64
}

// FacetResult holds the groups of one field, largest first.
type FacetResult struct {
	Buckets []FacetBucket
	Missing int
}

// FacetBucket is one group of an aggregation.
type FacetBucket struct {
	Value string
	Count int
}

// SpellTerm is a misspelled query term and its corrections.
type SpellTerm struct {
	Term        string
	Suggestions []SpellSuggestion
}

// SpellSuggestion is one correction. Score is the share of indexed
// documents that contain Value.
type SpellSuggestion struct {
	Value string
	Score float64
}
