package search

import (
	"github.com/kailas-cloud/docset/internal/domain/record"
	"github.com/kailas-cloud/docset/internal/queryset"
)

// Searcher executes request bodies against the configured backend.
type Searcher = queryset.Searcher

// Records resolves hits into stored documents.
type Records = queryset.Resolver[record.Document]
