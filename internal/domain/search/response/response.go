package response

import (
	"fmt"

	"github.com/kailas-cloud/docset/internal/domain/search/suggest"
)

// Hit is one matching document.
type Hit struct {
	ID    string
	Score float64
}

// Bucket is a raw term count from a backend aggregation.
type Bucket struct {
	Term  string
	Count int
}

// RawFacet is a backend aggregation result before shaping.
type RawFacet struct {
	Buckets []Bucket
	Missing int
	Other   int
}

// Response is what a search client returns for one body.
type Response struct {
	// Total is the number of matching documents when TotalKnown is set.
	Total       int
	TotalKnown  bool
	Hits        []Hit
	Facets      map[string]RawFacet
	Suggestions map[string][]suggest.Entry
}

// Validate rejects responses no caller can interpret.
func (r *Response) Validate() error {
	if r == nil {
		return fmt.Errorf("nil response")
	}
	if r.Total < 0 {
		return fmt.Errorf("negative total %d", r.Total)
	}
	for i, h := range r.Hits {
		if h.ID == "" {
			return fmt.Errorf("hit %d has no id", i)
		}
	}
	return nil
}

// IDs returns the hit identifiers in rank order.
func (r *Response) IDs() []string {
	ids := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.ID
	}
	return ids
}
