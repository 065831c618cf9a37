package bleveidx

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/kailas-cloud/docset/internal/domain/record"
)

// KeywordAnalyzer indexes a whole value as one lower-cased term, so that
// keyword filters, sorting and facets are case-insensitive.
const KeywordAnalyzer = "docset_keyword"

// NewMapping creates the index mapping for kind. Keyword fields use
// KeywordAnalyzer, text fields the standard analyzer, numeric fields a
// numeric mapping. Undeclared fields are indexed as keywords.
func NewMapping(kind record.Kind) (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()

	err := im.AddCustomAnalyzer(KeywordAnalyzer, map[string]any{
		"type":          custom.Name,
		"tokenizer":     single.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("add keyword analyzer: %w", err)
	}

	doc := bleve.NewDocumentMapping()
	for _, name := range kind.FieldNames() {
		switch kind.Fields[name] {
		case record.Keyword:
			fm := bleve.NewTextFieldMapping()
			fm.Analyzer = KeywordAnalyzer
			fm.Store = false
			doc.AddFieldMappingsAt(name, fm)
		case record.Text:
			fm := bleve.NewTextFieldMapping()
			fm.Analyzer = standard.Name
			fm.Store = false
			doc.AddFieldMappingsAt(name, fm)
		case record.Numeric:
			fm := bleve.NewNumericFieldMapping()
			fm.Store = false
			doc.AddFieldMappingsAt(name, fm)
		}
	}

	im.DefaultMapping = doc
	im.DefaultAnalyzer = KeywordAnalyzer
	return im, nil
}
