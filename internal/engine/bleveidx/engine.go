// Package bleveidx is an in-process search backend built on bleve.
// Each record kind gets its own index, in memory or on disk.
package bleveidx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/kailas-cloud/docset/internal/db"
	"github.com/kailas-cloud/docset/internal/domain/record"
)

// DefaultPageSize is the page size used when a body sets none.
const DefaultPageSize = 10

// Engine executes request bodies against bleve indexes keyed by index name.
// It implements queryset.Searcher and queryset.Counter.
type Engine struct {
	mu       sync.RWMutex
	indexes  map[string]bleve.Index
	kinds    map[string]record.Kind
	dir      string
	pageSize int
}

// New creates an engine. An empty dir keeps every index in memory;
// otherwise an index lives at <dir>/<index>.bleve.
func New(dir string, pageSize int) *Engine {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Engine{
		indexes:  make(map[string]bleve.Index),
		kinds:    make(map[string]record.Kind),
		dir:      dir,
		pageSize: pageSize,
	}
}

// Open creates or opens the index of kind.
func (e *Engine) Open(kind record.Kind) error {
	if err := kind.Validate(); err != nil {
		return fmt.Errorf("open index: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.indexes[kind.Index]; ok {
		return nil
	}

	im, err := NewMapping(kind)
	if err != nil {
		return err
	}

	var idx bleve.Index
	if e.dir == "" {
		idx, err = bleve.NewMemOnly(im)
	} else {
		path := filepath.Join(e.dir, kind.Index+".bleve")
		if err := os.MkdirAll(e.dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", e.dir, err)
		}
		idx, err = bleve.Open(path)
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			idx, err = bleve.New(path, im)
		}
	}
	if err != nil {
		return fmt.Errorf("open index %s: %w", kind.Index, err)
	}

	e.indexes[kind.Index] = idx
	e.kinds[kind.Index] = kind
	return nil
}

// Load indexes documents into the index of kind. Numeric fields are
// converted to numbers; values that do not parse are skipped.
func (e *Engine) Load(ctx context.Context, kind record.Kind, docs []record.Document) error {
	idx, err := e.index(kind.Index)
	if err != nil {
		return err
	}

	batch := idx.NewBatch()
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(d.RecordID(), toIndexable(kind, d)); err != nil {
			return fmt.Errorf("index %s: %w", d.RecordID(), err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("batch %s: %w", kind.Index, err)
	}
	return nil
}

// Ping reports whether at least one index is open.
func (e *Engine) Ping(_ context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.indexes) == 0 {
		return fmt.Errorf("no index open")
	}
	return nil
}

// Close closes every index.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var errs []error
	for name, idx := range e.indexes {
		if err := idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	clear(e.indexes)
	return errors.Join(errs...)
}

func (e *Engine) index(name string) (bleve.Index, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	idx, ok := e.indexes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", db.ErrIndexNotFound, name)
	}
	return idx, nil
}

func toIndexable(kind record.Kind, d record.Document) map[string]any {
	fields := d.Fields()
	out := make(map[string]any, len(fields))
	for name, v := range fields {
		if fk, _ := kind.FieldKind(name); fk == record.Numeric {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			out[name] = f
			continue
		}
		out[name] = v
	}
	return out
}
