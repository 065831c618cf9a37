package request

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/docset/internal/domain/search/filter"
)

// Fingerprint hashes every part of the specification that changes the
// request sent to a backend. Equal specifications have equal fingerprints.
func (r Request) Fingerprint() uint64 {
	h := hasher{d: xxhash.New()}

	h.str(r.kind.Name)
	h.str(r.kind.Index)
	h.str(r.kind.Prefix)
	h.str(r.kind.DefaultField)
	names := r.kind.FieldNames()
	h.int(len(names))
	for _, name := range names {
		h.str(name)
		h.str(string(r.kind.Fields[name]))
	}

	h.conds('m', r.filters.Must())
	h.conds('n', r.filters.MustNot())

	h.str(r.query)

	h.int(len(r.ordering))
	for _, k := range r.ordering {
		h.str(k.String())
	}

	h.int(len(r.facets))
	for _, f := range r.facets {
		h.str(f)
	}
	h.bool(r.localFacets)

	h.int(len(r.suggest))
	for _, f := range r.suggest {
		h.str(f)
	}

	h.int(r.bounds.start)
	h.int(r.bounds.stop)
	h.bool(r.bounds.hasStop)

	return h.d.Sum64()
}

// hasher writes length-prefixed tokens so that adjacent values cannot collide.
type hasher struct {
	d   *xxhash.Digest
	buf [8]byte
}

func (h *hasher) int(v int) {
	binary.LittleEndian.PutUint64(h.buf[:], uint64(v))
	_, _ = h.d.Write(h.buf[:])
}

func (h *hasher) bool(v bool) {
	if v {
		h.int(1)
		return
	}
	h.int(0)
}

func (h *hasher) str(s string) {
	h.int(len(s))
	_, _ = h.d.WriteString(s)
}

func (h *hasher) float(p *float64) {
	if p == nil {
		h.bool(false)
		return
	}
	h.bool(true)
	binary.LittleEndian.PutUint64(h.buf[:], math.Float64bits(*p))
	_, _ = h.d.Write(h.buf[:])
}

func (h *hasher) conds(group byte, cs []filter.Condition) {
	h.int(int(group))
	h.int(len(cs))
	for _, c := range cs {
		h.str(c.Key())
		h.str(c.Match())
		rng := c.Range()
		h.bool(rng != nil)
		if rng != nil {
			h.float(rng.GT())
			h.float(rng.GTE())
			h.float(rng.LT())
			h.float(rng.LTE())
		}
	}
}
