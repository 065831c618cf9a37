package request

import "github.com/kailas-cloud/docset/internal/domain"

// Bounds is a half-open [start, stop) slice window. The zero value is unbounded.
type Bounds struct {
	start   int
	stop    int
	hasStop bool
}

// IsZero reports whether the window is unbounded.
func (b Bounds) IsZero() bool { return b.start == 0 && !b.hasStop }

// Start returns the offset of the window.
func (b Bounds) Start() int { return b.start }

// Stop returns the exclusive end of the window, if any.
func (b Bounds) Stop() (int, bool) { return b.stop, b.hasStop }

// Limit returns the window size, if the window has an end.
func (b Bounds) Limit() (int, bool) {
	if !b.hasStop {
		return 0, false
	}
	return b.stop - b.start, true
}

// Narrow applies a [start, stop) slice relative to b.
// The result never extends past b. A stop before start yields an empty window.
func (b Bounds) Narrow(start, stop int, hasStop bool) (Bounds, error) {
	if start < 0 {
		return b, domain.NewBuildError("", "negative slice start %d", start)
	}
	if hasStop && stop < 0 {
		return b, domain.NewBuildError("", "negative slice stop %d", stop)
	}

	n := Bounds{start: b.start + start}
	if b.hasStop {
		n.start = min(n.start, b.stop)
	}
	switch {
	case hasStop:
		n.stop = max(b.start+stop, n.start)
		if b.hasStop {
			n.stop = min(n.stop, b.stop)
		}
		n.hasStop = true
	case b.hasStop:
		n.stop = b.stop
		n.hasStop = true
	}
	return n, nil
}

// Clamp returns how many of total matching documents fall inside the window.
func (b Bounds) Clamp(total int) int {
	n := max(total-b.start, 0)
	if b.hasStop {
		n = min(n, b.stop-b.start)
	}
	return n
}
