package order

import (
	"fmt"
	"strings"
)

// Direction is the sort direction of an ordering key.
type Direction string

// Direction constants.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// IsValid checks if the direction is one of the supported values.
func (d Direction) IsValid() bool {
	return d == Asc || d == Desc
}

// Key is a single (field, direction) ordering clause.
type Key struct {
	field string
	dir   Direction
}

// New validates and creates an ordering key. Empty direction means ascending.
func New(field string, dir Direction) (Key, error) {
	if field == "" {
		return Key{}, fmt.Errorf("order field is required")
	}
	if dir == "" {
		dir = Asc
	}
	if !dir.IsValid() {
		return Key{}, fmt.Errorf("invalid order direction %q for %q", dir, field)
	}
	return Key{field: field, dir: dir}, nil
}

// Parse reads "field", "+field" (ascending) or "-field" (descending).
func Parse(s string) (Key, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "-"):
		return New(s[1:], Desc)
	case strings.HasPrefix(s, "+"):
		return New(s[1:], Asc)
	default:
		return New(s, Asc)
	}
}

// ParseList parses each entry of ss, stopping at the first invalid one.
func ParseList(ss ...string) ([]Key, error) {
	keys := make([]Key, 0, len(ss))
	for _, s := range ss {
		k, err := Parse(s)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Field returns the sort field.
func (k Key) Field() string { return k.field }

// Direction returns the sort direction.
func (k Key) Direction() Direction { return k.dir }

// Desc reports whether the key sorts descending.
func (k Key) Desc() bool { return k.dir == Desc }

// String renders the key in the form accepted by Parse.
func (k Key) String() string {
	if k.dir == Desc {
		return "-" + k.field
	}
	return k.field
}
