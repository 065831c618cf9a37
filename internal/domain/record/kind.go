package record

import (
	"fmt"
	"slices"
)

// FieldKind is how a field is indexed by the search backend.
type FieldKind string

// Field kind constants.
const (
	// Keyword fields match exactly (case-insensitive) and can be sorted and faceted.
	Keyword FieldKind = "keyword"
	// Text fields are analyzed for full-text queries only.
	Text    FieldKind = "text"
	Numeric FieldKind = "numeric"
)

// IsValid reports whether k is a known field kind.
func (k FieldKind) IsValid() bool {
	return k == Keyword || k == Text || k == Numeric
}

// Kind identifies a record type and the index that holds its documents.
type Kind struct {
	Name         string
	Index        string
	Prefix       string
	Table        string
	DefaultField string
	Fields       map[string]FieldKind
}

// Validate checks identifiers and declared fields.
func (k Kind) Validate() error {
	if !IsValidIdentifier(k.Name) {
		return fmt.Errorf("invalid kind name %q", k.Name)
	}
	if !IsValidIdentifier(k.Index) {
		return fmt.Errorf("kind %q: invalid index name %q", k.Name, k.Index)
	}
	if k.Table != "" && !IsValidIdentifier(k.Table) {
		return fmt.Errorf("kind %q: invalid table name %q", k.Name, k.Table)
	}
	for name, fk := range k.Fields {
		if !IsValidIdentifier(name) {
			return fmt.Errorf("kind %q: invalid field name %q", k.Name, name)
		}
		if !fk.IsValid() {
			return fmt.Errorf("kind %q: field %q has invalid kind %q", k.Name, name, fk)
		}
	}
	if k.DefaultField != "" && len(k.Fields) > 0 {
		if _, ok := k.Fields[k.DefaultField]; !ok {
			return fmt.Errorf("kind %q: default field %q is not declared", k.Name, k.DefaultField)
		}
	}
	return nil
}

// FieldKind returns the declared kind of a field.
// Kinds without declared fields accept any field as Keyword.
func (k Kind) FieldKind(name string) (FieldKind, bool) {
	if len(k.Fields) == 0 {
		return Keyword, true
	}
	fk, ok := k.Fields[name]
	return fk, ok
}

// FieldNames returns the declared field names in sorted order.
func (k Kind) FieldNames() []string {
	names := make([]string, 0, len(k.Fields))
	for name := range k.Fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsValidIdentifier checks that s contains only safe characters
// for index, table and field names: [a-zA-Z0-9_:-].
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
