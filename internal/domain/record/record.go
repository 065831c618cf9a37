package record

import (
	"maps"
	"strings"
)

// Record is anything that can be resolved from a search hit.
type Record interface {
	RecordID() string
}

// Document is a generic record: an identifier plus its stored fields.
type Document struct {
	id     string
	fields map[string]string
}

// NewDocument creates a document. The fields map is copied.
func NewDocument(id string, fields map[string]string) Document {
	return Document{id: id, fields: maps.Clone(fields)}
}

// RecordID returns the document identifier.
func (d Document) RecordID() string { return d.id }

// Field returns a stored field value.
func (d Document) Field(name string) (string, bool) {
	v, ok := d.fields[name]
	return v, ok
}

// Fields returns a copy of the stored fields.
func (d Document) Fields() map[string]string { return maps.Clone(d.fields) }

// RenderList renders records as "[<kind: id>, ...]".
func RenderList[R Record](kind Kind, recs []R) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, r := range recs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('<')
		b.WriteString(kind.Name)
		b.WriteString(": ")
		b.WriteString(r.RecordID())
		b.WriteByte('>')
	}
	b.WriteByte(']')
	return b.String()
}
