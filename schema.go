package docset

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

const tagKey = "docset"

// schemaMeta holds parsed struct tag metadata, cached per Index.
type schemaMeta struct {
	typ          reflect.Type
	idIdx        int
	defaultField string
	fields       []fieldMapping
}

type fieldMapping struct {
	structIdx int
	name      string
	kind      FieldKind
}

// parseSchema reflects on T and extracts docset struct tag metadata.
//
//	type Person struct {
//		ID       string  `docset:"id,id"`
//		Username string  `docset:"username,keyword"`
//		Bio      string  `docset:"bio,text,default"`
//		Age      int     `docset:"age,numeric"`
//	}
func parseSchema[T any]() (*schemaMeta, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return nil, fmt.Errorf("docset: type parameter is an interface")
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("docset: type %s is not a struct", t)
	}

	meta := &schemaMeta{typ: t, idIdx: -1}
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get(tagKey)
		if tag == "" || tag == "-" {
			continue
		}
		if !f.IsExported() {
			return nil, fmt.Errorf("docset: field %s is tagged but not exported", f.Name)
		}
		if err := applyTag(meta, i, f, tag); err != nil {
			return nil, err
		}
	}

	if meta.idIdx == -1 {
		return nil, fmt.Errorf("docset: no field with `docset:\"...,id\"` tag in %s", t)
	}
	return meta, nil
}

// applyTag processes a single struct field's docset tag.
func applyTag(meta *schemaMeta, idx int, f reflect.StructField, tag string) error {
	parts := strings.Split(tag, ",")
	name := parts[0]
	if name == "" {
		name = strings.ToLower(f.Name)
	}

	var (
		kind      FieldKind
		isDefault bool
	)
	for _, mod := range parts[1:] {
		switch mod {
		case "id":
			if meta.idIdx != -1 {
				return fmt.Errorf("docset: duplicate id tag on field %s", f.Name)
			}
			if f.Type.Kind() != reflect.String {
				return fmt.Errorf("docset: id field %s must be a string", f.Name)
			}
			meta.idIdx = idx
			return nil
		case "keyword", "text", "numeric":
			if kind != "" {
				return fmt.Errorf("docset: field %s has more than one kind", f.Name)
			}
			kind = FieldKind(mod)
		case "default":
			isDefault = true
		default:
			return fmt.Errorf("docset: unknown modifier %q on field %s", mod, f.Name)
		}
	}
	if kind == "" {
		kind = Keyword
	}

	switch {
	case kind == Numeric && !isNumber(f.Type.Kind()):
		return fmt.Errorf("docset: numeric field %s must be a number, got %s", f.Name, f.Type)
	case kind != Numeric && f.Type.Kind() != reflect.String:
		return fmt.Errorf("docset: %s field %s must be a string, got %s", kind, f.Name, f.Type)
	}

	if isDefault {
		if meta.defaultField != "" {
			return fmt.Errorf("docset: duplicate default tag on field %s", f.Name)
		}
		meta.defaultField = name
	}
	meta.fields = append(meta.fields, fieldMapping{structIdx: idx, name: name, kind: kind})
	return nil
}

// kind builds the record kind described by the schema.
func (m *schemaMeta) kind(name, index string) Kind {
	fields := make(map[string]FieldKind, len(m.fields))
	for _, f := range m.fields {
		fields[f.name] = f.kind
	}
	return Kind{
		Name:         name,
		Index:        index,
		Prefix:       name + ":",
		Table:        name,
		DefaultField: m.defaultField,
		Fields:       fields,
	}
}

// toDocument converts a typed struct to a Document.
func (m *schemaMeta) toDocument(item any) Document {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	fields := make(map[string]string, len(m.fields))
	for _, f := range m.fields {
		fv := v.Field(f.structIdx)
		if f.kind == Numeric {
			fields[f.name] = strconv.FormatFloat(toFloat64(fv), 'f', -1, 64)
		} else {
			fields[f.name] = fv.String()
		}
	}
	return NewDocument(v.Field(m.idIdx).String(), fields)
}

// fromDocument converts a Document back to a typed struct.
// Missing fields keep their zero value.
func (m *schemaMeta) fromDocument(doc Document) (any, error) {
	v := reflect.New(m.typ).Elem()
	v.Field(m.idIdx).SetString(doc.RecordID())

	for _, f := range m.fields {
		raw, ok := doc.Field(f.name)
		if !ok {
			continue
		}
		fv := v.Field(f.structIdx)
		if f.kind != Numeric {
			fv.SetString(raw)
			continue
		}
		if raw == "" {
			continue
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("docset: record %s field %s: %q is not a number", doc.RecordID(), f.name, raw)
		}
		setFloat(fv, n)
	}
	return v.Interface(), nil
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func toFloat64(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default:
		return 0
	}
}

func setFloat(v reflect.Value, f float64) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		v.SetFloat(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.SetInt(int64(f))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v.SetUint(uint64(f))
	}
}
