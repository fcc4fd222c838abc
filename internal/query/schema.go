// Package query turns URL query parameters into a structured listing request.
//
// A request such as
//
//	?region=Bangkok&postalcode[gte]=10100&select=name,tel&sort=-name&page=2&limit=10
//
// becomes a Spec holding typed comparison conditions, a projection, an
// ordered sort and pagination bounds. The Spec compiles to a parameterised SQL
// predicate for the database and can also be evaluated against in-memory
// documents. Column names only ever come from the Schema and values only ever
// travel as bind arguments, so no client text is spliced into SQL.
package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the value type of a field. Filter values are coerced to it.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindFloat:
		return "number"
	case KindTime:
		return "timestamp"
	default:
		return "string"
	}
}

// timeLayouts are tried in order when coercing a filter value to KindTime.
var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

// parse coerces a raw query value.
func (k Kind) parse(raw string) (any, error) {
	switch k {
	case KindInt:
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("must be an integer")
		}
		return v, nil
	case KindFloat:
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("must be a number")
		}
		return v, nil
	case KindTime:
		for _, layout := range timeLayouts {
			if v, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
				return v.UTC(), nil
			}
		}
		return nil, fmt.Errorf("must be an RFC 3339 timestamp or YYYY-MM-DD date")
	default:
		return raw, nil
	}
}

// Field describes one public attribute of a listed resource.
type Field struct {
	// Name is the public (JSON and query string) name, e.g. "postalcode".
	Name string
	// Column is the SQL column, e.g. "postal_code".
	Column string
	Kind   Kind

	Filterable bool
	Sortable   bool
	// Selectable fields may be returned to clients. Other fields never leave
	// the server, whatever the select parameter says.
	Selectable bool

	// Hidden fields are left out of the default projection but may still be
	// requested explicitly with select.
	Hidden bool
}

// Schema is the set of fields a listing endpoint accepts.
type Schema struct {
	fields map[string]Field
	order  []string
	key    string
	dflt   []SortKey
}

// NewSchema builds a Schema. key names the unique identifier field, which is
// always projected and always used as the final sort tiebreaker, so it must
// be Selectable.
// defaultSort is applied when the request carries no sort parameter.
func NewSchema(key string, defaultSort []string, fields ...Field) Schema {
	s := Schema{
		fields: make(map[string]Field, len(fields)),
		key:    key,
	}

	for _, f := range fields {
		s.fields[f.Name] = f
		s.order = append(s.order, f.Name)
	}

	if f, ok := s.fields[key]; !ok {
		panic(fmt.Sprintf("query: key field %q is not part of the schema", key))
	} else if !f.Selectable {
		panic(fmt.Sprintf("query: key field %q must be selectable", key))
	}

	for _, name := range defaultSort {
		desc := strings.HasPrefix(name, "-")
		f, ok := s.fields[strings.TrimPrefix(name, "-")]
		if !ok {
			panic(fmt.Sprintf("query: default sort field %q is not part of the schema", name))
		}
		s.dflt = append(s.dflt, SortKey{Field: f, Desc: desc})
	}

	return s
}

// Field looks up a field by public name.
func (s Schema) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Fields returns every field in declaration order.
func (s Schema) Fields() []Field {
	out := make([]Field, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.fields[name])
	}
	return out
}

// Key returns the identifier field.
func (s Schema) Key() Field {
	return s.fields[s.key]
}

// Columns returns every column in declaration order, for SELECT lists.
func (s Schema) Columns() []string {
	out := make([]string, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.fields[name].Column)
	}
	return out
}
