package query

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/deppfellow/vacq/internal/errs"
)

const (
	DefaultPage  = 1
	DefaultLimit = 25

	// MaxLimit is the largest page size a listing serves.
	MaxLimit = 100
)

// Reserved query keys configure the listing and never become filters.
const (
	ParamSelect = "select"
	ParamSort   = "sort"
	ParamPage   = "page"
	ParamLimit  = "limit"
)

var reserved = map[string]bool{
	ParamSelect: true,
	ParamSort:   true,
	ParamPage:   true,
	ParamLimit:  true,
}

// Op is a comparison operator of a filter condition.
type Op string

const (
	Eq  Op = "eq"
	Gt  Op = "gt"
	Gte Op = "gte"
	Lt  Op = "lt"
	Lte Op = "lte"
	In  Op = "in"
)

var bracketOps = map[string]Op{
	"gt":  Gt,
	"gte": Gte,
	"lt":  Lt,
	"lte": Lte,
	"in":  In,
}

// filterKey matches `field[op]`.
var filterKey = regexp.MustCompile(`^([A-Za-z0-9_]+)\[([A-Za-z]*)\]$`)

// Condition is one typed comparison. Values holds exactly one element for
// every operator except In.
type Condition struct {
	Field  Field
	Op     Op
	Values []any
}

// SortKey orders results by one field.
type SortKey struct {
	Field Field
	Desc  bool
}

// Spec is a parsed listing request.
type Spec struct {
	Conditions []Condition
	Sort       []SortKey
	Projection Projection
	Page       int
	Limit      int
}

// Offset is the zero-based index of the first row of the page.
func (s *Spec) Offset() int {
	return (s.Page - 1) * s.Limit
}

// End is the exclusive index one past the last row of the page.
func (s *Spec) End() int {
	return s.Page * s.Limit
}

// Pagination computes the navigation hints for a filtered total.
func (s *Spec) Pagination(total int) Pagination {
	return NewPagination(s.Page, s.Limit, total)
}

type issues []errs.FieldError

func (is *issues) add(field, format string, args ...any) {
	*is = append(*is, errs.FieldError{Field: field, Error: fmt.Sprintf(format, args...)})
}

// Parse builds a Spec from URL query values.
//
// Every problem found is reported at once as a 400 *errs.HTTPError with one
// field error per offending parameter.
func Parse(values url.Values, schema Schema) (*Spec, error) {
	var problems issues

	spec := &Spec{
		Page:  positiveInt(values.Get(ParamPage), DefaultPage),
		Limit: positiveInt(values.Get(ParamLimit), DefaultLimit),
	}

	// page*limit must fit in an int so Offset and End never wrap.
	switch {
	case spec.Limit > MaxLimit:
		problems.add(ParamLimit, "must be at most %d", MaxLimit)
	case spec.Page > math.MaxInt/spec.Limit:
		problems.add(ParamPage, "must be at most %d for limit %d", math.MaxInt/spec.Limit, spec.Limit)
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if reserved[key] {
			continue
		}
		if cond, ok := parseCondition(key, values[key], schema, &problems); ok {
			spec.Conditions = append(spec.Conditions, cond)
		}
	}

	spec.Projection = parseProjection(values[ParamSelect], schema, &problems)
	spec.Sort = parseSort(values[ParamSort], schema, &problems)

	if len(problems) > 0 {
		return nil, errs.NewBadRequestError("Invalid query parameters", true, nil, problems, nil)
	}

	return spec, nil
}

func parseCondition(key string, raws []string, schema Schema, problems *issues) (Condition, bool) {
	name, op := key, Eq

	if m := filterKey.FindStringSubmatch(key); m != nil {
		var ok bool
		name = m[1]
		if op, ok = bracketOps[strings.ToLower(m[2])]; !ok {
			problems.add(key, "unsupported operator %q (use gt, gte, lt, lte or in)", m[2])
			return Condition{}, false
		}
	}

	field, ok := schema.Field(name)
	if !ok || !field.Filterable {
		problems.add(name, "is not a filterable field")
		return Condition{}, false
	}

	switch {
	case op == In:
		split := splitList(raws)
		if len(split) == 0 {
			problems.add(key, "must list at least one value")
			return Condition{}, false
		}
		raws = split
	case op == Eq && len(raws) > 1:
		// Repeated plain keys collapse into a membership test.
		op = In
	case len(raws) > 1:
		problems.add(key, "must be given only once")
		return Condition{}, false
	}

	cond := Condition{Field: field, Op: op, Values: make([]any, 0, len(raws))}
	for _, raw := range raws {
		v, err := field.Kind.parse(raw)
		if err != nil {
			problems.add(key, "%s", err.Error())
			return Condition{}, false
		}
		cond.Values = append(cond.Values, v)
	}

	return cond, true
}

// splitList flattens repeated and comma-separated parameter values.
func splitList(raws []string) []string {
	var out []string
	for _, raw := range raws {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseProjection(raws []string, schema Schema, problems *issues) Projection {
	names := splitList(raws)
	if len(names) == 0 {
		return DefaultProjection(schema)
	}

	p := Projection{schema: schema, include: map[string]bool{schema.key: true}, explicit: true}
	for _, name := range names {
		field, ok := schema.Field(name)
		if !ok {
			problems.add(ParamSelect, "unknown field %q", name)
			continue
		}
		if !field.Selectable {
			problems.add(ParamSelect, "cannot select %q", name)
			continue
		}
		p.include[name] = true
	}

	return p
}

func parseSort(raws []string, schema Schema, problems *issues) []SortKey {
	names := splitList(raws)

	var keys []SortKey
	if len(names) == 0 {
		keys = append(keys, schema.dflt...)
	}

	seen := map[string]bool{}
	for _, name := range names {
		desc := strings.HasPrefix(name, "-")
		name = strings.TrimPrefix(strings.TrimPrefix(name, "-"), "+")

		field, ok := schema.Field(name)
		if !ok || !field.Sortable {
			problems.add(ParamSort, "cannot sort by %q", name)
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		keys = append(keys, SortKey{Field: field, Desc: desc})
	}

	for _, k := range keys {
		if k.Field.Name == schema.key {
			return keys
		}
	}

	return append(keys, SortKey{Field: schema.Key()})
}

// positiveInt parses a page or limit value. Missing, malformed and
// non-positive values fall back to dflt.
func positiveInt(raw string, dflt int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 1 {
		return dflt
	}
	return v
}

// Projection is the set of fields returned for each listed document.
type Projection struct {
	schema   Schema
	include  map[string]bool
	explicit bool
}

// DefaultProjection includes every Selectable field that is not Hidden.
func DefaultProjection(schema Schema) Projection {
	p := Projection{schema: schema, include: map[string]bool{}}
	for _, f := range schema.Fields() {
		if f.Selectable && !f.Hidden {
			p.include[f.Name] = true
		}
	}
	return p
}

// Explicit reports whether the projection came from a select parameter.
func (p Projection) Explicit() bool {
	return p.explicit
}

// Includes reports whether the named field is projected.
func (p Projection) Includes(name string) bool {
	return p.include[name]
}

// Fields returns projected field names in schema order.
func (p Projection) Fields() []string {
	var out []string
	for _, f := range p.schema.Fields() {
		if p.include[f.Name] {
			out = append(out, f.Name)
		}
	}
	return out
}

// Apply removes unprojected schema fields from doc in place and returns it.
// Keys that are not schema fields, such as populated relations, are kept.
func (p Projection) Apply(doc map[string]any) map[string]any {
	for key := range doc {
		if _, isField := p.schema.Field(key); isField && !p.include[key] {
			delete(doc, key)
		}
	}
	return doc
}

// PageRef points at a neighbouring page.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination holds navigation hints. A nil pointer means there is no such page.
type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

// NewPagination derives next/prev from the page window and the filtered total:
// next exists iff page*limit < total, prev exists iff (page-1)*limit > 0.
func NewPagination(page, limit, total int) Pagination {
	var p Pagination

	startIndex := (page - 1) * limit
	endIndex := page * limit

	if endIndex < total {
		p.Next = &PageRef{Page: page + 1, Limit: limit}
	}
	if startIndex > 0 {
		p.Prev = &PageRef{Page: page - 1, Limit: limit}
	}

	return p
}
