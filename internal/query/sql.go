package query

import (
	"fmt"
	"strings"
	"time"
)

var sqlOps = map[Op]string{
	Eq:  "=",
	Gt:  ">",
	Gte: ">=",
	Lt:  "<",
	Lte: "<=",
}

// WhereSQL compiles the conditions into a predicate for a WHERE clause.
// Placeholders are numbered from argStart so the predicate can be combined
// with other bind arguments. An empty filter compiles to TRUE.
func (s *Spec) WhereSQL(argStart int) (string, []any) {
	if len(s.Conditions) == 0 {
		return "TRUE", nil
	}

	parts := make([]string, 0, len(s.Conditions))
	args := make([]any, 0, len(s.Conditions))

	n := argStart
	for _, c := range s.Conditions {
		if c.Op == In {
			parts = append(parts, fmt.Sprintf("%s = ANY($%d)", c.Field.Column, n))
			args = append(args, typedSlice(c.Field.Kind, c.Values))
		} else {
			parts = append(parts, fmt.Sprintf("%s %s $%d", c.Field.Column, sqlOps[c.Op], n))
			args = append(args, c.Values[0])
		}
		n++
	}

	return strings.Join(parts, " AND "), args
}

// OrderSQL compiles the sort keys into an ORDER BY list.
func (s *Spec) OrderSQL() string {
	parts := make([]string, 0, len(s.Sort))
	for _, k := range s.Sort {
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		parts = append(parts, k.Field.Column+" "+dir)
	}
	return strings.Join(parts, ", ")
}

// typedSlice converts In values to a slice pgx can encode as a Postgres array
// of the column's type.
func typedSlice(kind Kind, values []any) any {
	switch kind {
	case KindInt:
		out := make([]int64, 0, len(values))
		for _, v := range values {
			out = append(out, v.(int64))
		}
		return out
	case KindFloat:
		out := make([]float64, 0, len(values))
		for _, v := range values {
			out = append(out, v.(float64))
		}
		return out
	case KindTime:
		out := make([]time.Time, 0, len(values))
		for _, v := range values {
			out = append(out, v.(time.Time))
		}
		return out
	default:
		out := make([]string, 0, len(values))
		for _, v := range values {
			out = append(out, v.(string))
		}
		return out
	}
}
