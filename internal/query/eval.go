package query

import (
	"strings"
	"time"
)

// Matches reports whether a document satisfies every condition. Documents
// are keyed by public field name, the shape produced by the model types.
func (s *Spec) Matches(doc map[string]any) bool {
	for _, c := range s.Conditions {
		if !c.Matches(doc[c.Field.Name]) {
			return false
		}
	}
	return true
}

// Matches evaluates the condition against a single value. A missing value
// never matches.
func (c Condition) Matches(value any) bool {
	value = normalize(value)
	if value == nil {
		return false
	}

	switch c.Op {
	case In:
		for _, want := range c.Values {
			if cmp, ok := compare(value, want); ok && cmp == 0 {
				return true
			}
		}
		return false
	default:
		cmp, ok := compare(value, c.Values[0])
		if !ok {
			return false
		}
		switch c.Op {
		case Eq:
			return cmp == 0
		case Gt:
			return cmp > 0
		case Gte:
			return cmp >= 0
		case Lt:
			return cmp < 0
		case Lte:
			return cmp <= 0
		}
		return false
	}
}

// Less orders two documents by the sort keys. Missing values sort before
// present ones.
func (s *Spec) Less(a, b map[string]any) bool {
	for _, k := range s.Sort {
		av, bv := normalize(a[k.Field.Name]), normalize(b[k.Field.Name])

		var cmp int
		switch {
		case av == nil && bv == nil:
			continue
		case av == nil:
			cmp = -1
		case bv == nil:
			cmp = 1
		default:
			var ok bool
			if cmp, ok = compare(av, bv); !ok {
				continue
			}
		}

		if cmp == 0 {
			continue
		}
		if k.Desc {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}

// compare returns -1, 0 or 1. ok is false when the values are not comparable.
func compare(a, b any) (int, bool) {
	a, b = normalize(a), normalize(b)

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case int64:
		switch bv := b.(type) {
		case int64:
			return cmpOrdered(av, bv), true
		case float64:
			return cmpOrdered(float64(av), bv), true
		}
	case float64:
		switch bv := b.(type) {
		case float64:
			return cmpOrdered(av, bv), true
		case int64:
			return cmpOrdered(av, float64(bv)), true
		}
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	}
	return 0, false
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// normalize widens numeric values so comparisons see one type per kind.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float32:
		return float64(n)
	case time.Time:
		return n.UTC()
	case *string:
		if n == nil {
			return nil
		}
		return *n
	case *time.Time:
		if n == nil {
			return nil
		}
		return n.UTC()
	}
	return v
}
