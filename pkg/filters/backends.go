package filters

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/relview/pkg/domain"
)

// CountBackend caps the number of rows. Place it last in a chain.
type CountBackend struct {
	// Key is the query parameter; "limit" when empty.
	Key string

	// Default applies when the parameter is absent or not a number. Zero means no cap.
	Default int
}

func (b CountBackend) Apply(s *State) error {
	key := b.Key
	if key == "" {
		key = "limit"
	}

	limit, err := strconv.Atoi(s.Query.Get(key))
	if err != nil || limit < 0 {
		if b.Default <= 0 {
			return nil
		}
		limit = b.Default
	}

	s.NoPagination = true
	if limit < len(s.Rows) {
		s.Rows = s.Rows[:limit]
	}
	return nil
}

// ExcludeBackend drops rows whose field named by "excludekey" (default "id")
// is listed in "excludevalue".
type ExcludeBackend struct {
	KeyParam   string
	ValueParam string
}

func (b ExcludeBackend) Apply(s *State) error {
	keyParam, valueParam := b.KeyParam, b.ValueParam
	if keyParam == "" {
		keyParam = "excludekey"
	}
	if valueParam == "" {
		valueParam = "excludevalue"
	}

	key := s.Query.Get(keyParam)
	if key == "" {
		key = "id"
	}
	raw := s.Query.Get(valueParam)

	if raw == "" {
		s.Applied["excluded_"+key] = nil
		return nil
	}
	s.Applied["excluded_"+key] = raw

	values := CSToList(raw)
	s.Rows = slices.DeleteFunc(slices.Clone(s.Rows), func(row any) bool {
		v, ok := field(row, key)
		return ok && in(v, values)
	})
	return nil
}

// OrderBackend sorts rows. "order_by" lists fields explicitly; otherwise
// "order" (default "default") names a clause, and a leading "-" reverses it.
type OrderBackend struct {
	OrderParam   string
	OrderByParam string

	// Clauses maps an order name to its fields; "-field" sorts descending.
	Clauses map[string][]string
}

func (b OrderBackend) Apply(s *State) error {
	orderParam, orderByParam := b.OrderParam, b.OrderByParam
	if orderParam == "" {
		orderParam = "order"
	}
	if orderByParam == "" {
		orderByParam = "order_by"
	}

	if by := s.Query.Get(orderByParam); by != "" {
		fields := make([]string, 0)
		for _, f := range CSToList(by) {
			if name, ok := f.(string); ok && strings.TrimSpace(name) != "" {
				fields = append(fields, strings.TrimSpace(name))
			}
		}
		s.Rows = sortRows(s.Rows, fields)
		s.Applied[orderByParam] = by
		return nil
	}

	order := s.Query.Get(orderParam)
	if order == "" {
		order = "default"
	}
	if fields := b.ordering(order); len(fields) > 0 {
		s.Rows = sortRows(s.Rows, fields)
		s.Applied[orderParam] = order
	}
	return nil
}

func (b OrderBackend) ordering(order string) []string {
	desc := strings.HasPrefix(order, "-")
	fields := b.Clauses[strings.TrimPrefix(order, "-")]
	if !desc {
		return fields
	}
	out := make([]string, len(fields))
	for i, f := range fields {
		if strings.HasPrefix(f, "-") {
			out[i] = f[1:]
		} else {
			out[i] = "-" + f
		}
	}
	return out
}

func sortRows(rows []any, fields []string) []any {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b any) int {
		for _, f := range fields {
			desc := strings.HasPrefix(f, "-")
			name := strings.TrimPrefix(f, "-")
			va, _ := field(a, name)
			vb, _ := field(b, name)
			c := compareValues(va, vb)
			if desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return out
}

// compareValues orders numbers numerically and everything else by printed form.
func compareValues(a, b any) int {
	fa, okA := number(a)
	fb, okB := number(b)
	if okA && okB {
		return cmp.Compare(fa, fb)
	}
	return strings.Compare(toString(a), toString(b))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ListFilter keeps rows whose Field is one of the comma separated values of Param.
type ListFilter struct {
	Field string

	// Param is the query parameter; Field when empty.
	Param string
}

func (f ListFilter) param() string {
	if f.Param != "" {
		return f.Param
	}
	return f.Field
}

func (f ListFilter) Apply(s *State) error {
	raw := s.Query.Get(f.param())
	if raw == "" {
		return nil
	}
	values := CSToList(raw)
	s.Rows = slices.DeleteFunc(slices.Clone(s.Rows), func(row any) bool {
		v, ok := field(row, f.Field)
		return !ok || !in(v, values)
	})
	s.Applied[f.param()] = raw
	return nil
}

// ExcludeListFilter drops rows whose Field is one of the comma separated values of Param.
type ExcludeListFilter struct {
	Field string
	Param string
}

func (f ExcludeListFilter) param() string {
	if f.Param != "" {
		return f.Param
	}
	return f.Field
}

func (f ExcludeListFilter) Apply(s *State) error {
	raw := s.Query.Get(f.param())
	if raw == "" {
		return nil
	}
	values := CSToList(raw)
	s.Rows = slices.DeleteFunc(slices.Clone(s.Rows), func(row any) bool {
		v, ok := field(row, f.Field)
		return ok && in(v, values)
	})
	s.Applied[f.param()] = raw
	return nil
}

// ValueListFilter is a ListFilter for plain value lists; every row must be a mapping.
type ValueListFilter struct {
	Field string
	Param string
}

func (f ValueListFilter) Apply(s *State) error {
	for _, row := range s.Rows {
		if _, ok := row.(map[string]any); !ok {
			return domain.ErrInvalidValueList
		}
	}
	return ListFilter(f).Apply(s)
}
