package filters

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/aretw0/relview"
)

// FiltersKey is the response field listing applied filters.
const FiltersKey = "filters"

// Applied maps a filter parameter to the value it was applied with.
type Applied map[string]any

// State is what backends read and rewrite while a chain runs.
type State struct {
	Query   url.Values
	Rows    []any
	Applied Applied

	// NoPagination is set by backends that already capped the rows.
	NoPagination bool
}

// Backend narrows or reorders rows.
type Backend interface {
	Apply(s *State) error
}

// BackendFunc adapts a function to a Backend.
type BackendFunc func(s *State) error

func (f BackendFunc) Apply(s *State) error { return f(s) }

// Chain runs backends in order over rows.
func Chain(q url.Values, rows []any, backends ...Backend) (*State, error) {
	s := &State{Query: q, Rows: rows, Applied: make(Applied)}
	for _, b := range backends {
		if err := b.Apply(s); err != nil {
			return nil, fmt.Errorf("failed to apply filter %T: %w", b, err)
		}
	}
	return s, nil
}

// AttachApplied adds the applied filters to an object body.
func AttachApplied(resp *relview.Response, applied Applied) {
	if len(applied) == 0 {
		return
	}
	if data, ok := resp.Body.Object(); ok {
		data[FiltersKey] = map[string]any(applied)
	}
}

// NoPagination wraps rows as {"results": rows}.
func NoPagination(rows []any) relview.Body {
	if rows == nil {
		rows = []any{}
	}
	return relview.ObjectBody(map[string]any{"results": rows})
}

// CSToList splits a comma separated value. When the first item is numeric
// every item is parsed as an integer.
func CSToList(value string) []any {
	if value == "" {
		return []any{}
	}
	raw := strings.Split(value, ",")
	out := make([]any, len(raw))

	if isDigits(raw[0]) {
		ints := make([]any, len(raw))
		ok := true
		for i, v := range raw {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				ok = false
				break
			}
			ints[i] = n
		}
		if ok {
			return ints
		}
	}
	for i, v := range raw {
		out[i] = v
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// field returns row[name] when row is a mapping.
func field(row any, name string) (any, bool) {
	m, ok := row.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[name]
	return v, ok
}

// in reports whether v equals one of set. Values compare by their printed form,
// so JSON numbers match parsed integers.
func in(v any, set []any) bool {
	s := fmt.Sprint(v)
	for _, x := range set {
		if fmt.Sprint(x) == s {
			return true
		}
	}
	return false
}
