package relview

import (
	"net/url"
	"sort"
	"strings"
)

// DefaultRelviewKey is the query parameter listing related views.
const DefaultRelviewKey = "relview"

// Router decides which related views run for a request.
type Router struct {
	// Key is the query parameter to read; DefaultRelviewKey when empty.
	Key string

	// Default is used when the request names no views. Empty means "all".
	Default string

	// Always is appended to every resolved list.
	Always string
}

func (r Router) key() string {
	if r.Key != "" {
		return r.Key
	}
	return DefaultRelviewKey
}

// explicit returns the list named by the request or by the router default.
func (r Router) explicit(q url.Values) (string, bool) {
	if vals, ok := q[r.key()]; ok {
		return strings.Join(vals, ","), true
	}
	if r.Default != "" {
		return r.Default, true
	}
	return "", false
}

func (r Router) withAlways(list string) string {
	if r.Always == "" {
		return list
	}
	return list + "," + r.Always
}

// RequestedViews returns the ordered names of the views to run.
// A present but empty query value requests nothing beyond Always.
func (r Router) RequestedViews(q url.Values, declared []string) []string {
	list, ok := r.explicit(q)
	if !ok {
		list = "all"
	}
	return ParseNames(r.withAlways(list), declared)
}

// ParseNames expands a comma separated name list against the declared names.
// "all" adds every declared name, "-name" excludes name wherever it appears.
// The result keeps first-seen order and holds no duplicates.
func ParseNames(list string, declared []string) []string {
	var include []string
	seen := make(map[string]bool)
	exclude := make(map[string]bool)

	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			include = append(include, name)
		}
	}

	for _, tok := range strings.Split(list, ",") {
		tok = strings.TrimSpace(tok)
		switch {
		case tok == "":
		case tok == "all":
			for _, d := range declared {
				add(d)
			}
		case tok[0] == '-':
			exclude[strings.TrimSpace(tok[1:])] = true
		default:
			add(tok)
		}
	}

	out := make([]string, 0, len(include))
	for _, name := range include {
		if !exclude[name] {
			out = append(out, name)
		}
	}
	return out
}

// ResolveParams builds the parameters of one related view from its spec and
// the current view's parameters. Tokens are comma separated:
//
//	*           every current parameter
//	key=value   a literal; ':' in value stands for ','
//	src as dst  current src copied to dst
//	key         current key copied through
//
// A bare token right after a literal that names no current parameter
// continues the literal's value, so "a=1:2,3" yields a="1,2,3".
// Copies only happen for present, non-empty values.
func ResolveParams(spec string, current Params) Params {
	out := make(Params)
	literal := ""
	for _, tok := range strings.Split(strings.Trim(spec, ","), ",") {
		tok = strings.TrimSpace(tok)
		switch {
		case tok == "":
		case tok == "*":
			literal = ""
			for k, v := range current {
				out[k] = v
			}
		case strings.Contains(tok, "="):
			k, v, _ := strings.Cut(tok, "=")
			literal = strings.TrimSpace(k)
			out[literal] = strings.ReplaceAll(strings.TrimSpace(v), ":", ",")
		case strings.Contains(tok, " as "):
			literal = ""
			src, dst, _ := strings.Cut(tok, " as ")
			if v := current[strings.TrimSpace(src)]; v != "" {
				out[strings.TrimSpace(dst)] = v
			}
		default:
			if _, known := current[tok]; literal != "" && !known {
				out[literal] += "," + strings.ReplaceAll(tok, ":", ",")
				continue
			}
			literal = ""
			if v := current[tok]; v != "" {
				out[tok] = v
			}
		}
	}
	return out
}

// CurrentParams merges the query string into kwargs: multi-valued keys are
// joined with commas and kwargs win on conflicts.
func CurrentParams(q url.Values, kwargs Params) Params {
	out := make(Params, len(q)+len(kwargs))
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out[k] = strings.Join(q[k], ",")
	}
	for k, v := range kwargs {
		out[k] = v
	}
	return out
}
