package relview

import (
	"net/url"
	"strings"
)

// DefaultTabKey is the query parameter selecting a tab.
const DefaultTabKey = "tab"

// CurrentTabKey is the response field naming the resolved tab.
const CurrentTabKey = "current_tab"

// TabSelector picks the related views of a request from a named tab.
type TabSelector struct {
	// Key is the query parameter to read; DefaultTabKey when empty.
	Key string

	// Map binds a tab name to a comma separated list of related views.
	Map map[string]string

	// Default is the tab used when the request names none, and the entry
	// used when the request names an unknown tab.
	Default string
}

func (t *TabSelector) key() string {
	if t.Key != "" {
		return t.Key
	}
	return DefaultTabKey
}

// Select resolves the tab of a request. ok is false when no tab applies.
func (t *TabSelector) Select(q url.Values) (tab, list string, ok bool) {
	if t == nil || len(t.Map) == 0 {
		return "", "", false
	}
	tab = strings.TrimSpace(q.Get(t.key()))
	if tab == "" {
		tab = t.Default
	}
	if tab == "" {
		return "", "", false
	}
	list, found := t.Map[tab]
	if !found {
		tab = t.Default
		list = t.Map[tab]
	}
	list = strings.Trim(list, ",")
	if strings.TrimSpace(list) == "" {
		return "", "", false
	}
	return tab, list, true
}
