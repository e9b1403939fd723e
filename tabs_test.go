package relview_test

import (
	"net/url"
	"testing"

	"github.com/aretw0/relview"
	"github.com/stretchr/testify/assert"
)

func TestTabSelector_Select(t *testing.T) {
	tabs := &relview.TabSelector{
		Map:     map[string]string{"t1": "a,b", "t2": ",c,", "empty": ""},
		Default: "t2",
	}

	tests := []struct {
		name     string
		query    string
		wantTab  string
		wantList string
		wantOK   bool
	}{
		{"named tab", "tab=t1", "t1", "a,b", true},
		{"default tab", "", "t2", "c", true},
		{"unknown tab uses default entry", "tab=nope", "t2", "c", true},
		{"tab without views", "tab=empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			tab, list, ok := tabs.Select(q)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantTab, tab)
			assert.Equal(t, tt.wantList, list)
		})
	}
}

func TestTabSelector_NoDefault(t *testing.T) {
	tabs := &relview.TabSelector{Key: "section", Map: map[string]string{"t1": "a"}}

	_, _, ok := tabs.Select(url.Values{})
	assert.False(t, ok)

	_, _, ok = tabs.Select(url.Values{"section": {"unknown"}})
	assert.False(t, ok)

	tab, list, ok := tabs.Select(url.Values{"section": {"t1"}})
	assert.True(t, ok)
	assert.Equal(t, "t1", tab)
	assert.Equal(t, "a", list)
}

func TestTabSelector_Nil(t *testing.T) {
	var tabs *relview.TabSelector
	_, _, ok := tabs.Select(url.Values{"tab": {"t1"}})
	assert.False(t, ok)
}

func TestTabSelector_UnknownTab(t *testing.T) {
	tests := []struct {
		name     string
		tabs     *relview.TabSelector
		wantTab  string
		wantList string
		wantOK   bool
	}{
		{
			name:     "falls back to default entry",
			tabs:     &relview.TabSelector{Map: map[string]string{"main": "a,b", "side": "c"}, Default: "main"},
			wantTab:  "main",
			wantList: "a,b",
			wantOK:   true,
		},
		{
			name:   "no default means no tab",
			tabs:   &relview.TabSelector{Map: map[string]string{"main": "a,b", "side": "c"}},
			wantOK: false,
		},
		{
			name:   "undeclared default means no tab",
			tabs:   &relview.TabSelector{Map: map[string]string{"main": "a,b"}, Default: "gone"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab, list, ok := tt.tabs.Select(url.Values{"tab": {"nope"}})
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantTab, tab)
			assert.Equal(t, tt.wantList, list)
		})
	}
}
