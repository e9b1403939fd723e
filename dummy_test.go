package relview_test

import (
	"net/url"
	"testing"

	"github.com/aretw0/relview"
	"github.com/aretw0/relview/internal/testutils"
	"github.com/stretchr/testify/assert"
)

func TestDummyRequest_OwnsQueryParams(t *testing.T) {
	req := testutils.NewRequest(t, "/profile?page=3&relview=all")
	req.Body = map[string]any{"name": "primary"}

	dummy := relview.NewDummyRequest(req)
	assert.Empty(t, dummy.QueryParams())
	assert.Empty(t, dummy.Data())
	assert.True(t, dummy.IsDummy())
	assert.True(t, relview.IsDummy(dummy))
	assert.False(t, relview.IsDummy(req))

	dummy.SetQueryParams(relview.Params{"page": "1"})
	assert.Equal(t, url.Values{"page": {"1"}}, dummy.QueryParams())

	// The primary request is untouched.
	assert.Equal(t, "3", req.QueryParams().Get("page"))
	assert.Equal(t, "primary", req.Data()["name"])
}

func TestDummyRequest_Reset(t *testing.T) {
	dummy := relview.NewDummyRequest(testutils.NewRequest(t, "/"))

	dummy.SetQueryParams(relview.Params{"a": "1"})
	dummy.SetData(map[string]any{"b": 2})
	dummy.Reset()

	assert.Empty(t, dummy.Params())
	assert.Empty(t, dummy.Data())
}

func TestDummyRequest_ParamsAreCopies(t *testing.T) {
	dummy := relview.NewDummyRequest(testutils.NewRequest(t, "/"))
	in := relview.Params{"a": "1"}
	dummy.SetQueryParams(in)

	in["a"] = "changed"
	out := dummy.Params()
	out["b"] = "2"

	assert.Equal(t, relview.Params{"a": "1"}, dummy.Params())
}

func TestDummyRequest_Delegates(t *testing.T) {
	req := testutils.NewRequest(t, "/profile")
	req.RefererTo = "http://example.com/home"
	req.Ajax = true

	dummy := relview.NewDummyRequest(req)

	assert.Equal(t, "/profile", dummy.Path())
	assert.Equal(t, "example.com", dummy.Host())
	assert.Equal(t, "http://example.com/home", dummy.Referer())
	assert.True(t, dummy.IsAjax())
	assert.Same(t, req.Session(), dummy.Session())
	assert.Same(t, req, dummy.Unwrap())
}
