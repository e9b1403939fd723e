package testutils

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/aretw0/relview"
	"github.com/aretw0/relview/pkg/domain"
	"github.com/stretchr/testify/require"
)

// Request is a scripted relview.Request for tests.
type Request struct {
	Ctx       context.Context
	HTTPVerb  string
	URLPath   string
	Query     url.Values
	Body      map[string]any
	HostName  string
	RefererTo string
	Fmt       string
	Ajax      bool
	Sess      *domain.Session
}

var _ relview.Request = (*Request)(nil)

// NewRequest parses target ("/path?query") into a GET request on host "example.com"
// with a fresh session.
func NewRequest(t *testing.T, target string) *Request {
	t.Helper()

	u, err := url.Parse(target)
	require.NoError(t, err, "Failed to parse request target")

	return &Request{
		Ctx:      context.Background(),
		HTTPVerb: http.MethodGet,
		URLPath:  u.Path,
		Query:    u.Query(),
		HostName: "example.com",
		Fmt:      "json",
		Sess:     domain.NewSession("test-session"),
	}
}

// Post turns the request into a POST carrying body.
func (r *Request) Post(body map[string]any) *Request {
	r.HTTPVerb = http.MethodPost
	r.Body = body
	return r
}

func (r *Request) Context() context.Context { return r.Ctx }
func (r *Request) Method() string           { return strings.ToUpper(r.HTTPVerb) }
func (r *Request) Path() string             { return r.URLPath }
func (r *Request) Host() string             { return r.HostName }
func (r *Request) Referer() string          { return r.RefererTo }
func (r *Request) QueryParams() url.Values  { return r.Query }
func (r *Request) Format() string           { return r.Fmt }
func (r *Request) IsAjax() bool             { return r.Ajax }
func (r *Request) Session() *domain.Session { return r.Sess }

func (r *Request) Data() map[string]any {
	if r.Body == nil {
		return make(map[string]any)
	}
	return r.Body
}
