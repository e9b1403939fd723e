package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/aretw0/relview"
	"github.com/aretw0/relview/pkg/domain"
)

const maxBodyBytes = 1 << 20

// Request adapts *http.Request to relview.Request.
type Request struct {
	r    *http.Request
	sess *domain.Session
	data map[string]any
}

var _ relview.Request = (*Request)(nil)

// NewRequest wraps r. Form and JSON bodies are decoded eagerly.
func NewRequest(r *http.Request, sess *domain.Session) (*Request, error) {
	req := &Request{r: r, sess: sess}
	data, err := decodeBody(r)
	if err != nil {
		return nil, err
	}
	req.data = data
	return req, nil
}

func decodeBody(r *http.Request) (map[string]any, error) {
	if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
		return nil, nil
	}

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/json":
		var data map[string]any
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
		if err := dec.Decode(&data); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to decode json body: %w", err)
		}
		return data, nil
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("failed to parse form body: %w", err)
		}
		data := make(map[string]any, len(r.PostForm))
		for k, v := range r.PostForm {
			if len(v) == 1 {
				data[k] = v[0]
			} else {
				data[k] = v
			}
		}
		return data, nil
	}
	return nil, nil
}

func (q *Request) Context() context.Context { return q.r.Context() }
func (q *Request) Method() string           { return q.r.Method }
func (q *Request) Path() string             { return q.r.URL.Path }
func (q *Request) Host() string             { return q.r.Host }
func (q *Request) Referer() string          { return q.r.Referer() }
func (q *Request) QueryParams() url.Values  { return q.r.URL.Query() }
func (q *Request) Session() *domain.Session { return q.sess }

// HTTP returns the wrapped request.
func (q *Request) HTTP() *http.Request { return q.r }

func (q *Request) Data() map[string]any {
	if q.data == nil {
		return make(map[string]any)
	}
	return q.data
}

// Format is the "format" query parameter, or "html" when the client accepts
// HTML before JSON, or "json".
func (q *Request) Format() string {
	if f := q.r.URL.Query().Get("format"); f != "" {
		return f
	}
	accept := q.r.Header.Get("Accept")
	html := strings.Index(accept, "text/html")
	js := strings.Index(accept, "application/json")
	if html >= 0 && (js < 0 || html < js) {
		return "html"
	}
	return "json"
}

// IsAjax reports an "ajax" query parameter or an XMLHttpRequest header.
func (q *Request) IsAjax() bool {
	if q.r.URL.Query().Get("ajax") != "" {
		return true
	}
	return q.r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}
