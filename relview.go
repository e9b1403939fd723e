package relview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/aretw0/relview/pkg/domain"
)

// Params are the keyword arguments of a view.
type Params map[string]string

// Clone returns a copy of p; a nil p yields an empty, non-nil map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Request is what views, the composer and the form flow need from the host request.
type Request interface {
	Context() context.Context
	Method() string
	Path() string
	Host() string
	Referer() string

	// QueryParams returns the query string values of the request.
	QueryParams() url.Values

	// Data returns the decoded request body (form or JSON fields).
	Data() map[string]any

	// Format is the negotiated renderer format, e.g. "json", "api" or "html".
	Format() string

	IsAjax() bool

	// Session returns the session document bound to the request, or nil.
	Session() *domain.Session
}

// BodyKind discriminates the payload of a Body.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyObject
	BodyList
)

// Body is the payload of a view response: a keyed object, a sequence, or nothing.
type Body struct {
	kind   BodyKind
	object map[string]any
	list   []any
}

// ObjectBody returns an object body. A nil map becomes an empty object.
func ObjectBody(m map[string]any) Body {
	if m == nil {
		m = make(map[string]any)
	}
	return Body{kind: BodyObject, object: m}
}

// ListBody returns a sequence body. A nil slice becomes an empty list.
func ListBody(l []any) Body {
	if l == nil {
		l = []any{}
	}
	return Body{kind: BodyList, list: l}
}

// Kind reports which case the body holds.
func (b Body) Kind() BodyKind { return b.kind }

// Object returns the keyed payload; the map is shared, so writes are visible in the body.
func (b Body) Object() (map[string]any, bool) {
	return b.object, b.kind == BodyObject
}

// List returns the sequence payload.
func (b Body) List() ([]any, bool) {
	return b.list, b.kind == BodyList
}

// Value returns the payload as a plain Go value (map, slice or nil).
func (b Body) Value() any {
	switch b.kind {
	case BodyObject:
		return b.object
	case BodyList:
		return b.list
	}
	return nil
}

// MarshalJSON encodes the payload itself.
func (b Body) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Value())
}

// Response is a view response before rendering.
type Response struct {
	Status int
	Header http.Header
	Body   Body
}

// NewResponse returns a 200 response carrying body.
func NewResponse(body Body) *Response {
	return &Response{Status: http.StatusOK, Header: make(http.Header), Body: body}
}

// Data returns the object payload, or nil when the body is not an object.
func (r *Response) Data() map[string]any {
	m, _ := r.Body.Object()
	return m
}

// Result is what a related view hands back to the composer:
// an object, a list, or an already built Response.
type Result struct {
	body Body
	resp *Response
}

// Object wraps a keyed payload.
func Object(m map[string]any) Result { return Result{body: ObjectBody(m)} }

// List wraps a sequence payload.
func List(l []any) Result { return Result{body: ListBody(l)} }

// Final wraps a complete Response; the composer keeps only its body.
func Final(resp *Response) Result { return Result{resp: resp} }

// Body resolves the result to a payload. An empty result is domain.ErrNilResult.
func (r Result) Body() (Body, error) {
	if r.resp != nil {
		if r.resp.Body.kind == BodyNone {
			return Body{}, domain.ErrNilResult
		}
		return r.resp.Body, nil
	}
	if r.body.kind == BodyNone {
		return Body{}, domain.ErrNilResult
	}
	return r.body, nil
}

// Handler is a full view: it produces a Response.
type Handler func(req Request, kwargs Params) (*Response, error)

// ViewFunc is a data view invocable by the composer.
type ViewFunc func(req Request, kwargs Params) (Result, error)

// AsData turns a Handler into a ViewFunc that yields the handler's response body only.
func AsData(h Handler) ViewFunc {
	return func(req Request, kwargs Params) (Result, error) {
		resp, err := h(req, kwargs)
		if err != nil {
			return Result{}, err
		}
		if resp == nil {
			return Result{}, domain.ErrNilResult
		}
		return Final(resp), nil
	}
}

// MergeMode selects where a related view's result lands in the primary response.
type MergeMode int

const (
	// MergeNested stores the result under extdata[key].
	MergeNested MergeMode = iota
	// MergeTop stores the result at the top level of the response.
	MergeTop
)

// ViewSpec declares one related view.
type ViewSpec struct {
	Name     string
	Callback ViewFunc

	// Params is the parameter-forwarding spec, e.g. "*", "page=1", "user as owner".
	Params string

	Merge MergeMode

	// Key is the output key; defaults to Name.
	Key string
}

func (s ViewSpec) key() string {
	if s.Key != "" {
		return s.Key
	}
	return s.Name
}

// Views is the ordered declaration of a consuming view's related views.
type Views []ViewSpec

// Names returns the declared names in declaration order.
func (v Views) Names() []string {
	names := make([]string, len(v))
	for i, s := range v {
		names[i] = s.Name
	}
	return names
}

// Lookup finds a declared view by name.
func (v Views) Lookup(name string) (ViewSpec, bool) {
	for _, s := range v {
		if s.Name == name {
			return s, true
		}
	}
	return ViewSpec{}, false
}

// Validate reports the first declaration without a callback.
func (v Views) Validate() error {
	for _, s := range v {
		if s.Callback == nil {
			return &ConfigError{View: s.Name, Err: domain.ErrMissingCallback}
		}
	}
	return nil
}

// ConfigError ties a configuration error to the related view that caused it.
type ConfigError struct {
	View string
	Err  error
}

func (e *ConfigError) Error() string {
	return "related view " + e.View + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error { return e.Err }
