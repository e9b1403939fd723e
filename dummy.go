package relview

import "net/url"

// DummyRequest stands in for the primary request during related-view calls.
// It owns its query parameters and body data; everything else is read from
// the wrapped request.
type DummyRequest struct {
	Request

	params Params
	data   map[string]any
}

var _ Request = (*DummyRequest)(nil)

// NewDummyRequest wraps req with an empty parameter mapping.
func NewDummyRequest(req Request) *DummyRequest {
	return &DummyRequest{Request: req, params: make(Params)}
}

// Reset drops the parameters and data of the previous sub-view call.
func (d *DummyRequest) Reset() {
	d.params = make(Params)
	d.data = nil
}

// SetQueryParams replaces the query parameters seen by the next sub-view.
func (d *DummyRequest) SetQueryParams(p Params) {
	d.params = p.Clone()
}

// SetData injects body data for the next sub-view.
func (d *DummyRequest) SetData(data map[string]any) {
	d.data = data
}

// Params returns a copy of the current query parameters.
func (d *DummyRequest) Params() Params {
	return d.params.Clone()
}

// QueryParams reports the dummy's own parameters, never the wrapped request's.
func (d *DummyRequest) QueryParams() url.Values {
	q := make(url.Values, len(d.params))
	for k, v := range d.params {
		q.Set(k, v)
	}
	return q
}

// Data returns the injected body data, or a fresh empty map.
func (d *DummyRequest) Data() map[string]any {
	if d.data == nil {
		return make(map[string]any)
	}
	return d.data
}

// IsDummy reports that the request was synthesized for a related view.
func (d *DummyRequest) IsDummy() bool { return true }

// Unwrap returns the wrapped request.
func (d *DummyRequest) Unwrap() Request { return d.Request }

// IsDummy reports whether req was synthesized by the composer.
func IsDummy(req Request) bool {
	d, ok := req.(interface{ IsDummy() bool })
	return ok && d.IsDummy()
}
