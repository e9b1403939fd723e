package formflow

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aretw0/relview"
	"github.com/aretw0/relview/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// NextOptions tune SendNext.
type NextOptions struct {
	// Packet is handed to the next step.
	Packet domain.Packet

	// Query is appended to the next step's URL.
	Query url.Values

	// NoReturn skips pushing a return-to point.
	NoReturn bool

	// ReturnURL is pushed instead of the current view's URL.
	ReturnURL string

	// FinalURL restarts the flow with FinalURL as its only frame.
	FinalURL string

	// Data is merged into ajax redirect bodies.
	Data map[string]any
}

// BackOptions tune SendBack.
type BackOptions struct {
	Packet domain.Packet
	Query  url.Values
	Data   map[string]any
}

// Step is the form flow state of one request.
type Step struct {
	ctrl   *Controller
	req    relview.Request
	kwargs relview.Params
	sess   *domain.Session
	caller string
	packet domain.Packet
	cache  map[string]any
}

// Request returns the request being served.
func (s *Step) Request() relview.Request { return s.req }

// Context returns the request context.
func (s *Step) Context() context.Context { return s.req.Context() }

// Kwargs returns the view's keyword arguments.
func (s *Step) Kwargs() relview.Params { return s.kwargs }

// Session returns the session document.
func (s *Step) Session() *domain.Session { return s.sess }

// Caller returns the form view that redirected here, or "".
func (s *Step) Caller() string { return s.caller }

// Packet returns the packet addressed to this view; empty when none was pending.
func (s *Step) Packet() domain.Packet { return s.packet }

// DecodePacket decodes the packet into out, a pointer to a struct or map.
func (s *Step) DecodePacket(out any) error {
	if err := mapstructure.Decode(map[string]any(s.packet), out); err != nil {
		return fmt.Errorf("failed to decode packet for %s: %w", s.ctrl.name, err)
	}
	return nil
}

// ViewCache returns the cached value under key.
func (s *Step) ViewCache(key string) any {
	return s.cache[key]
}

// PopViewCache returns and removes the cached value under key.
func (s *Step) PopViewCache(key string) any {
	v := s.cache[key]
	if key != "" {
		_ = s.SetViewCache(key, nil)
	}
	return v
}

// SetViewCache stores v under key; a nil v removes the entry.
func (s *Step) SetViewCache(key string, v any) error {
	if key == "" {
		return domain.ErrEmptyCacheKey
	}
	if v == nil {
		delete(s.cache, key)
	} else {
		s.cache[key] = v
	}
	if s.sess.Views == nil {
		s.sess.Views = make(map[string]map[string]any)
	}
	s.sess.Views[s.ctrl.name] = s.cache
	return nil
}

// FormData returns the cached form submission, or nil.
func (s *Step) FormData() map[string]any {
	data, _ := s.cache[domain.FormDataKey].(map[string]any)
	return data
}

// SetFormData caches a form submission for replay.
func (s *Step) SetFormData(data map[string]any) error {
	if data == nil {
		return s.SetViewCache(domain.FormDataKey, nil)
	}
	return s.SetViewCache(domain.FormDataKey, data)
}

// ClearFormData drops the cached form submission.
func (s *Step) ClearFormData() {
	_ = s.SetViewCache(domain.FormDataKey, nil)
}

// SendNext moves the flow to the form view registered as name+"_form_view".
func (s *Step) SendNext(name string, opts NextOptions) (*relview.Response, error) {
	target := name + domain.FormViewSuffix

	location, err := s.ctrl.urls.Reverse(target, nil)
	if err != nil {
		s.ctrl.logger.Debug("failed to reverse next step", "view", s.ctrl.name, "target", target, "err", err)
		location = s.ctrl.home()
	} else {
		q := cloneQuery(opts.Query)
		q.Set(CallerKey, s.ctrl.name)
		location = withQuery(location, q)
	}

	switch {
	case opts.FinalURL != "":
		s.sess.InitiateFlow(opts.FinalURL)
		s.ctrl.recorder.ObserveFlow(s.ctrl.name, EventInitiate)
	case opts.ReturnURL != "":
		s.pushFrame(opts.ReturnURL)
	case !opts.NoReturn:
		s.pushFrame(s.currentURL())
	}

	if len(opts.Packet) > 0 {
		s.sess.Packet = tagPacket(opts.Packet, target)
	}

	return s.RedirectTo(location, opts.Data)
}

// SendBack returns to the most recent return-to point. Popping the last frame
// ends the flow.
func (s *Step) SendBack(opts BackOptions) (*relview.Response, error) {
	frame, ok := s.popFrame()
	if !ok {
		return s.RedirectTo(s.ctrl.home(), opts.Data)
	}

	q := cloneQuery(opts.Query)
	if s.sess.HasFlow() {
		q.Set(CallerKey, s.ctrl.name)
		if len(opts.Packet) > 0 {
			s.sess.Packet = tagPacket(opts.Packet, s.ctrl.resolve(frame.URL))
		}
	}
	return s.RedirectTo(withQuery(frame.URL, q), opts.Data)
}

// RedirectTo sends the client to location. Ajax requests get a 200 with the
// location in the body instead of a redirect status.
func (s *Step) RedirectTo(location string, data map[string]any) (*relview.Response, error) {
	if s.req.IsAjax() {
		body := make(map[string]any, len(data)+1)
		for k, v := range data {
			body[k] = v
		}
		body["location"] = location
		return relview.NewResponse(relview.ObjectBody(body)), nil
	}
	resp := relview.NewResponse(relview.ObjectBody(nil))
	resp.Status = http.StatusFound
	resp.Header.Set("Location", location)
	return resp, nil
}

// CallGet answers ajax requests with the view's arguments and renders the form otherwise.
func (s *Step) CallGet() (*relview.Response, error) {
	if s.req.IsAjax() {
		body := make(map[string]any, len(s.kwargs))
		for k, v := range s.kwargs {
			body[k] = v
		}
		return relview.NewResponse(relview.ObjectBody(body)), nil
	}
	return s.ctrl.form.GetForm(s)
}

func (s *Step) pushFrame(u string) {
	if !s.sess.HasFlow() {
		s.sess.Flow = []domain.Frame{{By: domain.InitiatorName, URL: "/"}}
	}
	s.sess.PushFrame(domain.Frame{By: s.ctrl.name, URL: u})
	s.ctrl.recorder.ObserveFlow(s.ctrl.name, EventPush)
}

// popFrame removes the top frame and ends the flow when none remain.
func (s *Step) popFrame() (domain.Frame, bool) {
	f, ok := s.sess.PopFrame()
	if !ok {
		return domain.Frame{}, false
	}
	s.ctrl.recorder.ObserveFlow(s.ctrl.name, EventPop)
	if !s.sess.HasFlow() {
		s.sess.DestroyFlow()
		s.ctrl.recorder.ObserveFlow(s.ctrl.name, EventDestroy)
	}
	return f, true
}

// currentURL is the URL of this view, falling back to the request path.
func (s *Step) currentURL() string {
	u, err := s.ctrl.urls.Reverse(s.ctrl.name, s.kwargs)
	if err != nil {
		return s.req.Path()
	}
	return u
}

func tagPacket(p domain.Packet, to string) domain.Packet {
	out := make(domain.Packet, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[domain.PacketTargetKey] = to
	return out
}

func cloneQuery(q url.Values) url.Values {
	out := make(url.Values, len(q)+1)
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func withQuery(u string, q url.Values) string {
	if len(q) == 0 {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + q.Encode()
}
