package formflow

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aretw0/relview"
	"github.com/aretw0/relview/internal/logging"
	"github.com/aretw0/relview/pkg/domain"
	"github.com/aretw0/relview/pkg/ports"
)

// Query parameters read by the controller.
const (
	CallerKey = "_caller"
	NextKey   = "next"
)

// Flow events reported to a Recorder.
const (
	EventInitiate = "initiate"
	EventPush     = "push"
	EventPop      = "pop"
	EventDestroy  = "destroy"
	EventPacket   = "packet"
	EventReplay   = "replay"
)

// Form renders and processes one form view.
type Form interface {
	GetForm(step *Step) (*relview.Response, error)
	PostForm(step *Step) (*relview.Response, error)
}

// FormFuncs adapts two functions to a Form.
type FormFuncs struct {
	Get  func(step *Step) (*relview.Response, error)
	Post func(step *Step) (*relview.Response, error)
}

func (f FormFuncs) GetForm(step *Step) (*relview.Response, error)  { return f.Get(step) }
func (f FormFuncs) PostForm(step *Step) (*relview.Response, error) { return f.Post(step) }

// Recorder observes flow transitions.
type Recorder interface {
	ObserveFlow(view, event string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveFlow(string, string) {}

// Controller serves one form view.
type Controller struct {
	name          string
	form          Form
	urls          ports.URLResolver
	loginRedirect string
	homeRoute     string
	logger        *slog.Logger
	recorder      Recorder
}

// Option configures a Controller.
type Option func(*Controller)

// WithLoginRedirect sets the URL a flow starts at when the request has no referer.
func WithLoginRedirect(u string) Option {
	return func(c *Controller) {
		c.loginRedirect = u
	}
}

// WithHomeRoute sets the route used when a redirect target cannot be built.
func WithHomeRoute(name string) Option {
	return func(c *Controller) {
		c.homeRoute = name
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithRecorder sets the flow event recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// New creates the controller of the form view registered as name.
func New(name string, form Form, urls ports.URLResolver, opts ...Option) *Controller {
	c := &Controller{
		name:          name,
		form:          form,
		urls:          urls,
		loginRedirect: "/",
		homeRoute:     "homepage",
		logger:        logging.NewNop(),
		recorder:      nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the route name of the form view.
func (c *Controller) Name() string { return c.name }

// Serve handles a request. It satisfies relview.Handler.
func (c *Controller) Serve(req relview.Request, kwargs relview.Params) (*relview.Response, error) {
	step, err := c.Begin(req, kwargs)
	if err != nil {
		return nil, err
	}

	if req.Method() != http.MethodGet {
		return c.form.PostForm(step)
	}
	if step.FormData() != nil {
		if last, ok := step.sess.LastFrame(); ok && last.By == c.name {
			step.popFrame()
		}
		c.recorder.ObserveFlow(c.name, EventReplay)
		return c.form.PostForm(step)
	}
	return c.form.GetForm(step)
}

// Begin inspects the session for this request: a packet addressed to the view
// is consumed when the request carries a caller marker, otherwise the flow is
// (re)initiated from the referer.
func (c *Controller) Begin(req relview.Request, kwargs relview.Params) (*Step, error) {
	sess := req.Session()
	if sess == nil {
		return nil, domain.ErrNoSession
	}

	s := &Step{
		ctrl:   c,
		req:    req,
		kwargs: kwargs.Clone(),
		sess:   sess,
		packet: domain.Packet{},
	}

	if caller := req.QueryParams().Get(CallerKey); caller != "" {
		if p, ok := sess.TakePacket(c.name); ok {
			s.packet = p
			c.recorder.ObserveFlow(c.name, EventPacket)
		}
		s.caller = caller
	} else {
		name, referer := c.referer(req)
		switch {
		case referer == "":
			sess.InitiateFlow(c.loginRedirect)
			c.recorder.ObserveFlow(c.name, EventInitiate)
		case name == c.name:
			// Posted back from this view's own form.
		case strings.HasSuffix(name, domain.FormViewSuffix):
			// The user switched over from another flow.
		default:
			sess.InitiateFlow(referer)
			c.recorder.ObserveFlow(c.name, EventInitiate)
		}
	}

	s.cache = make(map[string]any)
	for k, v := range sess.Views[c.name] {
		s.cache[k] = v
	}
	return s, nil
}

// referer returns the route name and URL of a usable referer, or empty strings.
func (c *Controller) referer(req relview.Request) (string, string) {
	var name string
	ref := req.Referer()
	if ref != "" && isSafeURL(ref, req.Host()) {
		name = c.resolve(ref)
	}
	if name == "" {
		ref = ""
	}
	if next := req.QueryParams().Get(NextKey); next != "" && isSafeURL(next, req.Host()) {
		name, ref = c.homeRoute, next
	}
	return name, ref
}

// resolve returns the route name of rawURL, or "" when it matches nothing.
func (c *Controller) resolve(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name, err := c.urls.Resolve(u.Path)
	if err != nil {
		c.logger.Debug("referer does not resolve", "view", c.name, "url", rawURL, "err", err)
		return ""
	}
	return name
}

// home returns the URL of the home route, or "/".
func (c *Controller) home() string {
	u, err := c.urls.Reverse(c.homeRoute, nil)
	if err != nil {
		c.logger.Debug("failed to reverse home route", "route", c.homeRoute, "err", err)
		return "/"
	}
	return u
}

// isSafeURL accepts relative URLs and http(s) URLs on host.
func isSafeURL(raw, host string) bool {
	if strings.ContainsAny(raw, "\\\r\n\t") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return !strings.HasPrefix(raw, "//")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Host, host)
}
