package relview

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/aretw0/relview/internal/logging"
	"github.com/aretw0/relview/pkg/domain"
)

// ExtDataKey is the response field collecting nested related view results.
const ExtDataKey = "extdata"

// Hooks let the consuming view take part in composition.
type Hooks struct {
	// RelatedParams returns parameters added to every related view call.
	RelatedParams func(req Request, data map[string]any) Params

	// Pipeline is notified before each related view runs. data already holds
	// the results merged so far.
	Pipeline func(name string, req Request, data map[string]any)

	// Final may replace the composed response. It must not return nil.
	Final func(req Request, resp *Response) (*Response, error)
}

// Recorder observes related view calls.
type Recorder interface {
	ObserveRelated(view string, d time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRelated(string, time.Duration, error) {}

// Composer runs the related views of a primary view and merges their results.
type Composer struct {
	views    Views
	router   Router
	tabs     *TabSelector
	hooks    Hooks
	logger   *slog.Logger
	recorder Recorder
}

// Option configures a Composer.
type Option func(*Composer)

// WithRouter sets the name resolution rules.
func WithRouter(r Router) Option {
	return func(c *Composer) {
		c.router = r
	}
}

// WithTabs attaches a tab selector.
func WithTabs(t *TabSelector) Option {
	return func(c *Composer) {
		c.tabs = t
	}
}

// WithHooks sets the composition hooks.
func WithHooks(h Hooks) Option {
	return func(c *Composer) {
		c.hooks = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) {
		c.logger = logger
	}
}

// WithRecorder sets the recorder notified after each related view call.
func WithRecorder(r Recorder) Option {
	return func(c *Composer) {
		c.recorder = r
	}
}

// NewComposer creates a composer over the declared views.
func NewComposer(views Views, opts ...Option) *Composer {
	c := &Composer{
		views:    views,
		logger:   logging.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Views returns the declared related views.
func (c *Composer) Views() Views { return c.views }

// RequestedViews resolves the related views of a request and the tab that selected them.
func (c *Composer) RequestedViews(q url.Values) (names []string, tab string) {
	declared := c.views.Names()
	if list, ok := c.router.explicit(q); ok {
		return ParseNames(c.router.withAlways(list), declared), ""
	}
	if tab, list, ok := c.tabs.Select(q); ok {
		return ParseNames(c.router.withAlways(list), declared), tab
	}
	return ParseNames(c.router.withAlways("all"), declared), ""
}

// FetchRelated invokes the requested related views in order and merges their
// results into resp. Bodies that are not objects are only passed through the
// final hook.
func (c *Composer) FetchRelated(req Request, kwargs Params, resp *Response) (*Response, error) {
	if resp == nil {
		return nil, domain.ErrNilResult
	}
	data, ok := resp.Body.Object()
	if !ok || len(c.views) == 0 {
		return c.final(req, resp, "")
	}

	names, tab := c.RequestedViews(req.QueryParams())
	if len(names) > 0 {
		if err := c.compose(req, kwargs, data, names); err != nil {
			return nil, err
		}
	}
	return c.final(req, resp, tab)
}

func (c *Composer) compose(req Request, kwargs Params, data map[string]any, names []string) error {
	dummy := NewDummyRequest(req)
	current := CurrentParams(req.QueryParams(), kwargs)

	var extra Params
	if c.hooks.RelatedParams != nil {
		extra = c.hooks.RelatedParams(req, data)
	}

	ext := make(map[string]any)
	for _, name := range names {
		if c.hooks.Pipeline != nil {
			c.hooks.Pipeline(name, req, data)
		}
		dummy.Reset()

		spec, ok := c.views.Lookup(name)
		if !ok {
			c.logger.Warn("unknown related view requested", "view", name, "suggestion", closestName(name, c.views.Names()))
			continue
		}
		if spec.Callback == nil {
			return &ConfigError{View: name, Err: domain.ErrMissingCallback}
		}

		params := ResolveParams(spec.Params, current)
		for k, v := range extra {
			params[k] = v
		}
		dummy.SetQueryParams(params)

		body, err := c.invoke(spec, dummy)
		if err != nil {
			return fmt.Errorf("related view %q: %w", name, err)
		}

		if spec.Merge == MergeTop {
			data[spec.key()] = body.Value()
		} else {
			ext[spec.key()] = body.Value()
		}
	}
	data[ExtDataKey] = ext
	return nil
}

func (c *Composer) invoke(spec ViewSpec, dummy *DummyRequest) (Body, error) {
	start := time.Now()
	res, err := spec.Callback(dummy, dummy.Params())
	var body Body
	if err == nil {
		body, err = res.Body()
	}
	c.recorder.ObserveRelated(spec.Name, time.Since(start), err)
	if err != nil {
		return Body{}, err
	}
	c.logger.Debug("related view merged", "view", spec.Name, "duration", time.Since(start))
	return body, nil
}

func (c *Composer) final(req Request, resp *Response, tab string) (*Response, error) {
	if c.hooks.Final != nil {
		out, err := c.hooks.Final(req, resp)
		if err != nil {
			return nil, err
		}
		if out == nil {
			return nil, domain.ErrInvalidFinalResponse
		}
		resp = out
	}
	if tab != "" {
		if data, ok := resp.Body.Object(); ok {
			data[CurrentTabKey] = tab
		}
	}
	return resp, nil
}

// closestName returns the declared name nearest to name, or "" when none is close.
func closestName(name string, declared []string) string {
	best, bestDist := "", len(name)/2+1
	for _, d := range declared {
		if dist := levenshtein.ComputeDistance(name, d); dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best
}
