// Package demo wires a small customer portal on top of relview: a profile
// page composed from related views, a filtered order list and a two step
// address form flow.
package demo

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aretw0/relview"
	"github.com/aretw0/relview/internal/config"
	"github.com/aretw0/relview/internal/logging"
	httpadapter "github.com/aretw0/relview/pkg/adapters/http"
	"github.com/aretw0/relview/pkg/filters"
	"github.com/aretw0/relview/pkg/formflow"
	"github.com/aretw0/relview/pkg/observability"
	"github.com/aretw0/relview/pkg/ports"
	"github.com/aretw0/relview/pkg/registry"
	"github.com/aretw0/relview/pkg/session"
)

// Route names.
const (
	RouteHome        = "homepage"
	RouteProfile     = "profile"
	RouteOrders      = "orders"
	RouteAddresses   = "addresses"
	RouteSummary     = "summary"
	RouteAddressForm = "address_form_view"
	RouteConfirmForm = "confirm_form_view"
	RouteMetrics     = "metrics"
)

const defaultPageSize = 10

// App is the HTTP application.
type App struct {
	shop     *Shop
	routes   *registry.Registry
	sessions *session.Manager
	cookies  httpadapter.SessionOptions
	logger   *slog.Logger
	metrics  *observability.Metrics
	memo     *relview.Memo
	tabs     map[string]config.TabsDecl

	loginRedirect string
	homeRoute     string

	orders  *filters.ListView
	profile *relview.Composer
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the application logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithShop replaces the seeded sample shop.
func WithShop(s *Shop) Option {
	return func(a *App) {
		a.shop = s
	}
}

// WithCache memoizes the profile's data views in cache.
func WithCache(cache ports.Cache, ttl time.Duration) Option {
	return func(a *App) {
		a.memo = &relview.Memo{Cache: cache, TTL: ttl}
	}
}

// WithMetrics enables request and composition metrics and serves them on /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *App) {
		a.metrics = m
	}
}

// WithTabs overrides the tab declarations, keyed by view name.
func WithTabs(tabs map[string]config.TabsDecl) Option {
	return func(a *App) {
		a.tabs = tabs
	}
}

// WithFlow sets where new form flows return to and the home route name.
func WithFlow(loginRedirect, homeRoute string) Option {
	return func(a *App) {
		if loginRedirect != "" {
			a.loginRedirect = loginRedirect
		}
		if homeRoute != "" {
			a.homeRoute = homeRoute
		}
	}
}

// WithCookie configures the session cookie.
func WithCookie(name string, secure bool, maxAge int) Option {
	return func(a *App) {
		a.cookies.CookieName = name
		a.cookies.Secure = secure
		a.cookies.MaxAge = maxAge
	}
}

// NewApp builds the application on top of a session manager.
func NewApp(sessions *session.Manager, opts ...Option) (*App, error) {
	a := &App{
		routes:        registry.NewRegistry(),
		sessions:      sessions,
		logger:        logging.NewNop(),
		memo:          &relview.Memo{Disabled: true},
		loginRedirect: "/",
		homeRoute:     RouteHome,
		tabs: map[string]config.TabsDecl{
			RouteProfile: {
				Default: "overview",
				Tabs: map[string]string{
					"overview": "summary,orders",
					"history":  "orders,addresses",
				},
			},
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.shop == nil {
		a.shop = NewShop()
	}
	a.memo.Logger = a.logger
	a.cookies.Logger = a.logger

	if err := a.build(); err != nil {
		return nil, err
	}
	return a, nil
}

// Routes returns the named routes of the application.
func (a *App) Routes() *registry.Registry { return a.routes }

// Shop returns the application data.
func (a *App) Shop() *Shop { return a.shop }

// ServeHTTP dispatches to the application routes.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.routes.ServeHTTP(w, r)
}

func (a *App) build() error {
	if a.metrics != nil {
		a.routes.Use(a.metrics.Middleware)
	}
	a.routes.Use(httpadapter.Sessions(a.sessions, a.cookies))

	a.orders = &filters.ListView{
		Source: a.orderRows,
		Backends: []filters.Backend{
			filters.ListFilter{Field: "status"},
			filters.ExcludeBackend{},
			filters.OrderBackend{Clauses: map[string][]string{
				"default": {"-placed"},
				"total":   {"-total", "-placed"},
			}},
			filters.CountBackend{},
		},
		Paginate: paginate,
	}

	views := relview.Views{
		{Name: "summary", Callback: a.memo.Wrap("summary", a.summary, nil), Params: "customer_id", Merge: relview.MergeTop},
		{Name: "orders", Callback: a.memo.Wrap("orders", relview.AsData(a.orders.Serve), nil), Params: "customer_id,status,order,limit=5"},
		{Name: "addresses", Callback: a.addresses, Params: "customer_id"},
	}
	if err := views.Validate(); err != nil {
		return err
	}

	copts := []relview.Option{relview.WithLogger(a.logger)}
	if decl, ok := a.tabs[RouteProfile]; ok {
		copts = append(copts, relview.WithTabs(decl.Selector()))
	}
	fopts := []formflow.Option{
		formflow.WithLogger(a.logger),
		formflow.WithLoginRedirect(a.loginRedirect),
		formflow.WithHomeRoute(a.homeRoute),
	}
	if a.metrics != nil {
		copts = append(copts, relview.WithRecorder(a.metrics))
		fopts = append(fopts, formflow.WithRecorder(a.metrics))
	}
	a.profile = relview.NewComposer(views, copts...)

	addressFlow := formflow.New(RouteAddressForm, &addressForm{shop: a.shop}, a.routes, fopts...)
	confirmFlow := formflow.New(RouteConfirmForm, &confirmForm{}, a.routes, fopts...)

	view := func(h relview.Handler) http.Handler {
		return httpadapter.View(h, httpadapter.WithLogger(a.logger))
	}
	a.routes.Route(RouteHome, "/", view(a.home))
	a.routes.Route(RouteProfile, "/customers/{customer_id}", view(a.customer))
	a.routes.Route(RouteOrders, "/customers/{customer_id}/orders", view(a.orders.Serve))
	a.routes.Route(RouteAddresses, "/customers/{customer_id}/addresses", view(data(a.addresses)))
	a.routes.Route(RouteSummary, "/customers/{customer_id}/summary", view(data(a.summary)))
	a.routes.Route(RouteAddressForm, "/customers/{customer_id}/address", view(addressFlow.Serve))
	a.routes.Route(RouteConfirmForm, "/confirm", view(confirmFlow.Serve))
	if a.metrics != nil {
		a.routes.Route(RouteMetrics, "/metrics", a.metrics.Handler())
	}
	return nil
}

// data serves a data view as a full view.
func data(fn relview.ViewFunc) relview.Handler {
	return func(req relview.Request, kwargs relview.Params) (*relview.Response, error) {
		res, err := fn(req, kwargs)
		if err != nil {
			return nil, err
		}
		body, err := res.Body()
		if err != nil {
			return nil, err
		}
		return relview.NewResponse(body), nil
	}
}

func (a *App) home(req relview.Request, _ relview.Params) (*relview.Response, error) {
	customers := make([]any, 0)
	for _, c := range a.shop.Customers() {
		u, err := a.routes.Reverse(RouteProfile, map[string]string{"customer_id": c.ID})
		if err != nil {
			return nil, err
		}
		customers = append(customers, map[string]any{"id": c.ID, "name": c.Name, "url": u})
	}
	return relview.NewResponse(relview.ObjectBody(map[string]any{
		"service":   "relview",
		"version":   relview.Version,
		"customers": customers,
	})), nil
}

// customer is the profile page: the customer record plus its related views.
func (a *App) customer(req relview.Request, kwargs relview.Params) (*relview.Response, error) {
	c, err := a.shop.Customer(kwargs["customer_id"])
	if err != nil {
		return nil, err
	}
	resp := relview.NewResponse(relview.ObjectBody(map[string]any{
		"id":    c.ID,
		"name":  c.Name,
		"email": c.Email,
	}))
	return a.profile.FetchRelated(req, kwargs, resp)
}

func (a *App) orderRows(_ relview.Request, kwargs relview.Params) ([]any, error) {
	return a.shop.Orders(kwargs["customer_id"])
}

func (a *App) summary(_ relview.Request, kwargs relview.Params) (relview.Result, error) {
	rows, err := a.shop.Orders(kwargs["customer_id"])
	if err != nil {
		return relview.Result{}, err
	}
	var spent float64
	open := 0
	for _, row := range rows {
		o := row.(map[string]any)
		if total, ok := o["total"].(float64); ok {
			spent += total
		}
		if o["status"] != "delivered" {
			open++
		}
	}
	return relview.Object(map[string]any{
		"orders": len(rows),
		"open":   open,
		"spent":  spent,
	}), nil
}

func (a *App) addresses(_ relview.Request, kwargs relview.Params) (relview.Result, error) {
	addrs, err := a.shop.Addresses(kwargs["customer_id"])
	if err != nil {
		return relview.Result{}, err
	}
	out := make([]any, len(addrs))
	for i, addr := range addrs {
		out[i] = addr.asMap()
	}
	return relview.List(out), nil
}

// paginate returns one page of rows as {"count", "page", "results"}.
func paginate(rows []any, q url.Values) relview.Body {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(q.Get("page_size"))
	if err != nil || size < 1 {
		size = defaultPageSize
	}

	start := min((page-1)*size, len(rows))
	end := min(start+size, len(rows))
	return relview.ObjectBody(map[string]any{
		"count":   len(rows),
		"page":    page,
		"results": append([]any{}, rows[start:end]...),
	})
}

