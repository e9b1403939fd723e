package demo

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/relview"
	"github.com/aretw0/relview/pkg/adapters/memory"
	"github.com/aretw0/relview/pkg/observability"
	"github.com/aretw0/relview/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// client keeps the session cookie between requests.
type client struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func newClient(t *testing.T, opts ...Option) (*client, *App) {
	t.Helper()
	app, err := NewApp(session.NewManager(memory.NewStore()), opts...)
	require.NoError(t, err)
	return &client{t: t, h: app}, app
}

func (c *client) do(method, target, referer string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		c.cookie = ck
	}
	return rec
}

func (c *client) get(target, referer string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, target, referer, nil, "")
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHome(t *testing.T) {
	c, _ := newClient(t)

	rec := c.get("/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, relview.Version, body["version"])
	customers := body["customers"].([]any)
	require.Len(t, customers, 2)
	assert.Equal(t, "/customers/c1", customers[0].(map[string]any)["url"])
}

func TestProfile_DefaultTab(t *testing.T) {
	c, _ := newClient(t)

	rec := c.get("/customers/c1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)

	assert.Equal(t, "Ada Lovelace", body["name"])
	assert.Equal(t, "overview", body[relview.CurrentTabKey])

	summary := body["summary"].(map[string]any)
	assert.Equal(t, 4.0, summary["orders"])
	assert.Equal(t, 2.0, summary["open"])
	assert.InDelta(t, 149.4, summary["spent"], 0.001)

	ext := body[relview.ExtDataKey].(map[string]any)
	assert.NotContains(t, ext, "summary", "top-level merge stays out of extdata")
	assert.NotContains(t, ext, "addresses")

	orders := ext["orders"].(map[string]any)["results"].([]any)
	require.Len(t, orders, 4)
	assert.Equal(t, 4.0, orders[0].(map[string]any)["id"], "most recent first")
}

func TestProfile_Selection(t *testing.T) {
	c, _ := newClient(t)

	body := decode(t, c.get("/customers/c1?tab=history", ""))
	assert.Equal(t, "history", body[relview.CurrentTabKey])
	assert.NotContains(t, body, "summary")
	ext := body[relview.ExtDataKey].(map[string]any)
	assert.Contains(t, ext, "orders")
	assert.Len(t, ext["addresses"], 1)

	body = decode(t, c.get("/customers/c1?relview=addresses", ""))
	assert.NotContains(t, body, relview.CurrentTabKey)
	ext = body[relview.ExtDataKey].(map[string]any)
	assert.Equal(t, []string{"addresses"}, keys(ext))

	body = decode(t, c.get("/customers/c1?relview=", ""))
	assert.Empty(t, body[relview.ExtDataKey])
}

func TestProfile_ForwardsFilters(t *testing.T) {
	c, _ := newClient(t)

	body := decode(t, c.get("/customers/c1?relview=orders&status=pending,shipped", ""))
	orders := body[relview.ExtDataKey].(map[string]any)["orders"].(map[string]any)

	assert.Len(t, orders["results"], 2)
	assert.Equal(t, "pending,shipped", orders["filters"].(map[string]any)["status"])
}

func TestProfile_UnknownCustomer(t *testing.T) {
	c, _ := newClient(t)

	rec := c.get("/customers/nobody", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestOrders_FilteredAndPaginated(t *testing.T) {
	c, _ := newClient(t)

	body := decode(t, c.get("/customers/c1/orders?status=delivered&order=total&page_size=1", ""))

	assert.Equal(t, 2.0, body["count"])
	results := body["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, 30.0, results[0].(map[string]any)["total"])
	applied := body["filters"].(map[string]any)
	assert.Equal(t, "delivered", applied["status"])
	assert.Equal(t, "total", applied["order"])

	body = decode(t, c.get("/customers/c1/orders?excludekey=status&excludevalue=delivered&limit=1", ""))
	results = body["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "pending", results[0].(map[string]any)["status"])
}

func TestAddressFlow_Confirmed(t *testing.T) {
	c, app := newClient(t)
	const profile = "http://example.com/customers/c1"

	rec := c.get("/customers/c1/address", profile)
	require.Equal(t, http.StatusOK, rec.Code)
	form := decode(t, rec)["form"].(map[string]any)
	assert.Equal(t, "London", form["city"])

	rec = c.do(http.MethodPost, "/customers/c1/address", profile+"/address",
		strings.NewReader(`{"street":"1 Rue de Rivoli","city":"Paris","zip":"75001"}`), "application/json")
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/confirm?_caller=address_form_view", rec.Header().Get("Location"))

	rec = c.get("/confirm?_caller=address_form_view", profile+"/address")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "address_form_view", body["caller"])
	assert.Equal(t, "Paris", body["address"].(map[string]any)["city"])

	rec = c.do(http.MethodPost, "/confirm", "http://example.com/confirm?_caller=address_form_view",
		strings.NewReader(url.Values{"confirmed": {"true"}}.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/customers/c1/address?_caller=confirm_form_view", rec.Header().Get("Location"))

	rec = c.get("/customers/c1/address?_caller=confirm_form_view", "http://example.com/confirm")
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, profile, rec.Header().Get("Location"), "flow returns to where it started")

	addrs, err := app.Shop().Addresses("c1")
	require.NoError(t, err)
	require.Len(t, addrs, 2)
	assert.Equal(t, Address{Street: "1 Rue de Rivoli", City: "Paris", Zip: "75001"}, addrs[1])
}

func TestAddressFlow_Rejected(t *testing.T) {
	c, app := newClient(t)
	const profile = "http://example.com/customers/c1"

	c.get("/customers/c1/address", profile)
	c.do(http.MethodPost, "/customers/c1/address", profile+"/address",
		strings.NewReader(`{"street":"1 Main","city":"Oslo","zip":"0150"}`), "application/json")
	c.get("/confirm?_caller=address_form_view", profile+"/address")
	c.do(http.MethodPost, "/confirm", "http://example.com/confirm",
		strings.NewReader(`{"confirmed":false}`), "application/json")

	rec := c.get("/customers/c1/address?_caller=confirm_form_view", "http://example.com/confirm")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Oslo", decode(t, rec)["form"].(map[string]any)["city"], "rejected submission is shown again")

	addrs, err := app.Shop().Addresses("c1")
	require.NoError(t, err)
	assert.Len(t, addrs, 1)
}

func TestAddressFlow_Invalid(t *testing.T) {
	c, _ := newClient(t)

	rec := c.do(http.MethodPost, "/customers/c1/address", "",
		strings.NewReader(url.Values{"street": {"1 Main"}}.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	problems := decode(t, rec)["errors"].(map[string]any)
	assert.Contains(t, problems, "city")
	assert.Contains(t, problems, "zip")
	assert.NotContains(t, problems, "street")
}

func TestConfirm_WithoutPacketGoesBack(t *testing.T) {
	c, _ := newClient(t)

	rec := c.get("/confirm", "")
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	c, _ := newClient(t, WithMetrics(observability.NewMetrics("relview")))

	c.get("/customers/c1", "")

	rec := c.get("/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, `relview_related_view_calls_total{outcome="ok",view="summary"} 1`)
	assert.Contains(t, out, `relview_http_requests_total{code="200",route="/customers/{customer_id}"} 1`)
}

func TestMemoizedViews(t *testing.T) {
	cache := memory.NewCache()
	c, _ := newClient(t, WithCache(cache, time.Minute))

	c.get("/customers/c1?format=html", "")

	raw, err := cache.Get(t.Context(), relview.MemoKey("summary", relview.Params{"customer_id": "c1"}, nil))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"orders":4`)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
