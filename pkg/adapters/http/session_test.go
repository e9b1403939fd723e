package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/relview"
	"github.com/aretw0/relview/pkg/adapters/memory"
	"github.com/aretw0/relview/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterRouter(m *session.Manager) http.Handler {
	r := chi.NewRouter()
	r.Use(Sessions(m, SessionOptions{}))
	r.Get("/count", View(func(req relview.Request, _ relview.Params) (*relview.Response, error) {
		sess := req.Session()
		n, _ := sess.Values["n"].(float64)
		n++
		sess.Values["n"] = n
		return relview.NewResponse(relview.ObjectBody(map[string]any{"n": n})), nil
	}))
	return r
}

func TestSessions_PersistAcrossRequests(t *testing.T) {
	store := memory.NewStore()
	router := counterRouter(session.NewManager(store))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/count", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/count", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.JSONEq(t, `{"n":2}`, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies(), "known session keeps its cookie")

	sess, err := store.Load(context.Background(), cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, 2.0, sess.Values["n"])
	assert.False(t, sess.UpdatedAt.IsZero())
}

func TestSessions_InvalidCookieStartsNewSession(t *testing.T) {
	router := counterRouter(session.NewManager(memory.NewStore()))

	req := httptest.NewRequest(http.MethodGet, "/count", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "../../etc/passwd"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, "../../etc/passwd", cookies[0].Value)
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}

func TestSessionFrom_Empty(t *testing.T) {
	assert.Nil(t, SessionFrom(context.Background()))
}
