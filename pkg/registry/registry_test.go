package registry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/relview/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Reverse(t *testing.T) {
	reg := NewRegistry()
	reg.Name("homepage", "/")
	reg.Name("profile", "/users/{id}")
	reg.Name("order", "/users/{id}/orders/{order:[0-9]+}")
	reg.Name("files", "/files/*")

	tests := []struct {
		name string
		args map[string]string
		want string
	}{
		{"homepage", nil, "/"},
		{"profile", map[string]string{"id": "7"}, "/users/7"},
		{"order", map[string]string{"id": "7", "order": "42"}, "/users/7/orders/42"},
		{"files", map[string]string{"*": "a/b.txt"}, "/files/a/b.txt"},
		{"profile", map[string]string{"id": "a b"}, "/users/a%20b"},
	}
	for _, tt := range tests {
		got, err := reg.Reverse(tt.name, tt.args)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got)
	}
}

func TestRegistry_ReverseErrors(t *testing.T) {
	reg := NewRegistry()
	reg.Name("profile", "/users/{id}")

	_, err := reg.Reverse("unknown", nil)
	assert.ErrorIs(t, err, domain.ErrRouteNotFound)

	_, err = reg.Reverse("profile", nil)
	assert.Error(t, err)
}

func TestRegistry_Resolve(t *testing.T) {
	reg := NewRegistry()
	reg.Name("homepage", "/")
	reg.Name("profile", "/users/{id}")
	reg.Name("address_form_view", "/forms/address")

	name, err := reg.Resolve("/users/12")
	require.NoError(t, err)
	assert.Equal(t, "profile", name)

	name, err = reg.Resolve("/forms/address")
	require.NoError(t, err)
	assert.Equal(t, "address_form_view", name)

	name, err = reg.Resolve("/")
	require.NoError(t, err)
	assert.Equal(t, "homepage", name)

	_, err = reg.Resolve("/nowhere")
	assert.ErrorIs(t, err, domain.ErrRouteNotFound)
}

func TestRegistry_ServeHTTP(t *testing.T) {
	reg := NewRegistry()
	reg.Route("ping", "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	reg.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.ElementsMatch(t, []string{"ping"}, reg.Names())
}
