package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/relview/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract verifies that a SessionStore implementation
// adheres to the interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		sess := domain.NewSession(sessionID)
		sess.InitiateFlow("/start")
		sess.PushFrame(domain.Frame{By: "address_form_view", URL: "/address"})
		sess.Packet = domain.Packet{"to": "confirm_form_view", "street": "Main"}
		sess.ViewCache("address_form_view")[domain.FormDataKey] = map[string]any{"zip": "123"}
		sess.Values["count"] = 42

		require.NoError(t, store.Save(ctx, sessionID, sess), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sess.Flow, loaded.Flow)
		assert.Equal(t, "confirm_form_view", loaded.Packet.To())
		assert.Equal(t, "Main", loaded.Packet["street"])
		assert.Contains(t, loaded.Views, "address_form_view")
		// JSON-backed stores turn numbers into float64; only presence is part of the contract.
		assert.NotNil(t, loaded.Values["count"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		sess := domain.NewSession(sessionID)
		sess.InitiateFlow("/first")
		require.NoError(t, store.Save(ctx, sessionID, sess))

		sess.InitiateFlow("/second")
		require.NoError(t, store.Save(ctx, sessionID, sess))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, loaded.Flow, 1)
		assert.Equal(t, "/second", loaded.Flow[0].URL)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewSession(sessionID)))
		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1))
		_ = store.Save(ctx, id2, domain.NewSession(id2))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunCacheContract verifies that a Cache implementation adheres to the interface contract.
func RunCacheContract(t *testing.T, cache Cache) {
	ctx := context.Background()

	t.Run("Miss", func(t *testing.T) {
		_, err := cache.Get(ctx, "absent")
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "k1", []byte(`{"a":1}`), time.Minute))
		got, err := cache.Get(ctx, "k1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":1}`, string(got))
	})

	t.Run("Last Write Wins", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "k2", []byte("one"), 0))
		require.NoError(t, cache.Set(ctx, "k2", []byte("two"), 0))
		got, err := cache.Get(ctx, "k2")
		require.NoError(t, err)
		assert.Equal(t, "two", string(got))
	})
}
