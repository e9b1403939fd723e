package memory

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/relview/pkg/domain"
	"github.com/aretw0/relview/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, NewStore())
}

func TestMemoryStore_SnapshotsOnSave(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	sess := domain.NewSession("iso")
	sess.InitiateFlow("/")
	require.NoError(t, store.Save(ctx, "iso", sess))

	sess.PushFrame(domain.Frame{By: "a_form_view", URL: "/a"})
	sess.ViewCache("a_form_view")["k"] = "v"

	loaded, err := store.Load(ctx, "iso")
	require.NoError(t, err)
	assert.Len(t, loaded.Flow, 1)
	assert.NotContains(t, loaded.Views, "a_form_view")
}

func TestMemoryStore_FormDataNotSharedAfterSave(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	form := map[string]any{"city": "Oslo"}
	sess := domain.NewSession("nested")
	sess.ViewCache("address_form_view")[domain.FormDataKey] = form
	require.NoError(t, store.Save(ctx, "nested", sess))

	form["city"] = "changed"

	loaded, err := store.Load(ctx, "nested")
	require.NoError(t, err)
	loaded.Views["address_form_view"][domain.FormDataKey].(map[string]any)["city"] = "changed again"

	again, err := store.Load(ctx, "nested")
	require.NoError(t, err)
	assert.Equal(t, "Oslo", again.Views["address_form_view"][domain.FormDataKey].(map[string]any)["city"])
}

func TestMemoryStore_TTL(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(WithTTL(time.Minute))
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", domain.NewSession("a")))
	now = now.Add(30 * time.Second)
	require.NoError(t, store.Save(ctx, "b", domain.NewSession("b")))

	now = now.Add(45 * time.Second)
	_, err := store.Load(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = store.Load(ctx, "b")
	assert.NoError(t, err, "saving renews the deadline")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestMemoryCache_Contract(t *testing.T) {
	ports.RunCacheContract(t, NewCache())
}
