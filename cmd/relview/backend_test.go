package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/relview/internal/config"
	"github.com/aretw0/relview/internal/logging"
	"github.com/aretw0/relview/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("RELVIEW_CONFIG", "")
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func roundTrip(t *testing.T, st *storage) {
	t.Helper()
	ctx := context.Background()
	m := st.manager(logging.NewNop())

	sess := domain.NewSession("7f0c1c52-2b55-4a4c-9a53-0d2b3d1c0a11")
	sess.InitiateFlow("/customers/c1")
	require.NoError(t, m.Save(ctx, sess))

	loaded, err := m.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Flow, loaded.Flow)

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, sess.ID)
}

func TestOpenStorage_Backends(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name  string
		setup func(cfg *config.Config)
	}{
		{name: "memory", setup: func(cfg *config.Config) {}},
		{name: "file", setup: func(cfg *config.Config) {
			cfg.Session.Backend = "file"
			cfg.Session.Dir = t.TempDir()
		}},
		{name: "redis", setup: func(cfg *config.Config) {
			cfg.Session.Backend = "redis"
			cfg.Redis.Addr = mr.Addr()
			cfg.Redis.Lock = true
		}},
		{name: "sqlite", setup: func(cfg *config.Config) {
			cfg.Session.Backend = "sql"
			cfg.SQL.Driver = "sqlite3"
			cfg.SQL.DSN = "file:backend_test?mode=memory&cache=shared"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults(t)
			tt.setup(&cfg)

			st, err := openStorage(context.Background(), cfg, logging.NewNop())
			require.NoError(t, err)
			t.Cleanup(func() { _ = st.Close() })

			roundTrip(t, st)
		})
	}
}

func TestOpenStorage_RedisSharesClient(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := defaults(t)
	cfg.Session.Backend = "redis"
	cfg.Redis.Addr = mr.Addr()

	st, err := openStorage(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.cache.Set(context.Background(), "k", []byte("v"), 0))
	assert.True(t, mr.Exists("relview:memo:k"))
	assert.Nil(t, st.locker, "locking is opt-in")
}

func TestOpenStorage_RedisUnavailable(t *testing.T) {
	cfg := defaults(t)
	cfg.Session.Backend = "redis"
	cfg.Redis.Addr = "127.0.0.1:1"

	_, err := openStorage(context.Background(), cfg, logging.NewNop())
	assert.ErrorContains(t, err, "failed to connect to redis")
}

func TestOpenStorage_Encrypted(t *testing.T) {
	dir := t.TempDir()
	cfg := defaults(t)
	cfg.Session.Backend = "file"
	cfg.Session.Dir = dir
	cfg.Session.EncryptionKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

	st, err := openStorage(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	roundTrip(t, st)

	cfg.Session.EncryptionKey = ""
	plain, err := openStorage(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)

	raw, err := plain.store.Load(context.Background(), "7f0c1c52-2b55-4a4c-9a53-0d2b3d1c0a11")
	require.NoError(t, err)
	assert.Empty(t, raw.Flow, "flow is sealed at rest")
}
