package sqlstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/aretw0/relview/pkg/domain"
	"github.com/aretw0/relview/pkg/ports"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T, opts ...Option) *Store {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	s, err := Open(context.Background(), "sqlite3", dsn, opts...)
	require.NoError(t, err)
	s.db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, openSQLite(t))
}

func TestSQLStore_TTL(t *testing.T) {
	s := openSQLite(t, WithTTL(time.Minute))
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "short", domain.NewSession("short")))
	_, err := s.Load(ctx, "short")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Load(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, "short")
}

func TestSQLStore_PlaceholderStyle(t *testing.T) {
	pg := New(&sql.DB{}, "pgx")
	assert.Equal(t, "SELECT data FROM relview_sessions WHERE id = $1 AND x = $2",
		pg.q("SELECT data FROM {table} WHERE id = ? AND x = ?"))

	lite := New(&sql.DB{}, "sqlite3", WithTable("sess"))
	assert.Equal(t, "DELETE FROM sess WHERE id = ?", lite.q("DELETE FROM {table} WHERE id = ?"))
}
