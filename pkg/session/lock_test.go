package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/relview/pkg/adapters/memory"
	"github.com/aretw0/relview/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_LocksAreCollected(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("session-%d", i)
		require.NoError(t, mgr.Save(ctx, domain.NewSession(id)))
		_, err := mgr.LoadOrCreate(ctx, id)
		require.NoError(t, err)
		require.NoError(t, mgr.Delete(ctx, id))
	}

	assert.Empty(t, mgr.locks, "no lock entry may outlive its last holder")
}

func TestManager_WithLockSerializes(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = mgr.WithLock(ctx, "shared", func(context.Context) error {
				mu.Lock()
				holders++
				maxSeen = max(maxSeen, holders)
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				holders--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, mgr.locks)
}

func TestManager_Prune(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	mgr := NewManager(store)
	mgr.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, mgr.Save(ctx, domain.NewSession("old")))
	now = now.Add(2 * time.Hour)
	require.NoError(t, mgr.Save(ctx, domain.NewSession("recent")))

	removed, err := mgr.Prune(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"recent"}, ids)
}
