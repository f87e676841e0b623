package attempt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qr-gateway/internal/login/models"
	"qr-gateway/pkg/platform/sentinel"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Get for missing login returns not found", func(t *testing.T) {
		store := NewMemory()
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("Put then Get round-trips the attempt", func(t *testing.T) {
		store := NewMemory()
		att := &models.LoginAttempt{
			LoginID:  "login-1",
			CallerID: "caller-1",
			Status:   models.StatusPending,
		}
		require.NoError(t, store.Put(ctx, att, time.Minute))

		got, err := store.Get(ctx, "login-1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, got.Status)
		assert.Equal(t, "caller-1", got.CallerID)
	})

	t.Run("Get returns a copy, not a shared reference", func(t *testing.T) {
		store := NewMemory()
		require.NoError(t, store.Put(ctx, &models.LoginAttempt{LoginID: "login-1", Status: models.StatusPending}, 0))

		got, err := store.Get(ctx, "login-1")
		require.NoError(t, err)
		got.Status = models.StatusFailed

		again, err := store.Get(ctx, "login-1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, again.Status)
	})

	t.Run("expired entry behaves as absent", func(t *testing.T) {
		now := time.Now()
		store := NewMemory().WithClock(func() time.Time { return now })
		require.NoError(t, store.Put(ctx, &models.LoginAttempt{LoginID: "login-1", Status: models.StatusPending}, 60*time.Second))

		now = now.Add(61 * time.Second)
		_, err := store.Get(ctx, "login-1")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("ttl zero never expires", func(t *testing.T) {
		now := time.Now()
		store := NewMemory().WithClock(func() time.Time { return now })
		require.NoError(t, store.Put(ctx, &models.LoginAttempt{LoginID: "login-1"}, 0))

		now = now.Add(24 * time.Hour)
		_, err := store.Get(ctx, "login-1")
		require.NoError(t, err)
	})

	t.Run("Put refreshes the ttl", func(t *testing.T) {
		now := time.Now()
		store := NewMemory().WithClock(func() time.Time { return now })
		require.NoError(t, store.Put(ctx, &models.LoginAttempt{LoginID: "login-1", Status: models.StatusPending}, 60*time.Second))

		now = now.Add(50 * time.Second)
		require.NoError(t, store.Put(ctx, &models.LoginAttempt{LoginID: "login-1", Status: models.StatusScanned}, 60*time.Second))

		now = now.Add(50 * time.Second)
		got, err := store.Get(ctx, "login-1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusScanned, got.Status)
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		store := NewMemory()
		require.NoError(t, store.Put(ctx, &models.LoginAttempt{LoginID: "login-1"}, time.Minute))
		require.NoError(t, store.Delete(ctx, "login-1"))
		require.NoError(t, store.Delete(ctx, "login-1"))

		_, err := store.Get(ctx, "login-1")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(n int) {
			defer wg.Done()
			att := &models.LoginAttempt{LoginID: "shared", Status: models.StatusPending}
			assert.NoError(t, store.Put(ctx, att, time.Minute))
			if _, err := store.Get(ctx, "shared"); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				assert.NoError(t, err)
			}
			if n%2 == 0 {
				assert.NoError(t, store.Delete(ctx, "shared"))
			}
		}(i)
	}

	wg.Wait()
}
