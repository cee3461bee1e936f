// internal/common/memory/memory_test.go
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-discovery/internal/common/config"
	apperrors "product-discovery/internal/common/errors"
	"product-discovery/internal/models"
)

func riceTurn() (models.Intent, models.QueryResult) {
	intent := models.Intent{
		Kind:     models.IntentPriceFilter,
		Keywords: []string{"rice"},
		MaxPrice: models.Price(150),
	}
	result := models.QueryResult{
		Matches: []models.Match{{
			Product:  &models.Product{ID: "1", Name: "Basmati Rice", Price: 120, Unit: "kg", Category: "Grocery", BusinessID: "b1"},
			Business: models.Business{ID: "b1", Name: "Sai Kirana Store", Phone: "9876543210", Address: "Madhapur, Hyderabad"},
		}},
	}
	return intent, result
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// ==========================
// In-process backend
// ==========================

func TestInMemory_GetUnknownUser(t *testing.T) {
	store := NewInMemory()

	state, err := store.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.True(t, state.IsZero())
}

func TestInMemory_UpdateOverwrites(t *testing.T) {
	store := NewInMemory()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	ctx := context.Background()

	intent, result := riceTurn()
	require.NoError(t, store.Update(ctx, "u1", intent, result))

	state, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, state.LastIntent)
	assert.Equal(t, intent, *state.LastIntent)
	assert.Equal(t, result, *state.LastResult)
	assert.Equal(t, fixed, state.UpdatedAt)

	next := models.Intent{Kind: models.IntentCategorySearch, Keywords: []string{}, Category: "Vegetables"}
	require.NoError(t, store.Update(ctx, "u1", next, models.QueryResult{Matches: []models.Match{}}))

	state, err = store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Vegetables", state.LastIntent.Category)
	assert.Empty(t, state.LastResult.Matches)
	assert.Equal(t, 1, store.Len())
}

func TestInMemory_StateIsIsolatedFromCallers(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	intent, result := riceTurn()
	require.NoError(t, store.Update(ctx, "u1", intent, result))
	intent.Keywords[0] = "changed"

	state, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	state.LastIntent.Keywords[0] = "mutated"

	again, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"rice"}, again.LastIntent.Keywords)
}

func TestInMemory_UsersArePartitioned(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	intent, result := riceTurn()
	require.NoError(t, store.Update(ctx, "alice", intent, result))

	state, err := store.Get(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, state.IsZero())
}

func TestInMemory_ConcurrentUpdates(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	const users = 20
	const turns = 50

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", u)
			for i := 0; i < turns; i++ {
				intent := models.Intent{
					Kind:     models.IntentProductSearch,
					Keywords: []string{userID},
					Offset:   i,
				}
				assert.NoError(t, store.Update(ctx, userID, intent, models.QueryResult{}))
				state, err := store.Get(ctx, userID)
				assert.NoError(t, err)
				assert.Equal(t, []string{userID}, state.LastIntent.Keywords)
			}
		}(u)
	}
	wg.Wait()

	assert.Equal(t, users, store.Len())
	for u := 0; u < users; u++ {
		state, err := store.Get(ctx, fmt.Sprintf("user-%d", u))
		require.NoError(t, err)
		assert.Equal(t, turns-1, state.LastIntent.Offset)
	}
}

// ==========================
// Redis backend
// ==========================

func TestRedisStore_RoundTrip(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewRedisStore(client, "test:conv:", 30*time.Minute)
	ctx := context.Background()

	state, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, state.IsZero())

	intent, result := riceTurn()
	require.NoError(t, store.Update(ctx, "u1", intent, result))

	assert.True(t, mr.Exists("test:conv:u1"))
	assert.Equal(t, 30*time.Minute, mr.TTL("test:conv:u1"))

	state, err = store.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, state.LastIntent)
	assert.Equal(t, models.IntentPriceFilter, state.LastIntent.Kind)
	assert.Equal(t, 150.0, *state.LastIntent.MaxPrice)
	require.Len(t, state.LastResult.Matches, 1)
	assert.Equal(t, "Basmati Rice", state.LastResult.Matches[0].Product.Name)
	assert.False(t, state.UpdatedAt.IsZero())
}

func TestRedisStore_Expires(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewRedisStore(client, "", time.Minute)
	ctx := context.Background()

	intent, result := riceTurn()
	require.NoError(t, store.Update(ctx, "u1", intent, result))
	assert.True(t, mr.Exists(defaultKeyPrefix+"u1"))

	mr.FastForward(2 * time.Minute)

	state, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, state.IsZero())
}

func TestRedisStore_CorruptValue(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewRedisStore(client, "p:", 0)
	require.NoError(t, mr.Set("p:u1", "{not json"))

	_, err := store.Get(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMemoryUnavailable))
}

func TestRedisStore_BackendErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, "p:", time.Minute)
	ctx := context.Background()

	mock.ExpectGet("p:u1").SetErr(errors.New("connection refused"))

	_, err := store.Get(ctx, "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMemoryUnavailable))

	se, ok := apperrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, "get", se.Metadata["op"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_UpdateWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	store := NewRedisStore(client, "p:", time.Minute)
	intent, result := riceTurn()

	err = store.Update(context.Background(), "u1", intent, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMemoryUnavailable))
}

// ==========================
// Backend selection
// ==========================

func TestNew(t *testing.T) {
	_, client := setupRedis(t)

	store, err := New(config.MemoryConfig{Backend: config.MemoryBackendInProcess}, nil)
	require.NoError(t, err)
	assert.IsType(t, &InMemory{}, store)

	store, err = New(config.MemoryConfig{Backend: config.MemoryBackendRedis, TTL: 1000, KeyPrefix: "x:"}, client)
	require.NoError(t, err)
	require.IsType(t, &RedisStore{}, store)
	assert.Equal(t, time.Second, store.(*RedisStore).ttl)

	_, err = New(config.MemoryConfig{Backend: config.MemoryBackendRedis}, nil)
	assert.Error(t, err)

	_, err = New(config.MemoryConfig{Backend: "dynamo"}, nil)
	assert.Error(t, err)
}
