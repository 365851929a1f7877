package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raphael-assistant/internal/common/logger"
)

// countingStore records how often the backend was queried.
type countingStore struct {
	Store
	queries int
	fail    error
}

func (c *countingStore) Query(ctx context.Context, userID, collection string, opts QueryOptions) ([]Record, error) {
	c.queries++
	if c.fail != nil {
		return nil, c.fail
	}
	return c.Store.Query(ctx, userID, collection, opts)
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestCachedStore_ServesRepeatedQueries(t *testing.T) {
	_, client := setupRedis(t)
	backend := &countingStore{Store: NewMemoryStore()}
	store := NewCachedStore(backend, client, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	_, err := store.Append(ctx, "user-1", "memories", Record{Data: map[string]interface{}{"text": "likes tea"}})
	require.NoError(t, err)

	first, err := store.Query(ctx, "user-1", "memories", Recent(5))
	require.NoError(t, err)
	second, err := store.Query(ctx, "user-1", "memories", Recent(5))
	require.NoError(t, err)

	assert.Equal(t, 1, backend.queries)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, "likes tea", second[0].Data["text"])
}

func TestCachedStore_AppendInvalidates(t *testing.T) {
	mr, client := setupRedis(t)
	backend := &countingStore{Store: NewMemoryStore()}
	store := NewCachedStore(backend, client, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	_, err := store.Query(ctx, "user-1", "memories", Recent(5))
	require.NoError(t, err)

	_, err = store.Append(ctx, "user-1", "memories", Record{Data: map[string]interface{}{"text": "likes jazz"}})
	require.NoError(t, err)

	records, err := store.Query(ctx, "user-1", "memories", Recent(5))
	require.NoError(t, err)

	assert.Equal(t, 2, backend.queries)
	assert.Len(t, records, 1)
	version, err := mr.Get(versionKey("user-1", "memories"))
	require.NoError(t, err)
	assert.Equal(t, "1", version)
}

func TestCachedStore_RedisDownFallsThrough(t *testing.T) {
	mr, client := setupRedis(t)
	backend := &countingStore{Store: NewMemoryStore()}
	store := NewCachedStore(backend, client, time.Minute, logger.NewTestLogger(t))
	mr.Close()

	_, err := store.Append(context.Background(), "user-1", "memories", Record{})
	require.NoError(t, err)

	records, err := store.Query(context.Background(), "user-1", "memories", QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, backend.queries)
}

func TestCachedStore_BackendErrorIsNotCached(t *testing.T) {
	_, client := setupRedis(t)
	backend := &countingStore{Store: NewMemoryStore(), fail: ErrQueryFailed}
	store := NewCachedStore(backend, client, time.Minute, logger.NewTestLogger(t))

	_, err := store.Query(context.Background(), "user-1", "memories", QueryOptions{})
	assert.True(t, errors.Is(err, ErrQueryFailed))

	backend.fail = nil
	_, err = store.Query(context.Background(), "user-1", "memories", QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, backend.queries)
}

func TestCachedStore_WritesThroughOnMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewCachedStore(NewMemoryStore(), db, 30*time.Second, logger.NewNoOpLogger())
	opts := Recent(5)
	key := queryKey("user-1", "memories", 0, opts)
	payload, err := json.Marshal([]Record{})
	require.NoError(t, err)

	mock.ExpectGet(versionKey("user-1", "memories")).RedisNil()
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, string(payload), 30*time.Second).SetVal("OK")

	records, err := store.Query(context.Background(), "user-1", "memories", opts)

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryKey(t *testing.T) {
	key := queryKey("user-1", "homework_tasks", 3, Recent(5, Filter{Field: "status", Value: "pending"}))
	assert.Equal(t, "raphael:user-1:homework_tasks:v3:status=pending|created_at|desc|5", key)
}
