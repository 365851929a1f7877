package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"raphael-assistant/internal/common/logger"
)

// CachedStore serves repeated queries from Redis. Every write bumps a
// per-collection version so stale entries are never read again; they age
// out with the TTL. Cache failures fall through to the backend.
type CachedStore struct {
	next   Store
	client redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStore(next Store, client redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "storage-cache"}),
	}
}

func versionKey(userID, collection string) string {
	return fmt.Sprintf("raphael:%s:%s:version", userID, collection)
}

func queryKey(userID, collection string, version int64, opts QueryOptions) string {
	parts := make([]string, 0, len(opts.Filters))
	for _, f := range opts.Filters {
		parts = append(parts, fmt.Sprintf("%s=%v", f.Field, f.Value))
	}
	direction := "asc"
	if opts.Descending {
		direction = "desc"
	}
	return fmt.Sprintf("raphael:%s:%s:v%d:%s|%s|%s|%d",
		userID, collection, version, strings.Join(parts, "&"), opts.OrderBy, direction, opts.Limit)
}

func (s *CachedStore) Append(ctx context.Context, userID, collection string, record Record) (string, error) {
	id, err := s.next.Append(ctx, userID, collection, record)
	if err != nil {
		return "", err
	}
	s.invalidate(ctx, userID, collection)
	return id, nil
}

func (s *CachedStore) Query(ctx context.Context, userID, collection string, opts QueryOptions) ([]Record, error) {
	version, err := s.client.Get(ctx, versionKey(userID, collection)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn("cache version lookup failed", map[string]interface{}{"error": err})
		return s.next.Query(ctx, userID, collection, opts)
	}

	key := queryKey(userID, collection, version, opts)
	cached, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var records []Record
		if jsonErr := json.Unmarshal(cached, &records); jsonErr == nil {
			return records, nil
		}
		s.logger.Warn("discarding unreadable cache entry", map[string]interface{}{"key": key})
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err})
	}

	records, err := s.next.Query(ctx, userID, collection, opts)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return records, nil
	}
	if err := s.client.Set(ctx, key, string(payload), s.ttl).Err(); err != nil {
		s.logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err})
	}
	return records, nil
}

func (s *CachedStore) Get(ctx context.Context, userID, collection, id string) (Record, error) {
	return s.next.Get(ctx, userID, collection, id)
}

func (s *CachedStore) Delete(ctx context.Context, userID, collection, id string) error {
	if err := s.next.Delete(ctx, userID, collection, id); err != nil {
		return err
	}
	s.invalidate(ctx, userID, collection)
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context, userID, collection string) {
	if err := s.client.Incr(ctx, versionKey(userID, collection)).Err(); err != nil {
		s.logger.Warn("cache invalidation failed", map[string]interface{}{
			"collection": collection,
			"error":      err,
		})
	}
}
