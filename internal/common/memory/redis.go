// internal/common/memory/redis.go
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"product-discovery/internal/common/config"
	apperrors "product-discovery/internal/common/errors"
	"product-discovery/internal/common/metrics"
	"product-discovery/internal/models"
)

const defaultKeyPrefix = "discovery:conversation:"

// RedisStore keeps each user's state as one JSON value that expires ttl
// after the last update. A zero ttl keeps state forever.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + userID
}

func (s *RedisStore) Get(ctx context.Context, userID string) (models.ConversationState, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		record("get", "miss")
		return models.ConversationState{}, nil
	}
	if err != nil {
		record("get", "error")
		return models.ConversationState{}, apperrors.NewMemoryUnavailableError("get", err)
	}

	var state models.ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		record("get", "error")
		return models.ConversationState{}, apperrors.NewMemoryUnavailableError("decode", err)
	}
	record("get", "ok")
	return state, nil
}

func (s *RedisStore) Update(ctx context.Context, userID string, intent models.Intent, result models.QueryResult) error {
	data, err := json.Marshal(newState(intent, result, s.now().UTC()))
	if err != nil {
		record("update", "error")
		return apperrors.NewMemoryUnavailableError("encode", err)
	}

	if err := s.client.Set(ctx, s.key(userID), data, s.ttl).Err(); err != nil {
		record("update", "error")
		return apperrors.NewMemoryUnavailableError("update", err)
	}
	record("update", "ok")
	return nil
}

func record(op, outcome string) {
	metrics.MemoryOperations.WithLabelValues(config.MemoryBackendRedis, op, outcome).Inc()
}
