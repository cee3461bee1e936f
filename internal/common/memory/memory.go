// internal/common/memory/memory.go

// Package memory keeps the short-term conversation state of each user: the
// last intent and the last query result.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"product-discovery/internal/common/config"
	"product-discovery/internal/models"
)

// Store is a keyed conversation store. Operations on different users never
// block each other.
type Store interface {
	Get(ctx context.Context, userID string) (models.ConversationState, error)
	Update(ctx context.Context, userID string, intent models.Intent, result models.QueryResult) error
}

// New selects the backend named in cfg. rdb is only required for redis.
func New(cfg config.MemoryConfig, rdb *redis.Client) (Store, error) {
	switch cfg.Backend {
	case "", config.MemoryBackendInProcess:
		return NewInMemory(), nil
	case config.MemoryBackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("memory backend %q requires a redis client", cfg.Backend)
		}
		return NewRedisStore(rdb, cfg.KeyPrefix, time.Duration(cfg.TTL)*time.Millisecond), nil
	default:
		return nil, fmt.Errorf("unknown memory backend %q", cfg.Backend)
	}
}

func newState(intent models.Intent, result models.QueryResult, now time.Time) models.ConversationState {
	in := intent.Clone()
	res := result
	return models.ConversationState{
		LastIntent: &in,
		LastResult: &res,
		UpdatedAt:  now,
	}
}
