// internal/common/memory/inprocess.go
package memory

import (
	"context"
	"sync"
	"time"

	"product-discovery/internal/common/config"
	"product-discovery/internal/common/metrics"
	"product-discovery/internal/models"
)

type entry struct {
	mu    sync.Mutex
	state models.ConversationState
}

// InMemory is the process-scoped backend. Each user id owns an entry with its
// own mutex, so a slow update for one user does not hold up another. Entries
// are never evicted.
type InMemory struct {
	entries sync.Map // userID -> *entry
	now     func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{now: time.Now}
}

func (m *InMemory) Get(_ context.Context, userID string) (models.ConversationState, error) {
	metrics.MemoryOperations.WithLabelValues(config.MemoryBackendInProcess, "get", "ok").Inc()

	v, ok := m.entries.Load(userID)
	if !ok {
		return models.ConversationState{}, nil
	}
	e := v.(*entry)

	e.mu.Lock()
	defer e.mu.Unlock()
	return copyState(e.state), nil
}

func (m *InMemory) Update(_ context.Context, userID string, intent models.Intent, result models.QueryResult) error {
	metrics.MemoryOperations.WithLabelValues(config.MemoryBackendInProcess, "update", "ok").Inc()

	v, _ := m.entries.LoadOrStore(userID, &entry{})
	e := v.(*entry)

	e.mu.Lock()
	e.state = newState(intent, result, m.now())
	e.mu.Unlock()
	return nil
}

// Len is the number of users with recorded state.
func (m *InMemory) Len() int {
	n := 0
	m.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

func copyState(s models.ConversationState) models.ConversationState {
	out := models.ConversationState{UpdatedAt: s.UpdatedAt}
	if s.LastIntent != nil {
		in := s.LastIntent.Clone()
		out.LastIntent = &in
	}
	if s.LastResult != nil {
		res := *s.LastResult
		out.LastResult = &res
	}
	return out
}
