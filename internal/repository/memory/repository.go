package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"inbox-dashboard/internal/model"
	"inbox-dashboard/internal/repository"
)

// InMemorySnapshotRepository keeps the latest snapshot as encoded JSON so
// callers never share mutable state with the store.
type InMemorySnapshotRepository struct {
	payload []byte
	saves   int
	mutex   sync.RWMutex
}

func NewInMemorySnapshotRepository() *InMemorySnapshotRepository {
	return &InMemorySnapshotRepository{}
}

func (r *InMemorySnapshotRepository) Save(ctx context.Context, snapshot *model.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.payload = payload
	r.saves++
	return nil
}

func (r *InMemorySnapshotRepository) Load(ctx context.Context) (*model.Snapshot, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.payload == nil {
		return nil, repository.ErrSnapshotNotFound
	}
	snapshot := &model.Snapshot{}
	if err := json.Unmarshal(r.payload, snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}

// Saves reports how many times Save succeeded.
func (r *InMemorySnapshotRepository) Saves() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.saves
}
