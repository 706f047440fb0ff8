package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"inbox-dashboard/internal/logger"
	"inbox-dashboard/internal/model"
)

const DefaultTTL = 300 * time.Second

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// RefreshFunc produces a complete new snapshot.
type RefreshFunc func(ctx context.Context) (*model.Snapshot, error)

// SnapshotCache is a single-slot read-through cache. At most one refresh runs
// at a time; concurrent callers during a refresh wait for its result.
type SnapshotCache struct {
	refresh RefreshFunc
	clock   Clock
	ttl     time.Duration
	logger  *logger.Logger

	mutex      sync.RWMutex
	snapshot   *model.Snapshot
	lastUpdate time.Time
	group      singleflight.Group
}

func NewSnapshotCache(refresh RefreshFunc, clock Clock, ttl time.Duration, logger *logger.Logger) *SnapshotCache {
	if clock == nil {
		clock = SystemClock
	}
	return &SnapshotCache{
		refresh: refresh,
		clock:   clock,
		ttl:     ttl,
		logger:  logger,
	}
}

// Get returns the cached snapshot, refreshing first when the slot is empty
// or older than the TTL. It never fails.
func (c *SnapshotCache) Get(ctx context.Context) *model.Snapshot {
	c.mutex.RLock()
	snapshot, lastUpdate := c.snapshot, c.lastUpdate
	c.mutex.RUnlock()

	if snapshot != nil && c.clock.Now().Sub(lastUpdate) <= c.ttl {
		return snapshot
	}
	return c.Refresh(ctx)
}

// Refresh forces a refresh, joining one already in flight. The refresh
// ignores ctx cancellation; the refresh function bounds its own duration.
func (c *SnapshotCache) Refresh(ctx context.Context) *model.Snapshot {
	v, _, _ := c.group.Do("snapshot", func() (interface{}, error) {
		return c.runRefresh(context.WithoutCancel(ctx)), nil
	})
	return v.(*model.Snapshot)
}

// Set replaces the cached snapshot, stamping it with the current time.
func (c *SnapshotCache) Set(snapshot *model.Snapshot) {
	c.store(snapshot, c.clock.Now())
}

// Seed fills the slot with a previously persisted snapshot, keeping its own
// LastUpdated stamp so the TTL still applies.
func (c *SnapshotCache) Seed(snapshot *model.Snapshot) {
	if snapshot == nil {
		return
	}
	c.store(snapshot, snapshot.LastUpdated)
}

// LastUpdate is the zero time until the first refresh.
func (c *SnapshotCache) LastUpdate() time.Time {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.lastUpdate
}

func (c *SnapshotCache) runRefresh(ctx context.Context) (snapshot *model.Snapshot) {
	started := c.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorf("Snapshot refresh panicked: %v", r)
			snapshot = model.EmptySnapshot(started)
		}
		c.store(snapshot, started)
	}()

	c.logger.Info("Fetching fresh email data...")
	snapshot, err := c.refresh(ctx)
	if err != nil {
		c.logger.Errorf("Snapshot refresh failed: %v", err)
		return model.EmptySnapshot(started)
	}
	if snapshot == nil {
		return model.EmptySnapshot(started)
	}
	return snapshot
}

func (c *SnapshotCache) store(snapshot *model.Snapshot, at time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.snapshot = snapshot
	c.lastUpdate = at
}
