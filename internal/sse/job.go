package sse

import (
	"context"
	"time"

	"github.com/google/uuid"

	"inbox-dashboard/internal/cache"
	"inbox-dashboard/internal/logger"
	"inbox-dashboard/internal/model"
)

const EventSnapshotUpdated = "snapshot_updated"

// SnapshotUpdate is the payload of a snapshot_updated event.
type SnapshotUpdate struct {
	RunID       string        `json:"run_id"`
	Summary     model.Summary `json:"summary"`
	LastUpdated time.Time     `json:"last_updated"`
}

// RefreshJob forces a snapshot refresh on a fixed interval and tells
// connected clients about it.
type RefreshJob struct {
	snapshots  *cache.SnapshotCache
	sseManager *SSEManager
	logger     *logger.Logger
	interval   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

func NewRefreshJob(
	snapshots *cache.SnapshotCache,
	sseManager *SSEManager,
	interval time.Duration,
	logger *logger.Logger,
) *RefreshJob {
	ctx, cancel := context.WithCancel(context.Background())

	return &RefreshJob{
		snapshots:  snapshots,
		sseManager: sseManager,
		logger:     logger,
		interval:   interval,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// RunOnce refreshes the snapshot and broadcasts the result.
func (j *RefreshJob) RunOnce() *model.Snapshot {
	runID := uuid.NewString()
	j.logger.Info("Running snapshot refresh", runID)

	snapshot := j.snapshots.Refresh(j.ctx)

	j.sseManager.Broadcast(EventSnapshotUpdated, SnapshotUpdate{
		RunID:       runID,
		Summary:     snapshot.Summary,
		LastUpdated: snapshot.LastUpdated,
	})

	j.logger.Info("Completed snapshot refresh", runID, "emails:", snapshot.Summary.TotalEmails)
	return snapshot
}

// Start blocks, refreshing on every tick until Stop is called.
func (j *RefreshJob) Start() {
	j.logger.Info("Starting snapshot refresh job with interval:", j.interval.String())

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunOnce()
		case <-j.ctx.Done():
			j.logger.Info("Snapshot refresh job stopped")
			return
		}
	}
}

func (j *RefreshJob) Stop() {
	j.cancel()
}

func (j *RefreshJob) GetInterval() time.Duration {
	return j.interval
}
