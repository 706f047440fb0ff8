package repository

import (
	"context"
	"errors"

	"inbox-dashboard/internal/model"
)

// ErrSnapshotNotFound is returned by Load when nothing has been saved yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore persists the single latest snapshot. Save fully replaces
// whatever was stored before.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot *model.Snapshot) error
	Load(ctx context.Context) (*model.Snapshot, error)
}
