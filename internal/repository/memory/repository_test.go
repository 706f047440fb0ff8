package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inbox-dashboard/internal/model"
	"inbox-dashboard/internal/repository"
)

func TestInMemorySnapshotRepository(t *testing.T) {
	repo := NewInMemorySnapshotRepository()
	ctx := context.Background()

	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, repository.ErrSnapshotNotFound)

	snapshot := model.EmptySnapshot(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))
	snapshot.Summary.Categories.Add(model.CategoryWork)
	snapshot.Summary.TotalEmails = 1
	require.NoError(t, repo.Save(ctx, snapshot))

	// Mutating the original must not leak into the store.
	snapshot.Summary.TotalEmails = 99

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Summary.TotalEmails)
	assert.Equal(t, 1, loaded.Summary.Categories.Get(model.CategoryWork))
	assert.Equal(t, 1, repo.Saves())
}
