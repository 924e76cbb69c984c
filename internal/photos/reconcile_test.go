package photos_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-photos-backend/internal/kv"
	"farm-photos-backend/internal/photos"
)

func TestReconcile_CleanStateUntouched(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()

	f.submitApproved(t, "farm-1")
	f.submit(t, "farm-2")

	summary, err := f.service.RunReconciliation(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Checked)
	assert.Zero(t, summary.RemovedMissing)
	assert.Zero(t, summary.RepairedURLs)
	assert.Zero(t, summary.Purged)
	assert.Zero(t, summary.Errors)
}

func TestReconcile_RemovesRecordsWithMissingBlobs(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()

	lost := f.submitApproved(t, "farm-1")
	kept := f.submitApproved(t, "farm-1")

	// Simulate the blob disappearing out from under the record.
	require.NoError(t, f.blobs.Delete(ctx, lost.ObjectKey))

	summary, err := f.service.RunReconciliation(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.RemovedMissing)
	assert.Equal(t, []string{kept.ID.String()}, f.approvedMembers(t, "farm-1"))
	assert.Equal(t, int64(1), f.counter(t, "farm-1"))

	_, err = f.service.GetPhoto(ctx, lost.ID.String())
	assert.ErrorIs(t, err, photos.ErrNotFound)

	_, err = f.service.GetPhoto(ctx, kept.ID.String())
	assert.NoError(t, err)
}

func TestReconcile_RepairsDisplayURL(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()

	approved := f.submitApproved(t, "farm-1")

	// Corrupt the display URL so it lost its extension suffix.
	require.NoError(t, f.store.HashSet(ctx, kv.PhotoKey(approved.ID.String()), map[string]interface{}{
		"display_url": "https://blobs.local/public/farms/farm-1/photos/" + approved.ID.String(),
	}))

	summary, err := f.service.RunReconciliation(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RepairedURLs)

	photo, err := f.service.GetPhoto(ctx, approved.ID.String())
	require.NoError(t, err)
	assert.Equal(t, f.blobs.PublicURL(approved.ObjectKey), photo.DisplayURL)
}

func TestReconcile_ResyncsAdvisoryCounter(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()

	f.submitApproved(t, "farm-1")
	f.submitApproved(t, "farm-1")

	// Drift the advisory counter away from set truth.
	require.NoError(t, f.store.CounterSet(ctx, kv.CountKey("farm-1"), 7))

	_, err := f.service.RunReconciliation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.counter(t, "farm-1"))
}

func TestReconcile_DropsDanglingQueueEntries(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()

	require.NoError(t, f.store.ListAppend(ctx, kv.PendingKey, "11111111-2222-3333-4444-555555555555"))

	summary, err := f.service.RunReconciliation(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RemovedMissing)

	queue, err := f.service.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestReconcile_PurgesExpiredRecoverables(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()

	approved := f.submitApproved(t, "farm-1")
	_, err := f.service.SoftDelete(ctx, approved.ID.String())
	require.NoError(t, err)

	f.redis.FastForward(30*24*time.Hour + time.Minute)

	summary, err := f.service.RunReconciliation(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Purged)

	_, err = f.service.GetPhoto(ctx, approved.ID.String())
	assert.ErrorIs(t, err, photos.ErrNotFound)
	assert.False(t, f.blobs.Has(approved.ObjectKey))
}

func TestReconcile_KeepsLiveRecoverables(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()

	approved := f.submitApproved(t, "farm-1")
	_, err := f.service.SoftDelete(ctx, approved.ID.String())
	require.NoError(t, err)

	summary, err := f.service.RunReconciliation(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Purged)

	recoverable, err := f.service.ListRecoverable(ctx)
	require.NoError(t, err)
	assert.Len(t, recoverable, 1)
}

func TestReconcile_ProbeErrorsAreCountedNotActedOn(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()

	approved := f.submitApproved(t, "farm-1")
	f.blobs.FailNext("exists", true)

	summary, err := f.service.RunReconciliation(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Errors)
	assert.Zero(t, summary.RemovedMissing)

	// An unreachable probe must never destroy records.
	_, err = f.service.GetPhoto(ctx, approved.ID.String())
	assert.NoError(t, err)
	assert.Len(t, f.approvedMembers(t, "farm-1"), 1)
}
