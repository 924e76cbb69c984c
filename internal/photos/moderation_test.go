package photos_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-photos-backend/internal/models"
	"farm-photos-backend/internal/photos"
)

func TestApprove_PromotesPendingPhoto(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()

	pending := f.submit(t, "farm-1")

	photo, err := f.service.Approve(ctx, pending.ID.String())
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, photo.Status)
	assert.False(t, photo.ApprovedAt.IsZero())
	assert.Equal(t, []string{photo.ID.String()}, f.approvedMembers(t, "farm-1"))
	assert.Equal(t, int64(1), f.counter(t, "farm-1"))

	queue, err := f.service.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestApprove_Idempotent(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()

	approved := f.submitApproved(t, "farm-1")

	again, err := f.service.Approve(ctx, approved.ID.String())
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, again.Status)

	// Double click did not double count.
	assert.Len(t, f.approvedMembers(t, "farm-1"), 1)
	assert.Equal(t, int64(1), f.counter(t, "farm-1"))
}

func TestApprove_QuotaFullRequeuesPhoto(t *testing.T) {
	opts := defaultOptions()
	opts.Quota = 1
	f := newFixture(t, opts)
	ctx := context.Background()

	blocked := f.submit(t, "farm-1")
	f.submitApproved(t, "farm-1")

	_, err := f.service.Approve(ctx, blocked.ID.String())
	assert.ErrorIs(t, err, photos.ErrQuotaExceeded)

	// The photo stays reviewable at the head of the queue.
	queue, err := f.service.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, blocked.ID, queue[0].ID)
	assert.Equal(t, models.StatusPending, queue[0].Status)
}

func TestApprove_ConcurrentNeverExceedsQuota(t *testing.T) {
	opts := defaultOptions()
	opts.Quota = 5
	f := newFixture(t, opts)
	ctx := context.Background()

	// Eight pending photos race for five slots.
	ids := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		ids = append(ids, f.submit(t, "farm-1").ID.String())
	}

	var wg sync.WaitGroup
	results := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.service.Approve(ctx, id)
			results <- err
		}(id)
	}
	wg.Wait()
	close(results)

	var approved, blocked int
	for err := range results {
		switch {
		case err == nil:
			approved++
		case errors.Is(err, photos.ErrQuotaExceeded):
			blocked++
		default:
			t.Fatalf("unexpected approve error: %v", err)
		}
	}

	assert.Equal(t, 5, approved)
	assert.Equal(t, 3, blocked)
	assert.Len(t, f.approvedMembers(t, "farm-1"), 5)
}

func TestApprove_NotFound(t *testing.T) {
	f := newFixture(t, defaultOptions())

	_, err := f.service.Approve(context.Background(), "11111111-2222-3333-4444-555555555555")
	assert.ErrorIs(t, err, photos.ErrNotFound)
}

func TestApprove_SoftDeletedPhotoRejected(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()

	approved := f.submitApproved(t, "farm-1")
	_, err := f.service.SoftDelete(ctx, approved.ID.String())
	require.NoError(t, err)

	_, err = f.service.Approve(ctx, approved.ID.String())
	assert.ErrorIs(t, err, photos.ErrInvalid)
}

func TestReject_RemovesQueueRecordAndBlob(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()

	pending := f.submit(t, "farm-1")
	require.True(t, f.blobs.Has(pending.ObjectKey))

	err := f.service.Reject(ctx, pending.ID.String())
	require.NoError(t, err)

	queue, err := f.service.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, queue)

	_, err = f.service.GetPhoto(ctx, pending.ID.String())
	assert.ErrorIs(t, err, photos.ErrNotFound)
	assert.False(t, f.blobs.Has(pending.ObjectKey))
}

func TestReject_BlobDeleteFailureStillRejects(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()

	pending := f.submit(t, "farm-1")
	f.blobs.FailNext("delete", true)

	err := f.service.Reject(ctx, pending.ID.String())
	require.NoError(t, err)

	_, err = f.service.GetPhoto(ctx, pending.ID.String())
	assert.ErrorIs(t, err, photos.ErrNotFound)
	// The orphaned blob is acceptable waste for reconciliation to find.
	assert.True(t, f.blobs.Has(pending.ObjectKey))
}

func TestReject_ApprovedPhotoRejected(t *testing.T) {
	f := newFixture(t, defaultOptions())

	approved := f.submitApproved(t, "farm-1")

	err := f.service.Reject(context.Background(), approved.ID.String())
	assert.ErrorIs(t, err, photos.ErrInvalid)
}

func TestListPending_OldestFirst(t *testing.T) {
	f := newFixture(t, defaultOptions())

	first := f.submit(t, "farm-1")
	second := f.submit(t, "farm-2")

	queue, err := f.service.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, first.ID, queue[0].ID)
	assert.Equal(t, second.ID, queue[1].ID)
}

type captureNotifier struct {
	events chan *models.Photo
}

func (n *captureNotifier) PhotoLive(_ context.Context, photo *models.Photo) error {
	n.events <- photo
	return nil
}

func TestApprove_PublishesLiveEvent(t *testing.T) {
	notifier := &captureNotifier{events: make(chan *models.Photo, 1)}
	f := newFixtureNotify(t, defaultOptions(), notifier)

	pending := f.submit(t, "farm-1")
	_, err := f.service.Approve(context.Background(), pending.ID.String())
	require.NoError(t, err)

	select {
	case photo := <-notifier.events:
		assert.Equal(t, pending.ID, photo.ID)
		assert.Equal(t, models.StatusApproved, photo.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("no moderation event published")
	}
}
