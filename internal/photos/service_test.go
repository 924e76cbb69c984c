package photos_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"farm-photos-backend/internal/blob"
	"farm-photos-backend/internal/kv"
	"farm-photos-backend/internal/models"
	"farm-photos-backend/internal/photos"
)

// fakeClock lets tests move logical time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	service *photos.Service
	store   *kv.Client
	blobs   *blob.Memory
	clock   *fakeClock
	redis   *miniredis.Miniredis
}

func newFixture(t *testing.T, opts photos.Options) *fixture {
	t.Helper()
	return newFixtureNotify(t, opts, nil)
}

func newFixtureNotify(t *testing.T, opts photos.Options, notifier photos.Notifier) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	clock := newFakeClock()
	opts.Clock = clock.Now

	store := kv.NewClientFromRedis(rdb)
	blobs := blob.NewMemory()

	return &fixture{
		service: photos.NewService(store, blobs, nil, notifier, opts),
		store:   store,
		blobs:   blobs,
		clock:   clock,
		redis:   mr,
	}
}

func defaultOptions() photos.Options {
	return photos.Options{
		Quota:          5,
		LeaseTTL:       10 * time.Minute,
		RecoveryWindow: 30 * 24 * time.Hour,
		MaxUploadSize:  10 << 20,
	}
}

// submit walks the full reserve -> upload -> confirm path and returns the
// resulting pending photo.
func (f *fixture) submit(t *testing.T, farmID string) *models.Photo {
	t.Helper()
	ctx := context.Background()

	lease, err := f.service.Reserve(ctx, photos.ReserveInput{
		FarmID:      farmID,
		FileName:    "barn.jpg",
		ContentType: "image/jpeg",
		Size:        2048,
	})
	require.NoError(t, err)

	f.blobs.Put(lease.ObjectKey, lease.ContentType)

	photo, err := f.service.Confirm(ctx, lease.PhotoID.String())
	require.NoError(t, err)
	return photo
}

func (f *fixture) submitApproved(t *testing.T, farmID string) *models.Photo {
	t.Helper()
	pending := f.submit(t, farmID)
	photo, err := f.service.Approve(context.Background(), pending.ID.String())
	require.NoError(t, err)
	return photo
}

func (f *fixture) approvedMembers(t *testing.T, farmID string) []string {
	t.Helper()
	members, err := f.store.SetMembers(context.Background(), kv.ApprovedKey(farmID))
	require.NoError(t, err)
	return members
}

func (f *fixture) counter(t *testing.T, farmID string) int64 {
	t.Helper()
	n, err := f.store.CounterGet(context.Background(), kv.CountKey(farmID))
	require.NoError(t, err)
	return n
}
