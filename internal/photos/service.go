package photos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"farm-photos-backend/internal/blob"
	"farm-photos-backend/internal/kv"
	"farm-photos-backend/internal/models"
)

// allowedContentTypes maps accepted upload types to the object-key
// extension. The extension is also what the display URL must end with.
var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// FarmChecker validates farm ids against the directory. A nil checker makes
// validation permissive (degraded mode when the directory is unreachable at
// startup).
type FarmChecker interface {
	FarmExists(ctx context.Context, farmID string) (bool, error)
}

// Notifier receives fire-and-forget moderation events. Publish failures
// never affect the moderation decision itself.
type Notifier interface {
	PhotoLive(ctx context.Context, photo *models.Photo) error
}

type Options struct {
	Quota          int
	LeaseTTL       time.Duration
	RecoveryWindow time.Duration
	MaxUploadSize  int64

	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

func (o *Options) withDefaults() {
	if o.Quota <= 0 {
		o.Quota = 5
	}
	if o.LeaseTTL <= 0 {
		o.LeaseTTL = 10 * time.Minute
	}
	if o.RecoveryWindow <= 0 {
		o.RecoveryWindow = 30 * 24 * time.Hour
	}
	if o.MaxUploadSize <= 0 {
		o.MaxUploadSize = 10 << 20
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}

// Service implements the photo submission, moderation, and lifecycle
// pipeline on top of the key-value store and the blob collaborator.
type Service struct {
	kv       *kv.Client
	blobs    blob.Store
	farms    FarmChecker
	notifier Notifier
	opts     Options
}

func NewService(client *kv.Client, blobs blob.Store, farms FarmChecker, notifier Notifier, opts Options) *Service {
	opts.withDefaults()
	return &Service{
		kv:       client,
		blobs:    blobs,
		farms:    farms,
		notifier: notifier,
		opts:     opts,
	}
}

func (s *Service) now() time.Time {
	return s.opts.Clock()
}

// objectKeyFor derives the storage key deterministically from the farm, the
// photo id, and the content type, so cleanup can reconstruct it without
// storing it anywhere else.
func objectKeyFor(farmID string, photoID uuid.UUID, contentType string) string {
	return fmt.Sprintf("farms/%s/photos/%s%s", farmID, photoID, allowedContentTypes[contentType])
}

// GetPhoto returns the metadata record for any live status.
func (s *Service) GetPhoto(ctx context.Context, photoID string) (*models.Photo, error) {
	id, err := uuid.Parse(photoID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid photo id", ErrInvalid)
	}
	photo, ok, err := s.getPhoto(ctx, id.String())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: photo %s", ErrNotFound, photoID)
	}
	return photo, nil
}
