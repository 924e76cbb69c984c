package photos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"farm-photos-backend/internal/kv"
	"farm-photos-backend/internal/models"
)

type ReserveInput struct {
	FarmID      string
	FileName    string
	ContentType string
	Size        int64
	Mode        models.LeaseMode
	ReplaceID   string
	Caption     string
	Author      string
}

// Reserve issues an upload lease: it validates the request, runs the
// advisory quota check, derives the object key, obtains a single-use upload
// authorization, and persists the lease with its TTL. If the authorization
// call fails no lease is written; if the lease write fails the unused
// authorization simply expires.
func (s *Service) Reserve(ctx context.Context, in ReserveInput) (*models.Lease, error) {
	if in.Mode == "" {
		in.Mode = models.ModeNew
	}
	if in.Mode != models.ModeNew && in.Mode != models.ModeReplace {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalid, in.Mode)
	}
	if in.FileName == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrInvalid)
	}
	if _, ok := allowedContentTypes[in.ContentType]; !ok {
		return nil, fmt.Errorf("%w: content type %q is not accepted", ErrInvalid, in.ContentType)
	}
	if in.Size <= 0 || in.Size > s.opts.MaxUploadSize {
		return nil, fmt.Errorf("%w: size must be between 1 and %d bytes", ErrInvalid, s.opts.MaxUploadSize)
	}

	if s.farms != nil {
		exists, err := s.farms.FarmExists(ctx, in.FarmID)
		if err != nil {
			return nil, fmt.Errorf("failed to validate farm: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: unknown farm %q", ErrInvalid, in.FarmID)
		}
	}

	var photoID uuid.UUID
	if in.Mode == models.ModeReplace {
		// A replace reuses the replaced photo's id so it lands in the same
		// logical slot; the ceiling does not apply because the set does not
		// grow.
		replaced, err := uuid.Parse(in.ReplaceID)
		if err != nil {
			return nil, fmt.Errorf("%w: replace_id must be a photo id", ErrInvalid)
		}
		current, ok, err := s.getPhoto(ctx, replaced.String())
		if err != nil {
			return nil, err
		}
		if !ok || current.FarmID != in.FarmID {
			return nil, fmt.Errorf("%w: photo %s", ErrNotFound, in.ReplaceID)
		}
		if current.Status != models.StatusApproved {
			return nil, fmt.Errorf("%w: only approved photos can be replaced", ErrInvalid)
		}
		photoID = replaced
	} else {
		available, err := s.quotaAvailable(ctx, in.FarmID)
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, fmt.Errorf("%w: farm %s", ErrQuotaExceeded, in.FarmID)
		}
		photoID = uuid.New()
	}

	objectKey := objectKeyFor(in.FarmID, photoID, in.ContentType)

	var uploadURL string
	err := retryOnce(func() error {
		var err error
		uploadURL, err = s.blobs.CreateSignedUploadURL(ctx, objectKey, in.ContentType, in.Size)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to obtain upload authorization: %w", err)
	}

	now := s.now()
	lease := &models.Lease{
		PhotoID:     photoID,
		FarmID:      in.FarmID,
		ObjectKey:   objectKey,
		FileName:    in.FileName,
		ContentType: in.ContentType,
		Size:        in.Size,
		Caption:     in.Caption,
		Author:      in.Author,
		Mode:        in.Mode,
		Replaces:    in.ReplaceID,
		UploadURL:   uploadURL,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.opts.LeaseTTL),
	}

	if err := s.kv.SetJSON(ctx, kv.LeaseKey(photoID.String()), lease, s.opts.LeaseTTL); err != nil {
		// The granted authorization goes unused and expires on its own.
		return nil, err
	}

	return lease, nil
}

// Confirm converts a live lease into a pending moderation record. The queue
// append is deliberately last: it is the durable commit signal, and a crash
// before it leaves only an invisible, harmless remnant the sweeper clears.
func (s *Service) Confirm(ctx context.Context, photoID string) (*models.Photo, error) {
	id, err := uuid.Parse(photoID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid photo id", ErrInvalid)
	}

	var lease models.Lease
	ok, err := s.kv.GetJSON(ctx, kv.LeaseKey(id.String()), &lease)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no lease for photo %s", ErrNotFound, photoID)
	}
	// The TTL already drops expired leases; the absolute expiry is still
	// re-checked here rather than trusting client timing.
	if lease.Expired(s.now()) {
		return nil, fmt.Errorf("%w: photo %s", ErrLeaseExpired, photoID)
	}

	if err := s.kv.Delete(ctx, kv.LeaseKey(id.String())); err != nil {
		return nil, err
	}

	if lease.Mode == models.ModeReplace {
		// The replaced slot goes back through moderation: pull the id out of
		// the approved set so it is never in both structures at once. The
		// counter only moves when the removal actually removed a member.
		removed, err := s.kv.SetRemove(ctx, kv.ApprovedKey(lease.FarmID), id.String())
		if err != nil {
			return nil, err
		}
		if removed > 0 {
			if err := s.kv.CounterAdd(ctx, kv.CountKey(lease.FarmID), -1); err != nil {
				return nil, err
			}
		}

		// A soft delete that landed while the lease was outstanding must not
		// outlive it: clear the recovery state, or the sweeper would purge
		// the live replacement once the marker expires.
		if err := s.kv.Delete(ctx, kv.RecoveryKey(id.String())); err != nil {
			return nil, err
		}
		if _, err := s.kv.SetRemove(ctx, kv.DeletedKey, id.String()); err != nil {
			return nil, err
		}
	}

	photo := &models.Photo{
		ID:          id,
		FarmID:      lease.FarmID,
		ObjectKey:   lease.ObjectKey,
		DisplayURL:  s.blobs.PublicURL(lease.ObjectKey),
		FileName:    lease.FileName,
		ContentType: lease.ContentType,
		Size:        lease.Size,
		Caption:     lease.Caption,
		Author:      lease.Author,
		Status:      models.StatusPending,
		CreatedAt:   s.now(),
	}
	if err := s.writePhoto(ctx, photo); err != nil {
		return nil, err
	}

	// Remove-then-append keeps the id unique in the queue even on odd
	// replays; append is the commit.
	if _, err := s.kv.ListRemove(ctx, kv.PendingKey, id.String()); err != nil {
		return nil, err
	}
	if err := s.kv.ListAppend(ctx, kv.PendingKey, id.String()); err != nil {
		return nil, err
	}

	return photo, nil
}

func retryOnce(fn func() error) error {
	if err := fn(); err != nil {
		time.Sleep(200 * time.Millisecond)
		return fn()
	}
	return nil
}
