package photos

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"farm-photos-backend/internal/kv"
	"farm-photos-backend/internal/models"
)

// ListPending returns the moderation backlog oldest-first. Queue entries
// whose record has vanished are skipped; the sweeper removes them.
func (s *Service) ListPending(ctx context.Context) ([]*models.Photo, error) {
	ids, err := s.kv.ListRange(ctx, kv.PendingKey)
	if err != nil {
		return nil, err
	}

	photos := make([]*models.Photo, 0, len(ids))
	for _, id := range ids {
		photo, ok, err := s.getPhoto(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Printf("pending queue references missing photo %s, leaving for sweeper", id)
			continue
		}
		photos = append(photos, photo)
	}
	return photos, nil
}

// Approve promotes a pending photo into its farm's approved set. It is
// idempotent against duplicate moderator clicks and re-checks capacity
// atomically at the commit point, regardless of any earlier advisory check.
func (s *Service) Approve(ctx context.Context, photoID string) (*models.Photo, error) {
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
	if photo.Status == models.StatusApproved {
		return photo, nil
	}
	if photo.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: photo is %s, not pending", ErrInvalid, photo.Status)
	}

	if _, err := s.kv.ListRemove(ctx, kv.PendingKey, id.String()); err != nil {
		return nil, err
	}

	inserted, err := s.approveGuard(ctx, photo.FarmID, id.String())
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Keep the photo reviewable: put it back at the queue head so it is
		// seen again once a slot frees up.
		if err := s.kv.ListPrepend(ctx, kv.PendingKey, id.String()); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: farm %s", ErrQuotaExceeded, photo.FarmID)
	}

	photo.Status = models.StatusApproved
	photo.ApprovedAt = s.now()
	if err := s.writePhoto(ctx, photo); err != nil {
		return nil, err
	}
	if err := s.kv.CounterAdd(ctx, kv.CountKey(photo.FarmID), 1); err != nil {
		return nil, err
	}

	s.publishLive(photo)

	return photo, nil
}

// Reject removes a pending photo for good: queue entry, metadata record, and
// (best effort) the blob. A failed blob delete is logged and left to the
// orphan side of reconciliation, which treats it as acceptable waste.
func (s *Service) Reject(ctx context.Context, photoID string) error {
	id, err := uuid.Parse(photoID)
	if err != nil {
		return fmt.Errorf("%w: invalid photo id", ErrInvalid)
	}

	photo, ok, err := s.getPhoto(ctx, id.String())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: photo %s", ErrNotFound, photoID)
	}
	if photo.Status != models.StatusPending {
		return fmt.Errorf("%w: photo is %s, not pending", ErrInvalid, photo.Status)
	}

	if _, err := s.kv.ListRemove(ctx, kv.PendingKey, id.String()); err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, kv.PhotoKey(id.String())); err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, photo.ObjectKey); err != nil {
		log.Printf("best-effort blob delete failed for %s: %v", photo.ObjectKey, err)
	}

	return nil
}

// publishLive dispatches the moderation event after the state transition has
// committed. Failures are isolated from the moderation result.
func (s *Service) publishLive(photo *models.Photo) {
	if s.notifier == nil {
		return
	}
	p := *photo
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.PhotoLive(ctx, &p); err != nil {
			log.Printf("failed to publish moderation event for %s: %v", p.ID, err)
		}
	}()
}
