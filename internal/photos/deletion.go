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

// recoveryMarker is the expiring value behind recovery:{id}. Its TTL is the
// grace window, so eligibility expires in the store, not in process memory.
type recoveryMarker struct {
	FarmID     string            `json:"farm_id"`
	PrevStatus models.PhotoStatus `json:"prev_status"`
}

// SoftDelete removes an approved photo from visibility while keeping it
// recoverable for the grace window.
func (s *Service) SoftDelete(ctx context.Context, photoID string) (*models.Photo, error) {
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
	if photo.Status == models.StatusSoftDeleted {
		return photo, nil
	}
	if photo.Status != models.StatusApproved {
		return nil, fmt.Errorf("%w: photo is %s, not approved", ErrInvalid, photo.Status)
	}

	removed, err := s.kv.SetRemove(ctx, kv.ApprovedKey(photo.FarmID), id.String())
	if err != nil {
		return nil, err
	}
	if removed > 0 {
		if err := s.kv.CounterAdd(ctx, kv.CountKey(photo.FarmID), -1); err != nil {
			return nil, err
		}
	}

	now := s.now()
	photo.Status = models.StatusSoftDeleted
	photo.DeletedAt = now
	photo.RecoverableUntil = now.Add(s.opts.RecoveryWindow)
	if err := s.writePhoto(ctx, photo); err != nil {
		return nil, err
	}

	marker := recoveryMarker{FarmID: photo.FarmID, PrevStatus: models.StatusApproved}
	if err := s.kv.SetJSON(ctx, kv.RecoveryKey(id.String()), marker, s.opts.RecoveryWindow); err != nil {
		return nil, err
	}
	if err := s.kv.SetAdd(ctx, kv.DeletedKey, id.String()); err != nil {
		return nil, err
	}

	return photo, nil
}

// Recover reinstates a soft-deleted photo while its recovery marker is still
// alive, subject to the same hard capacity guard as approval.
func (s *Service) Recover(ctx context.Context, photoID string) (*models.Photo, error) {
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
	if photo.Status != models.StatusSoftDeleted {
		return nil, fmt.Errorf("%w: photo is %s, not soft-deleted", ErrInvalid, photo.Status)
	}

	alive, err := s.kv.Exists(ctx, kv.RecoveryKey(id.String()))
	if err != nil {
		return nil, err
	}
	if !alive {
		return nil, fmt.Errorf("%w: photo %s", ErrRecoveryExpired, photoID)
	}

	inserted, err := s.approveGuard(ctx, photo.FarmID, id.String())
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, fmt.Errorf("%w: farm %s", ErrQuotaExceeded, photo.FarmID)
	}

	photo.Status = models.StatusApproved
	photo.DeletedAt = time.Time{}
	photo.RecoverableUntil = time.Time{}
	if err := s.writePhoto(ctx, photo); err != nil {
		return nil, err
	}
	if err := s.kv.CounterAdd(ctx, kv.CountKey(photo.FarmID), 1); err != nil {
		return nil, err
	}
	if err := s.kv.Delete(ctx, kv.RecoveryKey(id.String())); err != nil {
		return nil, err
	}
	if _, err := s.kv.SetRemove(ctx, kv.DeletedKey, id.String()); err != nil {
		return nil, err
	}

	s.publishLive(photo)

	return photo, nil
}

// ListRecoverable returns soft-deleted photos whose grace window has not yet
// passed.
func (s *Service) ListRecoverable(ctx context.Context) ([]*models.Photo, error) {
	ids, err := s.kv.SetMembers(ctx, kv.DeletedKey)
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
			continue
		}
		alive, err := s.kv.Exists(ctx, kv.RecoveryKey(id))
		if err != nil {
			return nil, err
		}
		if !alive {
			continue
		}
		photos = append(photos, photo)
	}
	return photos, nil
}

// Purge permanently removes a soft-deleted photo: metadata, recovery marker,
// and blob. It is sweeper-facing and idempotent; purging an already-gone
// record is a silent success.
func (s *Service) Purge(ctx context.Context, photoID string) error {
	photo, ok, err := s.getPhoto(ctx, photoID)
	if err != nil {
		return err
	}
	if ok {
		// The record must still be soft-deleted at purge time. If it moved on
		// (replaced and resubmitted while the marker ran out), the photo is
		// live again and only the stale deleted-set entry goes.
		if photo.Status != models.StatusSoftDeleted {
			log.Printf("skipping purge of %s: status is %s", photoID, photo.Status)
			_, err := s.kv.SetRemove(ctx, kv.DeletedKey, photoID)
			return err
		}
		if err := s.blobs.Delete(ctx, photo.ObjectKey); err != nil {
			log.Printf("best-effort blob delete failed for %s: %v", photo.ObjectKey, err)
		}
		if err := s.kv.Delete(ctx, kv.PhotoKey(photoID), kv.RecoveryKey(photoID)); err != nil {
			return err
		}
	}
	_, err = s.kv.SetRemove(ctx, kv.DeletedKey, photoID)
	return err
}
