package photos

import (
	"context"
	"log"
	"strings"

	"farm-photos-backend/internal/kv"
	"farm-photos-backend/internal/models"
)

// ReconcileSummary reports what a sweep touched. Repairs are corrective
// actions, not errors; Errors counts probes that could not be completed.
type ReconcileSummary struct {
	Checked        int
	RemovedMissing int
	RepairedURLs   int
	Purged         int
	Errors         int
}

// RunReconciliation cross-checks every reachable record against blob-store
// truth and repairs drift. The pass is pure read-verify-repair on single
// keys: it can be interrupted, re-run from scratch, and overlapped with live
// traffic, because every repair is one a request path could also have made.
func (s *Service) RunReconciliation(ctx context.Context) (*ReconcileSummary, error) {
	summary := &ReconcileSummary{}

	if err := s.sweepPending(ctx, summary); err != nil {
		return summary, err
	}
	if err := s.sweepApproved(ctx, summary); err != nil {
		return summary, err
	}
	if err := s.sweepDeleted(ctx, summary); err != nil {
		return summary, err
	}

	log.Printf("reconciliation: checked=%d removed=%d repaired_urls=%d purged=%d errors=%d",
		summary.Checked, summary.RemovedMissing, summary.RepairedURLs, summary.Purged, summary.Errors)
	return summary, nil
}

func (s *Service) sweepPending(ctx context.Context, summary *ReconcileSummary) error {
	ids, err := s.kv.ListRange(ctx, kv.PendingKey)
	if err != nil {
		return err
	}

	for _, id := range ids {
		summary.Checked++
		photo, ok, err := s.getPhoto(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			// Queue entry with no record behind it.
			if _, err := s.kv.ListRemove(ctx, kv.PendingKey, id); err != nil {
				return err
			}
			summary.RemovedMissing++
			log.Printf("reconciliation: dropped dangling queue entry %s", id)
			continue
		}
		if err := s.verifyPhoto(ctx, photo, summary, func() error {
			_, err := s.kv.ListRemove(ctx, kv.PendingKey, id)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) sweepApproved(ctx context.Context, summary *ReconcileSummary) error {
	setKeys, err := s.kv.ApprovedSetKeys(ctx)
	if err != nil {
		return err
	}

	for _, setKey := range setKeys {
		farmID := farmIDFromApprovedKey(setKey)
		members, err := s.kv.SetMembers(ctx, setKey)
		if err != nil {
			return err
		}

		for _, id := range members {
			summary.Checked++
			photo, ok, err := s.getPhoto(ctx, id)
			if err != nil {
				return err
			}
			if !ok {
				if _, err := s.kv.SetRemove(ctx, setKey, id); err != nil {
					return err
				}
				summary.RemovedMissing++
				log.Printf("reconciliation: dropped dangling approved entry %s (farm %s)", id, farmID)
				continue
			}
			if err := s.verifyPhoto(ctx, photo, summary, func() error {
				_, err := s.kv.SetRemove(ctx, setKey, id)
				return err
			}); err != nil {
				return err
			}
		}

		// Rewrite the advisory counter from the authoritative set size; this
		// bounds drift to at most one sweep interval.
		size, err := s.kv.SetCard(ctx, setKey)
		if err != nil {
			return err
		}
		if err := s.kv.CounterSet(ctx, kv.CountKey(farmID), size); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) sweepDeleted(ctx context.Context, summary *ReconcileSummary) error {
	ids, err := s.kv.SetMembers(ctx, kv.DeletedKey)
	if err != nil {
		return err
	}

	for _, id := range ids {
		alive, err := s.kv.Exists(ctx, kv.RecoveryKey(id))
		if err != nil {
			return err
		}
		if alive {
			continue
		}
		if err := s.Purge(ctx, id); err != nil {
			return err
		}
		summary.Purged++
		log.Printf("reconciliation: purged expired recoverable %s", id)
	}
	return nil
}

// verifyPhoto checks one record against the blob store. A missing blob means
// the record points at nothing and is removed (via dropRef plus record
// delete); a display URL without the expected extension suffix is rewritten
// in place. Probe failures are counted, never acted on.
func (s *Service) verifyPhoto(ctx context.Context, photo *models.Photo, summary *ReconcileSummary, dropRef func() error) error {
	exists, err := s.blobs.Exists(ctx, photo.ObjectKey)
	if err != nil {
		summary.Errors++
		log.Printf("reconciliation: blob probe failed for %s: %v", photo.ObjectKey, err)
		return nil
	}

	id := photo.ID.String()
	if !exists {
		if err := dropRef(); err != nil {
			return err
		}
		if err := s.kv.Delete(ctx, kv.PhotoKey(id)); err != nil {
			return err
		}
		summary.RemovedMissing++
		log.Printf("reconciliation: removed %s, blob %s is gone", id, photo.ObjectKey)
		return nil
	}

	want := s.blobs.PublicURL(photo.ObjectKey)
	ext := allowedContentTypes[photo.ContentType]
	if photo.DisplayURL != want && (ext == "" || !strings.HasSuffix(photo.DisplayURL, ext)) {
		if err := s.kv.HashSet(ctx, kv.PhotoKey(id), map[string]interface{}{
			"display_url": want,
		}); err != nil {
			return err
		}
		summary.RepairedURLs++
		log.Printf("reconciliation: repaired display URL for %s", id)
	}
	return nil
}

func farmIDFromApprovedKey(key string) string {
	return strings.TrimSuffix(strings.TrimPrefix(key, "farm:"), ":photos:approved")
}
