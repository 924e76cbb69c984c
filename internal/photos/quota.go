package photos

import (
	"context"

	"farm-photos-backend/internal/kv"
)

// quotaAvailable is the fast advisory admission check against the counter
// mirror. The mirror may drift under concurrent moderation; the authoritative
// ceiling is approveGuard at commit time.
func (s *Service) quotaAvailable(ctx context.Context, farmID string) (bool, error) {
	n, err := s.kv.CounterGet(ctx, kv.CountKey(farmID))
	if err != nil {
		return false, err
	}
	return n < int64(s.opts.Quota), nil
}

// approveGuard is the hard capacity check: cardinality re-check and insertion
// happen atomically, so two approvals racing for the last slot can never both
// succeed. Re-inserting an existing member reports success (idempotent).
func (s *Service) approveGuard(ctx context.Context, farmID, photoID string) (bool, error) {
	return s.kv.GuardedSetAdd(ctx, kv.ApprovedKey(farmID), photoID, s.opts.Quota)
}
