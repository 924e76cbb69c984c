package kv

import "fmt"

// Key layout. Photo metadata and pipeline structures all live under these
// prefixes; the blob store is referenced only through the object key stored
// inside the photo hash.
const (
	PendingKey = "photos:pending"
	DeletedKey = "photos:deleted"

	approvedPattern = "farm:*:photos:approved"
)

func PhotoKey(id string) string {
	return "photo:" + id
}

func LeaseKey(id string) string {
	return "lease:" + id
}

func RecoveryKey(id string) string {
	return "recovery:" + id
}

func ApprovedKey(farmID string) string {
	return fmt.Sprintf("farm:%s:photos:approved", farmID)
}

func CountKey(farmID string) string {
	return fmt.Sprintf("farm:%s:photos:count", farmID)
}

func RateLimitKey(scope, client string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, client)
}
