package blob

import "context"

// Store is the blob collaborator. The pipeline owns only metadata; bytes are
// referenced through object keys and touched exclusively via these calls.
type Store interface {
	// CreateSignedUploadURL returns a single-use upload authorization scoped
	// to the object key. An authorization that is never used simply expires.
	CreateSignedUploadURL(ctx context.Context, objectKey, contentType string, maxSize int64) (string, error)

	// Exists probes whether the object is actually stored.
	Exists(ctx context.Context, objectKey string) (bool, error)

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, objectKey string) error

	// PublicURL returns the canonical display URL for an object key.
	PublicURL(objectKey string) string
}
