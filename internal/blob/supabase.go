package blob

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	storage "github.com/supabase-community/storage-go"
)

const callTimeout = 10 * time.Second

// SupabaseStore keeps photo blobs in a Supabase Storage bucket.
type SupabaseStore struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewSupabaseStore(supabaseURL, serviceKey, bucket string) (*SupabaseStore, error) {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceKey, nil)

	return &SupabaseStore{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

func (s *SupabaseStore) CreateSignedUploadURL(ctx context.Context, objectKey, contentType string, maxSize int64) (string, error) {
	// The storage API scopes the signature to the object key; content type
	// and size are re-validated at confirm time.
	var signedURL string
	err := s.withTimeout(ctx, func() error {
		resp, err := s.client.CreateSignedUploadUrl(s.bucket, objectKey)
		if err != nil {
			return err
		}
		signedURL = resp.Url
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to create upload authorization for %s: %w", objectKey, err)
	}

	if !strings.HasPrefix(signedURL, "http") {
		signedURL = s.baseURL + "/storage/v1" + signedURL
	}
	return signedURL, nil
}

func (s *SupabaseStore) Exists(ctx context.Context, objectKey string) (bool, error) {
	dir := path.Dir(objectKey)
	base := path.Base(objectKey)

	var found bool
	err := s.withTimeout(ctx, func() error {
		files, err := s.client.ListFiles(s.bucket, dir, storage.FileSearchOptions{
			Limit: 1000,
		})
		if err != nil {
			return err
		}
		for _, f := range files {
			if f.Name == base || f.Name == objectKey {
				found = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to probe %s: %w", objectKey, err)
	}
	return found, nil
}

func (s *SupabaseStore) Delete(ctx context.Context, objectKey string) error {
	err := s.withTimeout(ctx, func() error {
		_, err := s.client.RemoveFile(s.bucket, []string{objectKey})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", objectKey, err)
	}
	return nil
}

func (s *SupabaseStore) PublicURL(objectKey string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectKey)
}

// withTimeout bounds a storage-go call, which does not take a context
// itself. The call keeps running in the background on timeout; its result is
// discarded.
func (s *SupabaseStore) withTimeout(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
