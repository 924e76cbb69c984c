package photos

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"farm-photos-backend/internal/kv"
	"farm-photos-backend/internal/models"
)

// photoFields flattens a record into its hash representation. Every field is
// always written, including cleared ones, so a rewrite fully replaces the
// previous state without a separate delete.
func photoFields(p *models.Photo) map[string]interface{} {
	return map[string]interface{}{
		"id":                p.ID.String(),
		"farm_id":           p.FarmID,
		"object_key":        p.ObjectKey,
		"display_url":       p.DisplayURL,
		"file_name":         p.FileName,
		"content_type":      p.ContentType,
		"size":              strconv.FormatInt(p.Size, 10),
		"caption":           p.Caption,
		"author":            p.Author,
		"status":            string(p.Status),
		"created_at":        formatTime(p.CreatedAt),
		"approved_at":       formatTime(p.ApprovedAt),
		"deleted_at":        formatTime(p.DeletedAt),
		"recoverable_until": formatTime(p.RecoverableUntil),
	}
}

func photoFromFields(fields map[string]string) (*models.Photo, error) {
	id, err := uuid.Parse(fields["id"])
	if err != nil {
		return nil, fmt.Errorf("corrupt photo record: %w", err)
	}
	size, err := strconv.ParseInt(fields["size"], 10, 64)
	if err != nil {
		// Size is informational; a bad field should not make the record
		// unreadable (or unpurgeable).
		log.Printf("corrupt size %q on photo %s, treating as 0", fields["size"], fields["id"])
		size = 0
	}

	return &models.Photo{
		ID:               id,
		FarmID:           fields["farm_id"],
		ObjectKey:        fields["object_key"],
		DisplayURL:       fields["display_url"],
		FileName:         fields["file_name"],
		ContentType:      fields["content_type"],
		Size:             size,
		Caption:          fields["caption"],
		Author:           fields["author"],
		Status:           models.PhotoStatus(fields["status"]),
		CreatedAt:        parseTime(fields["created_at"]),
		ApprovedAt:       parseTime(fields["approved_at"]),
		DeletedAt:        parseTime(fields["deleted_at"]),
		RecoverableUntil: parseTime(fields["recoverable_until"]),
	}, nil
}

func (s *Service) getPhoto(ctx context.Context, id string) (*models.Photo, bool, error) {
	fields, err := s.kv.HashGetAll(ctx, kv.PhotoKey(id))
	if err != nil {
		return nil, false, err
	}
	if len(fields) == 0 {
		return nil, false, nil
	}
	photo, err := photoFromFields(fields)
	if err != nil {
		return nil, false, err
	}
	return photo, true, nil
}

func (s *Service) writePhoto(ctx context.Context, p *models.Photo) error {
	return s.kv.HashSet(ctx, kv.PhotoKey(p.ID.String()), photoFields(p))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
