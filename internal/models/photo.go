package models

import (
	"time"

	"github.com/google/uuid"
)

type PhotoStatus string

const (
	StatusLeased      PhotoStatus = "leased"
	StatusPending     PhotoStatus = "pending"
	StatusApproved    PhotoStatus = "approved"
	StatusRejected    PhotoStatus = "rejected"
	StatusSoftDeleted PhotoStatus = "soft_deleted"
)

type LeaseMode string

const (
	ModeNew     LeaseMode = "new"
	ModeReplace LeaseMode = "replace"
)

// Photo is the metadata record for one submitted photo. It lives in the
// key-value store; the bytes live in blob storage under ObjectKey.
type Photo struct {
	ID          uuid.UUID   `json:"id"`
	FarmID      string      `json:"farm_id"`
	ObjectKey   string      `json:"object_key"`
	DisplayURL  string      `json:"display_url"`
	FileName    string      `json:"file_name"`
	ContentType string      `json:"content_type"`
	Size        int64       `json:"size"`
	Caption     string      `json:"caption,omitempty"`
	Author      string      `json:"author,omitempty"`
	Status      PhotoStatus `json:"status"`

	CreatedAt        time.Time `json:"created_at"`
	ApprovedAt       time.Time `json:"approved_at,omitempty"`
	DeletedAt        time.Time `json:"deleted_at,omitempty"`
	RecoverableUntil time.Time `json:"recoverable_until,omitempty"`
}

// Lease is a short-lived reservation binding an intended upload to one
// storage object key and a single-use upload authorization. It is stored as
// a JSON value with a TTL so content and expiry are written together.
type Lease struct {
	PhotoID     uuid.UUID `json:"photo_id"`
	FarmID      string    `json:"farm_id"`
	ObjectKey   string    `json:"object_key"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Caption     string    `json:"caption,omitempty"`
	Author      string    `json:"author,omitempty"`
	Mode        LeaseMode `json:"mode"`
	Replaces    string    `json:"replaces,omitempty"`
	UploadURL   string    `json:"upload_url"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (l *Lease) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}
