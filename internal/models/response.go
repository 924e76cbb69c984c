package models

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type LeaseResponse struct {
	PhotoID   string    `json:"photo_id"`
	ObjectKey string    `json:"object_key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PhotoResponse struct {
	ID               string    `json:"id"`
	FarmID           string    `json:"farm_id"`
	DisplayURL       string    `json:"display_url,omitempty"`
	FileName         string    `json:"file_name"`
	Caption          string    `json:"caption,omitempty"`
	Author           string    `json:"author,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	ApprovedAt       time.Time `json:"approved_at,omitzero"`
	DeletedAt        time.Time `json:"deleted_at,omitzero"`
	RecoverableUntil time.Time `json:"recoverable_until,omitzero"`
}

type PhotoListResponse struct {
	Photos []PhotoResponse `json:"photos"`
}

type ReconcileResponse struct {
	Checked        int `json:"checked"`
	RemovedMissing int `json:"removed_missing"`
	RepairedURLs   int `json:"repaired_urls"`
	Purged         int `json:"purged"`
	Errors         int `json:"errors"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func NewPhotoResponse(p *Photo) PhotoResponse {
	return PhotoResponse{
		ID:               p.ID.String(),
		FarmID:           p.FarmID,
		DisplayURL:       p.DisplayURL,
		FileName:         p.FileName,
		Caption:          p.Caption,
		Author:           p.Author,
		Status:           string(p.Status),
		CreatedAt:        p.CreatedAt,
		ApprovedAt:       p.ApprovedAt,
		DeletedAt:        p.DeletedAt,
		RecoverableUntil: p.RecoverableUntil,
	}
}
