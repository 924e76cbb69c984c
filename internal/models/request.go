package models

type ReserveRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size" binding:"required"`
	Mode        string `json:"mode,omitempty"`
	ReplaceID   string `json:"replace_id,omitempty"`
	Caption     string `json:"caption,omitempty"`
	Author      string `json:"author,omitempty"`
}
