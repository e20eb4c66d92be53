package dto

import "time"

type Notification struct {
	ID           string      `json:"id"`
	Type         string      `json:"type"`
	ResourcePath string      `json:"resourcePath"`
	ResourceID   string      `json:"resourceId"`
	CreatedAt    time.Time   `json:"createdAt"`
	Notifyee     MiniProfile `json:"notifyee"`
	Notifyer     MiniProfile `json:"notifyer"`
}

type PresignRequest struct {
	FileType string `json:"fileType" binding:"required,filetype"`
	FileSize int64  `json:"fileSize" binding:"required,gt=0"`
}

type PresignedUpload struct {
	URL       string            `json:"url"`
	Key       string            `json:"key"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expiresAt"`
}
