package models

import (
	"time"

	"github.com/google/uuid"
)

type Photo struct {
	ID           uuid.UUID `json:"id"`
	SessionID    uuid.UUID `json:"session_id"`
	FileURL      string    `json:"file_url" example:"http://localhost:8080/files/a1b2/1718000000000-0-beach.jpg"`
	FileName     *string   `json:"file_name" example:"beach.jpg"`
	MimeType     *string   `json:"mime_type,omitempty" example:"image/jpeg"`
	ThumbnailURL *string   `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
