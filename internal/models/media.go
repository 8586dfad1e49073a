package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// MediaKind is image or video.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

func (k MediaKind) Valid() bool {
	return k == MediaImage || k == MediaVideo
}

// Media is an uploaded image or video attached to a post. The URL is opaque
// and comes from the media store.
type Media struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	URL        string    `gorm:"size:500;not null" json:"url"`
	Kind       MediaKind `gorm:"size:16;not null" json:"kind"`
	UploadedAt time.Time `gorm:"not null" json:"uploaded_at"`
	PostID     string    `gorm:"type:varchar(36);not null;index:idx_media_post" json:"post_id"`
}

// TableName keeps the table singular; "medias" reads badly.
func (Media) TableName() string {
	return "media"
}

func (m *Media) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	if m.Kind == "" {
		m.Kind = MediaImage
	}
	return nil
}

// ThumbnailURL returns a still image for the media. Videos are served with
// a .jpg rendition next to the original file.
func (m *Media) ThumbnailURL() string {
	if m.Kind != MediaVideo {
		return m.URL
	}
	for _, ext := range []string{".mp4", ".mov"} {
		if strings.HasSuffix(strings.ToLower(m.URL), ext) {
			return m.URL[:len(m.URL)-len(ext)] + ".jpg"
		}
	}
	return m.URL
}
