package models

import (
	"fmt"
	"time"
)

var (
	ErrStripNotFound = fmt.Errorf("strip not found")
)

type StripRecord struct {
	BaseModel

	OwnerID      string     `json:"ownerId" db:"owner_id"`
	Title        string     `json:"title" db:"title"`
	LayoutID     string     `json:"layoutId" db:"layout_id"`
	ThemeID      string     `json:"themeId" db:"theme_id"`
	PhotoCount   int        `json:"photoCount" db:"photo_count"`
	CompositeKey string     `json:"compositeKey" db:"composite_key"`
	ContentType  string     `json:"contentType" db:"content_type"`
	SizeBytes    int64      `json:"sizeBytes" db:"size_bytes"`
	ThumbnailKey string     `json:"thumbnailKey" db:"thumbnail_key"`
	Frames       []FrameRef `json:"frames" db:"-"`
}

type FrameRef struct {
	StripID    string     `json:"-" db:"strip_id"`
	Position   int        `json:"position" db:"position"`
	BlobKey    string     `json:"blobKey" db:"blob_key"`
	CapturedAt time.Time  `json:"capturedAt" db:"captured_at"`
	Width      int        `json:"width" db:"width"`
	Height     int        `json:"height" db:"height"`
	FacingMode FacingMode `json:"facingMode" db:"facing_mode"`
}

type StripFilter struct {
	LayoutID string
	ThemeID  string
	OwnerID  string
}

type StripStats struct {
	TotalStrips  int   `json:"totalStrips" db:"total_strips"`
	TotalPhotos  int   `json:"totalPhotos" db:"total_photos"`
	StorageBytes int64 `json:"storageBytes" db:"storage_bytes"`
}
