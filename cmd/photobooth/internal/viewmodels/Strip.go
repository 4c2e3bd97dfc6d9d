package viewmodels

import (
	"fmt"
	"time"

	"github.com/adampresley/photostrip/pkg/models"
)

/*
Strip is a saved strip as the gallery shows it.
*/
type Strip struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	OwnerID      string    `json:"ownerId"`
	LayoutID     string    `json:"layoutId"`
	ThemeID      string    `json:"themeId"`
	PhotoCount   int       `json:"photoCount"`
	SizeBytes    int64     `json:"sizeBytes"`
	CreatedAt    time.Time `json:"createdAt"`
	CreatedOn    string    `json:"createdOn"`
	DownloadURL  string    `json:"downloadUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
}

func NewStrip(strip *models.StripRecord) Strip {
	return Strip{
		ID:           strip.ID,
		Title:        strip.Title,
		OwnerID:      strip.OwnerID,
		LayoutID:     strip.LayoutID,
		ThemeID:      strip.ThemeID,
		PhotoCount:   strip.PhotoCount,
		SizeBytes:    strip.SizeBytes,
		CreatedAt:    strip.CreatedAt,
		CreatedOn:    strip.CreatedAt.Local().Format("Jan 2, 2006 3:04 PM"),
		DownloadURL:  fmt.Sprintf("/api/strips/%s/download", strip.ID),
		ThumbnailURL: fmt.Sprintf("/api/strips/%s/thumbnail", strip.ID),
	}
}
