package viewmodels

import "github.com/adampresley/photostrip/pkg/models"

type GalleryPage struct {
	BaseViewModel

	LayoutFilter string
	Layouts      []models.Layout
	Stats        models.StripStats
	Strips       []Strip
	ThemeFilter  string
	Themes       []models.Theme
}
