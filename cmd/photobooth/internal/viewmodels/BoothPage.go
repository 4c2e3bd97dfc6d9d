package viewmodels

import (
	"github.com/adampresley/photostrip/pkg/models"
	"github.com/adampresley/photostrip/pkg/photobooth"
)

type BoothPage struct {
	BaseViewModel

	DefaultLayout string
	DefaultTheme  string
	Layouts       []models.Layout
	Themes        []models.Theme
	Status        photobooth.Status
}
