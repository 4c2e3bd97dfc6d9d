package home

import (
	"log/slog"
	"net/http"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/slices"
	"github.com/adampresley/photostrip/cmd/photobooth/internal/viewmodels"
	"github.com/adampresley/photostrip/pkg/catalog"
	"github.com/adampresley/photostrip/pkg/models"
	"github.com/adampresley/photostrip/pkg/photobooth"
	"github.com/adampresley/photostrip/pkg/services"
)

type HomeHandlers interface {
	BoothPage(w http.ResponseWriter, r *http.Request)
	GalleryPage(w http.ResponseWriter, r *http.Request)
}

type HomeControllerConfig struct {
	Booth          *photobooth.Booth
	Catalogs       catalog.Catalogs
	Renderer       rendering.TemplateRenderer
	StorageService services.StorageServicer
}

type HomeController struct {
	booth          *photobooth.Booth
	catalogs       catalog.Catalogs
	renderer       rendering.TemplateRenderer
	storageService services.StorageServicer
}

func NewHomeController(config HomeControllerConfig) HomeController {
	return HomeController{
		booth:          config.Booth,
		catalogs:       config.Catalogs,
		renderer:       config.Renderer,
		storageService: config.StorageService,
	}
}

/*
GET /
*/
func (c HomeController) BoothPage(w http.ResponseWriter, r *http.Request) {
	pageName := "pages/home"

	viewData := viewmodels.BoothPage{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
			JavascriptIncludes: []rendering.JavascriptInclude{
				{Type: "module", Src: "/static/js/pages/booth.js"},
			},
		},
		DefaultLayout: c.catalogs.Layouts.DefaultID(),
		DefaultTheme:  c.catalogs.Themes.DefaultID(),
		Layouts:       c.catalogs.Layouts.List(),
		Themes:        c.catalogs.Themes.List(),
		Status:        c.booth.Status(),
	}

	if viewData.Status.LastError != "" {
		viewData.IsWarning = true
		viewData.Message = viewData.Status.LastError
	}

	c.renderer.Render(pageName, viewData, w)
}

/*
GET /gallery
*/
func (c HomeController) GalleryPage(w http.ResponseWriter, r *http.Request) {
	var (
		err    error
		strips []*models.StripRecord
	)

	pageName := "pages/gallery"

	filter := models.StripFilter{
		LayoutID: httphelpers.GetFromRequest[string](r, "layout"),
		ThemeID:  httphelpers.GetFromRequest[string](r, "theme"),
	}

	viewData := viewmodels.GalleryPage{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
			JavascriptIncludes: []rendering.JavascriptInclude{
				{Type: "module", Src: "/static/js/pages/gallery.js"},
			},
		},
		LayoutFilter: filter.LayoutID,
		Layouts:      c.catalogs.Layouts.List(),
		Strips:       []viewmodels.Strip{},
		ThemeFilter:  filter.ThemeID,
		Themes:       c.catalogs.Themes.List(),
	}

	if strips, err = c.storageService.List(filter); err != nil {
		slog.Error("error listing strips for gallery", "error", err)
		viewData.IsError = true
		viewData.Message = "There was a problem loading the gallery."

		c.renderer.Render(pageName, viewData, w)
		return
	}

	viewData.Strips = slices.Map(strips, func(input *models.StripRecord, index int) viewmodels.Strip {
		return viewmodels.NewStrip(input)
	})

	if viewData.Stats, err = c.storageService.Stats(); err != nil {
		slog.Error("error getting strip stats for gallery", "error", err)
	}

	if len(viewData.Strips) == 0 {
		viewData.Message = "No photo strips yet. Head to the booth and take some!"
	}

	c.renderer.Render(pageName, viewData, w)
}
