package gallery

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/slices"
	"github.com/adampresley/photostrip/cmd/photobooth/internal/apiresponse"
	"github.com/adampresley/photostrip/cmd/photobooth/internal/viewmodels"
	"github.com/adampresley/photostrip/pkg/models"
	"github.com/adampresley/photostrip/pkg/photobooth"
	"github.com/adampresley/photostrip/pkg/services"
)

type GalleryHandlers interface {
	Delete(w http.ResponseWriter, r *http.Request)
	Download(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Stats(w http.ResponseWriter, r *http.Request)
	Thumbnail(w http.ResponseWriter, r *http.Request)
	UpdateTitle(w http.ResponseWriter, r *http.Request)
}

type GalleryControllerConfig struct {
	DownloadPrefix string
	Now            func() time.Time
	StorageService services.StorageServicer
}

type GalleryController struct {
	downloadPrefix string
	now            func() time.Time
	storageService services.StorageServicer
}

type ListResponse struct {
	Strips []viewmodels.Strip `json:"strips"`
}

func NewGalleryController(config GalleryControllerConfig) GalleryController {
	if config.Now == nil {
		config.Now = time.Now
	}

	if config.DownloadPrefix == "" {
		config.DownloadPrefix = photobooth.DefaultDownloadPrefix
	}

	return GalleryController{
		downloadPrefix: config.DownloadPrefix,
		now:            config.Now,
		storageService: config.StorageService,
	}
}

/*
GET /api/strips
*/
func (c GalleryController) List(w http.ResponseWriter, r *http.Request) {
	filter := filterFromRequest(r)
	strips, err := c.storageService.List(filter)

	if err != nil {
		slog.Error("error listing strips", "error", err, "layout", filter.LayoutID, "theme", filter.ThemeID)
		apiresponse.WriteError(w, http.StatusInternalServerError, "Unable to load the gallery.")
		return
	}

	apiresponse.WriteJSON(w, http.StatusOK, ListResponse{
		Strips: slices.Map(strips, func(input *models.StripRecord, index int) viewmodels.Strip {
			return viewmodels.NewStrip(input)
		}),
	})
}

/*
GET /api/strips/stats
*/
func (c GalleryController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.storageService.Stats()

	if err != nil {
		slog.Error("error getting strip stats", "error", err)
		apiresponse.WriteError(w, http.StatusInternalServerError, "Unable to load gallery statistics.")
		return
	}

	apiresponse.WriteJSON(w, http.StatusOK, stats)
}

/*
GET /api/strips/{id}/download
*/
func (c GalleryController) Download(w http.ResponseWriter, r *http.Request) {
	id := httphelpers.GetFromRequest[string](r, "id")

	data, contentType, err := c.storageService.Composite(r.Context(), id)

	if err != nil {
		c.writeStripError(w, err, "error downloading strip", id)
		return
	}

	fileName := fmt.Sprintf("%s-%s.%s", c.downloadPrefix, id, photobooth.Extension(contentType))

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fileName))
	writeImage(w, contentType, data)
}

/*
GET /api/strips/{id}/thumbnail

Falls back to the full strip while the thumbnail is being made.
*/
func (c GalleryController) Thumbnail(w http.ResponseWriter, r *http.Request) {
	id := httphelpers.GetFromRequest[string](r, "id")

	data, contentType, err := c.storageService.Thumbnail(r.Context(), id)

	if errors.Is(err, services.ErrThumbnailMissing) {
		data, contentType, err = c.storageService.Composite(r.Context(), id)
	}

	if err != nil {
		c.writeStripError(w, err, "error getting strip thumbnail", id)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	writeImage(w, contentType, data)
}

/*
PUT /api/strips/{id}/title
*/
func (c GalleryController) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	id := httphelpers.GetFromRequest[string](r, "id")
	title := httphelpers.GetFromRequest[string](r, "title")

	if err := c.storageService.UpdateTitle(id, title); err != nil {
		c.writeStripError(w, err, "error updating strip title", id)
		return
	}

	strip, err := c.storageService.Get(id)

	if err != nil {
		c.writeStripError(w, err, "error getting strip", id)
		return
	}

	apiresponse.WriteJSON(w, http.StatusOK, viewmodels.NewStrip(strip))
}

/*
DELETE /api/strips/{id}
*/
func (c GalleryController) Delete(w http.ResponseWriter, r *http.Request) {
	id := httphelpers.GetFromRequest[string](r, "id")

	if err := c.storageService.Delete(id); err != nil {
		c.writeStripError(w, err, "error deleting strip", id)
		return
	}

	slog.Info("strip deleted", "stripID", id)
	w.WriteHeader(http.StatusNoContent)
}

/*
GET /api/strips/export
*/
func (c GalleryController) Export(w http.ResponseWriter, r *http.Request) {
	filter := filterFromRequest(r)
	fileName := fmt.Sprintf("%s-export-%d.zip", c.downloadPrefix, c.now().UnixMilli())

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fileName))

	if err := c.storageService.Export(r.Context(), filter, w); err != nil {
		slog.Error("error exporting strips", "error", err)
		return
	}

	slog.Info("strip export completed", "fileName", fileName)
}

func (c GalleryController) writeStripError(w http.ResponseWriter, err error, logMessage, id string) {
	if errors.Is(err, services.ErrStripNotFound) {
		apiresponse.WriteError(w, http.StatusNotFound, "Strip not found.")
		return
	}

	slog.Error(logMessage, "error", err, "stripID", id)
	apiresponse.WriteError(w, http.StatusInternalServerError, "An unexpected error occurred.")
}

func filterFromRequest(r *http.Request) models.StripFilter {
	return models.StripFilter{
		LayoutID: httphelpers.GetFromRequest[string](r, "layout"),
		ThemeID:  httphelpers.GetFromRequest[string](r, "theme"),
		OwnerID:  httphelpers.GetFromRequest[string](r, "owner"),
	}
}

func writeImage(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
