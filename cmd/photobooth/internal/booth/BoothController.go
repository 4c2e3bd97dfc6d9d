package booth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/photostrip/cmd/photobooth/internal/apiresponse"
	"github.com/adampresley/photostrip/pkg/camera"
	"github.com/adampresley/photostrip/pkg/capture"
	"github.com/adampresley/photostrip/pkg/catalog"
	"github.com/adampresley/photostrip/pkg/models"
	"github.com/adampresley/photostrip/pkg/photobooth"
)

/*
Booth is what the controller drives. *photobooth.Booth satisfies it.
*/
type Booth interface {
	Cancel() error
	Catalogs() catalog.Catalogs
	Recompose(ctx context.Context, layoutID, themeID string) (models.CompositeResult, error)
	Result() (models.CompositeResult, error)
	Retake() error
	Save(ctx context.Context, ownerID, title string) (string, error)
	SetFacingMode(mode models.FacingMode) error
	Start(ctx context.Context, layoutID, themeID string) error
	Status() photobooth.Status
}

type BoothHandlers interface {
	Cancel(w http.ResponseWriter, r *http.Request)
	Catalog(w http.ResponseWriter, r *http.Request)
	Recompose(w http.ResponseWriter, r *http.Request)
	Retake(w http.ResponseWriter, r *http.Request)
	Save(w http.ResponseWriter, r *http.Request)
	SetFacingMode(w http.ResponseWriter, r *http.Request)
	Start(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	Strip(w http.ResponseWriter, r *http.Request)
}

type BoothControllerConfig struct {
	Booth          Booth
	DownloadPrefix string
}

type BoothController struct {
	booth          Booth
	downloadPrefix string
}

type CatalogResponse struct {
	DefaultLayout string          `json:"defaultLayout"`
	DefaultTheme  string          `json:"defaultTheme"`
	Layouts       []models.Layout `json:"layouts"`
	Themes        []models.Theme  `json:"themes"`
}

type SaveResponse struct {
	ID string `json:"id"`
}

func NewBoothController(config BoothControllerConfig) BoothController {
	return BoothController{
		booth:          config.Booth,
		downloadPrefix: config.DownloadPrefix,
	}
}

/*
GET /api/catalog
*/
func (c BoothController) Catalog(w http.ResponseWriter, r *http.Request) {
	catalogs := c.booth.Catalogs()

	apiresponse.WriteJSON(w, http.StatusOK, CatalogResponse{
		DefaultLayout: catalogs.Layouts.DefaultID(),
		DefaultTheme:  catalogs.Themes.DefaultID(),
		Layouts:       catalogs.Layouts.List(),
		Themes:        catalogs.Themes.List(),
	})
}

/*
GET /api/session
*/
func (c BoothController) Status(w http.ResponseWriter, r *http.Request) {
	apiresponse.WriteJSON(w, http.StatusOK, c.booth.Status())
}

/*
POST /api/session/start
*/
func (c BoothController) Start(w http.ResponseWriter, r *http.Request) {
	layoutID := httphelpers.GetFromRequest[string](r, "layout")
	themeID := httphelpers.GetFromRequest[string](r, "theme")

	if err := c.booth.Start(r.Context(), layoutID, themeID); err != nil {
		c.writeSessionError(w, err, "error starting capture", "layout", layoutID, "theme", themeID)
		return
	}

	apiresponse.WriteJSON(w, http.StatusAccepted, c.booth.Status())
}

/*
POST /api/session/cancel
*/
func (c BoothController) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := c.booth.Cancel(); err != nil {
		c.writeSessionError(w, err, "error cancelling capture")
		return
	}

	apiresponse.WriteJSON(w, http.StatusOK, c.booth.Status())
}

/*
POST /api/session/retake
*/
func (c BoothController) Retake(w http.ResponseWriter, r *http.Request) {
	if err := c.booth.Retake(); err != nil {
		c.writeSessionError(w, err, "error resetting capture")
		return
	}

	apiresponse.WriteJSON(w, http.StatusOK, c.booth.Status())
}

/*
PUT /api/session/facing
*/
func (c BoothController) SetFacingMode(w http.ResponseWriter, r *http.Request) {
	mode := models.FacingMode(httphelpers.GetFromRequest[string](r, "mode"))

	if err := c.booth.SetFacingMode(mode); err != nil {
		c.writeSessionError(w, err, "error switching camera", "mode", mode)
		return
	}

	apiresponse.WriteJSON(w, http.StatusOK, c.booth.Status())
}

/*
POST /api/session/recompose
*/
func (c BoothController) Recompose(w http.ResponseWriter, r *http.Request) {
	layoutID := httphelpers.GetFromRequest[string](r, "layout")
	themeID := httphelpers.GetFromRequest[string](r, "theme")

	if _, err := c.booth.Recompose(r.Context(), layoutID, themeID); err != nil {
		c.writeSessionError(w, err, "error recomposing strip", "layout", layoutID, "theme", themeID)
		return
	}

	apiresponse.WriteJSON(w, http.StatusOK, c.booth.Status())
}

/*
GET /api/session/strip
*/
func (c BoothController) Strip(w http.ResponseWriter, r *http.Request) {
	result, err := c.booth.Result()

	if err != nil {
		c.writeSessionError(w, err, "error getting strip")
		return
	}

	fileName := photobooth.DownloadName(c.downloadPrefix, result.GeneratedAt, result.ContentType)

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(result.Data)))

	if r.URL.Query().Get("inline") == "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fileName))
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

/*
POST /api/session/save
*/
func (c BoothController) Save(w http.ResponseWriter, r *http.Request) {
	ownerID := httphelpers.GetFromRequest[string](r, "owner")
	title := httphelpers.GetFromRequest[string](r, "title")

	id, err := c.booth.Save(r.Context(), ownerID, title)

	if err != nil {
		c.writeSessionError(w, err, "error saving strip")
		return
	}

	apiresponse.WriteJSON(w, http.StatusCreated, SaveResponse{ID: id})
}

func (c BoothController) writeSessionError(w http.ResponseWriter, err error, logMessage string, args ...any) {
	if captureErr, ok := camera.AsCaptureError(err); ok {
		slog.Error(logMessage, append(args, "error", err)...)
		apiresponse.WriteErrorKind(w, http.StatusServiceUnavailable, captureErr.Kind.String(), captureErr.Kind.Message())
		return
	}

	switch {
	case errors.Is(err, capture.ErrSessionActive):
		apiresponse.WriteError(w, http.StatusConflict, "A capture is already running.")

	case errors.Is(err, capture.ErrSessionIdle):
		apiresponse.WriteError(w, http.StatusConflict, "There is no capture to stop.")

	case errors.Is(err, capture.ErrStartCancelled):
		apiresponse.WriteError(w, http.StatusConflict, "The capture was stopped before the camera was ready.")

	case errors.Is(err, capture.ErrInvalidFacingMode):
		apiresponse.WriteError(w, http.StatusBadRequest, "Facing mode must be 'user' or 'environment'.")

	case errors.Is(err, photobooth.ErrNotReady):
		apiresponse.WriteError(w, http.StatusConflict, "Take a full set of photos for that layout first.")

	case errors.Is(err, photobooth.ErrNoResult):
		apiresponse.WriteError(w, http.StatusNotFound, "No strip has been made yet.")

	case errors.Is(err, photobooth.ErrStorage):
		slog.Error(logMessage, append(args, "error", err)...)
		apiresponse.WriteError(w, http.StatusBadGateway, "The strip could not be saved. Please try again.")

	default:
		slog.Error(logMessage, append(args, "error", err)...)
		apiresponse.WriteError(w, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}
