package photobooth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/adampresley/photostrip/pkg/capture"
	"github.com/adampresley/photostrip/pkg/catalog"
	"github.com/adampresley/photostrip/pkg/compositor"
	"github.com/adampresley/photostrip/pkg/models"
	"github.com/adampresley/photostrip/pkg/services"
)

var (
	ErrNotReady = fmt.Errorf("captured frames do not fill the layout")
	ErrNoResult = fmt.Errorf("no strip has been composed")
	ErrStorage  = fmt.Errorf("unable to save strip")
)

const DefaultDownloadPrefix = "photobooth-strip"

/*
StripSaver is the part of the storage service the booth needs.
*/
type StripSaver interface {
	Save(ctx context.Context, req services.SaveRequest) (string, error)
}

type BoothConfig struct {
	Catalogs catalog.Catalogs
	Composer compositor.Composer
	Logger   *slog.Logger
	Now      func() time.Time
	OnEvent  capture.Listener
	OnSaved  func(id string)
	Random   *rand.Rand
	Session  capture.SessionConfig
	Storage  StripSaver
}

/*
Booth is one photo booth station. It owns a capture session, composes
the strip when a sequence completes and hands finished strips to
storage.
*/
type Booth struct {
	config  BoothConfig
	logger  *slog.Logger
	session *capture.Session

	mu         sync.Mutex
	rng        *rand.Rand
	frames     []models.Frame
	generation uint64
	result     *models.CompositeResult
	layoutID   string
	themeID    string
	composing  bool
	message    string
	lastErr    error
	savedID    string
}

/*
Status is what a booth screen polls to draw itself.
*/
type Status struct {
	capture.Snapshot

	Composing        bool   `json:"composing"`
	CountdownMessage string `json:"countdownMessage,omitempty"`
	HasResult        bool   `json:"hasResult"`
	LastError        string `json:"lastError,omitempty"`
	Message          string `json:"message"`
	ResultLayoutID   string `json:"resultLayoutId,omitempty"`
	ResultThemeID    string `json:"resultThemeId,omitempty"`
	SavedID          string `json:"savedId,omitempty"`
}

func NewBooth(config BoothConfig) *Booth {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	if config.Now == nil {
		config.Now = time.Now
	}

	if config.Random == nil {
		config.Random = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}

	if config.Catalogs.Layouts == nil || config.Catalogs.Themes == nil {
		config.Catalogs = catalog.Builtin()
	}

	if config.Composer == nil {
		config.Composer = compositor.NewStripCompositor(compositor.CompositorConfig{Logger: config.Logger})
	}

	b := &Booth{
		config:  config,
		logger:  config.Logger.With("component", "booth"),
		rng:     config.Random,
		message: catalog.MessageAt(catalog.MessageInstructions, 0),
	}

	sessionConfig := config.Session
	sessionConfig.Logger = config.Logger
	sessionConfig.OnEvent = b.handleEvent

	b.session = capture.NewSession(sessionConfig)
	return b
}

/*
Start resolves the layout and theme ids (unknown ids fall back to the
defaults), forgets any previous strip and starts a capture sequence.
*/
func (b *Booth) Start(ctx context.Context, layoutID, themeID string) error {
	layout := b.config.Catalogs.Layouts.Resolve(layoutID)
	theme := b.config.Catalogs.Themes.Resolve(themeID)

	if b.session.Snapshot().State.IsActive() {
		return capture.ErrSessionActive
	}

	b.mu.Lock()
	b.clearLocked()
	b.lastErr = nil
	b.message = catalog.Message(catalog.MessageInstructions, b.rng)
	b.mu.Unlock()

	if err := b.session.Start(ctx, layout, theme.ID); err != nil {
		if !errors.Is(err, capture.ErrStartCancelled) {
			b.mu.Lock()
			b.lastErr = err
			b.mu.Unlock()
		}

		return err
	}

	b.logger.Info("capture started", "layout", layout.ID, "theme", theme.ID)
	return nil
}

func (b *Booth) handleEvent(event capture.Event) {
	switch event.Type {
	case capture.EventComplete:
		b.mu.Lock()
		b.clearLocked()
		b.frames = event.Frames
		b.generation = event.Generation
		b.composing = true
		b.mu.Unlock()

		b.compose(context.Background(), event.Frames, event.Generation, event.LayoutID, event.ThemeID, true)

	case capture.EventCancelled, capture.EventRetake:
		b.mu.Lock()
		b.clearLocked()
		b.mu.Unlock()

	case capture.EventError:
		b.mu.Lock()
		b.clearLocked()
		b.lastErr = event.Err
		b.mu.Unlock()
	}

	if b.config.OnEvent != nil {
		b.config.OnEvent(event)
	}
}

/*
compose renders frames and keeps the result unless the frames it was
given have been replaced in the meantime.
*/
func (b *Booth) compose(ctx context.Context, frames []models.Frame, generation uint64, layoutID, themeID string, completion bool) (models.CompositeResult, error) {
	layout := b.config.Catalogs.Layouts.Resolve(layoutID)
	theme := b.config.Catalogs.Themes.Resolve(themeID)

	result, err := b.config.Composer.Compose(ctx, frames, layout, theme, b.config.Now())

	b.mu.Lock()
	defer b.mu.Unlock()

	b.composing = false

	if generation != b.generation || generation != b.session.Snapshot().Generation {
		b.logger.Info("discarding strip for a sequence that is no longer current", "generation", generation)
		return models.CompositeResult{}, ErrNotReady
	}

	if err != nil {
		b.lastErr = err
		b.result = nil
		b.logger.Error("error composing strip", "layout", layout.ID, "theme", theme.ID, "error", err)
		return models.CompositeResult{}, err
	}

	b.result = &result
	b.layoutID = layout.ID
	b.themeID = theme.ID
	b.savedID = ""
	b.lastErr = nil

	if completion {
		b.message = catalog.Message(catalog.MessageCompletion, b.rng)
	}

	b.logger.Info("strip composed", "layout", layout.ID, "theme", theme.ID, "bytes", len(result.Data))
	return result, nil
}

/*
Recompose renders the frames of the last completed sequence again with a
different layout or theme. The layout must hold exactly as many photos as
were taken.
*/
func (b *Booth) Recompose(ctx context.Context, layoutID, themeID string) (models.CompositeResult, error) {
	layout := b.config.Catalogs.Layouts.Resolve(layoutID)

	b.mu.Lock()
	frames := make([]models.Frame, len(b.frames))
	copy(frames, b.frames)
	generation := b.generation
	busy := b.composing
	b.mu.Unlock()

	if busy || len(frames) == 0 || len(frames) != layout.PhotoCount {
		return models.CompositeResult{}, ErrNotReady
	}

	return b.compose(ctx, frames, generation, layout.ID, themeID, false)
}

func (b *Booth) Cancel() error {
	return b.session.Cancel()
}

func (b *Booth) Retake() error {
	return b.session.Retake()
}

func (b *Booth) SetFacingMode(mode models.FacingMode) error {
	return b.session.SetFacingMode(mode)
}

/*
Result returns the most recent strip.
*/
func (b *Booth) Result() (models.CompositeResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.result == nil {
		return models.CompositeResult{}, ErrNoResult
	}

	return *b.result, nil
}

/*
Save hands the current strip and its frames to storage. On failure the
strip is kept so saving can be retried.
*/
func (b *Booth) Save(ctx context.Context, ownerID, title string) (string, error) {
	b.mu.Lock()

	if b.result == nil {
		b.mu.Unlock()
		return "", ErrNoResult
	}

	req := services.SaveRequest{
		Composite: *b.result,
		Frames:    append([]models.Frame{}, b.frames...),
		LayoutID:  b.layoutID,
		OwnerID:   ownerID,
		ThemeID:   b.themeID,
		Title:     title,
	}

	b.mu.Unlock()

	if b.config.Storage == nil {
		return "", fmt.Errorf("%w: no storage configured", ErrStorage)
	}

	id, err := b.config.Storage.Save(ctx, req)
	if err != nil {
		b.logger.Error("error saving strip", "layout", req.LayoutID, "error", err)
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}

	b.mu.Lock()
	if b.result != nil && b.result.GeneratedAt.Equal(req.Composite.GeneratedAt) {
		b.savedID = id
	}
	b.mu.Unlock()

	if b.config.OnSaved != nil {
		b.config.OnSaved(id)
	}

	return id, nil
}

func (b *Booth) Status() Status {
	snapshot := b.session.Snapshot()

	b.mu.Lock()
	defer b.mu.Unlock()

	result := Status{
		Snapshot:  snapshot,
		Composing: b.composing,
		HasResult: b.result != nil,
		Message:   b.message,
		SavedID:   b.savedID,
	}

	if snapshot.Countdown != nil {
		result.CountdownMessage = catalog.CountdownMessage(*snapshot.Countdown)
	}

	if b.result != nil {
		result.ResultLayoutID = b.layoutID
		result.ResultThemeID = b.themeID
	}

	if b.lastErr != nil {
		result.LastError = b.lastErr.Error()
	}

	return result
}

/*
Message picks a random message of the given kind.
*/
func (b *Booth) Message(kind catalog.MessageKind) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return catalog.Message(kind, b.rng)
}

func (b *Booth) Catalogs() catalog.Catalogs {
	return b.config.Catalogs
}

/*
Wait blocks until the running sequence, including composing its strip,
has finished.
*/
func (b *Booth) Wait(ctx context.Context) error {
	return b.session.Wait(ctx)
}

func (b *Booth) Close() error {
	return b.session.Close()
}

func (b *Booth) clearLocked() {
	b.frames = nil
	b.result = nil
	b.layoutID = ""
	b.themeID = ""
	b.savedID = ""
	b.composing = false
}

/*
DownloadName builds the file name offered for a strip download, such as
"photobooth-strip-1718000000000.jpg".
*/
func DownloadName(prefix string, t time.Time, contentType string) string {
	if prefix == "" {
		prefix = DefaultDownloadPrefix
	}

	return fmt.Sprintf("%s-%d.%s", prefix, t.UnixMilli(), Extension(contentType))
}

func Extension(contentType string) string {
	switch contentType {
	case "image/png":
		return "png"
	default:
		return "jpg"
	}
}

func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorage)
}
