package services

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/adampresley/photostrip/pkg/models"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

var (
	ErrStripNotFound    = models.ErrStripNotFound
	ErrNothingToSave    = fmt.Errorf("nothing to save")
	ErrThumbnailMissing = fmt.Errorf("thumbnail not generated yet")
)

/*
StorageError reports a failed storage operation. The booth keeps its
current result when it sees one.
*/
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %s", e.Op, e.Err.Error())
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

type SaveRequest struct {
	Composite models.CompositeResult
	Frames    []models.Frame
	LayoutID  string
	OwnerID   string
	ThemeID   string
	Title     string
}

type StorageServicer interface {
	Composite(ctx context.Context, id string) ([]byte, string, error)
	Delete(id string) error
	Export(ctx context.Context, filter models.StripFilter, w io.Writer) error
	Get(id string) (*models.StripRecord, error)
	List(filter models.StripFilter) ([]*models.StripRecord, error)
	Save(ctx context.Context, req SaveRequest) (string, error)
	StartCleanupRoutine(interval time.Duration)
	Stats() (models.StripStats, error)
	StopCleanupRoutine()
	Thumbnail(ctx context.Context, id string) ([]byte, string, error)
	UpdateTitle(id, title string) error
}

type StorageServiceConfig struct {
	BlobService   BlobServicer
	Folder        string
	Logger        *slog.Logger
	Now           func() time.Time
	RetentionDays int
	StripService  StripServicer
}

type StorageService struct {
	blobs         BlobServicer
	folder        string
	logger        *slog.Logger
	now           func() time.Time
	retentionDays int
	strips        StripServicer
	cleanup       *cleanupState
}

type cleanupState struct {
	mu     sync.Mutex
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
}

type exportEntry struct {
	ID         string    `json:"id"`
	File       string    `json:"file"`
	Title      string    `json:"title"`
	OwnerID    string    `json:"ownerId"`
	LayoutID   string    `json:"layoutId"`
	ThemeID    string    `json:"themeId"`
	PhotoCount int       `json:"photoCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewStorageService(config StorageServiceConfig) StorageService {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	if config.Now == nil {
		config.Now = time.Now
	}

	if config.Folder == "" {
		config.Folder = "strips"
	}

	return StorageService{
		blobs:         config.BlobService,
		folder:        strings.Trim(config.Folder, "/"),
		logger:        config.Logger,
		now:           config.Now,
		retentionDays: config.RetentionDays,
		strips:        config.StripService,
		cleanup:       &cleanupState{},
	}
}

/*
Save uploads every frame and the composite, then records the strip. When
any step fails the blobs uploaded so far are removed and a *StorageError
is returned.
*/
func (s StorageService) Save(ctx context.Context, req SaveRequest) (string, error) {
	var (
		err      error
		uploaded []string
	)

	if req.Composite.IsEmpty() {
		return "", &StorageError{Op: "save", Err: ErrNothingToSave}
	}

	id := uuid.NewString()
	l := s.logger.With("stripID", id, "layoutID", req.LayoutID, "themeID", req.ThemeID)

	rollback := func(cause error) (string, error) {
		if len(uploaded) > 0 {
			if err := s.blobs.Delete(uploaded...); err != nil {
				l.Error("error removing blobs of failed save", "error", err, "keys", uploaded)
			}
		}

		return "", &StorageError{Op: "save", Err: cause}
	}

	strip := &models.StripRecord{
		BaseModel: models.BaseModel{
			ID:        id,
			CreatedAt: req.Composite.GeneratedAt,
		},
		OwnerID:     req.OwnerID,
		Title:       strings.TrimSpace(req.Title),
		LayoutID:    req.LayoutID,
		ThemeID:     req.ThemeID,
		PhotoCount:  len(req.Frames),
		ContentType: req.Composite.ContentType,
		Frames:      make([]models.FrameRef, 0, len(req.Frames)),
	}

	if strip.CreatedAt.IsZero() {
		strip.CreatedAt = s.now()
	}

	for i, frame := range req.Frames {
		if err = ctx.Err(); err != nil {
			return rollback(err)
		}

		key := s.frameKey(id, i, frame.ContentType)

		if err = s.blobs.Put(key, frame.ContentType, frame.Data); err != nil {
			return rollback(err)
		}

		uploaded = append(uploaded, key)
		strip.SizeBytes += int64(len(frame.Data))

		strip.Frames = append(strip.Frames, models.FrameRef{
			Position:   i,
			BlobKey:    key,
			CapturedAt: frame.CapturedAt,
			Width:      frame.Width,
			Height:     frame.Height,
			FacingMode: frame.FacingMode,
		})
	}

	if err = ctx.Err(); err != nil {
		return rollback(err)
	}

	strip.CompositeKey = s.compositeKey(id, req.Composite.ContentType)

	if err = s.blobs.Put(strip.CompositeKey, req.Composite.ContentType, req.Composite.Data); err != nil {
		return rollback(err)
	}

	uploaded = append(uploaded, strip.CompositeKey)
	strip.SizeBytes += int64(len(req.Composite.Data))

	if err = s.strips.Create(strip); err != nil {
		return rollback(err)
	}

	l.Info("strip saved", "photos", strip.PhotoCount, "bytes", strip.SizeBytes)
	return id, nil
}

func (s StorageService) List(filter models.StripFilter) ([]*models.StripRecord, error) {
	result, err := s.strips.List(filter)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}

	return result, nil
}

func (s StorageService) Get(id string) (*models.StripRecord, error) {
	result, err := s.strips.GetByID(id)
	if err != nil {
		if errors.Is(err, ErrStripNotFound) {
			return nil, err
		}

		return nil, &StorageError{Op: "get", Err: err}
	}

	return result, nil
}

func (s StorageService) Stats() (models.StripStats, error) {
	result, err := s.strips.Stats()
	if err != nil {
		return result, &StorageError{Op: "stats", Err: err}
	}

	return result, nil
}

func (s StorageService) UpdateTitle(id, title string) error {
	if err := s.strips.UpdateTitle(id, title); err != nil {
		if errors.Is(err, ErrStripNotFound) {
			return err
		}

		return &StorageError{Op: "update title", Err: err}
	}

	return nil
}

/*
Composite returns the finished strip image of a saved strip.
*/
func (s StorageService) Composite(ctx context.Context, id string) ([]byte, string, error) {
	strip, err := s.Get(id)
	if err != nil {
		return nil, "", err
	}

	data, contentType, err := s.blobs.Get(ctx, strip.CompositeKey)
	if err != nil {
		return nil, "", &StorageError{Op: "composite", Err: err}
	}

	if contentType == "" {
		contentType = strip.ContentType
	}

	return data, contentType, nil
}

func (s StorageService) Thumbnail(ctx context.Context, id string) ([]byte, string, error) {
	strip, err := s.Get(id)
	if err != nil {
		return nil, "", err
	}

	if strip.ThumbnailKey == "" {
		return nil, "", ErrThumbnailMissing
	}

	data, contentType, err := s.blobs.Get(ctx, strip.ThumbnailKey)
	if err != nil {
		return nil, "", &StorageError{Op: "thumbnail", Err: err}
	}

	return data, contentType, nil
}

/*
Delete removes a strip from listings right away and then tries to remove
its blobs. Blob removal failures are logged; the cleanup routine sweeps
anything left behind.
*/
func (s StorageService) Delete(id string) error {
	strip, err := s.Get(id)
	if err != nil {
		return err
	}

	if err = s.strips.Delete(id); err != nil {
		if errors.Is(err, ErrStripNotFound) {
			return err
		}

		return &StorageError{Op: "delete", Err: err}
	}

	if err = s.blobs.Delete(stripKeys(strip)...); err != nil {
		s.logger.Error("error removing blobs of deleted strip", "stripID", id, "error", err)
		return nil
	}

	if err = s.strips.Purge(id); err != nil {
		s.logger.Error("error purging deleted strip", "stripID", id, "error", err)
	}

	return nil
}

/*
Export writes a zip archive with the composite of every strip matching
filter plus a manifest.json describing them.
*/
func (s StorageService) Export(ctx context.Context, filter models.StripFilter, w io.Writer) error {
	var (
		err    error
		strips []*models.StripRecord
		dest   io.Writer
	)

	if strips, err = s.List(filter); err != nil {
		return err
	}

	zipWriter := zip.NewWriter(w)
	manifest := make([]exportEntry, 0, len(strips))

	for _, strip := range strips {
		if err = ctx.Err(); err != nil {
			return err
		}

		data, _, err := s.blobs.Get(ctx, strip.CompositeKey)
		if err != nil {
			s.logger.Error("failed to add strip to export", "stripID", strip.ID, "error", err)
			continue
		}

		fileName := strip.ID + path.Ext(strip.CompositeKey)

		if dest, err = zipWriter.Create(fileName); err != nil {
			return &StorageError{Op: "export", Err: fmt.Errorf("failed to create file '%s' in zip: %w", fileName, err)}
		}

		if _, err = dest.Write(data); err != nil {
			return &StorageError{Op: "export", Err: fmt.Errorf("failed to write file '%s' to zip: %w", fileName, err)}
		}

		manifest = append(manifest, exportEntry{
			ID:         strip.ID,
			File:       fileName,
			Title:      strip.Title,
			OwnerID:    strip.OwnerID,
			LayoutID:   strip.LayoutID,
			ThemeID:    strip.ThemeID,
			PhotoCount: strip.PhotoCount,
			CreatedAt:  strip.CreatedAt,
		})
	}

	if dest, err = zipWriter.Create("manifest.json"); err != nil {
		return &StorageError{Op: "export", Err: err}
	}

	encoder := json.NewEncoder(dest)
	encoder.SetIndent("", "  ")

	if err = encoder.Encode(manifest); err != nil {
		return &StorageError{Op: "export", Err: err}
	}

	if err = zipWriter.Close(); err != nil {
		return &StorageError{Op: "export", Err: err}
	}

	return nil
}

// StartCleanupRoutine starts a periodic routine that removes strips older than the retention period
func (s StorageService) StartCleanupRoutine(interval time.Duration) {
	if s.retentionDays <= 0 {
		s.logger.Info("strip retention disabled, cleanup routine not started")
		return
	}

	s.cleanup.mu.Lock()
	defer s.cleanup.mu.Unlock()

	if s.cleanup.ticker != nil {
		return
	}

	s.cleanup.stop = make(chan struct{})
	s.cleanup.ticker = time.NewTicker(interval)

	s.cleanup.wg.Add(1)
	go func(ticker *time.Ticker, stop chan struct{}) {
		defer s.cleanup.wg.Done()

		for {
			select {
			case <-ticker.C:
				s.CleanupExpired()
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}(s.cleanup.ticker, s.cleanup.stop)

	s.logger.Info("strip cleanup routine started", "interval", interval, "retentionDays", s.retentionDays)
}

// StopCleanupRoutine stops the cleanup routine
func (s StorageService) StopCleanupRoutine() {
	s.cleanup.mu.Lock()
	defer s.cleanup.mu.Unlock()

	if s.cleanup.ticker == nil {
		return
	}

	close(s.cleanup.stop)
	s.cleanup.wg.Wait()
	s.cleanup.ticker = nil

	s.logger.Info("strip cleanup routine stopped")
}

/*
CleanupExpired removes strips created before the retention cutoff,
including soft-deleted ones, then sweeps blobs under the strips folder
that no longer belong to any strip. It returns the number of strips
removed.
*/
func (s StorageService) CleanupExpired() int {
	var (
		err     error
		expired []*models.StripRecord
		keys    []string
		removed int
	)

	l := s.logger.With("function", "CleanupExpired")
	l.Info("starting cleanup of expired strips")

	cutoff := s.now().AddDate(0, 0, -s.retentionDays)

	if expired, err = s.strips.ListOlderThan(cutoff); err != nil {
		l.Error("error retrieving expired strips", "error", err)
		return 0
	}

	for _, strip := range expired {
		if err = s.blobs.Delete(stripKeys(strip)...); err != nil {
			l.Error("failed to remove blobs of expired strip", "error", err, "stripID", strip.ID)
			continue
		}

		if err = s.strips.Purge(strip.ID); err != nil {
			l.Error("failed to purge expired strip", "error", err, "stripID", strip.ID)
			continue
		}

		removed++
	}

	if keys, err = s.blobs.ListKeys(s.folder+"/", cutoff); err != nil {
		l.Error("failed to list strip blobs", "error", err, "path", s.folder)
		return removed
	}

	orphans := []string{}
	known := map[string]bool{}

	for _, key := range keys {
		id := s.stripIDFromKey(key)
		if id == "" {
			continue
		}

		alive, ok := known[id]
		if !ok {
			_, err = s.strips.GetByID(id)
			alive = !errors.Is(err, ErrStripNotFound)
			known[id] = alive
		}

		if !alive {
			orphans = append(orphans, key)
		}
	}

	if len(orphans) > 0 {
		if err = s.blobs.Delete(orphans...); err != nil {
			l.Error("failed to remove orphaned blobs", "error", err, "count", len(orphans))
		}
	}

	l.Info("completed cleanup of expired strips", "removed", removed, "orphans", len(orphans))
	return removed
}

func (s StorageService) compositeKey(id, contentType string) string {
	return path.Join(s.folder, id, "strip"+extensionFor(contentType))
}

func (s StorageService) frameKey(id string, position int, contentType string) string {
	return path.Join(s.folder, id, "frames", fmt.Sprintf("%d%s", position+1, extensionFor(contentType)))
}

/*
ThumbnailKey is where the thumbnail of a strip lives.
*/
func (s StorageService) ThumbnailKey(id string) string {
	return path.Join(s.folder, id, "thumbnail.jpg")
}

func (s StorageService) stripIDFromKey(key string) string {
	rest := strings.TrimPrefix(key, s.folder+"/")
	if rest == key {
		return ""
	}

	id, _, found := strings.Cut(rest, "/")
	if !found {
		return ""
	}

	return id
}

func stripKeys(strip *models.StripRecord) []string {
	result := []string{}

	for _, frame := range strip.Frames {
		result = append(result, frame.BlobKey)
	}

	if strip.CompositeKey != "" {
		result = append(result, strip.CompositeKey)
	}

	if strip.ThumbnailKey != "" {
		result = append(result, strip.ThumbnailKey)
	}

	return result
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
