package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/adampresley/photostrip/pkg/models"
	"github.com/google/uuid"
	"github.com/rfberaldo/sqlz"
)

type StripServicer interface {
	Create(strip *models.StripRecord) error
	Delete(id string) error
	GetByID(id string) (*models.StripRecord, error)
	List(filter models.StripFilter) ([]*models.StripRecord, error)
	ListMissingThumbnails() ([]*models.StripRecord, error)
	ListOlderThan(cutoff time.Time) ([]*models.StripRecord, error)
	Purge(id string) error
	SetThumbnailKey(id, key string) error
	Stats() (models.StripStats, error)
	UpdateTitle(id, title string) error
}

type StripServiceConfig struct {
	DB  *sqlz.DB
	Now func() time.Time
}

type StripService struct {
	db  *sqlz.DB
	now func() time.Time
}

const stripColumns = `
   s.id
   , s.created_at
   , s.updated_at
   , s.deleted_at
   , s.owner_id
   , s.title
   , s.layout_id
   , s.theme_id
   , s.photo_count
   , s.composite_key
   , s.content_type
   , s.size_bytes
   , s.thumbnail_key
`

func NewStripService(config StripServiceConfig) StripService {
	if config.Now == nil {
		config.Now = time.Now
	}

	return StripService{
		db:  config.DB,
		now: config.Now,
	}
}

/*
Create inserts a strip and its frame references. ID and timestamps are
filled in when empty. When a frame insert fails the strip row and any frames
already written are purged before the error is returned.
*/
func (s StripService) Create(strip *models.StripRecord) error {
	var (
		err error
	)

	now := s.now().UTC()

	if strip.ID == "" {
		strip.ID = uuid.NewString()
	}

	if strip.CreatedAt.IsZero() {
		strip.CreatedAt = now
	}

	strip.CreatedAt = strip.CreatedAt.UTC()
	strip.UpdatedAt = now

	sql := `
INSERT INTO strips (
   id
   , created_at
   , updated_at
   , owner_id
   , title
   , layout_id
   , theme_id
   , photo_count
   , composite_key
   , content_type
   , size_bytes
   , thumbnail_key
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

	params := []any{
		strip.ID,
		strip.CreatedAt,
		strip.UpdatedAt,
		strip.OwnerID,
		strip.Title,
		strip.LayoutID,
		strip.ThemeID,
		strip.PhotoCount,
		strip.CompositeKey,
		strip.ContentType,
		strip.SizeBytes,
		strip.ThumbnailKey,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if _, err = s.db.Exec(ctx, sql, params...); err != nil {
		return fmt.Errorf("error inserting strip %s: %w", strip.ID, err)
	}

	sql = `
INSERT INTO strip_frames (
   strip_id
   , position
   , blob_key
   , captured_at
   , width
   , height
   , facing_mode
) VALUES (?, ?, ?, ?, ?, ?, ?)
`

	for i := range strip.Frames {
		frame := &strip.Frames[i]
		frame.StripID = strip.ID

		params = []any{
			frame.StripID,
			frame.Position,
			frame.BlobKey,
			frame.CapturedAt.UTC(),
			frame.Width,
			frame.Height,
			frame.FacingMode,
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		_, err = s.db.Exec(ctx, sql, params...)
		cancel()

		if err != nil {
			err = fmt.Errorf("error inserting frame %d for strip %s: %w", frame.Position, strip.ID, err)

			if purgeErr := s.Purge(strip.ID); purgeErr != nil {
				slog.Error("error removing partially created strip", "stripID", strip.ID, "error", purgeErr)
				return errors.Join(err, purgeErr)
			}

			return err
		}
	}

	return nil
}

func (s StripService) GetByID(id string) (*models.StripRecord, error) {
	var (
		err error
	)

	result := &models.StripRecord{}

	sql := `
SELECT ` + stripColumns + `
FROM strips AS s
WHERE 1=1
   AND s.deleted_at IS NULL
   AND s.id=?
`

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.QueryRow(ctx, result, sql, id); err != nil {
		if sqlz.IsNotFound(err) {
			return nil, models.ErrStripNotFound
		}

		return nil, fmt.Errorf("error querying for strip %s: %w", id, err)
	}

	sql = `
SELECT
   f.strip_id
   , f.position
   , f.blob_key
   , f.captured_at
   , f.width
   , f.height
   , f.facing_mode
FROM strip_frames AS f
WHERE 1=1
   AND f.strip_id=?
ORDER BY f.position
`

	ctx, cancel = context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.Query(ctx, &result.Frames, sql, id); err != nil {
		return nil, fmt.Errorf("error querying for frames of strip %s: %w", id, err)
	}

	return result, nil
}

/*
List returns strips newest first. Empty filter fields match everything.
*/
func (s StripService) List(filter models.StripFilter) ([]*models.StripRecord, error) {
	var (
		err error
	)

	result := []*models.StripRecord{}
	where := []string{"1=1", "s.deleted_at IS NULL"}
	params := []any{}

	if filter.LayoutID != "" {
		where = append(where, "s.layout_id=?")
		params = append(params, filter.LayoutID)
	}

	if filter.ThemeID != "" {
		where = append(where, "s.theme_id=?")
		params = append(params, filter.ThemeID)
	}

	if filter.OwnerID != "" {
		where = append(where, "s.owner_id=?")
		params = append(params, filter.OwnerID)
	}

	sql := `
SELECT ` + stripColumns + `
FROM strips AS s
WHERE ` + strings.Join(where, "\n   AND ") + `
ORDER BY s.created_at DESC, s.id DESC
`

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.Query(ctx, &result, sql, params...); err != nil {
		return result, fmt.Errorf("error querying for strips: %w", err)
	}

	return result, nil
}

func (s StripService) ListOlderThan(cutoff time.Time) ([]*models.StripRecord, error) {
	var (
		err error
	)

	result := []*models.StripRecord{}

	sql := `
SELECT ` + stripColumns + `
FROM strips AS s
WHERE 1=1
   AND s.created_at < ?
ORDER BY s.created_at
`

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.Query(ctx, &result, sql, cutoff.UTC()); err != nil {
		return result, fmt.Errorf("error querying for strips older than %s: %w", cutoff.Format(time.RFC3339), err)
	}

	return result, nil
}

func (s StripService) ListMissingThumbnails() ([]*models.StripRecord, error) {
	var (
		err error
	)

	result := []*models.StripRecord{}

	sql := `
SELECT ` + stripColumns + `
FROM strips AS s
WHERE 1=1
   AND s.deleted_at IS NULL
   AND s.thumbnail_key=''
ORDER BY s.created_at DESC
`

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.Query(ctx, &result, sql); err != nil {
		return result, fmt.Errorf("error querying for strips without thumbnails: %w", err)
	}

	return result, nil
}

/*
Delete marks a strip as deleted. Its blobs stay until the cleanup
routine purges it.
*/
func (s StripService) Delete(id string) error {
	sql := `
UPDATE strips SET
   deleted_at=?
   , updated_at=?
WHERE 1=1
   AND id=?
   AND deleted_at IS NULL
`

	now := s.now().UTC()
	return s.execOne(fmt.Sprintf("deleting strip %s", id), sql, now, now, id)
}

/*
Purge removes a strip and its frame rows for good.
*/
func (s StripService) Purge(id string) error {
	var (
		err error
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if _, err = s.db.Exec(ctx, "DELETE FROM strip_frames WHERE strip_id=?", id); err != nil {
		return fmt.Errorf("error purging frames of strip %s: %w", id, err)
	}

	if _, err = s.db.Exec(ctx, "DELETE FROM strips WHERE id=?", id); err != nil {
		return fmt.Errorf("error purging strip %s: %w", id, err)
	}

	return nil
}

func (s StripService) UpdateTitle(id, title string) error {
	sql := `
UPDATE strips SET
   title=?
   , updated_at=?
WHERE 1=1
   AND id=?
   AND deleted_at IS NULL
`

	return s.execOne(fmt.Sprintf("updating title of strip %s", id), sql, strings.TrimSpace(title), s.now().UTC(), id)
}

func (s StripService) SetThumbnailKey(id, key string) error {
	sql := `
UPDATE strips SET
   thumbnail_key=?
WHERE 1=1
   AND id=?
   AND deleted_at IS NULL
`

	return s.execOne(fmt.Sprintf("setting thumbnail of strip %s", id), sql, key, id)
}

func (s StripService) Stats() (models.StripStats, error) {
	var (
		err error
	)

	result := models.StripStats{}

	sql := `
SELECT
   COUNT(*) AS total_strips
   , COALESCE(SUM(s.photo_count), 0) AS total_photos
   , COALESCE(SUM(s.size_bytes), 0) AS storage_bytes
FROM strips AS s
WHERE 1=1
   AND s.deleted_at IS NULL
`

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.QueryRow(ctx, &result, sql); err != nil {
		return result, fmt.Errorf("error querying strip stats: %w", err)
	}

	return result, nil
}

func (s StripService) execOne(what, sql string, params ...any) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	result, err := s.db.Exec(ctx, sql, params...)
	if err != nil {
		return fmt.Errorf("error %s: %w", what, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error %s: %w", what, err)
	}

	if affected == 0 {
		return models.ErrStripNotFound
	}

	return nil
}
