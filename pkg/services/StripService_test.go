package services

import (
	"testing"
	"time"

	"github.com/adampresley/photostrip/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStripService(t *testing.T, c *clock) StripService {
	t.Helper()

	return NewStripService(StripServiceConfig{
		DB:  newTestDB(t),
		Now: c.Now,
	})
}

func createStrip(t *testing.T, s StripService, c *clock, layoutID, themeID, ownerID string) *models.StripRecord {
	t.Helper()

	strip := &models.StripRecord{
		BaseModel:    models.BaseModel{CreatedAt: c.Now()},
		OwnerID:      ownerID,
		LayoutID:     layoutID,
		ThemeID:      themeID,
		PhotoCount:   2,
		CompositeKey: "strips/x/strip.jpg",
		ContentType:  "image/jpeg",
		SizeBytes:    100,
		Frames: []models.FrameRef{
			{Position: 0, BlobKey: "strips/x/frames/1.jpg", CapturedAt: c.Now(), Width: 640, Height: 480, FacingMode: models.FacingUser},
			{Position: 1, BlobKey: "strips/x/frames/2.jpg", CapturedAt: c.Now(), Width: 640, Height: 480, FacingMode: models.FacingUser},
		},
	}

	require.NoError(t, s.Create(strip))
	c.Advance(time.Minute)

	return strip
}

func TestStripCreateAndGet(t *testing.T) {
	c := newClock()
	s := newTestStripService(t, c)

	created := createStrip(t, s, c, "classic", "neon", "kiosk-1")
	require.NotEmpty(t, created.ID)

	got, err := s.GetByID(created.ID)
	require.NoError(t, err)

	assert.Equal(t, "classic", got.LayoutID)
	assert.Equal(t, "neon", got.ThemeID)
	assert.Equal(t, "kiosk-1", got.OwnerID)
	assert.Equal(t, int64(100), got.SizeBytes)
	assert.True(t, got.CreatedAt.Equal(newClock().Now()))
	assert.Nil(t, got.DeletedAt)

	require.Len(t, got.Frames, 2)
	assert.Equal(t, 0, got.Frames[0].Position)
	assert.Equal(t, "strips/x/frames/2.jpg", got.Frames[1].BlobKey)
	assert.Equal(t, models.FacingUser, got.Frames[1].FacingMode)
}

func TestStripGetUnknownID(t *testing.T) {
	s := newTestStripService(t, newClock())

	_, err := s.GetByID("nope")
	assert.ErrorIs(t, err, models.ErrStripNotFound)
}

func TestStripCreateFailureLeavesNoPartialStrip(t *testing.T) {
	c := newClock()
	s := newTestStripService(t, c)

	strip := &models.StripRecord{
		BaseModel:    models.BaseModel{CreatedAt: c.Now()},
		LayoutID:     "classic",
		ThemeID:      "neon",
		PhotoCount:   2,
		CompositeKey: "strips/x/strip.jpg",
		ContentType:  "image/jpeg",
		Frames: []models.FrameRef{
			{Position: 0, BlobKey: "strips/x/frames/1.jpg", CapturedAt: c.Now(), FacingMode: models.FacingUser},
			{Position: 0, BlobKey: "strips/x/frames/2.jpg", CapturedAt: c.Now(), FacingMode: models.FacingUser},
		},
	}

	err := s.Create(strip)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error inserting frame 0")

	_, err = s.GetByID(strip.ID)
	assert.ErrorIs(t, err, models.ErrStripNotFound)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalStrips)
}

func TestStripListIsNewestFirstAndFiltered(t *testing.T) {
	c := newClock()
	s := newTestStripService(t, c)

	first := createStrip(t, s, c, "classic", "classic", "")
	second := createStrip(t, s, c, "grid", "neon", "kiosk-2")
	third := createStrip(t, s, c, "classic", "neon", "kiosk-2")

	all, err := s.List(models.StripFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	classic, err := s.List(models.StripFilter{LayoutID: "classic"})
	require.NoError(t, err)
	require.Len(t, classic, 2)
	assert.Equal(t, third.ID, classic[0].ID)

	neonKiosk, err := s.List(models.StripFilter{ThemeID: "neon", OwnerID: "kiosk-2"})
	require.NoError(t, err)
	assert.Len(t, neonKiosk, 2)

	none, err := s.List(models.StripFilter{LayoutID: "vintage"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStripDeleteHidesStrip(t *testing.T) {
	c := newClock()
	s := newTestStripService(t, c)

	strip := createStrip(t, s, c, "classic", "classic", "")

	require.NoError(t, s.Delete(strip.ID))
	assert.ErrorIs(t, s.Delete(strip.ID), models.ErrStripNotFound)

	_, err := s.GetByID(strip.ID)
	assert.ErrorIs(t, err, models.ErrStripNotFound)

	all, err := s.List(models.StripFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)

	old, err := s.ListOlderThan(c.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, old, 1, "soft-deleted strips are still eligible for purging")
}

func TestStripUpdateTitleAndThumbnail(t *testing.T) {
	c := newClock()
	s := newTestStripService(t, c)

	strip := createStrip(t, s, c, "classic", "classic", "")

	require.NoError(t, s.UpdateTitle(strip.ID, "  Grandma's 80th  "))
	require.NoError(t, s.SetThumbnailKey(strip.ID, "strips/x/thumbnail.jpg"))
	assert.ErrorIs(t, s.UpdateTitle("nope", "x"), models.ErrStripNotFound)

	got, err := s.GetByID(strip.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grandma's 80th", got.Title)
	assert.Equal(t, "strips/x/thumbnail.jpg", got.ThumbnailKey)

	missing, err := s.ListMissingThumbnails()
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestStripStats(t *testing.T) {
	c := newClock()
	s := newTestStripService(t, c)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, models.StripStats{}, stats)

	createStrip(t, s, c, "classic", "classic", "")
	deleted := createStrip(t, s, c, "classic", "classic", "")
	createStrip(t, s, c, "grid", "neon", "")
	require.NoError(t, s.Delete(deleted.ID))

	stats, err = s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalStrips)
	assert.Equal(t, 4, stats.TotalPhotos)
	assert.Equal(t, int64(200), stats.StorageBytes)
}

func TestStripListOlderThan(t *testing.T) {
	c := newClock()
	s := newTestStripService(t, c)

	old := createStrip(t, s, c, "classic", "classic", "")
	c.Advance(48 * time.Hour)
	createStrip(t, s, c, "classic", "classic", "")

	result, err := s.ListOlderThan(newClock().Now().Add(24 * time.Hour))
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, old.ID, result[0].ID)

	require.NoError(t, s.Purge(old.ID))
	_, err = s.GetByID(old.ID)
	assert.ErrorIs(t, err, models.ErrStripNotFound)
}
