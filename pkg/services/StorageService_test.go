package services

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/adampresley/photostrip/pkg/models"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storageFixture struct {
	clock   *clock
	blobs   *memoryBlobs
	strips  StripService
	storage StorageService
}

func newStorageFixture(t *testing.T, retentionDays int) storageFixture {
	t.Helper()

	c := newClock()
	blobs := newMemoryBlobs(c.Now)
	strips := newTestStripService(t, c)

	return storageFixture{
		clock:  c,
		blobs:  blobs,
		strips: strips,
		storage: NewStorageService(StorageServiceConfig{
			BlobService:   blobs,
			Folder:        "strips",
			Now:           c.Now,
			RetentionDays: retentionDays,
			StripService:  strips,
		}),
	}
}

func (f storageFixture) save(t *testing.T, req SaveRequest) string {
	t.Helper()

	if req.Composite.IsEmpty() {
		req.Composite = testComposite(f.clock.Now())
	}

	if req.Frames == nil {
		req.Frames = testFrames(4, f.clock.Now())
	}

	if req.LayoutID == "" {
		req.LayoutID = "classic"
	}

	if req.ThemeID == "" {
		req.ThemeID = "classic"
	}

	id, err := f.storage.Save(context.Background(), req)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	return id
}

func TestSaveStoresFramesCompositeAndRecord(t *testing.T) {
	f := newStorageFixture(t, 0)

	id := f.save(t, SaveRequest{Title: "Prom", OwnerID: "kiosk-1"})

	assert.Equal(t, []string{
		"strips/" + id + "/frames/1.jpg",
		"strips/" + id + "/frames/2.jpg",
		"strips/" + id + "/frames/3.jpg",
		"strips/" + id + "/frames/4.jpg",
		"strips/" + id + "/strip.jpg",
	}, f.blobs.keys())

	strip, err := f.storage.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Prom", strip.Title)
	assert.Equal(t, 4, strip.PhotoCount)
	assert.Len(t, strip.Frames, 4)
	assert.Equal(t, int64(4*len("frame-1")+len("composite")), strip.SizeBytes)

	data, contentType, err := f.storage.Composite(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []byte("composite"), data)
	assert.Equal(t, "image/jpeg", contentType)
}

func TestSaveFailureRemovesUploadedBlobs(t *testing.T) {
	f := newStorageFixture(t, 0)
	f.blobs.failPutAfter = 2

	_, err := f.storage.Save(context.Background(), SaveRequest{
		LayoutID:  "classic",
		ThemeID:   "classic",
		Frames:    testFrames(4, f.clock.Now()),
		Composite: testComposite(f.clock.Now()),
	})

	require.Error(t, err)
	assert.True(t, IsStorageError(err))
	assert.Empty(t, f.blobs.keys())

	strips, err := f.storage.List(models.StripFilter{})
	require.NoError(t, err)
	assert.Empty(t, strips)
}

func TestSaveWithoutCompositeIsRejected(t *testing.T) {
	f := newStorageFixture(t, 0)

	_, err := f.storage.Save(context.Background(), SaveRequest{LayoutID: "classic"})
	assert.ErrorIs(t, err, ErrNothingToSave)
	assert.True(t, IsStorageError(err))
}

func TestListFiltersByLayout(t *testing.T) {
	f := newStorageFixture(t, 0)

	f.save(t, SaveRequest{LayoutID: "classic"})
	grid := f.save(t, SaveRequest{LayoutID: "grid"})

	result, err := f.storage.List(models.StripFilter{LayoutID: "grid"})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, grid, result[0].ID)
}

func TestDeleteRemovesBlobsAndRecord(t *testing.T) {
	f := newStorageFixture(t, 0)

	keep := f.save(t, SaveRequest{})
	gone := f.save(t, SaveRequest{})

	require.NoError(t, f.storage.Delete(gone))
	assert.ErrorIs(t, f.storage.Delete(gone), ErrStripNotFound)

	for _, key := range f.blobs.keys() {
		assert.Contains(t, key, keep)
	}

	_, _, err := f.storage.Composite(context.Background(), gone)
	assert.ErrorIs(t, err, ErrStripNotFound)

	stats, err := f.storage.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalStrips)
}

func TestThumbnailNotReady(t *testing.T) {
	f := newStorageFixture(t, 0)
	id := f.save(t, SaveRequest{})

	_, _, err := f.storage.Thumbnail(context.Background(), id)
	assert.ErrorIs(t, err, ErrThumbnailMissing)

	key := f.storage.ThumbnailKey(id)
	require.NoError(t, f.blobs.Put(key, "image/jpeg", []byte("thumb")))
	require.NoError(t, f.strips.SetThumbnailKey(id, key))

	data, _, err := f.storage.Thumbnail(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []byte("thumb"), data)
}

func TestExportWritesCompositesAndManifest(t *testing.T) {
	f := newStorageFixture(t, 0)

	first := f.save(t, SaveRequest{Title: "one"})
	second := f.save(t, SaveRequest{Title: "two"})

	buf := &bytes.Buffer{}
	require.NoError(t, f.storage.Export(context.Background(), models.StripFilter{}, buf))

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	names := []string{}
	var manifest []exportEntry

	for _, file := range reader.File {
		names = append(names, file.Name)

		if file.Name == "manifest.json" {
			rc, err := file.Open()
			require.NoError(t, err)

			b, err := io.ReadAll(rc)
			require.NoError(t, err)
			_ = rc.Close()

			require.NoError(t, json.Unmarshal(b, &manifest))
		}
	}

	assert.Equal(t, []string{second + ".jpg", first + ".jpg", "manifest.json"}, names)
	require.Len(t, manifest, 2)
	assert.Equal(t, "two", manifest[0].Title)
	assert.Equal(t, 4, manifest[1].PhotoCount)
}

func TestCleanupExpiredRemovesOldStripsAndOrphans(t *testing.T) {
	f := newStorageFixture(t, 7)

	old := f.save(t, SaveRequest{})
	require.NoError(t, f.blobs.Put("strips/ghost/strip.jpg", "image/jpeg", []byte("ghost")))

	f.clock.Advance(10 * 24 * time.Hour)
	fresh := f.save(t, SaveRequest{})

	assert.Equal(t, 1, f.storage.CleanupExpired())

	_, err := f.storage.Get(old)
	assert.ErrorIs(t, err, ErrStripNotFound)

	for _, key := range f.blobs.keys() {
		assert.Contains(t, key, fresh)
	}
}

func TestCleanupRoutineStartStop(t *testing.T) {
	f := newStorageFixture(t, 7)

	f.storage.StartCleanupRoutine(time.Hour)
	f.storage.StartCleanupRoutine(time.Hour)
	f.storage.StopCleanupRoutine()
	f.storage.StopCleanupRoutine()

	disabled := newStorageFixture(t, 0)
	disabled.storage.StartCleanupRoutine(time.Hour)
	disabled.storage.StopCleanupRoutine()
}
