package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adampresley/photostrip/pkg/models"
	"github.com/rfberaldo/sqlz"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlz.DB {
	t.Helper()

	db, err := Connect("file:" + filepath.Join(t.TempDir(), "photostrip.db"))
	require.NoError(t, err)
	require.NoError(t, MigrateDatabase(db))

	return db
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memoryBlob struct {
	data        []byte
	contentType string
	modified    time.Time
}

type memoryBlobs struct {
	mu      sync.Mutex
	now     func() time.Time
	objects map[string]memoryBlob

	failPutAfter int
	puts         int
}

func newMemoryBlobs(now func() time.Time) *memoryBlobs {
	return &memoryBlobs{now: now, objects: map[string]memoryBlob{}}
}

func (m *memoryBlobs) EnsureBucket() error { return nil }

func (m *memoryBlobs) Put(key, contentType string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts++
	if m.failPutAfter > 0 && m.puts > m.failPutAfter {
		return fmt.Errorf("bucket is full")
	}

	m.objects[key] = memoryBlob{data: append([]byte{}, data...), contentType: contentType, modified: m.now()}
	return nil
}

func (m *memoryBlobs) Get(ctx context.Context, key string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("no such key '%s'", key)
	}

	return obj.data, obj.contentType, nil
}

func (m *memoryBlobs) Exists(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.objects[key]
	return ok, nil
}

func (m *memoryBlobs) URL(key string) (string, error) {
	return "memory://" + key, nil
}

func (m *memoryBlobs) Delete(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.objects, key)
	}

	return nil
}

func (m *memoryBlobs) ListKeys(prefix string, olderThan time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := []string{}

	for key, obj := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		if olderThan.IsZero() || obj.modified.Before(olderThan) {
			result = append(result, key)
		}
	}

	sort.Strings(result)
	return result, nil
}

func (m *memoryBlobs) keys() []string {
	result, _ := m.ListKeys("", time.Time{})
	return result
}

func testFrames(n int, at time.Time) []models.Frame {
	result := make([]models.Frame, 0, n)

	for i := 0; i < n; i++ {
		result = append(result, models.Frame{
			Data:        []byte(fmt.Sprintf("frame-%d", i+1)),
			ContentType: "image/jpeg",
			CapturedAt:  at.Add(time.Duration(i) * time.Second),
			Width:       640,
			Height:      480,
			FacingMode:  models.FacingUser,
		})
	}

	return result
}

func testComposite(at time.Time) models.CompositeResult {
	return models.CompositeResult{
		Data:        []byte("composite"),
		ContentType: "image/jpeg",
		Width:       300,
		Height:      1200,
		GeneratedAt: at,
	}
}
