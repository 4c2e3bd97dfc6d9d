package camera

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adampresley/photostrip/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHotFolderDeviceReturnsNewImages(t *testing.T) {
	watched := t.TempDir()
	staging := t.TempDir()

	device := NewHotFolderDevice(HotFolderDeviceConfig{Dir: watched, Timeout: 5 * time.Second})

	s, err := device.StartStream(context.Background(), models.FacingEnvironment, "")
	require.NoError(t, err)
	defer device.StopStream(s)

	staged := filepath.Join(staging, "shot-001.jpg")
	writeJPEG(t, staged, splitImage(48, 32))

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.Rename(staged, filepath.Join(watched, "shot-001.jpg"))
	}()

	frame, err := device.GrabFrame(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 48, frame.Width)
	assert.Equal(t, 32, frame.Height)
}

func TestHotFolderDeviceTimesOut(t *testing.T) {
	device := NewHotFolderDevice(HotFolderDeviceConfig{Dir: t.TempDir(), Timeout: 50 * time.Millisecond})

	s, err := device.StartStream(context.Background(), models.FacingUser, "")
	require.NoError(t, err)
	defer device.StopStream(s)

	_, err = device.GrabFrame(context.Background(), s)
	assert.True(t, IsKind(err, KindTimeout))
}

func TestHotFolderDeviceHonorsContext(t *testing.T) {
	device := NewHotFolderDevice(HotFolderDeviceConfig{Dir: t.TempDir()})

	s, err := device.StartStream(context.Background(), models.FacingUser, "")
	require.NoError(t, err)
	defer device.StopStream(s)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = device.GrabFrame(ctx, s)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHotFolderDeviceMissingFolder(t *testing.T) {
	device := NewHotFolderDevice(HotFolderDeviceConfig{Dir: filepath.Join(t.TempDir(), "nope")})

	_, err := device.StartStream(context.Background(), models.FacingUser, "")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestHotFolderDeviceWaitsForFileWrittenInPlace(t *testing.T) {
	watched := t.TempDir()
	device := NewHotFolderDevice(HotFolderDeviceConfig{Dir: watched, SettleDelay: 50 * time.Millisecond, Timeout: 5 * time.Second})

	s, err := device.StartStream(context.Background(), models.FacingEnvironment, "")
	require.NoError(t, err)
	defer device.StopStream(s)

	path := filepath.Join(watched, "shot-001.jpg")
	data := jpegBytes(t, splitImage(48, 32))

	go func() {
		f, err := os.Create(path)
		if err != nil {
			return
		}

		time.Sleep(200 * time.Millisecond)
		_, _ = f.Write(data)
		_ = f.Close()
	}()

	frame, err := device.GrabFrame(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 48, frame.Width)
	assert.Equal(t, 32, frame.Height)
}

func TestHotFolderDeviceReportsUnreadableImage(t *testing.T) {
	watched := t.TempDir()
	device := NewHotFolderDevice(HotFolderDeviceConfig{Dir: watched, SettleDelay: 20 * time.Millisecond, Timeout: 300 * time.Millisecond})

	s, err := device.StartStream(context.Background(), models.FacingUser, "")
	require.NoError(t, err)
	defer device.StopStream(s)

	require.NoError(t, os.WriteFile(filepath.Join(watched, "broken.jpg"), []byte("not a jpeg"), 0o644))

	_, err = device.GrabFrame(context.Background(), s)
	assert.True(t, IsKind(err, KindUnsupported))
}
