package camera

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/adampresley/photostrip/pkg/models"
	"github.com/anthonynsimon/bild/imgio"
)

type DirectoryDeviceConfig struct {
	Dir        string
	Logger     *slog.Logger
	MirrorUser bool
	Now        func() time.Time
	Quality    int
}

/*
DirectoryDevice serves still images from a folder, one after another,
starting over when it runs out. When the folder has a subfolder named
after a facing mode ("user" or "environment") that subfolder is used for
streams in that mode. It stands in for a real camera at events where
photos arrive from elsewhere, and in kiosk demos.
*/
type DirectoryDevice struct {
	config DirectoryDeviceConfig

	mu     sync.Mutex
	active *directoryStream
}

type directoryStream struct {
	stream

	dir   string
	files []string
	next  int
}

func NewDirectoryDevice(config DirectoryDeviceConfig) *DirectoryDevice {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	if config.Now == nil {
		config.Now = time.Now
	}

	return &DirectoryDevice{
		config: config,
	}
}

func (d *DirectoryDevice) StartStream(ctx context.Context, facing models.FacingMode, deviceID string) (Stream, error) {
	var (
		err   error
		files []string
	)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active != nil {
		return nil, NewCaptureError(KindDeviceBusy, "start", fmt.Errorf("a %s stream is already open", d.active.facing))
	}

	dir := d.dirFor(facing)

	if files, err = listImages(dir); err != nil {
		return nil, err
	}

	s := &directoryStream{
		stream: stream{facing: facing, deviceID: deviceID},
		dir:    dir,
		files:  files,
	}

	d.active = s
	d.config.Logger.Info("directory camera stream started", "dir", dir, "facing", facing, "images", len(files))

	return s, nil
}

func (d *DirectoryDevice) StopStream(s Stream) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ds, ok := s.(*directoryStream)
	if !ok || ds != d.active {
		return NewCaptureError(KindNotStreaming, "stop", nil)
	}

	d.active = nil
	return nil
}

func (d *DirectoryDevice) GrabFrame(ctx context.Context, s Stream) (models.Frame, error) {
	if err := ctx.Err(); err != nil {
		return models.Frame{}, err
	}

	d.mu.Lock()

	ds, ok := s.(*directoryStream)
	if !ok || ds != d.active {
		d.mu.Unlock()
		return models.Frame{}, NewCaptureError(KindNotStreaming, "grab", nil)
	}

	path := ds.files[ds.next%len(ds.files)]
	ds.next++
	d.mu.Unlock()

	img, err := imgio.Open(path)
	if err != nil {
		return models.Frame{}, NewCaptureError(KindUnsupported, "grab", fmt.Errorf("error reading '%s': %w", path, err))
	}

	frame, err := frameFromImage(img, ds.facing, d.config.MirrorUser, d.config.Quality, d.config.Now())
	if err != nil {
		return models.Frame{}, NewCaptureError(KindUnsupported, "grab", err)
	}

	return frame, nil
}

func (d *DirectoryDevice) dirFor(facing models.FacingMode) string {
	sub := filepath.Join(d.config.Dir, string(facing))

	if info, err := os.Stat(sub); err == nil && info.IsDir() {
		return sub
	}

	return d.config.Dir
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)

	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, NewCaptureError(KindPermissionDenied, "start", err)
		}

		return nil, NewCaptureError(KindNotFound, "start", err)
	}

	result := []string{}

	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}

		result = append(result, filepath.Join(dir, entry.Name()))
	}

	if len(result) == 0 {
		return nil, NewCaptureError(KindNotFound, "start", fmt.Errorf("no images in '%s'", dir))
	}

	sort.Strings(result)
	return result, nil
}
