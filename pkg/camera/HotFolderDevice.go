package camera

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/adampresley/photostrip/pkg/models"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/fsnotify/fsnotify"
)

const (
	DefaultHotFolderTimeout     = 30 * time.Second
	DefaultHotFolderSettleDelay = 150 * time.Millisecond
	hotFolderBacklog            = 16
)

type HotFolderDeviceConfig struct {
	Dir         string
	Logger      *slog.Logger
	MirrorUser  bool
	Now         func() time.Time
	Quality     int
	SettleDelay time.Duration
	Timeout     time.Duration
}

/*
HotFolderDevice turns a folder into a camera. A tethered camera (or its
vendor software) drops each shot into the folder, and GrabFrame returns
the next image that appears after the stream was started.

A file is handed out once no create or write event has arrived for it
for SettleDelay. If it still does not decode, GrabFrame keeps waiting
for the next write to the same file until the timeout.
*/
type HotFolderDevice struct {
	config HotFolderDeviceConfig

	mu     sync.Mutex
	active *hotFolderStream
}

type hotFolderStream struct {
	stream

	watcher *fsnotify.Watcher
	paths   chan string
	errs    chan error
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewHotFolderDevice(config HotFolderDeviceConfig) *HotFolderDevice {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	if config.Now == nil {
		config.Now = time.Now
	}

	if config.Timeout <= 0 {
		config.Timeout = DefaultHotFolderTimeout
	}

	if config.SettleDelay <= 0 {
		config.SettleDelay = DefaultHotFolderSettleDelay
	}

	return &HotFolderDevice{
		config: config,
	}
}

func (d *HotFolderDevice) StartStream(ctx context.Context, facing models.FacingMode, deviceID string) (Stream, error) {
	var (
		err     error
		watcher *fsnotify.Watcher
	)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active != nil {
		return nil, NewCaptureError(KindDeviceBusy, "start", fmt.Errorf("hot folder '%s' is already being watched", d.config.Dir))
	}

	if watcher, err = fsnotify.NewWatcher(); err != nil {
		return nil, NewCaptureError(KindUnsupported, "start", fmt.Errorf("error creating watcher: %w", err))
	}

	if err = watcher.Add(d.config.Dir); err != nil {
		_ = watcher.Close()

		if errors.Is(err, fs.ErrPermission) {
			return nil, NewCaptureError(KindPermissionDenied, "start", err)
		}

		return nil, NewCaptureError(KindNotFound, "start", err)
	}

	s := &hotFolderStream{
		stream:  stream{facing: facing, deviceID: deviceID},
		watcher: watcher,
		paths:   make(chan string, hotFolderBacklog),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}

	s.wg.Add(1)
	go d.watch(s)

	d.active = s
	d.config.Logger.Info("hot folder camera stream started", "dir", d.config.Dir, "facing", facing)

	return s, nil
}

func (d *HotFolderDevice) watch(s *hotFolderStream) {
	defer s.wg.Done()

	// path -> time of the last create/write event. Only files still being
	// written live here, so it stays small.
	pending := map[string]time.Time{}

	ticker := time.NewTicker(d.config.SettleDelay / 2)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < d.config.SettleDelay {
					continue
				}

				delete(pending, path)

				select {
				case s.paths <- path:
				default:
					d.config.Logger.Warn("hot folder backlog full, dropping image", "path", path)
				}
			}

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			if !isImageFile(event.Name) {
				continue
			}

			pending[event.Name] = time.Now()

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}

			select {
			case s.errs <- err:
			default:
			}
		}
	}
}

func (d *HotFolderDevice) StopStream(st Stream) error {
	d.mu.Lock()

	s, ok := st.(*hotFolderStream)
	if !ok || s != d.active {
		d.mu.Unlock()
		return NewCaptureError(KindNotStreaming, "stop", nil)
	}

	d.active = nil
	d.mu.Unlock()

	close(s.done)
	err := s.watcher.Close()
	s.wg.Wait()

	return err
}

func (d *HotFolderDevice) GrabFrame(ctx context.Context, st Stream) (models.Frame, error) {
	d.mu.Lock()
	s, ok := st.(*hotFolderStream)
	active := ok && s == d.active
	d.mu.Unlock()

	if !active {
		return models.Frame{}, NewCaptureError(KindNotStreaming, "grab", nil)
	}

	var (
		readErr error
	)

	timer := time.NewTimer(d.config.Timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return models.Frame{}, ctx.Err()

		case <-s.done:
			return models.Frame{}, NewCaptureError(KindNotStreaming, "grab", nil)

		case <-timer.C:
			if readErr != nil {
				return models.Frame{}, NewCaptureError(KindUnsupported, "grab", readErr)
			}

			return models.Frame{}, NewCaptureError(KindTimeout, "grab", fmt.Errorf("no image arrived in '%s' within %s", d.config.Dir, d.config.Timeout))

		case err := <-s.errs:
			return models.Frame{}, NewCaptureError(KindUnsupported, "grab", err)

		case path := <-s.paths:
			img, err := imgio.Open(path)
			if err != nil {
				// most likely still being written; the next write queues it again
				readErr = fmt.Errorf("error reading '%s': %w", path, err)
				d.config.Logger.Debug("hot folder image not readable yet", "path", path, "error", err)
				continue
			}

			frame, err := frameFromImage(img, s.facing, d.config.MirrorUser, d.config.Quality, d.config.Now())
			if err != nil {
				return models.Frame{}, NewCaptureError(KindUnsupported, "grab", err)
			}

			return frame, nil
		}
	}
}
