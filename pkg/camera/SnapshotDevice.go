package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/adampresley/photostrip/pkg/models"
)

const (
	DefaultSnapshotTimeout  = 10 * time.Second
	DefaultSnapshotMaxBytes = 32 << 20
)

type SnapshotDeviceConfig struct {
	Client        *http.Client
	Logger        *slog.Logger
	MaxImageBytes int64
	MirrorUser    bool
	Now           func() time.Time
	Quality       int
	Timeout       time.Duration
	URLs          map[models.FacingMode]string
}

/*
SnapshotDevice reads stills from network cameras that publish a JPEG
snapshot URL. Each facing mode maps to its own URL.
*/
type SnapshotDevice struct {
	config SnapshotDeviceConfig

	mu     sync.Mutex
	active *snapshotStream
}

type snapshotStream struct {
	stream

	url string
}

func NewSnapshotDevice(config SnapshotDeviceConfig) *SnapshotDevice {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	if config.Now == nil {
		config.Now = time.Now
	}

	if config.Timeout <= 0 {
		config.Timeout = DefaultSnapshotTimeout
	}

	if config.Client == nil {
		config.Client = &http.Client{Timeout: config.Timeout}
	}

	if config.MaxImageBytes <= 0 {
		config.MaxImageBytes = DefaultSnapshotMaxBytes
	}

	return &SnapshotDevice{
		config: config,
	}
}

/*
StartStream probes the snapshot URL once so permission and availability
problems surface before the countdown begins.
*/
func (d *SnapshotDevice) StartStream(ctx context.Context, facing models.FacingMode, deviceID string) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active != nil {
		return nil, NewCaptureError(KindDeviceBusy, "start", fmt.Errorf("a %s stream is already open", d.active.facing))
	}

	url, ok := d.config.URLs[facing]
	if !ok || url == "" {
		return nil, NewCaptureError(KindNotFound, "start", fmt.Errorf("no snapshot camera configured for facing mode '%s'", facing))
	}

	if _, _, err := d.fetch(ctx, "start", url); err != nil {
		return nil, err
	}

	s := &snapshotStream{
		stream: stream{facing: facing, deviceID: deviceID},
		url:    url,
	}

	d.active = s
	d.config.Logger.Info("snapshot camera stream started", "url", url, "facing", facing)

	return s, nil
}

func (d *SnapshotDevice) StopStream(st Stream) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := st.(*snapshotStream)
	if !ok || s != d.active {
		return NewCaptureError(KindNotStreaming, "stop", nil)
	}

	d.active = nil
	return nil
}

func (d *SnapshotDevice) GrabFrame(ctx context.Context, st Stream) (models.Frame, error) {
	var (
		err         error
		body        []byte
		contentType string
		img         image.Image
	)

	d.mu.Lock()
	s, ok := st.(*snapshotStream)
	active := ok && s == d.active
	d.mu.Unlock()

	if !active {
		return models.Frame{}, NewCaptureError(KindNotStreaming, "grab", nil)
	}

	if body, contentType, err = d.fetch(ctx, "grab", s.url); err != nil {
		return models.Frame{}, err
	}

	capturedAt := d.config.Now()

	if d.config.MirrorUser && s.facing == models.FacingUser {
		if img, _, err = image.Decode(bytes.NewReader(body)); err != nil {
			return models.Frame{}, NewCaptureError(KindUnsupported, "grab", fmt.Errorf("error decoding snapshot: %w", err))
		}

		frame, err := frameFromImage(img, s.facing, true, d.config.Quality, capturedAt)
		if err != nil {
			return models.Frame{}, NewCaptureError(KindUnsupported, "grab", err)
		}

		return frame, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return models.Frame{}, NewCaptureError(KindUnsupported, "grab", fmt.Errorf("error reading snapshot header: %w", err))
	}

	return models.Frame{
		Data:        body,
		ContentType: contentType,
		CapturedAt:  capturedAt,
		Width:       cfg.Width,
		Height:      cfg.Height,
		FacingMode:  s.facing,
	}, nil
}

func (d *SnapshotDevice) fetch(ctx context.Context, op, url string) ([]byte, string, error) {
	var (
		err      error
		request  *http.Request
		response *http.Response
		body     []byte
	)

	ctx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	if request, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil); err != nil {
		return nil, "", NewCaptureError(KindNotFound, op, fmt.Errorf("invalid snapshot url '%s': %w", url, err))
	}

	if response, err = d.config.Client.Do(request); err != nil {
		if ctx.Err() != nil {
			return nil, "", NewCaptureError(KindTimeout, op, err)
		}

		return nil, "", NewCaptureError(KindNotFound, op, err)
	}

	defer response.Body.Close()

	switch response.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, "", NewCaptureError(KindPermissionDenied, op, fmt.Errorf("snapshot url returned %s", response.Status))
	case http.StatusNotFound:
		return nil, "", NewCaptureError(KindNotFound, op, fmt.Errorf("snapshot url returned %s", response.Status))
	case http.StatusLocked, http.StatusServiceUnavailable, http.StatusConflict:
		return nil, "", NewCaptureError(KindDeviceBusy, op, fmt.Errorf("snapshot url returned %s", response.Status))
	default:
		return nil, "", NewCaptureError(KindUnsupported, op, fmt.Errorf("snapshot url returned %s", response.Status))
	}

	mediaType, _, _ := mime.ParseMediaType(response.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, "", NewCaptureError(KindUnsupported, op, fmt.Errorf("snapshot url returned '%s', not an image", mediaType))
	}

	if body, err = io.ReadAll(io.LimitReader(response.Body, d.config.MaxImageBytes+1)); err != nil {
		return nil, "", NewCaptureError(KindNotFound, op, fmt.Errorf("error reading snapshot: %w", err))
	}

	if int64(len(body)) > d.config.MaxImageBytes {
		return nil, "", NewCaptureError(KindUnsupported, op, fmt.Errorf("snapshot is larger than %d bytes", d.config.MaxImageBytes))
	}

	return body, mediaType, nil
}
