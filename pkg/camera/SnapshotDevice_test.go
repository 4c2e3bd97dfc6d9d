package camera

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adampresley/photostrip/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotServer(t *testing.T, status int, contentType string, body []byte) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))

	t.Cleanup(server.Close)
	return server
}

func TestSnapshotDeviceGrabsFrames(t *testing.T) {
	body := jpegBytes(t, splitImage(64, 48))
	server := snapshotServer(t, http.StatusOK, "image/jpeg", body)

	device := NewSnapshotDevice(SnapshotDeviceConfig{
		URLs: map[models.FacingMode]string{models.FacingEnvironment: server.URL},
		Now:  fixedNow,
	})

	s, err := device.StartStream(context.Background(), models.FacingEnvironment, "")
	require.NoError(t, err)

	frame, err := device.GrabFrame(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, body, frame.Data)
	assert.Equal(t, "image/jpeg", frame.ContentType)
	assert.Equal(t, 64, frame.Width)
	assert.Equal(t, 48, frame.Height)
}

func TestSnapshotDeviceMirrorsUserFacing(t *testing.T) {
	server := snapshotServer(t, http.StatusOK, "image/jpeg", jpegBytes(t, splitImage(40, 20)))

	device := NewSnapshotDevice(SnapshotDeviceConfig{
		URLs:       map[models.FacingMode]string{models.FacingUser: server.URL},
		MirrorUser: true,
	})

	s, err := device.StartStream(context.Background(), models.FacingUser, "")
	require.NoError(t, err)

	frame, err := device.GrabFrame(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, isRedAt(t, frame.Data, 35, 10))
}

func TestSnapshotDeviceStatusMapping(t *testing.T) {
	tests := []struct {
		status      int
		contentType string
		kind        ErrorKind
	}{
		{status: http.StatusForbidden, contentType: "text/plain", kind: KindPermissionDenied},
		{status: http.StatusUnauthorized, contentType: "text/plain", kind: KindPermissionDenied},
		{status: http.StatusNotFound, contentType: "text/plain", kind: KindNotFound},
		{status: http.StatusServiceUnavailable, contentType: "text/plain", kind: KindDeviceBusy},
		{status: http.StatusOK, contentType: "text/html", kind: KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status)+" "+tt.contentType, func(t *testing.T) {
			server := snapshotServer(t, tt.status, tt.contentType, []byte("nope"))

			device := NewSnapshotDevice(SnapshotDeviceConfig{
				URLs: map[models.FacingMode]string{models.FacingUser: server.URL},
			})

			_, err := device.StartStream(context.Background(), models.FacingUser, "")

			captureErr, ok := AsCaptureError(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, captureErr.Kind)
		})
	}
}

func TestSnapshotDeviceUnknownFacingMode(t *testing.T) {
	device := NewSnapshotDevice(SnapshotDeviceConfig{})

	_, err := device.StartStream(context.Background(), models.FacingEnvironment, "")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestErrorKindStrings(t *testing.T) {
	assert.Equal(t, "permission-denied", KindPermissionDenied.String())
	assert.Equal(t, "device-busy", KindDeviceBusy.String())

	err := NewCaptureError(KindNotFound, "start", nil)
	assert.Equal(t, "camera start: not-found", err.Error())
}

func TestSnapshotDeviceRejectsOversizedImage(t *testing.T) {
	body := jpegBytes(t, splitImage(64, 48))
	server := snapshotServer(t, http.StatusOK, "image/jpeg", body)

	device := NewSnapshotDevice(SnapshotDeviceConfig{
		MaxImageBytes: int64(len(body) - 1),
		URLs:          map[models.FacingMode]string{models.FacingEnvironment: server.URL},
	})

	_, err := device.StartStream(context.Background(), models.FacingEnvironment, "")
	assert.True(t, IsKind(err, KindUnsupported))

	device = NewSnapshotDevice(SnapshotDeviceConfig{
		MaxImageBytes: int64(len(body)),
		URLs:          map[models.FacingMode]string{models.FacingEnvironment: server.URL},
	})

	_, err = device.StartStream(context.Background(), models.FacingEnvironment, "")
	assert.NoError(t, err)
}
