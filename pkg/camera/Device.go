package camera

import (
	"context"

	"github.com/adampresley/photostrip/pkg/models"
)

/*
Stream is a handle to an acquired camera feed. It is only valid for the
device that returned it.
*/
type Stream interface {
	FacingMode() models.FacingMode
	DeviceID() string
}

/*
Device is a camera that can be opened for a facing mode and asked for
still frames.
*/
type Device interface {
	StartStream(ctx context.Context, facing models.FacingMode, deviceID string) (Stream, error)
	StopStream(stream Stream) error
	GrabFrame(ctx context.Context, stream Stream) (models.Frame, error)
}

type stream struct {
	facing   models.FacingMode
	deviceID string
}

func (s *stream) FacingMode() models.FacingMode {
	return s.facing
}

func (s *stream) DeviceID() string {
	return s.deviceID
}
